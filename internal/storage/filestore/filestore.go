// Пакет filestore — файловое хранилище принятых PDF.
// Обеспечивает потоковую запись с ограничением размера и проверкой
// сигнатуры содержимого, проверку существования имени и удаление.
// Файлы хранятся в корне хранилища под точным загруженным именем.
package filestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ChunkSize — размер буфера чтения входящего потока (1 MB).
const ChunkSize = 1024 * 1024

// PDFSignature — первые байты любого PDF-документа.
var PDFSignature = []byte("%PDF")

// Ошибки потоковой записи.
var (
	// ErrTooLarge — поток превысил допустимый размер
	ErrTooLarge = errors.New("превышен максимальный размер файла")
	// ErrInvalidSignature — содержимое не начинается с сигнатуры PDF
	ErrInvalidSignature = errors.New("содержимое не является PDF")
	// ErrStreamRead — ошибка чтения входящего потока (обрыв соединения, таймаут)
	ErrStreamRead = errors.New("ошибка чтения входящего потока")
)

// FileStore — управление файлами в корне хранилища.
type FileStore struct {
	// dir — корневая директория хранения (IG_STORAGE_DIR), абсолютный путь
	dir string
}

// SaveResult — результат потоковой записи.
type SaveResult struct {
	// FullPath — абсолютный путь сохранённого файла
	FullPath string
	// Size — количество записанных байт
	Size int64
	// Checksum — SHA-256 содержимого
	Checksum string
	// SignatureValid — сигнатура %PDF подтверждена
	SignatureValid bool
}

// New создаёт FileStore. Создаёт директорию, если она не существует.
func New(dir string) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить абсолютный путь %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию хранилища %s: %w", abs, err)
	}

	return &FileStore{dir: abs}, nil
}

// Dir возвращает корневую директорию хранилища.
func (fs *FileStore) Dir() string {
	return fs.dir
}

// FullPath возвращает абсолютный путь файла с указанным именем.
func (fs *FileStore) FullPath(name string) string {
	return filepath.Join(fs.dir, name)
}

// TempPath возвращает уникальный путь временного файла для загрузки name.
// Суффикс .tmp не может совпасть с допустимым именем (*.pdf).
func (fs *FileStore) TempPath(name string) string {
	return filepath.Join(fs.dir, fmt.Sprintf("%s.%s.tmp", name, uuid.New().String()[:8]))
}

// Exists проверяет, существует ли в хранилище объект с точно таким именем.
func (fs *FileStore) Exists(name string) (bool, error) {
	_, err := os.Lstat(fs.FullPath(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("ошибка проверки файла %s: %w", name, err)
}

// SaveStream читает поток порциями и записывает его во временный файл
// tmpPath, затем переименовывает в итоговый путь name.
//
// Ограничения проверяются во время записи:
//   - как только суммарный размер превысит maxBytes, запись прекращается,
//     временный файл удаляется, возвращается ErrTooLarge;
//   - сигнатура %PDF сверяется по первой порции; если первая порция короче
//     сигнатуры, после записи первые байты перечитываются с диска;
//   - при несовпадении сигнатуры файл удаляется, возвращается ErrInvalidSignature.
//
// При любой ошибке временный файл не остаётся на диске.
func (fs *FileStore) SaveStream(ctx context.Context, r io.Reader, name, tmpPath string, maxBytes int64) (*SaveResult, error) {
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	abort := func(cause error) (*SaveResult, error) {
		f.Close()
		_ = RemoveQuiet(tmpPath)
		return nil, cause
	}

	hasher := sha256.New()
	buf := make([]byte, ChunkSize)

	var (
		written      int64
		seenFirst    bool
		headVerified bool
		valid        bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return abort(fmt.Errorf("%w: %w", ErrStreamRead, err))
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			chunk := buf[:n]

			if !seenFirst {
				seenFirst = true
				if n >= len(PDFSignature) {
					headVerified = true
					valid = bytes.Equal(chunk[:len(PDFSignature)], PDFSignature)
				}
			}

			written += int64(n)
			if written > maxBytes {
				return abort(ErrTooLarge)
			}

			if _, err := f.Write(chunk); err != nil {
				return abort(fmt.Errorf("ошибка записи данных: %w", err))
			}
			hasher.Write(chunk)
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return abort(fmt.Errorf("%w: %w", ErrStreamRead, readErr))
		}
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		return abort(fmt.Errorf("ошибка fsync: %w", err))
	}
	if err := f.Close(); err != nil {
		_ = RemoveQuiet(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	// Первая порция короче сигнатуры — сверяем по содержимому на диске
	if !headVerified {
		valid, err = hasSignature(tmpPath)
		if err != nil {
			_ = RemoveQuiet(tmpPath)
			return nil, err
		}
	}

	if !valid {
		_ = RemoveQuiet(tmpPath)
		return nil, ErrInvalidSignature
	}

	fullPath := fs.FullPath(name)
	if err := os.Rename(tmpPath, fullPath); err != nil {
		_ = RemoveQuiet(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &SaveResult{
		FullPath:       fullPath,
		Size:           written,
		Checksum:       hex.EncodeToString(hasher.Sum(nil)),
		SignatureValid: true,
	}, nil
}

// DeleteFile удаляет файл с указанным именем из хранилища.
// Возвращает nil, если файл уже не существует.
func (fs *FileStore) DeleteFile(name string) error {
	return RemoveQuiet(fs.FullPath(name))
}

// RemoveQuiet удаляет файл по абсолютному пути; отсутствие файла не ошибка.
func RemoveQuiet(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления файла %s: %w", path, err)
	}
	return nil
}

// hasSignature перечитывает первые байты файла и сверяет их с PDFSignature.
func hasSignature(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("ошибка открытия файла %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, len(PDFSignature))
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, fmt.Errorf("ошибка чтения заголовка %s: %w", path, err)
	}

	return n == len(PDFSignature) && bytes.Equal(head, PDFSignature), nil
}

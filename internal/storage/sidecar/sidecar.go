// Пакет sidecar — запись и чтение файлов метаданных загрузок.
// Каждый принятый PDF имеет текстовый sidecar-файл <file_name>.txt
// в директории метаданных со строками key=value:
//
//	unique_id=<uuid>
//	file_name=<имя>
//	storage_path=<абсолютный путь>
//	uploaded_at=<RFC 3339, UTC>
//
// Значения не экранируются. Строка разбирается по первому '=',
// поэтому '=' внутри значения допустим; перевод строки в значении
// невозможен, так как имя приходит из HTTP-заголовка.
package sidecar

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Hootone-health/Hootone-RAG/internal/domain/model"
	"github.com/Hootone-health/Hootone-RAG/internal/storage/atomicfile"
)

// Suffix — суффикс sidecar-файла.
const Suffix = ".txt"

// Ключи sidecar-файла.
const (
	KeyUniqueID    = "unique_id"
	KeyFileName    = "file_name"
	KeyStoragePath = "storage_path"
	KeyUploadedAt  = "uploaded_at"
)

// legacyTimeLayout — формат времени без часового пояса (трактуется как UTC).
const legacyTimeLayout = "2006-01-02T15:04:05.999999999"

// ErrMissingKey — в sidecar-файле отсутствует обязательный ключ.
var ErrMissingKey = errors.New("отсутствует обязательный ключ")

// Store — директория sidecar-файлов.
type Store struct {
	dir string
}

// New создаёт Store. Создаёт директорию, если она не существует.
func New(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить абсолютный путь %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию метаданных %s: %w", abs, err)
	}
	return &Store{dir: abs}, nil
}

// Dir возвращает директорию метаданных.
func (s *Store) Dir() string {
	return s.dir
}

// Path возвращает путь sidecar-файла для загруженного файла fileName.
// Пример: "sample.pdf" → "<dir>/sample.pdf.txt"
func (s *Store) Path(fileName string) string {
	return filepath.Join(s.dir, fileName+Suffix)
}

// Write атомарно записывает sidecar-файл для meta.
func (s *Store) Write(meta *model.FileMetadata) (string, error) {
	path := s.Path(meta.FileName)
	if err := atomicfile.Write(path, Encode(meta)); err != nil {
		return "", fmt.Errorf("ошибка записи sidecar %s: %w", path, err)
	}
	return path, nil
}

// Delete удаляет sidecar-файл для fileName. Отсутствие файла не ошибка.
func (s *Store) Delete(fileName string) error {
	err := os.Remove(s.Path(fileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления sidecar %s: %w", fileName, err)
	}
	return nil
}

// Read читает и разбирает sidecar-файл по пути path.
func Read(path string) (model.MetadataRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.MetadataRecord{}, fmt.Errorf("ошибка чтения sidecar %s: %w", path, err)
	}
	rec, err := Parse(data)
	if err != nil {
		return model.MetadataRecord{}, fmt.Errorf("sidecar %s: %w", path, err)
	}
	return rec, nil
}

// LoadAll сканирует директорию и возвращает все корректные записи,
// отсортированные по имени файла. Нечитаемые и неполные файлы
// пропускаются с предупреждением. Отсутствующая директория даёт
// пустой результат.
func (s *Store) LoadAll(logger *slog.Logger) ([]model.MetadataRecord, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+Suffix))
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования директории %s: %w", s.dir, err)
	}
	sort.Strings(matches)

	records := make([]model.MetadataRecord, 0, len(matches))
	for _, path := range matches {
		rec, err := Read(path)
		if err != nil {
			logger.Warn("Пропущен некорректный sidecar-файл",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// Encode сериализует метаданные в формат key=value.
func Encode(meta *model.FileMetadata) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s=%s\n", KeyUniqueID, meta.UniqueID.String())
	fmt.Fprintf(&b, "%s=%s\n", KeyFileName, meta.FileName)
	fmt.Fprintf(&b, "%s=%s\n", KeyStoragePath, meta.StoragePath)
	fmt.Fprintf(&b, "%s=%s\n", KeyUploadedAt, meta.UploadedAt.UTC().Format(time.RFC3339Nano))
	return b.Bytes()
}

// Parse разбирает содержимое sidecar-файла. Пустые строки и строки
// без '=' игнорируются, неизвестные ключи допускаются.
func Parse(data []byte) (model.MetadataRecord, error) {
	values := make(map[string]string, 4)

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return model.MetadataRecord{}, fmt.Errorf("ошибка разбора: %w", err)
	}

	for _, key := range []string{KeyUniqueID, KeyFileName, KeyStoragePath, KeyUploadedAt} {
		if values[key] == "" {
			return model.MetadataRecord{}, fmt.Errorf("%w: %s", ErrMissingKey, key)
		}
	}

	id, err := uuid.Parse(values[KeyUniqueID])
	if err != nil {
		return model.MetadataRecord{}, fmt.Errorf("некорректный %s: %w", KeyUniqueID, err)
	}

	uploadedAt, err := parseTime(values[KeyUploadedAt])
	if err != nil {
		return model.MetadataRecord{}, fmt.Errorf("некорректный %s: %w", KeyUploadedAt, err)
	}

	return model.MetadataRecord{
		UniqueID:    id.String(),
		FileName:    values[KeyFileName],
		StoragePath: values[KeyStoragePath],
		UploadedAt:  uploadedAt,
	}, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation(legacyTimeLayout, s, time.UTC)
}

// validate.go — проверки запроса на загрузку до чтения тела.
// Все проверки без побочных эффектов; вызываются по порядку,
// первая же ошибка прерывает загрузку.
package service

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"slices"
	"strings"
)

// Ошибки загрузки. Обработчик сопоставляет их с HTTP-статусами.
var (
	// ErrMissingFileName — не передан заголовок X-File-Name
	ErrMissingFileName = errors.New("не указано имя файла")
	// ErrInvalidFileName — имя выходит за пределы корня хранилища
	ErrInvalidFileName = errors.New("недопустимое имя файла")
	// ErrUnsupportedType — расширение или Content-Type не PDF
	ErrUnsupportedType = errors.New("допускаются только PDF-файлы")
	// ErrMissingContentType — Content-Type не передан, а расширение не .pdf
	ErrMissingContentType = fmt.Errorf("%w: не передан Content-Type", ErrUnsupportedType)
	// ErrTooLarge — объявленный или фактический размер превышает предел
	ErrTooLarge = errors.New("превышен максимальный размер файла")
	// ErrDuplicate — файл с таким именем уже существует
	ErrDuplicate = errors.New("файл с таким именем уже существует")
	// ErrInvalidSignature — содержимое не начинается с %PDF
	ErrInvalidSignature = errors.New("содержимое не является PDF")
	// ErrUploadTimeout — тело не получено за IG_UPLOAD_TIMEOUT
	ErrUploadTimeout = errors.New("истекло время загрузки")
)

// Constraints — ограничения загрузки, задаются один раз при старте.
type Constraints struct {
	// MaxSizeBytes — предел размера файла
	MaxSizeBytes int64
	// AllowedExtensions — допустимые расширения (в нижнем регистре)
	AllowedExtensions []string
	// AllowedMIMETypes — допустимые значения Content-Type
	AllowedMIMETypes []string
}

// DefaultConstraints возвращает ограничения для PDF с указанным пределом.
func DefaultConstraints(maxSize int64) Constraints {
	return Constraints{
		MaxSizeBytes:      maxSize,
		AllowedExtensions: []string{".pdf"},
		AllowedMIMETypes:  []string{"application/pdf", "application/x-pdf"},
	}
}

// Namespace — пространство имён хранилища для проверки дубликатов.
type Namespace interface {
	Exists(name string) (bool, error)
}

// ValidateFileName проверяет, что имя задано и указывает на файл
// непосредственно в корне хранилища. Перевод строки запрещён: он
// сломал бы строку file_name в sidecar.
func ValidateFileName(name string) error {
	if name == "" {
		return ErrMissingFileName
	}
	if strings.ContainsAny(name, "/\\\x00\r\n") || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return nil
}

// ValidateNameAndType проверяет расширение (без учёта регистра) и,
// если Content-Type передан, его допустимость. Без Content-Type
// решает только расширение.
func (c Constraints) ValidateNameAndType(name, contentType string) error {
	ext := strings.ToLower(filepath.Ext(name))
	declared := strings.TrimSpace(contentType) != ""

	if !slices.Contains(c.AllowedExtensions, ext) {
		if !declared {
			return fmt.Errorf("%w: расширение %q", ErrMissingContentType, ext)
		}
		return fmt.Errorf("%w: расширение %q", ErrUnsupportedType, ext)
	}

	if !declared {
		return nil
	}
	if !slices.Contains(c.AllowedMIMETypes, mediaType(contentType)) {
		return fmt.Errorf("%w: Content-Type %q", ErrUnsupportedType, contentType)
	}
	return nil
}

// ValidateDeclaredLength отклоняет запрос, если объявленная длина больше
// предела. Отрицательное значение означает «длина неизвестна»; предел
// всё равно соблюдается при потоковой записи.
func (c Constraints) ValidateDeclaredLength(n int64) error {
	if n > c.MaxSizeBytes {
		return fmt.Errorf("%w: объявлено %d байт, предел %d", ErrTooLarge, n, c.MaxSizeBytes)
	}
	return nil
}

// CheckDuplicate проверяет отсутствие объекта с точно таким именем.
func CheckDuplicate(ns Namespace, name string) error {
	exists, err := ns.Exists(name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	return nil
}

// mediaType возвращает Content-Type без параметров в нижнем регистре.
func mediaType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

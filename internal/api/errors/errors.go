// Пакет errors — ответы с ошибками в едином формате шлюза.
// Формат: {"message": "...", "status_code": N}; ответ 500 дополнительно
// содержит поле detail. Все HTTP-ответы с ошибками пишутся через WriteError.
package errors //nolint:revive // имя пакета совпадает со stdlib, импортируется как apierrors

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Сообщения клиенту.
const (
	MsgServerBusy       = "Server is Busy"
	MsgMissingFileName  = "Missing file name header: x-file-name"
	MsgInvalidFileName  = "Invalid file name"
	MsgOnlyPDF          = "Only PDF files are allowed"
	MsgNoContentType    = "Missing content-type header. Only PDF files are allowed"
	MsgFileExists       = "File already Exist!"
	MsgInvalidSignature = "File content is not a valid PDF file"
	MsgUploadTimeout    = "Upload timed out"
	MsgInternal         = "Internal Server Error"

	// DetailRedacted — detail ответа 500 без подробной диагностики
	DetailRedacted = "An unexpected error occurred"
)

// errorBody — тело ответа ошибки.
type errorBody struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	Detail     string `json:"detail,omitempty"`
}

// WriteError записывает ответ ошибки. status_code в теле всегда
// совпадает со статусом HTTP-ответа.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	writeBody(w, errorBody{Message: message, StatusCode: statusCode})
}

func writeBody(w http.ResponseWriter, body errorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.StatusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// --- Конструкторы для типичных ошибок ---

// BadRequest — 400 некорректный запрос.
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	WriteError(w, http.StatusUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

// RequestTimeout — 408 тело запроса не получено за отведённое время.
func RequestTimeout(w http.ResponseWriter) {
	w.Header().Set("Connection", "close")
	WriteError(w, http.StatusRequestTimeout, MsgUploadTimeout)
}

// Conflict — 409 файл с таким именем уже существует.
func Conflict(w http.ResponseWriter) {
	WriteError(w, http.StatusConflict, MsgFileExists)
}

// PayloadTooLarge — 413 превышен предел размера, maxMB — предел в мегабайтах.
func PayloadTooLarge(w http.ResponseWriter, maxMB int64) {
	w.Header().Set("Connection", "close")
	WriteError(w, http.StatusRequestEntityTooLarge, TooLargeMessage(maxMB))
}

// TooLargeMessage возвращает текст ответа 413.
func TooLargeMessage(maxMB int64) string {
	return "Cannot be Upload! Max File size is " + strconv.FormatInt(maxMB, 10) + " MB"
}

// UnsupportedMediaType — 415 недопустимый тип файла или содержимого.
func UnsupportedMediaType(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnsupportedMediaType, message)
}

// ServiceBusy — 503 ведро допуска заполнено.
func ServiceBusy(w http.ResponseWriter) {
	WriteError(w, http.StatusServiceUnavailable, MsgServerBusy)
}

// ServiceUnavailable — 503 с произвольным сообщением.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusServiceUnavailable, message)
}

// InternalError — 500 внутренняя ошибка. Текст err попадает в detail
// только при verbose; иначе detail содержит обобщённое сообщение.
func InternalError(w http.ResponseWriter, err error, verbose bool) {
	detail := DetailRedacted
	if verbose && err != nil {
		detail = err.Error()
	}
	writeBody(w, errorBody{
		Message:    MsgInternal,
		StatusCode: http.StatusInternalServerError,
		Detail:     detail,
	})
}

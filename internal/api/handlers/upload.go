// upload.go — POST /upload/pdf: потоковый приём PDF.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/Hootone-health/Hootone-RAG/internal/api/errors"
	"github.com/Hootone-health/Hootone-RAG/internal/api/generated"
	"github.com/Hootone-health/Hootone-RAG/internal/api/middleware"
	"github.com/Hootone-health/Hootone-RAG/internal/service"
)

// Uploader — сервис приёма файлов.
type Uploader interface {
	Upload(ctx context.Context, params service.UploadParams) (*service.UploadResult, error)
}

// UploadHandler — обработчик POST /upload/pdf.
type UploadHandler struct {
	uploads       Uploader
	maxUploadMB   int64
	uploadTimeout time.Duration
	verboseErrors bool
	logger        *slog.Logger
}

// NewUploadHandler создаёт обработчик загрузки.
// uploadTimeout — предел времени чтения тела (0 — без ограничения).
func NewUploadHandler(uploads Uploader, maxUploadMB int64, uploadTimeout time.Duration, verboseErrors bool, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		uploads:       uploads,
		maxUploadMB:   maxUploadMB,
		uploadTimeout: uploadTimeout,
		verboseErrors: verboseErrors,
		logger:        logger.With(slog.String("component", "upload_handler")),
	}
}

// UploadPDF обрабатывает POST /upload/pdf.
// Тело запроса — сырой поток файла; имя передаётся в X-File-Name.
func (h *UploadHandler) UploadPDF(w http.ResponseWriter, r *http.Request, apiParams generated.UploadPdfParams) {
	var fileName string
	if apiParams.XFileName != nil {
		fileName = *apiParams.XFileName
	}

	params := service.UploadParams{
		Body:           r.Body,
		FileName:       fileName,
		ContentType:    r.Header.Get("Content-Type"),
		DeclaredLength: r.ContentLength,
		UploadedBy:     middleware.SubjectFromContext(r.Context()),
	}

	if h.uploadTimeout > 0 {
		params.Deadline = time.Now().Add(h.uploadTimeout)

		// Дедлайн на соединении прерывает заблокированное чтение тела
		rc := http.NewResponseController(w)
		if err := rc.SetReadDeadline(params.Deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
			h.logger.Warn("Не удалось установить дедлайн чтения", slog.String("error", err.Error()))
		}
		defer func() { _ = rc.SetReadDeadline(time.Time{}) }()
	}

	result, err := h.uploads.Upload(r.Context(), params)
	if err != nil {
		h.writeUploadError(w, fileName, err)
		return
	}

	writeJSON(w, http.StatusCreated, generated.UploadResponse{
		Message:        "Upload successful",
		FileName:       result.Metadata.FileName,
		UniqueId:       result.Metadata.UniqueID,
		StoredAt:       result.Metadata.StoragePath,
		DbRowsInserted: result.RowsInserted,
	})
}

// writeUploadError сопоставляет ошибку сервиса со статусом ответа.
func (h *UploadHandler) writeUploadError(w http.ResponseWriter, fileName string, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFileName):
		apierrors.BadRequest(w, apierrors.MsgMissingFileName)
	case errors.Is(err, service.ErrInvalidFileName):
		apierrors.BadRequest(w, apierrors.MsgInvalidFileName)
	case errors.Is(err, service.ErrMissingContentType):
		apierrors.UnsupportedMediaType(w, apierrors.MsgNoContentType)
	case errors.Is(err, service.ErrUnsupportedType):
		apierrors.UnsupportedMediaType(w, apierrors.MsgOnlyPDF)
	case errors.Is(err, service.ErrTooLarge):
		apierrors.PayloadTooLarge(w, h.maxUploadMB)
	case errors.Is(err, service.ErrDuplicate):
		apierrors.Conflict(w)
	case errors.Is(err, service.ErrInvalidSignature):
		apierrors.UnsupportedMediaType(w, apierrors.MsgInvalidSignature)
	case errors.Is(err, service.ErrUploadTimeout):
		apierrors.RequestTimeout(w)
	default:
		h.logger.Error("Ошибка загрузки файла",
			slog.String("file_name", fileName),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, err, h.verboseErrors)
	}
}

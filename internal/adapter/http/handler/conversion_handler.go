package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/plastinin/stepconverter/internal/domain"
	"github.com/plastinin/stepconverter/internal/usecase"
	"go.uber.org/zap"
)

// ConversionHandler синхронная конвертация STEP -> JSON
type ConversionHandler struct {
	pipeline       usecase.Converting
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewConversionHandler создаёт новый ConversionHandler
func NewConversionHandler(pipeline usecase.Converting, maxUploadBytes int64, logger *zap.Logger) *ConversionHandler {
	return &ConversionHandler{
		pipeline:       pipeline,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Convert принимает файл и отдаёт JSON конвертера без изменений
// POST /convert
// POST /api/convert-step
// Content-Type: multipart/form-data
// - file: STEP файл
func (h *ConversionHandler) Convert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var input usecase.ConvertInput

	// Без файла запрос всё равно проходит через конвейер и получает upload_error
	part, err := h.filePart(r)
	switch {
	case err == nil:
		defer part.Close()
		input = usecase.ConvertInput{FileName: part.FileName(), FileReader: part}
	case isBodyTooLarge(err):
		respondError(w, h.logger, http.StatusRequestEntityTooLarge, "file_too_large", "File exceeds upload limit")
		return
	default:
		h.logger.Debug("No file in request", zap.Error(err))
	}

	result, err := h.pipeline.Convert(r.Context(), input)
	if err != nil {
		if isBodyTooLarge(err) {
			respondError(w, h.logger, http.StatusRequestEntityTooLarge, "file_too_large", "File exceeds upload limit")
			return
		}
		respondError(w, h.logger, http.StatusInternalServerError, domain.ErrorCode(err), domain.PublicMessage(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Document); err != nil {
		h.logger.Warn("Failed to write conversion result",
			zap.String("job_id", result.JobID.String()),
			zap.Error(err),
		)
	}
}

func (h *ConversionHandler) filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	return nextFilePart(mr)
}

package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/plastinin/stepconverter/internal/adapter/http/dto"
	"go.uber.org/zap"
)

// fileField имя поля формы с загружаемым файлом
const fileField = "file"

var errNoFilePart = errors.New("multipart form has no file part")

// respondJSON отправляет JSON ответ
func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError отправляет ответ с ошибкой
func respondError(w http.ResponseWriter, logger *zap.Logger, status int, errCode string, message string) {
	respondJSON(w, logger, status, dto.NewErrorResponse(errCode, message))
}

// decodeJSON читает тело запроса в v, лишние поля запрещены
func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// nextFilePart пропускает поля формы до части с файлом.
// Тело не буферизуется: часть читается потоком прямо из запроса.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errNoFilePart
		}
		if err != nil {
			return nil, err
		}

		if part.FormName() == fileField && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

// isBodyTooLarge сообщает, что сработал лимит MaxBytesReader
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

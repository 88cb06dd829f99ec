package handler

import (
	"net/http"

	"github.com/plastinin/stepconverter/internal/adapter/http/dto"
	"go.uber.org/zap"
)

// HealthHandler обработчик health check запросов
type HealthHandler struct {
	logger *zap.Logger
}

// NewHealthHandler создаёт новый HealthHandler
func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

// Check проверяет состояние сервиса
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, dto.StatusResponse{Status: "ok"})
}

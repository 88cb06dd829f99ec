package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/plastinin/stepconverter/internal/adapter/http/dto"
	"github.com/plastinin/stepconverter/internal/domain"
	"github.com/plastinin/stepconverter/internal/usecase"
	"go.uber.org/zap"
)

// TaskService то, что TaskHandler ждёт от слоя use case
type TaskService interface {
	Create(ctx context.Context, input usecase.CreateTaskInput) (*domain.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	List(ctx context.Context, filter domain.TaskFilter, pagination domain.Pagination) (*domain.TaskListResult, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskHandler обработчик HTTP запросов для асинхронных задач
type TaskHandler struct {
	tasks          TaskService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewTaskHandler создаёт новый TaskHandler
func NewTaskHandler(tasks TaskService, maxUploadBytes int64, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:          tasks,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Create ставит файл в очередь на конвертацию
// POST /api/v1/tasks
// Content-Type: multipart/form-data
// - file: STEP файл
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	mr, err := r.MultipartReader()
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "file_required", "Expected multipart/form-data with a file field")
		return
	}

	part, err := nextFilePart(mr)
	if err != nil {
		switch {
		case isBodyTooLarge(err):
			respondError(w, h.logger, http.StatusRequestEntityTooLarge, "file_too_large", "File exceeds upload limit")
		case errors.Is(err, errNoFilePart):
			respondError(w, h.logger, http.StatusBadRequest, "file_required", "File is required")
		default:
			h.logger.Warn("Failed to read multipart form", zap.Error(err))
			respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Failed to parse form data")
		}
		return
	}
	defer part.Close()

	// Размер части заранее неизвестен, minio загрузит поток по частям
	task, err := h.tasks.Create(r.Context(), usecase.CreateTaskInput{
		FileName:   part.FileName(),
		FileSize:   -1,
		FileReader: part,
	})
	if err != nil {
		if isBodyTooLarge(err) {
			respondError(w, h.logger, http.StatusRequestEntityTooLarge, "file_too_large", "File exceeds upload limit")
			return
		}
		h.logger.Error("Failed to create task", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to create task")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, dto.TaskFromDomain(task))
}

// GetByID возвращает задачу по ID
// GET /api/v1/tasks/{id}
func (h *TaskHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_id", "Invalid task ID format")
		return
	}

	task, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "not_found", "Task not found")
			return
		}
		h.logger.Error("Failed to get task", zap.String("task_id", idStr), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to get task")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dto.TaskFromDomain(task))
}

// List возвращает список задач
// GET /api/v1/tasks?page=1&page_size=20&status=pending
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	pagination := domain.NewPagination(page, pageSize)

	filter := domain.TaskFilter{}
	if statusStr := query.Get("status"); statusStr != "" {
		status := domain.TaskStatus(statusStr)
		if !status.IsValid() {
			respondError(w, h.logger, http.StatusBadRequest, "invalid_status", "Unknown task status")
			return
		}
		filter.Status = &status
	}

	result, err := h.tasks.List(r.Context(), filter, pagination)
	if err != nil {
		h.logger.Error("Failed to list tasks", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to list tasks")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, dto.TaskListFromDomain(result))
}

// Delete удаляет задачу
// DELETE /api/v1/tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_id", "Invalid task ID format")
		return
	}

	if err := h.tasks.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "not_found", "Task not found")
			return
		}
		h.logger.Error("Failed to delete task", zap.String("task_id", idStr), zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

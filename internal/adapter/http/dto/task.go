package dto

import (
	"encoding/json"
	"time"

	"github.com/plastinin/stepconverter/internal/domain"
)

// TaskResponse ответ с информацией о задаче
type TaskResponse struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	FileName    string          `json:"file_name"`
	FileSize    int64           `json:"file_size"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   string          `json:"error_code,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// TaskFromDomain конвертирует доменную модель в DTO
func TaskFromDomain(task *domain.Task) *TaskResponse {
	return &TaskResponse{
		ID:          task.ID.String(),
		Status:      task.Status.String(),
		FileName:    task.FileName,
		FileSize:    task.FileSize,
		Result:      task.Result,
		ErrorCode:   task.ErrorCode,
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		CompletedAt: task.CompletedAt,
	}
}

// TaskListResponse ответ со списком задач
type TaskListResponse struct {
	Tasks      []*TaskResponse `json:"tasks"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// TaskListFromDomain конвертирует результат списка в DTO
func TaskListFromDomain(result *domain.TaskListResult) *TaskListResponse {
	tasks := make([]*TaskResponse, len(result.Tasks))
	for i, task := range result.Tasks {
		tasks[i] = TaskFromDomain(task)
	}

	return &TaskListResponse{
		Tasks:      tasks,
		Total:      result.Total,
		Page:       result.Pagination.Page,
		PageSize:   result.Pagination.PageSize,
		TotalPages: result.Pagination.TotalPages(result.Total),
	}
}

package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Ошибки задач
var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrEmptyFileKey      = errors.New("file key cannot be empty")
)

// Task асинхронная задача конвертации, хранится в БД
type Task struct {
	ID          uuid.UUID       `json:"id"`
	Status      TaskStatus      `json:"status"`
	FileKey     string          `json:"file_key"`  // Ключ файла в S3
	FileName    string          `json:"file_name"` // Оригинальное имя файла
	FileSize    int64           `json:"file_size"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   string          `json:"error_code,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// NewTask создаёт новую задачу
func NewTask(fileKey, fileName string, fileSize int64) (*Task, error) {
	if fileKey == "" {
		return nil, ErrEmptyFileKey
	}

	now := time.Now()

	return &Task{
		ID:        uuid.New(),
		Status:    TaskStatusPending,
		FileKey:   fileKey,
		FileName:  fileName,
		FileSize:  fileSize,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkProcessing переводит задачу в статус "в обработке".
// Повторная доставка из очереди застаёт задачу уже в processing.
func (t *Task) MarkProcessing() error {
	if t.Status != TaskStatusPending && t.Status != TaskStatusProcessing {
		return ErrInvalidTaskStatus
	}
	t.Status = TaskStatusProcessing
	t.UpdatedAt = time.Now()
	return nil
}

// MarkCompleted сохраняет результат конвертации
func (t *Task) MarkCompleted(result json.RawMessage) error {
	if t.Status != TaskStatusProcessing {
		return ErrInvalidTaskStatus
	}
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.Result = result
	t.UpdatedAt = now
	t.CompletedAt = &now
	return nil
}

// MarkFailed переводит задачу в статус "ошибка"
func (t *Task) MarkFailed(code, errMsg string) error {
	if t.Status != TaskStatusProcessing && t.Status != TaskStatusPending {
		return ErrInvalidTaskStatus
	}
	now := time.Now()
	t.Status = TaskStatusFailed
	t.ErrorCode = code
	t.Error = errMsg
	t.UpdatedAt = now
	t.CompletedAt = &now
	return nil
}

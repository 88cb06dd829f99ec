package usecase

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/plastinin/stepconverter/internal/domain"
)

// StagingArea временные файлы конвейера
type StagingArea interface {
	NewJob(fileName string) (*domain.ConversionJob, error)
	Stage(job *domain.ConversionJob, r io.Reader) (int64, error)
	ReadOutput(path string) ([]byte, error)
	Remove(path string) error
}

// Converter внешний конвертер STEP -> JSON
type Converter interface {
	Run(ctx context.Context, inputPath, outputPath string) (*domain.RunResult, error)
}

// Converting интерфейс конвейера для тех, кто его только вызывает
type Converting interface {
	Convert(ctx context.Context, input ConvertInput) (*domain.ConversionResult, error)
}

// UserRepository хранилище пользователей
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// PasswordHasher хеширование паролей
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TaskRepository хранилище асинхронных задач
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter domain.TaskFilter, pagination domain.Pagination) (*domain.TaskListResult, error)
}

// FileStorage файловое хранилище (S3)
type FileStorage interface {
	Upload(ctx context.Context, ext string, reader io.Reader, size int64) (fileKey string, err error)
	Download(ctx context.Context, fileKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, fileKey string) error
}

// TaskQueue очередь задач
type TaskQueue interface {
	Enqueue(ctx context.Context, taskID uuid.UUID) error
}

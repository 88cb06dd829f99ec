package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/plastinin/stepconverter/internal/domain"
	"go.uber.org/zap"
)

// TaskUseCase асинхронные задачи конвертации
type TaskUseCase struct {
	taskRepo    TaskRepository
	fileStorage FileStorage
	taskQueue   TaskQueue
	logger      *zap.Logger
}

// NewTaskUseCase создаёт новый экземпляр TaskUseCase
func NewTaskUseCase(
	taskRepo TaskRepository,
	fileStorage FileStorage,
	taskQueue TaskQueue,
	logger *zap.Logger,
) *TaskUseCase {
	return &TaskUseCase{
		taskRepo:    taskRepo,
		fileStorage: fileStorage,
		taskQueue:   taskQueue,
		logger:      logger,
	}
}

// Create сохраняет файл в S3, создаёт задачу и ставит её в очередь
func (uc *TaskUseCase) Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	ext := domain.StagingExtension(input.FileName)

	fileKey, err := uc.fileStorage.Upload(ctx, ext, input.FileReader, input.FileSize)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	task, err := domain.NewTask(fileKey, input.FileName, input.FileSize)
	if err != nil {
		_ = uc.fileStorage.Delete(ctx, fileKey)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if err := uc.taskRepo.Create(ctx, task); err != nil {
		// Удаляем загруженный файл при ошибке
		_ = uc.fileStorage.Delete(ctx, fileKey)
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	if err := uc.taskQueue.Enqueue(ctx, task.ID); err != nil {
		// Задача уже в БД, её можно переотправить позже
		uc.logger.Error("Failed to enqueue task",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
	}

	uc.logger.Info("Task created",
		zap.String("task_id", task.ID.String()),
		zap.String("file_key", fileKey),
	)

	return task, nil
}

// GetByID возвращает задачу по ID
func (uc *TaskUseCase) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return uc.taskRepo.GetByID(ctx, id)
}

// List возвращает страницу задач
func (uc *TaskUseCase) List(ctx context.Context, filter domain.TaskFilter, pagination domain.Pagination) (*domain.TaskListResult, error) {
	return uc.taskRepo.List(ctx, filter, pagination)
}

// Delete удаляет задачу и связанный файл
func (uc *TaskUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	task, err := uc.taskRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := uc.fileStorage.Delete(ctx, task.FileKey); err != nil {
		// Продолжаем удаление задачи
		uc.logger.Warn("Failed to delete file from storage",
			zap.String("task_id", id.String()),
			zap.String("file_key", task.FileKey),
			zap.Error(err),
		)
	}

	if err := uc.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	uc.logger.Info("Task deleted", zap.String("task_id", id.String()))

	return nil
}

package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/plastinin/stepconverter/internal/domain"
	"go.uber.org/zap"
)

// ProcessingUseCase выполняет асинхронные задачи через тот же конвейер
type ProcessingUseCase struct {
	taskRepo    TaskRepository
	fileStorage FileStorage
	pipeline    Converting
	logger      *zap.Logger
}

// NewProcessingUseCase создаёт новый экземпляр ProcessingUseCase
func NewProcessingUseCase(
	taskRepo TaskRepository,
	fileStorage FileStorage,
	pipeline Converting,
	logger *zap.Logger,
) *ProcessingUseCase {
	return &ProcessingUseCase{
		taskRepo:    taskRepo,
		fileStorage: fileStorage,
		pipeline:    pipeline,
		logger:      logger,
	}
}

// ProcessTask конвертирует файл задачи. Ошибки, которые не исправятся
// повтором, фиксируются в задаче; остальные возвращаются для повтора очередью.
func (uc *ProcessingUseCase) ProcessTask(ctx context.Context, taskID uuid.UUID) error {
	log := uc.logger.With(zap.String("task_id", taskID.String()))

	task, err := uc.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}

	if task.Status.IsFinal() {
		log.Warn("Task already in final status, skipping",
			zap.String("status", task.Status.String()),
		)
		return nil
	}

	if err := task.MarkProcessing(); err != nil {
		return fmt.Errorf("failed to mark task as processing: %w", err)
	}
	if err := uc.taskRepo.Update(ctx, task); err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	reader, err := uc.fileStorage.Download(ctx, task.FileKey)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer reader.Close()

	result, err := uc.pipeline.Convert(ctx, ConvertInput{
		FileName:   task.FileName,
		FileReader: reader,
	})
	if err != nil {
		if !domain.IsRetryable(err) {
			uc.markTaskFailed(ctx, task, domain.ErrorCode(err), domain.PublicMessage(err))
		}
		return err
	}

	if err := task.MarkCompleted(result.Document); err != nil {
		return fmt.Errorf("failed to mark task as completed: %w", err)
	}
	if err := uc.taskRepo.Update(ctx, task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	log.Info("Task completed",
		zap.Int("result_size", len(result.Document)),
		zap.Duration("duration", result.Duration),
	)

	return nil
}

// FailTask помечает задачу как неудачную после исчерпания повторов
func (uc *ProcessingUseCase) FailTask(ctx context.Context, taskID uuid.UUID, cause error) error {
	task, err := uc.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}
	if task.Status.IsFinal() {
		return nil
	}
	uc.markTaskFailed(ctx, task, domain.ErrorCode(cause), domain.PublicMessage(cause))
	return nil
}

// markTaskFailed помечает задачу как неудачную
func (uc *ProcessingUseCase) markTaskFailed(ctx context.Context, task *domain.Task, code, errMsg string) {
	uc.logger.Error("Task processing failed",
		zap.String("task_id", task.ID.String()),
		zap.String("error_code", code),
		zap.String("error", errMsg),
	)

	if err := task.MarkFailed(code, errMsg); err != nil {
		uc.logger.Error("Failed to mark task as failed",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
		return
	}

	if err := uc.taskRepo.Update(ctx, task); err != nil {
		uc.logger.Error("Failed to update failed task",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
	}
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/plastinin/stepconverter/internal/config"
	"github.com/plastinin/stepconverter/internal/domain"
	"go.uber.org/zap"
)

// TaskProcessor то, что консюмер вызывает для каждой задачи
type TaskProcessor interface {
	ProcessTask(ctx context.Context, taskID uuid.UUID) error
	FailTask(ctx context.Context, taskID uuid.UUID, cause error) error
}

// TaskConsumer обрабатывает задачи из очереди
type TaskConsumer struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor TaskProcessor
	logger    *zap.Logger
}

// NewTaskConsumer создаёт новый экземпляр TaskConsumer
func NewTaskConsumer(
	cfg config.RedisConfig,
	workerCfg config.WorkerConfig,
	processor TaskProcessor,
	logger *zap.Logger,
) *TaskConsumer {
	server := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			// Каждый воркер держит один процесс конвертера
			Concurrency: workerCfg.Concurrency,
			Queues: map[string]int{
				conversionQueue: 10,
				"default":       1,
			},
			Logger: newAsynqLogger(logger),
		},
	)

	consumer := &TaskConsumer{
		server:    server,
		mux:       asynq.NewServeMux(),
		processor: processor,
		logger:    logger,
	}

	consumer.mux.HandleFunc(TypeStepConversion, consumer.handleStepConversion)

	return consumer
}

// Start запускает обработку задач
func (c *TaskConsumer) Start() error {
	c.logger.Info("Starting task consumer")
	return c.server.Start(c.mux)
}

// Stop останавливает обработку задач
func (c *TaskConsumer) Stop() {
	c.logger.Info("Stopping task consumer")
	c.server.Stop()
	c.server.Shutdown()
}

func (c *TaskConsumer) handleStepConversion(ctx context.Context, t *asynq.Task) error {
	var payload StepConversionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		c.logger.Error("Failed to unmarshal payload",
			zap.Error(err),
			zap.ByteString("payload", t.Payload()),
		)
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	taskID, err := uuid.Parse(payload.TaskID)
	if err != nil {
		c.logger.Error("Invalid task ID",
			zap.String("task_id", payload.TaskID),
			zap.Error(err),
		)
		return fmt.Errorf("invalid task ID: %v: %w", err, asynq.SkipRetry)
	}

	c.logger.Info("Processing STEP conversion task",
		zap.String("task_id", taskID.String()),
	)

	err = c.processor.ProcessTask(ctx, taskID)
	if err == nil {
		return nil
	}

	c.logger.Error("Failed to process task",
		zap.String("task_id", taskID.String()),
		zap.String("error_code", domain.ErrorCode(err)),
		zap.Error(err),
	)

	if errors.Is(err, domain.ErrTaskNotFound) || !domain.IsRetryable(err) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if isLastAttempt(ctx) {
		if ferr := c.processor.FailTask(ctx, taskID, err); ferr != nil {
			c.logger.Error("Failed to mark task as failed",
				zap.String("task_id", taskID.String()),
				zap.Error(ferr),
			)
		}
	}

	return err
}

// isLastAttempt сообщает, что после этой попытки повторов не будет
func isLastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return false
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return false
	}
	return retried >= maxRetry
}

// asynqLogger адаптер логгера для asynq
type asynqLogger struct {
	logger *zap.Logger
}

func newAsynqLogger(logger *zap.Logger) *asynqLogger {
	return &asynqLogger{logger: logger.Named("asynq")}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}

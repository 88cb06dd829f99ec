package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/plastinin/stepconverter/internal/config"
)

// Типы задач
const (
	TypeStepConversion = "conversion:step"
)

// Очередь конвертации
const conversionQueue = "conversion"

// StepConversionPayload данные задачи на конвертацию
type StepConversionPayload struct {
	TaskID string `json:"task_id"`
}

// TaskProducer отправляет задачи в очередь
type TaskProducer struct {
	client   *asynq.Client
	maxRetry int
}

// NewTaskProducer создаёт новый экземпляр TaskProducer
func NewTaskProducer(cfg config.RedisConfig, maxRetry int) *TaskProducer {
	client := asynq.NewClient(redisOpt(cfg))
	return &TaskProducer{client: client, maxRetry: maxRetry}
}

// NewStepConversionTask собирает задачу asynq для taskID
func NewStepConversionTask(taskID uuid.UUID, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(StepConversionPayload{TaskID: taskID.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return asynq.NewTask(TypeStepConversion, payload,
		asynq.MaxRetry(maxRetry),
		asynq.Queue(conversionQueue),
	), nil
}

// Enqueue добавляет задачу в очередь
func (p *TaskProducer) Enqueue(ctx context.Context, taskID uuid.UUID) error {
	task, err := NewStepConversionTask(taskID, p.maxRetry)
	if err != nil {
		return err
	}

	if _, err := p.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return nil
}

// Close закрывает соединение
func (p *TaskProducer) Close() error {
	return p.client.Close()
}

func redisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

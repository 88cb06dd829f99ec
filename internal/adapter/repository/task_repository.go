package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plastinin/stepconverter/internal/domain"
)

const taskColumns = `id, status, file_key, file_name, file_size, result, error_code, error, created_at, updated_at, completed_at`

// TaskRepository асинхронные задачи конвертации в PostgreSQL
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository создаёт новый экземпляр TaskRepository
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// Create создаёт новую задачу в БД
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO conversion_tasks (id, status, file_key, file_name, file_size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Status,
		task.FileKey,
		task.FileName,
		task.FileSize,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

// GetByID возвращает задачу по ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM conversion_tasks WHERE id = $1`

	task, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// Update обновляет статус и результат задачи
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE conversion_tasks
		SET status = $2, result = $3, error_code = $4, error = $5, updated_at = $6, completed_at = $7
		WHERE id = $1
	`

	// nil []byte пишется как NULL
	var result []byte
	if len(task.Result) > 0 {
		result = task.Result
	}

	tag, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Status,
		result,
		nullString(task.ErrorCode),
		nullString(task.Error),
		task.UpdatedAt,
		task.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}

// Delete удаляет задачу из БД
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM conversion_tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}

// List возвращает список задач с пагинацией и фильтрацией
func (r *TaskRepository) List(ctx context.Context, filter domain.TaskFilter, pagination domain.Pagination) (*domain.TaskListResult, error) {
	baseQuery := `FROM conversion_tasks WHERE 1=1`
	args := []any{}
	argIndex := 1

	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, taskColumns, baseQuery, argIndex, argIndex+1)

	args = append(args, pagination.Limit(), pagination.Offset())

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return &domain.TaskListResult{
		Tasks:      tasks,
		Total:      total,
		Pagination: pagination,
	}, nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	task := &domain.Task{}
	var (
		result    []byte
		errorCode *string // NULL
		errorMsg  *string // NULL
	)

	err := row.Scan(
		&task.ID,
		&task.Status,
		&task.FileKey,
		&task.FileName,
		&task.FileSize,
		&result,
		&errorCode,
		&errorMsg,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Result = result
	if errorCode != nil {
		task.ErrorCode = *errorCode
	}
	if errorMsg != nil {
		task.Error = *errorMsg
	}

	return task, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

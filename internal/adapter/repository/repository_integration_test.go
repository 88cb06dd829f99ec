//go:build integration

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/plastinin/stepconverter/internal/config"
	"github.com/plastinin/stepconverter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(runWithPostgres(m))
}

// runWithPostgres поднимает PostgreSQL в docker, применяет миграции и запускает тесты
func runWithPostgres(m *testing.M) int {
	pool, err := dockertest.NewPool("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not connect to docker: %v\n", err)
		return 1
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=stepconverter",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=stepconverter",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not start postgres: %v\n", err)
		return 1
	}
	defer pool.Purge(resource)
	_ = resource.Expire(300)

	port, _ := strconv.Atoi(resource.GetPort("5432/tcp"))
	cfg := config.DatabaseConfig{
		Host:            "localhost",
		Port:            port,
		User:            "stepconverter",
		Password:        "secret",
		Name:            "stepconverter",
		SSLMode:         "disable",
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
	}

	pool.MaxWait = time.Minute
	if err := pool.Retry(func() error {
		p, err := NewPostgresPool(context.Background(), cfg)
		if err != nil {
			return err
		}
		testPool = p
		return nil
	}); err != nil {
		fmt.Fprintf(os.Stderr, "postgres did not become ready: %v\n", err)
		return 1
	}
	defer testPool.Close()

	if err := Migrate(cfg.MigrateURL()); err != nil {
		fmt.Fprintf(os.Stderr, "migrations failed: %v\n", err)
		return 1
	}
	// повторный запуск ничего не меняет
	if err := Migrate(cfg.MigrateURL()); err != nil {
		fmt.Fprintf(os.Stderr, "second migration run failed: %v\n", err)
		return 1
	}

	return m.Run()
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := domain.NewUser("Ann", "ann-"+strconv.FormatInt(time.Now().UnixNano(), 10)+"@example.com", "hash")
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	dup := domain.NewUser("Other", user.Email, "hash2")
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrUserAlreadyExists)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestTaskRepository_Lifecycle(t *testing.T) {
	repo := NewTaskRepository(testPool)
	ctx := context.Background()

	task, err := domain.NewTask("2026/10/19/x.step", "part.step", 13)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, task))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, got.Status)
	assert.Nil(t, got.Result)
	assert.Empty(t, got.ErrorCode)

	require.NoError(t, got.MarkProcessing())
	require.NoError(t, got.MarkCompleted(json.RawMessage(`{"solids": [1, 2]}`)))
	require.NoError(t, repo.Update(ctx, got))

	done, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, done.Status)
	assert.JSONEq(t, `{"solids":[1,2]}`, string(done.Result))
	require.NotNil(t, done.CompletedAt)

	completed := domain.TaskStatusCompleted
	list, err := repo.List(ctx, domain.TaskFilter{Status: &completed}, domain.NewPagination(1, 100))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, list.Total, 1)

	require.NoError(t, repo.Delete(ctx, task.ID))
	_, err = repo.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, task.ID), domain.ErrTaskNotFound)
}

func TestTaskRepository_Failed(t *testing.T) {
	repo := NewTaskRepository(testPool)
	ctx := context.Background()

	task, err := domain.NewTask("2026/10/19/y.step", "part.step", -1)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, task))

	require.NoError(t, task.MarkFailed(domain.CodeTimeout, "converter timed out"))
	require.NoError(t, repo.Update(ctx, task))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFailed, got.Status)
	assert.Equal(t, domain.CodeTimeout, got.ErrorCode)
	assert.Equal(t, "converter timed out", got.Error)
}

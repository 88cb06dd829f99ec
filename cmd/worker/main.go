package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/plastinin/stepconverter/internal/adapter/converter"
	"github.com/plastinin/stepconverter/internal/adapter/queue"
	"github.com/plastinin/stepconverter/internal/adapter/repository"
	"github.com/plastinin/stepconverter/internal/adapter/staging"
	"github.com/plastinin/stepconverter/internal/adapter/storage"
	"github.com/plastinin/stepconverter/internal/config"
	"github.com/plastinin/stepconverter/internal/usecase"
	"github.com/plastinin/stepconverter/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Инициализируем логгер
	log := logger.Must(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	log.Info("Starting stepconverter worker",
		zap.String("converter", cfg.Converter.BinaryPath),
		zap.Int("concurrency", cfg.Worker.Concurrency),
	)

	// Контекст для инициализации
	ctx := context.Background()

	// Проверяем конвертер
	if err := converter.CheckBinary(cfg.Converter.BinaryPath); err != nil {
		log.Warn("Converter check failed", zap.Error(err))
	} else {
		log.Info("Converter is available")
	}

	stagingArea, err := staging.New(cfg.Converter.StagingDir, cfg.Converter.MaxOutputBytes)
	if err != nil {
		log.Fatal("Failed to prepare staging dir", zap.Error(err))
	}
	if removed, err := stagingArea.Sweep(cfg.Converter.StaleAfter); err != nil {
		log.Warn("Failed to sweep staging dir", zap.Error(err))
	} else if removed > 0 {
		log.Info("Removed stale staging files", zap.Int("count", removed))
	}

	// Инициализируем PostgreSQL
	dbPool, err := repository.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()
	log.Info("Connected to PostgreSQL")

	// Инициализируем S3 Storage
	s3Storage, err := storage.NewS3Storage(ctx, cfg.S3)
	if err != nil {
		log.Fatal("Failed to connect to S3", zap.Error(err))
	}
	log.Info("Connected to S3",
		zap.String("endpoint", cfg.S3.Endpoint),
		zap.String("bucket", cfg.S3.Bucket),
	)

	// Инициализируем репозитории
	taskRepo := repository.NewTaskRepository(dbPool)

	// Инициализируем use cases
	conversionUC := usecase.NewConversionUseCase(
		stagingArea,
		converter.NewCLIConverter(cfg.Converter, log),
		cfg.Converter.MaxConcurrent,
		log,
	)
	processingUC := usecase.NewProcessingUseCase(taskRepo, s3Storage, conversionUC, log)

	// Инициализируем consumer
	consumer := queue.NewTaskConsumer(cfg.Redis, cfg.Worker, processingUC, log)

	// Запускаем consumer в горутине
	go func() {
		if err := consumer.Start(); err != nil {
			log.Fatal("Failed to start consumer", zap.Error(err))
		}
	}()

	log.Info("Worker started, waiting for tasks...")

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker...")

	// Останавливаем consumer
	consumer.Stop()

	log.Info("Worker stopped")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/plastinin/stepconverter/internal/adapter/converter"
	"github.com/plastinin/stepconverter/internal/adapter/hasher"
	"github.com/plastinin/stepconverter/internal/adapter/http/handler"
	"github.com/plastinin/stepconverter/internal/adapter/queue"
	"github.com/plastinin/stepconverter/internal/adapter/repository"
	"github.com/plastinin/stepconverter/internal/adapter/staging"
	"github.com/plastinin/stepconverter/internal/adapter/storage"
	"github.com/plastinin/stepconverter/internal/config"
	"github.com/plastinin/stepconverter/internal/usecase"
	"github.com/plastinin/stepconverter/pkg/logger"
	"go.uber.org/zap"

	apphttp "github.com/plastinin/stepconverter/internal/adapter/http"
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

	log.Info("Starting stepconverter API",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("converter", cfg.Converter.BinaryPath),
	)

	// Контекст с отменой для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Временный каталог и остатки прошлых запусков
	stagingArea, err := staging.New(cfg.Converter.StagingDir, cfg.Converter.MaxOutputBytes)
	if err != nil {
		log.Fatal("Failed to prepare staging dir", zap.Error(err))
	}
	removed, err := stagingArea.Sweep(cfg.Converter.StaleAfter)
	if err != nil {
		log.Warn("Failed to sweep staging dir", zap.Error(err))
	}
	log.Info("Staging dir ready",
		zap.String("dir", stagingArea.Dir()),
		zap.Int("stale_removed", removed),
	)

	// Конвертер проверяем, но не падаем: его могут доставить позже
	if err := converter.CheckBinary(cfg.Converter.BinaryPath); err != nil {
		log.Warn("Converter check failed", zap.Error(err))
	}
	cliConverter := converter.NewCLIConverter(cfg.Converter, log)

	// Инициализируем PostgreSQL
	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(cfg.Database.MigrateURL()); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
		log.Info("Database migrations applied")
	}

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

	// Инициализируем Queue Producer
	queueProducer := queue.NewTaskProducer(cfg.Redis, cfg.Worker.MaxRetry)
	defer queueProducer.Close()
	log.Info("Connected to Redis",
		zap.String("addr", cfg.Redis.Addr()),
	)

	// Инициализируем репозитории
	userRepo := repository.NewUserRepository(dbPool)
	taskRepo := repository.NewTaskRepository(dbPool)

	// Инициализируем use cases
	conversionUC := usecase.NewConversionUseCase(stagingArea, cliConverter, cfg.Converter.MaxConcurrent, log)
	authUC := usecase.NewAuthUseCase(userRepo, hasher.NewBcryptHasher(cfg.Auth.BcryptCost), log)
	taskUC := usecase.NewTaskUseCase(taskRepo, s3Storage, queueProducer, log)

	// Инициализируем handlers
	conversionHandler := handler.NewConversionHandler(conversionUC, cfg.Converter.MaxUploadBytes, log)
	authHandler := handler.NewAuthHandler(authUC, log)
	taskHandler := handler.NewTaskHandler(taskUC, cfg.Converter.MaxUploadBytes, log)
	healthHandler := handler.NewHealthHandler(log)

	// Создаём роутер
	router := apphttp.NewRouter(conversionHandler, authHandler, taskHandler, healthHandler, cfg.CORS, log)

	// Создаём HTTP сервер
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Info("HTTP server starting",
			zap.String("addr", cfg.Server.Addr()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}

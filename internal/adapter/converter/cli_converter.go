package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/plastinin/stepconverter/internal/config"
	"github.com/plastinin/stepconverter/internal/domain"
	"go.uber.org/zap"
)

// CLIConverter запускает внешний конвертер STEP -> JSON
type CLIConverter struct {
	binaryPath         string
	timeout            time.Duration
	waitDelay          time.Duration
	maxDiagnosticBytes int
	logger             *zap.Logger
}

// NewCLIConverter создаёт конвертер. Путь к бинарнику фиксируется здесь
// и дальше не меняется.
func NewCLIConverter(cfg config.ConverterConfig, logger *zap.Logger) *CLIConverter {
	return &CLIConverter{
		binaryPath:         cfg.BinaryPath,
		timeout:            cfg.Timeout,
		waitDelay:          cfg.WaitDelay,
		maxDiagnosticBytes: cfg.MaxDiagnosticBytes,
		logger:             logger.Named("converter"),
	}
}

// Run запускает конвертер ровно с двумя аргументами и ждёт завершения
// или истечения таймаута. При таймауте и отмене ctx процесс убивается.
//
// RunResult возвращается всегда, когда процесс был запущен, в том числе
// вместе с ошибкой.
func (c *CLIConverter) Run(ctx context.Context, inputPath, outputPath string) (*domain.RunResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stdout := newCappedBuffer(c.maxDiagnosticBytes)
	stderr := newCappedBuffer(c.maxDiagnosticBytes)

	cmd := exec.CommandContext(runCtx, c.binaryPath, inputPath, outputPath)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = c.waitDelay

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConversionCanceled, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrConversionLaunch, err)
	}

	c.logger.Debug("Converter started",
		zap.Int("pid", cmd.Process.Pid),
		zap.String("input", inputPath),
	)

	waitErr := cmd.Wait()
	result := &domain.RunResult{
		ExitCode:   cmd.ProcessState.ExitCode(),
		Diagnostic: stderr.String(),
		Output:     stdout.String(),
		Duration:   time.Since(start),
	}

	c.logger.Debug("Converter finished",
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration),
	)

	if waitErr == nil {
		return result, nil
	}

	switch {
	case ctx.Err() != nil:
		return result, fmt.Errorf("%w: %w", domain.ErrConversionCanceled, ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return result, fmt.Errorf("%w after %s", domain.ErrConversionTimeout, c.timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return result, fmt.Errorf("%w: exit code %d", domain.ErrConversionExit, exitErr.ExitCode())
	}

	// Например, exec.ErrWaitDelay: процесс вышел, но потомки держат stderr
	return result, fmt.Errorf("%w: %w", domain.ErrConversionExit, waitErr)
}

// CheckBinary проверяет, что конвертер существует и исполняем
func CheckBinary(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("converter binary unavailable: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("converter binary %s is a directory", path)
	}
	if info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("converter binary %s is not executable", path)
	}
	return nil
}

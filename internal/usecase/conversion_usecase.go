package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/plastinin/stepconverter/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var errNoFile = errors.New("no file in request")

// ConversionUseCase конвейер: приём файла -> конвертер -> загрузка JSON -> очистка
type ConversionUseCase struct {
	staging   StagingArea
	converter Converter
	slots     *semaphore.Weighted
	logger    *zap.Logger
}

// NewConversionUseCase создаёт конвейер. maxConcurrent <= 0 снимает
// ограничение на число одновременно запущенных конвертеров.
func NewConversionUseCase(
	staging StagingArea,
	converter Converter,
	maxConcurrent int,
	logger *zap.Logger,
) *ConversionUseCase {
	uc := &ConversionUseCase{
		staging:   staging,
		converter: converter,
		logger:    logger.Named("pipeline"),
	}
	if maxConcurrent > 0 {
		uc.slots = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return uc
}

// Convert прогоняет один файл через конвейер. Оба временных файла удаляются
// до возврата, каким бы ни был исход.
func (uc *ConversionUseCase) Convert(ctx context.Context, input ConvertInput) (*domain.ConversionResult, error) {
	start := time.Now()

	job, err := uc.staging.NewJob(input.FileName)
	if err != nil {
		return nil, uc.fail(uc.logger, &domain.ConversionError{
			Kind:  domain.ErrUpload,
			Stage: domain.StageUpload,
			Err:   err,
		})
	}

	log := uc.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("input_path", job.InputPath),
		zap.String("output_path", job.OutputPath),
	)

	// Очистка регистрируется до первой записи на диск
	defer uc.cleanup(log, job)

	if input.FileReader == nil {
		return nil, uc.fail(log, uc.jobError(job, domain.ErrUpload, domain.StageUpload, errNoFile))
	}

	size, err := uc.staging.Stage(job, input.FileReader)
	if err != nil {
		return nil, uc.fail(log, uc.jobError(job, domain.ErrUpload, domain.StageUpload, err))
	}
	uc.transition(log, job, domain.JobStateStaged)

	log.Debug("Upload staged", zap.Int64("size", size))

	if err := uc.acquire(ctx); err != nil {
		return nil, uc.fail(log, uc.jobError(job, domain.ErrConversionCanceled, domain.StageConvert, err))
	}
	defer uc.release()

	uc.transition(log, job, domain.JobStateConverting)

	run, err := uc.converter.Run(ctx, job.InputPath, job.OutputPath)
	if run != nil {
		job.ExitCode = run.ExitCode
		job.Diagnostic = run.Diagnostic
	}
	if err != nil {
		uc.transition(log, job, domain.JobStateConversionFailed)
		kind := domain.KindOf(err)
		if kind == nil {
			kind = domain.ErrConversionLaunch
		}
		return nil, uc.fail(log, uc.jobError(job, kind, domain.StageConvert, err))
	}
	uc.transition(log, job, domain.JobStateConverted)

	data, err := uc.staging.ReadOutput(job.OutputPath)
	if err != nil {
		uc.transition(log, job, domain.JobStateLoadFailed)
		return nil, uc.fail(log, uc.jobError(job, domain.ErrOutputRead, domain.StageLoad, err))
	}

	var doc json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		uc.transition(log, job, domain.JobStateLoadFailed)
		return nil, uc.fail(log, uc.jobError(job, domain.ErrOutputParse, domain.StageLoad, err))
	}
	uc.transition(log, job, domain.JobStateLoaded)

	result := &domain.ConversionResult{
		JobID:     job.ID,
		Document:  doc,
		InputSize: size,
		Duration:  time.Since(start),
	}

	log.Info("Conversion completed",
		zap.Int64("input_size", size),
		zap.Int("output_size", len(doc)),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// cleanup удаляет оба файла задания. Ошибки только логируются.
func (uc *ConversionUseCase) cleanup(log *zap.Logger, job *domain.ConversionJob) {
	for _, path := range []string{job.InputPath, job.OutputPath} {
		if err := uc.staging.Remove(path); err != nil {
			log.Warn("Failed to remove temporary file",
				zap.String("stage", string(domain.StageCleanup)),
				zap.String("path", path),
				zap.Error(uc.jobError(job, domain.ErrCleanup, domain.StageCleanup, err)),
			)
		}
	}

	uc.transition(log, job, domain.JobStateCleanedUp)
	uc.transition(log, job, domain.JobStateResponded)
}

func (uc *ConversionUseCase) acquire(ctx context.Context) error {
	if uc.slots == nil {
		return ctx.Err()
	}
	return uc.slots.Acquire(ctx, 1)
}

func (uc *ConversionUseCase) release() {
	if uc.slots != nil {
		uc.slots.Release(1)
	}
}

func (uc *ConversionUseCase) transition(log *zap.Logger, job *domain.ConversionJob, to domain.JobState) {
	if err := job.Transition(to); err != nil {
		log.Error("Unexpected job state transition", zap.Error(err))
	}
}

func (uc *ConversionUseCase) jobError(job *domain.ConversionJob, kind error, stage domain.Stage, err error) *domain.ConversionError {
	return &domain.ConversionError{
		Kind:       kind,
		Stage:      stage,
		JobID:      job.ID.String(),
		ExitCode:   job.ExitCode,
		Diagnostic: job.Diagnostic,
		Err:        err,
	}
}

// fail логирует ошибку конвейера со всем контекстом и возвращает её
func (uc *ConversionUseCase) fail(log *zap.Logger, cerr *domain.ConversionError) error {
	log.Error("Conversion failed",
		zap.String("stage", string(cerr.Stage)),
		zap.String("error_code", domain.ErrorCode(cerr)),
		zap.Int("exit_code", cerr.ExitCode),
		zap.String("diagnostic", cerr.Diagnostic),
		zap.Error(cerr.Err),
	)
	return cerr
}

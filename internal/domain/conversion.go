package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidJobTransition = errors.New("invalid conversion job transition")

// OutputSuffix добавляется к пути входного файла для получения пути результата
const OutputSuffix = ".json"

// JobState состояние задания конвертации
type JobState string

const (
	JobStateReceived         JobState = "received"
	JobStateStaged           JobState = "staged"
	JobStateConverting       JobState = "converting"
	JobStateConverted        JobState = "converted"
	JobStateConversionFailed JobState = "conversion_failed"
	JobStateLoaded           JobState = "loaded"
	JobStateLoadFailed       JobState = "load_failed"
	JobStateCleanedUp        JobState = "cleaned_up"
	JobStateResponded        JobState = "responded"
)

// Допустимые переходы. cleaned_up достижим из любого нетерминального состояния.
var jobTransitions = map[JobState][]JobState{
	JobStateReceived:         {JobStateStaged, JobStateCleanedUp},
	JobStateStaged:           {JobStateConverting, JobStateCleanedUp},
	JobStateConverting:       {JobStateConverted, JobStateConversionFailed, JobStateCleanedUp},
	JobStateConverted:        {JobStateLoaded, JobStateLoadFailed, JobStateCleanedUp},
	JobStateConversionFailed: {JobStateCleanedUp},
	JobStateLoaded:           {JobStateCleanedUp},
	JobStateLoadFailed:       {JobStateCleanedUp},
	JobStateCleanedUp:        {JobStateResponded},
}

func (s JobState) String() string {
	return string(s)
}

// ConversionJob одна конвертация в рамках одного запроса. Не сохраняется.
type ConversionJob struct {
	ID         uuid.UUID
	InputPath  string
	OutputPath string
	ExitCode   int
	Diagnostic string
	State      JobState
	CreatedAt  time.Time
}

// NewConversionJob создаёт задание; путь результата выводится из пути входа
func NewConversionJob(id uuid.UUID, inputPath string) *ConversionJob {
	return &ConversionJob{
		ID:         id,
		InputPath:  inputPath,
		OutputPath: OutputPathFor(inputPath),
		State:      JobStateReceived,
		CreatedAt:  time.Now(),
	}
}

// OutputPathFor возвращает путь, куда конвертер пишет JSON
func OutputPathFor(inputPath string) string {
	return inputPath + OutputSuffix
}

// Transition переводит задание в новое состояние
func (j *ConversionJob) Transition(to JobState) error {
	for _, allowed := range jobTransitions[j.State] {
		if allowed == to {
			j.State = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidJobTransition, j.State, to)
}

// RunResult то, что известно о завершившемся процессе конвертера
type RunResult struct {
	ExitCode   int
	Diagnostic string // stderr, обрезанный до лимита
	Output     string // stdout, обрезанный до лимита
	Duration   time.Duration
}

// ConversionResult успешный результат конвертации
type ConversionResult struct {
	JobID     uuid.UUID
	Document  json.RawMessage // вывод конвертера без изменений
	InputSize int64
	Duration  time.Duration
}

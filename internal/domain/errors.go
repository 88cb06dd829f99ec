package domain

import (
	"errors"
	"fmt"
)

// Ошибки конвейера конвертации
var (
	ErrUpload             = errors.New("failed to stage upload")
	ErrConversionLaunch   = errors.New("failed to launch converter")
	ErrConversionExit     = errors.New("converter exited with non-zero status")
	ErrConversionTimeout  = errors.New("converter timed out")
	ErrConversionCanceled = errors.New("conversion canceled")
	ErrOutputRead         = errors.New("failed to read converter output")
	ErrOutputParse        = errors.New("converter output is not valid JSON")
	ErrCleanup            = errors.New("failed to remove temporary file")
	ErrOutputTooLarge     = errors.New("converter output exceeds size limit")
)

// Коды ошибок для ответа клиенту
const (
	CodeUploadError      = "upload_error"
	CodeLaunchError      = "conversion_launch_error"
	CodeExitError        = "conversion_exit_error"
	CodeTimeout          = "conversion_timeout"
	CodeCanceled         = "conversion_canceled"
	CodeOutputReadError  = "output_read_error"
	CodeOutputParseError = "output_parse_error"
	CodeCleanupError     = "cleanup_error"
	CodeInternalError    = "internal_error"
)

var errorKinds = []struct {
	kind error
	code string
}{
	{ErrUpload, CodeUploadError},
	{ErrConversionLaunch, CodeLaunchError},
	{ErrConversionExit, CodeExitError},
	{ErrConversionTimeout, CodeTimeout},
	{ErrConversionCanceled, CodeCanceled},
	{ErrOutputRead, CodeOutputReadError},
	{ErrOutputParse, CodeOutputParseError},
	{ErrCleanup, CodeCleanupError},
}

// Stage этап конвейера, на котором произошла ошибка
type Stage string

const (
	StageUpload  Stage = "upload"
	StageConvert Stage = "convert"
	StageLoad    Stage = "load"
	StageCleanup Stage = "cleanup"
)

// ConversionError классифицированная ошибка конвейера
type ConversionError struct {
	Kind       error
	Stage      Stage
	JobID      string
	ExitCode   int
	Diagnostic string
	Err        error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf возвращает класс ошибки или nil, если ошибка не из конвейера
func KindOf(err error) error {
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			return k.kind
		}
	}
	return nil
}

// ErrorCode возвращает код ошибки для клиента
func ErrorCode(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			return k.code
		}
	}
	return CodeInternalError
}

// IsRetryable сообщает, имеет ли смысл повторить конвертацию позже.
// Ошибки, вызванные самим файлом, повторять бесполезно.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case ErrConversionExit, ErrConversionTimeout, ErrOutputRead, ErrOutputParse:
		return false
	}
	return true
}

// PublicMessage описание ошибки без путей файловой системы
func PublicMessage(err error) string {
	kind := KindOf(err)
	if kind == nil {
		return "internal error"
	}

	var cerr *ConversionError
	if errors.Is(kind, ErrConversionExit) && errors.As(err, &cerr) && cerr.ExitCode != 0 {
		return fmt.Sprintf("%s (exit code %d)", kind, cerr.ExitCode)
	}
	return kind.Error()
}

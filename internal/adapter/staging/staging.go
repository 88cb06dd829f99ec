package staging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/plastinin/stepconverter/internal/domain"
)

// Area каталог для временных файлов конвертации.
// Файлы разных запросов не пересекаются, каждое имя строится из свежего UUID.
type Area struct {
	dir            string
	maxOutputBytes int64
}

// New создаёт каталог, если его нет, и проверяет, что в него можно писать
func New(dir string, maxOutputBytes int64) (*Area, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve staging dir: %w", err)
	}

	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create staging dir: %w", err)
	}

	probe, err := os.CreateTemp(abs, ".probe-*")
	if err != nil {
		return nil, fmt.Errorf("staging dir is not writable: %w", err)
	}
	probe.Close()
	_ = os.Remove(probe.Name())

	return &Area{dir: abs, maxOutputBytes: maxOutputBytes}, nil
}

// Dir возвращает абсолютный путь каталога
func (a *Area) Dir() string {
	return a.dir
}

// NewJob генерирует пути для нового задания.
// От клиента берётся только расширение из разрешённого списка.
func (a *Area) NewJob(fileName string) (*domain.ConversionJob, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate job id: %w", err)
	}

	inputPath := filepath.Join(a.dir, id.String()+domain.StagingExtension(fileName))
	return domain.NewConversionJob(id, inputPath), nil
}

// Stage записывает загруженные байты во входной файл задания.
// O_EXCL гарантирует, что файл создан именно этим вызовом.
func (a *Area) Stage(job *domain.ConversionJob, r io.Reader) (int64, error) {
	f, err := os.OpenFile(job.InputPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return 0, fmt.Errorf("failed to create staged file: %w", err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("failed to write staged file: %w", err)
	}

	if err := f.Close(); err != nil {
		return n, fmt.Errorf("failed to close staged file: %w", err)
	}

	return n, nil
}

// ReadOutput читает результат конвертера, не более maxOutputBytes
func (a *Area) ReadOutput(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open output: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, a.maxOutputBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}

	if int64(len(data)) > a.maxOutputBytes {
		return nil, fmt.Errorf("%w (%d bytes)", domain.ErrOutputTooLarge, a.maxOutputBytes)
	}

	return data, nil
}

// Remove удаляет файл; отсутствие файла ошибкой не считается
func (a *Area) Remove(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Sweep удаляет файлы старше olderThan, оставшиеся после аварийного завершения.
// Возвращает число удалённых файлов.
func (a *Area) Sweep(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list staging dir: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	var errs []error

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}

		if info.ModTime().After(cutoff) {
			continue
		}

		if err := a.Remove(filepath.Join(a.dir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	return removed, errors.Join(errs...)
}

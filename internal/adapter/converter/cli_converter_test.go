package converter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/plastinin/stepconverter/internal/config"
	"github.com/plastinin/stepconverter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// writeScript создаёт исполняемый shell-скрипт, играющий роль конвертера
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "converter.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newConverter(binary string, timeout time.Duration) *CLIConverter {
	return NewCLIConverter(config.ConverterConfig{
		BinaryPath:         binary,
		Timeout:            timeout,
		WaitDelay:          time.Second,
		MaxDiagnosticBytes: 1024,
	}, zap.NewNop())
}

func stagedInput(t *testing.T) (string, string) {
	t.Helper()
	in := filepath.Join(t.TempDir(), "job.step")
	require.NoError(t, os.WriteFile(in, []byte("ISO-10303-21;"), 0o600))
	return in, in + domain.OutputSuffix
}

func TestRun_Success(t *testing.T) {
	bin := writeScript(t, `printf '{"argc":%d}' "$#" > "$2"`)
	in, out := stagedInput(t)

	res, err := newConverter(bin, 5*time.Second).Run(context.Background(), in, out)
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"argc":2}`, string(data))
}

func TestRun_PassesPathsVerbatim(t *testing.T) {
	bin := writeScript(t, `cp "$1" "$2"`)
	in, out := stagedInput(t)

	_, err := newConverter(bin, 5*time.Second).Run(context.Background(), in, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "ISO-10303-21;", string(data))
}

func TestRun_NonZeroExit(t *testing.T) {
	bin := writeScript(t, `echo "unsupported format" >&2; exit 2`)
	in, out := stagedInput(t)

	res, err := newConverter(bin, 5*time.Second).Run(context.Background(), in, out)
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrConversionExit)
	require.NotNil(t, res)
	assert.Equal(t, 2, res.ExitCode)
	assert.Contains(t, res.Diagnostic, "unsupported format")
}

func TestRun_Timeout(t *testing.T) {
	bin := writeScript(t, `exec sleep 30`)
	in, out := stagedInput(t)

	start := time.Now()
	res, err := newConverter(bin, 200*time.Millisecond).Run(context.Background(), in, out)

	assert.ErrorIs(t, err, domain.ErrConversionTimeout)
	assert.NotNil(t, res)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRun_ParentCanceled(t *testing.T) {
	bin := writeScript(t, `exec sleep 30`)
	in, out := stagedInput(t)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := newConverter(bin, 30*time.Second).Run(ctx, in, out)
	assert.ErrorIs(t, err, domain.ErrConversionCanceled)
	assert.NotErrorIs(t, err, domain.ErrConversionTimeout)
}

func TestRun_MissingBinary(t *testing.T) {
	in, out := stagedInput(t)

	res, err := newConverter(filepath.Join(t.TempDir(), "absent"), time.Second).Run(context.Background(), in, out)

	assert.ErrorIs(t, err, domain.ErrConversionLaunch)
	assert.Nil(t, res)
}

func TestRun_DiagnosticIsCapped(t *testing.T) {
	bin := writeScript(t, `i=0; while [ $i -lt 200 ]; do echo "error line $i" >&2; i=$((i+1)); done; exit 3`)
	in, out := stagedInput(t)

	conv := NewCLIConverter(config.ConverterConfig{
		BinaryPath:         bin,
		Timeout:            5 * time.Second,
		WaitDelay:          time.Second,
		MaxDiagnosticBytes: 32,
	}, zap.NewNop())

	res, err := conv.Run(context.Background(), in, out)
	assert.ErrorIs(t, err, domain.ErrConversionExit)
	require.NotNil(t, res)
	assert.Equal(t, 3, res.ExitCode)
	assert.True(t, strings.HasSuffix(res.Diagnostic, "...[truncated]"))
	assert.Len(t, res.Diagnostic, 32+len("...[truncated]"))
}

func TestCheckBinary(t *testing.T) {
	assert.NoError(t, CheckBinary(writeScript(t, "exit 0")))

	dir := t.TempDir()
	assert.Error(t, CheckBinary(dir))
	assert.Error(t, CheckBinary(filepath.Join(dir, "absent")))

	plain := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(plain, nil, 0o644))
	assert.ErrorContains(t, CheckBinary(plain), "not executable")
}

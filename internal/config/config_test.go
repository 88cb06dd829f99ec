package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/opt/mcguire-step-cli/bin/mcguire_step_cli", cfg.Converter.BinaryPath)
	assert.Equal(t, 2*time.Minute, cfg.Converter.Timeout)
	assert.Equal(t, int64(100<<20), cfg.Converter.MaxUploadBytes)
	assert.Equal(t, int64(64<<20), cfg.Converter.MaxOutputBytes)
	assert.Equal(t, 0, cfg.Converter.MaxConcurrent)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CONVERTER_BINARY_PATH", "/usr/local/bin/step2json")
	t.Setenv("CONVERTER_TIMEOUT", "30s")
	t.Setenv("CONVERTER_MAX_CONCURRENT", "4")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("DB_HOST", "db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/step2json", cfg.Converter.BinaryPath)
	assert.Equal(t, 30*time.Second, cfg.Converter.Timeout)
	assert.Equal(t, 4, cfg.Converter.MaxConcurrent)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "pgx5://stepconverter:secret@db:5432/stepconverter?sslmode=disable", cfg.Database.MigrateURL())
}

func TestLoad_RejectsRelativeBinary(t *testing.T) {
	t.Setenv("CONVERTER_BINARY_PATH", "mcguire_step_cli")

	_, err := Load()
	assert.ErrorContains(t, err, "absolute")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{WriteTimeout: 3 * time.Minute},
			Converter: ConverterConfig{
				BinaryPath:         "/bin/conv",
				StagingDir:         "/tmp/x",
				Timeout:            time.Minute,
				MaxUploadBytes:     1,
				MaxOutputBytes:     1,
				MaxDiagnosticBytes: 1,
			},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty staging dir", func(c *Config) { c.Converter.StagingDir = "" }},
		{"zero timeout", func(c *Config) { c.Converter.Timeout = 0 }},
		{"zero upload limit", func(c *Config) { c.Converter.MaxUploadBytes = 0 }},
		{"negative concurrency", func(c *Config) { c.Converter.MaxConcurrent = -1 }},
		{"write timeout below converter timeout", func(c *Config) { c.Server.WriteTimeout = 30 * time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	S3        S3Config
	Converter ConverterConfig
	Auth      AuthConfig
	Worker    WorkerConfig
	CORS      CORSConfig
	Log       LogConfig
}

// ServerConfig настройки HTTP сервера.
// WriteTimeout должен превышать CONVERTER_TIMEOUT, иначе ответ не успеет уйти.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"3m"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            int           `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"stepconverter"`
	Password        string        `env:"DB_PASSWORD" envDefault:"secret"`
	Name            string        `env:"DB_NAME" envDefault:"stepconverter"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns        int           `env:"DB_MAX_CONNS" envDefault:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" envDefault:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// MigrateURL строка подключения для драйвера pgx/v5 в golang-migrate
func (d DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf(
		"pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type S3Config struct {
	Endpoint  string `env:"S3_ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"S3_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"S3_SECRET_KEY" envDefault:"minioadmin"`
	Bucket    string `env:"S3_BUCKET" envDefault:"cad-uploads"`
	UseSSL    bool   `env:"S3_USE_SSL" envDefault:"false"`
}

// ConverterConfig настройки внешнего конвертера и временного каталога.
//   - BinaryPath абсолютный, из запроса никогда не выводится;
//   - WaitDelay: сколько ждать закрытия stdout/stderr после убийства процесса;
//   - MaxConcurrent 0 означает отсутствие ограничения;
//   - файлы старше StaleAfter удаляются из StagingDir при старте.
type ConverterConfig struct {
	BinaryPath         string        `env:"CONVERTER_BINARY_PATH" envDefault:"/opt/mcguire-step-cli/bin/mcguire_step_cli"`
	StagingDir         string        `env:"CONVERTER_STAGING_DIR" envDefault:"/tmp/stepconverter"`
	Timeout            time.Duration `env:"CONVERTER_TIMEOUT" envDefault:"2m"`
	WaitDelay          time.Duration `env:"CONVERTER_WAIT_DELAY" envDefault:"5s"`
	MaxUploadBytes     int64         `env:"CONVERTER_MAX_UPLOAD_BYTES" envDefault:"104857600"`
	MaxOutputBytes     int64         `env:"CONVERTER_MAX_OUTPUT_BYTES" envDefault:"67108864"`
	MaxDiagnosticBytes int           `env:"CONVERTER_MAX_DIAGNOSTIC_BYTES" envDefault:"8192"`
	MaxConcurrent      int           `env:"CONVERTER_MAX_CONCURRENT" envDefault:"0"`
	StaleAfter         time.Duration `env:"CONVERTER_STALE_AFTER" envDefault:"1h"`
}

type AuthConfig struct {
	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"12"`
}

type WorkerConfig struct {
	Concurrency int `env:"WORKER_CONCURRENCY" envDefault:"2"`
	MaxRetry    int `env:"WORKER_MAX_RETRY" envDefault:"3"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	// json или console
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	conv := c.Converter
	if !filepath.IsAbs(conv.BinaryPath) {
		return errors.New("CONVERTER_BINARY_PATH must be an absolute path")
	}
	if conv.StagingDir == "" {
		return errors.New("CONVERTER_STAGING_DIR must not be empty")
	}
	if conv.Timeout <= 0 {
		return errors.New("CONVERTER_TIMEOUT must be positive")
	}
	if conv.MaxUploadBytes <= 0 || conv.MaxOutputBytes <= 0 || conv.MaxDiagnosticBytes <= 0 {
		return errors.New("converter size limits must be positive")
	}
	if conv.MaxConcurrent < 0 {
		return errors.New("CONVERTER_MAX_CONCURRENT must not be negative")
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= conv.Timeout {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT (%s) must exceed CONVERTER_TIMEOUT (%s)", c.Server.WriteTimeout, conv.Timeout)
	}
	return nil
}

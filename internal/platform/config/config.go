package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Environment     string        `env:"APP_ENV" envDefault:"development"`
	Addr            string        `env:"APP_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	StoreBackend  string `env:"STORE_BACKEND" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"hrops.events"`

	AttendanceRunHour     int           `env:"ATTENDANCE_RUN_HOUR" envDefault:"1"`
	AttendanceRunMinute   int           `env:"ATTENDANCE_RUN_MINUTE" envDefault:"0"`
	PendingExpiryInterval time.Duration `env:"PENDING_EXPIRY_INTERVAL" envDefault:"12h"`
	PendingMaxAge         time.Duration `env:"PENDING_MAX_AGE" envDefault:"168h"`
	JobLockTTL            time.Duration `env:"JOB_LOCK_TTL" envDefault:"30m"`
	JobsEnabled           bool          `env:"JOBS_ENABLED" envDefault:"true"`

	OpsToken string `env:"OPS_TOKEN"`
}

// Load reads the environment. Only the first parse error is returned.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return Config{}, aggErr.Errors[0]
		}
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is postgres")
		}
	case BackendMemory:
		if c.Environment == "production" {
			return fmt.Errorf("STORE_BACKEND=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be postgres or memory")
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.AttendanceRunHour < 0 || c.AttendanceRunHour > 23 {
		return fmt.Errorf("ATTENDANCE_RUN_HOUR must be between 0 and 23")
	}
	if c.AttendanceRunMinute < 0 || c.AttendanceRunMinute > 59 {
		return fmt.Errorf("ATTENDANCE_RUN_MINUTE must be between 0 and 59")
	}
	if c.PendingExpiryInterval <= 0 {
		return fmt.Errorf("PENDING_EXPIRY_INTERVAL must be positive")
	}
	if c.PendingMaxAge <= 0 {
		return fmt.Errorf("PENDING_MAX_AGE must be positive")
	}
	if c.RedisAddr != "" && c.JobLockTTL <= 0 {
		return fmt.Errorf("JOB_LOCK_TTL must be positive when REDIS_ADDR is set")
	}
	if c.Environment == "production" && strings.TrimSpace(c.OpsToken) == "" {
		return fmt.Errorf("OPS_TOKEN must be set in production")
	}
	return nil
}

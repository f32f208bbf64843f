package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/subosito/gotenv"
)

// Store backends supported by the dev server
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// ServerConfig configures the local stand-in for the WFH services
type ServerConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Addr            string `env:"ADDR" envDefault:":5002"`
		AuthAddr        string `env:"AUTH_ADDR" envDefault:":5001"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
		MaxUploadMB     int64  `env:"MAX_UPLOAD_MB" envDefault:"20"`
		StorageDir      string `env:"STORAGE_DIR" envDefault:"uploads"`
	} `envPrefix:"SERVER_"`
	Store struct {
		Backend     string `env:"BACKEND" envDefault:"sqlite" validate:"oneof=sqlite postgres"`
		DSN         string `env:"DSN"`
		SQLitePath  string `env:"SQLITE_PATH" envDefault:"wfh.db"`
		SeedFile    string `env:"SEED_FILE"`
		SeedOnStart bool   `env:"SEED_ON_START" envDefault:"true"`
	} `envPrefix:"STORE_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"43200"`
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	RateLimit struct {
		PerSecond float64 `env:"PER_SECOND" envDefault:"5"`
		Burst     int     `env:"BURST" envDefault:"10"`
	} `envPrefix:"RATE_LIMIT_"`
	Redis struct {
		Addr           string `env:"ADDR"`
		Password       string `env:"PASSWORD"`
		IdempotencyTTL int    `env:"IDEMPOTENCY_TTL" envDefault:"86400"`
	} `envPrefix:"REDIS_"`
	RabbitMQ struct {
		DSN            string `env:"DSN"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
}

// TokenTTL is how long issued tokens stay valid
func (c *ServerConfig) TokenTTL() time.Duration {
	return time.Duration(c.JWT.Expiration) * time.Second
}

// MailerConfig configures the confirmation email worker
type MailerConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Sender      string `env:"MAILER_SENDER" envDefault:"smtp" validate:"oneof=smtp gmail"`
	RetryDelay  int    `env:"MAILER_RETRY_DELAY" envDefault:"10" validate:"min=0"`
	RabbitMQ    struct {
		DSN string `env:"DSN,required"`
	} `envPrefix:"RABBITMQ_"`
	SMTP struct {
		From        string `env:"FROM"`
		Username    string `env:"USERNAME"`
		Password    string `env:"PASSWORD"`
		Host        string `env:"HOST"`
		Port        int    `env:"PORT" envDefault:"465"`
		DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SMTP_"`
}

// LoadServerConfig reads the dev server configuration from the environment, after loading .env if present
func LoadServerConfig(files ...string) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := parseEnv(cfg, files); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.Store.Backend == StorePostgres && cfg.Store.DSN == "" {
		return nil, fmt.Errorf("config validation failed: STORE_DSN is required for the postgres backend")
	}

	return cfg, nil
}

// LoadMailerConfig reads the mailer configuration from the environment, after loading .env if present
func LoadMailerConfig(files ...string) (*MailerConfig, error) {
	cfg := &MailerConfig{}
	if err := parseEnv(cfg, files); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.Sender == "smtp" && (cfg.SMTP.Host == "" || cfg.SMTP.From == "") {
		return nil, fmt.Errorf("config validation failed: SMTP_HOST and SMTP_FROM are required for the smtp sender")
	}

	return cfg, nil
}

func parseEnv(cfg any, files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		// Variables already set in the environment win over the file
		if err := gotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			// Only the first error keeps the log readable
			return fmt.Errorf("failed to parse environment: %w", aggErr.Errors[0])
		}
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

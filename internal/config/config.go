package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/wfh-portal/pkg/clients/authclient"
	"github.com/jakechorley/wfh-portal/pkg/clients/employeeclient"
	"github.com/jakechorley/wfh-portal/pkg/clients/requestsclient"
	"github.com/jakechorley/wfh-portal/pkg/clients/scheduleclient"
)

const (
	configFileName        = "wfh_config.yaml"
	defaultRequestTimeout = 30
)

// ErrConfigNotFound is returned when no config file exists in the searched locations
var ErrConfigNotFound = errors.New("config file not found in current directory or home directory")

// Endpoints holds the service URLs the CLI talks to
type Endpoints struct {
	Auth      string `yaml:"auth" validate:"required,url"`
	Requests  string `yaml:"requests" validate:"required,url"`
	Schedule  string `yaml:"schedule" validate:"required,url"`
	Employees string `yaml:"employees" validate:"required,url"`
}

// DatePattern is a named recurrence that can be applied to the date selection
type DatePattern struct {
	Name  string `yaml:"name" validate:"required"`
	RRule string `yaml:"rrule" validate:"required"`
}

// Config represents the CLI configuration
type Config struct {
	Endpoints             Endpoints     `yaml:"endpoints"`
	RequestTimeoutSeconds *int          `yaml:"requestTimeoutSeconds,omitempty" validate:"omitempty,min=0"`
	SessionDir            string        `yaml:"sessionDir,omitempty"`
	FileAccess            *bool         `yaml:"fileAccess,omitempty"`
	DatePatterns          []DatePattern `yaml:"datePatterns,omitempty" validate:"unique=Name,dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

// Default returns the configuration used when no config file exists
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Endpoints.Auth == "" {
		cfg.Endpoints.Auth = authclient.DefaultEndpoint
	}
	if cfg.Endpoints.Requests == "" {
		cfg.Endpoints.Requests = requestsclient.DefaultEndpoint
	}
	if cfg.Endpoints.Schedule == "" {
		cfg.Endpoints.Schedule = scheduleclient.DefaultEndpoint
	}
	if cfg.Endpoints.Employees == "" {
		cfg.Endpoints.Employees = employeeclient.DefaultEndpoint
	}
	if cfg.RequestTimeoutSeconds == nil {
		timeout := defaultRequestTimeout
		cfg.RequestTimeoutSeconds = &timeout
	}
	if cfg.FileAccess == nil {
		fileAccess := true
		cfg.FileAccess = &fileAccess
	}
}

// RequestTimeout is the HTTP client timeout. Zero leaves it to the transport.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds == nil {
		return defaultRequestTimeout * time.Second
	}
	return time.Duration(*c.RequestTimeoutSeconds) * time.Second
}

// CanAccessFiles reports whether attachments may be read from the local filesystem
func (c *Config) CanAccessFiles() bool {
	return c.FileAccess == nil || *c.FileAccess
}

// Pattern looks up a named date pattern
func (c *Config) Pattern(name string) (DatePattern, bool) {
	for _, p := range c.DatePatterns {
		if p.Name == name {
			return p, true
		}
	}
	return DatePattern{}, false
}

// LoadWithEnv loads the configuration for an environment.
// wfh_config.<env>.yaml is preferred over wfh_config.yaml; defaults are used when neither exists.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if errors.Is(err, ErrConfigNotFound) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, pattern := range cfg.DatePatterns {
		opt, err := rrule.StrToROption(pattern.RRule)
		if err != nil {
			return fmt.Errorf("invalid rrule in datePatterns[%d]: %w", i, err)
		}
		// Patterns select concrete dates, so they must end
		if opt.Count == 0 && opt.Until.IsZero() {
			return fmt.Errorf("invalid rrule in datePatterns[%d]: must set COUNT or UNTIL", i)
		}
	}

	return nil
}

// findConfigFile searches the current directory, then the home directory,
// for wfh_config.<env>.yaml and then wfh_config.yaml
func findConfigFile(env string) (string, error) {
	names := []string{configFileName}
	if env != "" {
		names = []string{"wfh_config." + env + ".yaml", configFileName}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	for _, name := range names {
		for _, candidate := range []string{name, filepath.Join(homeDir, name)} {
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	return "", ErrConfigNotFound
}

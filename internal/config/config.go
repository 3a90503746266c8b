// Package config loads server configuration from an optional YAML file and
// environment variables. Command line flags are applied on top by main.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/vishalharkal15/pdf-convert/internal/document"
	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

const (
	DefaultPort            = 3000
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxUploadSize   = int64(512 * 1024 * 1024)
	DefaultRateLimitRPS    = 5.0
	DefaultRateLimitBurst  = 10
)

// Config is the complete server configuration
type Config struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxUploadSize caps a whole request body, MaxFileSize each document.
	MaxUploadSize int64 `yaml:"max_upload_size"`
	MaxFileSize   int64 `yaml:"max_file_size"`

	ValidationMode string `yaml:"validation_mode"` // relaxed or strict

	RateLimit RateLimitConfig `yaml:"rate_limit"`

	LogToolErrors bool   `yaml:"log_tool_errors"`
	ErrorLogPath  string `yaml:"error_log_path"`
}

// RateLimitConfig limits requests per client IP. RPS of zero disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	return &Config{
		Port:            DefaultPort,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		MaxUploadSize:   DefaultMaxUploadSize,
		MaxFileSize:     tools.DefaultMaxFileSize,
		ValidationMode:  string(document.ValidationRelaxed),
		RateLimit: RateLimitConfig{
			RPS:   DefaultRateLimitRPS,
			Burst: DefaultRateLimitBurst,
		},
	}
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		expanded, err := expandHome(path)
		if err != nil {
			return nil, err
		}

		data, err := os.ReadFile(expanded)
		switch {
		case os.IsNotExist(err):
			logrus.WithField("config_path", expanded).Debug("Configuration file not found, using defaults")
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", expanded, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables
func (c *Config) ApplyEnv() error {
	if err := envInt("PDF_CONVERT_PORT", &c.Port); err != nil {
		return err
	}
	if err := envInt64(tools.MaxFileSizeEnvVar, &c.MaxFileSize); err != nil {
		return err
	}
	if err := envInt64("PDF_MAX_UPLOAD_SIZE", &c.MaxUploadSize); err != nil {
		return err
	}
	if v := os.Getenv("PDF_VALIDATION_MODE"); v != "" {
		c.ValidationMode = v
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS %q: %w", v, err)
		}
		c.RateLimit.RPS = rps
	}
	if err := envInt("RATE_LIMIT_BURST", &c.RateLimit.Burst); err != nil {
		return err
	}
	if v := os.Getenv("LOG_TOOL_ERRORS"); v != "" {
		c.LogToolErrors = v == "true"
	}
	if v := os.Getenv("PDF_ERROR_LOG_PATH"); v != "" {
		c.ErrorLogPath = v
	}
	return nil
}

// Validate fills zero values with defaults and rejects unusable settings
func (c *Config) Validate() error {
	d := Default()

	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}

	for _, t := range []struct {
		name string
		v    *time.Duration
		def  time.Duration
	}{
		{"read_timeout", &c.ReadTimeout, d.ReadTimeout},
		{"write_timeout", &c.WriteTimeout, d.WriteTimeout},
		{"idle_timeout", &c.IdleTimeout, d.IdleTimeout},
		{"shutdown_timeout", &c.ShutdownTimeout, d.ShutdownTimeout},
	} {
		if *t.v == 0 {
			*t.v = t.def
		}
		if *t.v < 0 {
			return fmt.Errorf("%s must not be negative", t.name)
		}
	}

	if c.MaxFileSize <= 0 {
		c.MaxFileSize = d.MaxFileSize
	}
	if c.MaxUploadSize <= 0 {
		c.MaxUploadSize = d.MaxUploadSize
	}
	if c.MaxUploadSize < c.MaxFileSize {
		return fmt.Errorf("max_upload_size (%d) must be at least max_file_size (%d)", c.MaxUploadSize, c.MaxFileSize)
	}

	mode, err := document.ParseValidationMode(c.ValidationMode)
	if err != nil {
		return err
	}
	c.ValidationMode = string(mode)

	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rate_limit.rps must not be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = max(1, int(c.RateLimit.RPS))
	}

	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = n
	return nil
}

func envInt64(name string, dst *int64) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = n
	return nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/alarm-scheduler/internal/logger"
)

// Config holds the settings shared by the scheduler binaries.
type Config struct {
	// Prompt is printed before every console read. Empty disables it.
	Prompt string `yaml:"prompt"`
	// ControlAddress is where the gRPC control API listens (scheduler) or
	// dials (alarm-ctl). Empty disables the API.
	ControlAddress string `yaml:"control_address"`
	// LogLevel is the minimum zap level written to standard error.
	LogLevel string `yaml:"log_level"`
	// EventBuffer is the capacity of the display registry event channel.
	EventBuffer int `yaml:"event_buffer"`
	// MaxAlarms caps the number of pending alarms.
	MaxAlarms int `yaml:"max_alarms"`
	// Timeout is the per-call deadline of control API clients.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for scheduler settings.
	DefaultConfigFilename = "alarm-scheduler-settings.yaml"

	// DefaultPrompt is printed before every console read.
	DefaultPrompt = "Alarm> "

	// DefaultLogLevel keeps the terminal free of informational logs.
	DefaultLogLevel = "warn"

	// DefaultEventBuffer is the default registry event channel capacity.
	DefaultEventBuffer = 64

	// DefaultMaxAlarms is the default cap on pending alarms.
	DefaultMaxAlarms = 1024

	// DefaultTimeout is the default duration for control API calls.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNegativeLimit is returned when a capacity setting is negative.
	errNegativeLimit = errors.New("event_buffer and max_alarms must not be negative")
)

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Prompt:      DefaultPrompt,
		LogLevel:    DefaultLogLevel,
		EventBuffer: DefaultEventBuffer,
		MaxAlarms:   DefaultMaxAlarms,
		Timeout:     DefaultTimeout,
	}
}

// Load reads configuration from the provided path and validates essential fields.
// Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes Config to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills defaults for zero values.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ControlAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.ControlAddress); err != nil {
			return fmt.Errorf("invalid control address: %w", err)
		}
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("invalid log level %q", settings.LogLevel)
	}

	if settings.EventBuffer < 0 || settings.MaxAlarms < 0 {
		return errNegativeLimit
	}

	if settings.EventBuffer == 0 {
		settings.EventBuffer = DefaultEventBuffer
	}

	// Set default timeout if not specified
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	return nil
}

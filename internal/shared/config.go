package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Progress modes accepted by [ProgressConfig.Mode].
const (
	ProgressAuto      = "auto"
	ProgressEvent     = "event"
	ProgressSimulated = "simulated"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Credentials CredentialsConfig `toml:"credentials"`
	Upload      UploadConfig      `toml:"upload"`
	Progress    ProgressConfig    `toml:"progress"`
	Download    DownloadConfig    `toml:"download"`
	Database    DatabaseConfig    `toml:"database"`
	Log         LogConfig         `toml:"log"`
}

// ServerConfig points the client at the extraction backend.
type ServerConfig struct {
	BaseURL   string        `toml:"base_url"`
	Timeout   time.Duration `toml:"timeout"`
	LoginPath string        `toml:"login_path"`
}

// CredentialsConfig contains backend login credentials.
type CredentialsConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	CurlFile string `toml:"curl_file"`
}

// UploadConfig contains the local validation rules and upload behavior.
type UploadConfig struct {
	MaxSize     int64         `toml:"max_size"`
	Extension   string        `toml:"extension"`
	FieldName   string        `toml:"field_name"`
	SettleDelay time.Duration `toml:"settle_delay"`
}

// ProgressConfig selects and tunes the upload progress strategy.
type ProgressConfig struct {
	Mode     string        `toml:"mode"`
	Interval time.Duration `toml:"interval"`
	Step     float64       `toml:"step"`
	Ceiling  float64       `toml:"ceiling"`
}

// DownloadConfig controls where the exported CSV is saved.
type DownloadConfig struct {
	Dir string `toml:"dir"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks the values that the workflow relies on. It also
// normalizes progress.mode to lower case so later comparisons are exact.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("%w: server.base_url is required", ErrInvalidConfig)
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("%w: upload.max_size must be positive", ErrInvalidConfig)
	}
	if c.Upload.FieldName == "" {
		return fmt.Errorf("%w: upload.field_name is required", ErrInvalidConfig)
	}

	c.Progress.Mode = strings.ToLower(strings.TrimSpace(c.Progress.Mode))
	switch c.Progress.Mode {
	case ProgressAuto, ProgressEvent, ProgressSimulated:
	default:
		return fmt.Errorf("%w: progress.mode must be auto, event or simulated (got %q)", ErrInvalidConfig, c.Progress.Mode)
	}

	if c.Progress.Ceiling <= 0 || c.Progress.Ceiling >= 100 {
		return fmt.Errorf("%w: progress.ceiling must be between 0 and 100 exclusive", ErrInvalidConfig)
	}
	if c.Progress.Step <= 0 {
		return fmt.Errorf("%w: progress.step must be positive", ErrInvalidConfig)
	}
	if c.Progress.Interval <= 0 {
		return fmt.Errorf("%w: progress.interval must be positive", ErrInvalidConfig)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadOrDefault loads the config at path when it exists, otherwise returns the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

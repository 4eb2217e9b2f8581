package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the complete configuration for playground
type Config struct {
	// Version of the configuration format
	Version string `json:"version"`

	// APIBase is the root URL of the backend API
	APIBase string `json:"apiBase" validate:"required,url"`

	// UserID is the fixed user handle conversations are stored under
	UserID string `json:"userId" validate:"required"`

	// Transport configuration for the API client
	Transport TransportConfig `json:"transport"`

	// Chat request and conversation defaults
	Chat ChatConfig `json:"chat"`

	// Local storage configuration
	Storage StorageConfig `json:"storage"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`
}

// TransportConfig holds HTTP client settings
type TransportConfig struct {
	Timeout    Duration `json:"timeout" validate:"min=0"`
	RetryCount int      `json:"retry_count" validate:"min=0,max=10"`
	RetryDelay Duration `json:"retry_delay" validate:"min=0"`

	RequestsPerMinute int `json:"requests_per_minute" validate:"min=0"`
	BurstSize         int `json:"burst_size" validate:"min=0"`

	Headers map[string]string `json:"headers,omitempty"`
}

// ChatConfig holds inference and conversation defaults
type ChatConfig struct {
	MaxTokens    int     `json:"max_tokens" validate:"min=1"`
	Temperature  float32 `json:"temperature" validate:"min=0,max=2"`
	TitleLength  int     `json:"title_length" validate:"min=1,max=200"`
	DefaultTitle string  `json:"default_title"`
	// DefaultModel seeds the model selection when no saved state exists
	DefaultModel string `json:"default_model,omitempty"`
}

// StorageConfig holds local state settings
type StorageConfig struct {
	DatabasePath  string `json:"database_path"`
	DisableOutbox bool   `json:"disable_outbox,omitempty"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `json:"level" validate:"log_level"`
	Format string `json:"format" validate:"log_format"`
	File   string `json:"file,omitempty"`
}

// Duration is a time.Duration that reads "30s" style strings as well as
// integer nanoseconds from JSON.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
	case nil:
		*d = 0
	default:
		return fmt.Errorf("invalid duration %s", string(data))
	}
	return nil
}

// ConfigPrecedence defines the order of configuration loading
type ConfigPrecedence struct {
	// SystemConfig path
	SystemConfig string

	// UserConfig path
	UserConfig string

	// ProjectConfig path
	ProjectConfig string

	// LocalConfig path
	LocalConfig string

	// ExplicitConfig is a path given on the command line. Unlike the others
	// it must exist.
	ExplicitConfig string

	// EnvironmentPrefix for env var overrides
	EnvironmentPrefix string
}

// Overrides are command line values applied after every other source.
type Overrides struct {
	APIBase  string
	UserID   string
	LogLevel string
	LogFile  string
	DBPath   string
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return e.Message
}

// ConfigSource indicates where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"
	SourceUser        ConfigSource = "user"
	SourceProject     ConfigSource = "project"
	SourceLocal       ConfigSource = "local"
	SourceExplicit    ConfigSource = "explicit"
	SourceEnvironment ConfigSource = "environment"
	SourceCLI         ConfigSource = "cli"
)

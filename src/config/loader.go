package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
)

// Loader handles loading and merging configurations from multiple sources
type Loader struct {
	fs         afero.Fs
	precedence ConfigPrecedence
	validator  *Validator
}

// NewLoader creates a new configuration loader on the OS filesystem
func NewLoader(precedence ConfigPrecedence) *Loader {
	return NewLoaderFs(afero.NewOsFs(), precedence)
}

// NewLoaderFs creates a configuration loader reading from fsys
func NewLoaderFs(fsys afero.Fs, precedence ConfigPrecedence) *Loader {
	return &Loader{
		fs:         fsys,
		precedence: precedence,
		validator:  NewValidator(),
	}
}

// Load loads configuration from all sources and merges them
func (l *Loader) Load() (*Config, error) {
	return l.LoadWithOverrides(Overrides{})
}

// LoadWithOverrides loads every source and then applies command line values
func (l *Loader) LoadWithOverrides(overrides Overrides) (*Config, error) {
	// Start with default configuration
	config := DefaultConfig()

	for _, src := range l.sources() {
		if src.path == "" {
			continue
		}

		cfg, err := l.loadFile(src.path)
		switch {
		case err == nil:
			config = l.mergeConfigs(config, cfg)
		case errors.Is(err, fs.ErrNotExist) && src.source != SourceExplicit:
		default:
			return nil, fmt.Errorf("failed to load %s config from %s: %w", src.source, src.path, err)
		}
	}

	// Apply environment variable overrides
	if l.precedence.EnvironmentPrefix != "" {
		l.applyEnvironmentOverrides(config)
	}

	applyOverrides(config, overrides)

	// Validate the final configuration
	if err := l.validator.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

type sourcePath struct {
	path   string
	source ConfigSource
}

func (l *Loader) sources() []sourcePath {
	return []sourcePath{
		{l.precedence.SystemConfig, SourceSystem},
		{l.precedence.UserConfig, SourceUser},
		{l.precedence.ProjectConfig, SourceProject},
		{l.precedence.LocalConfig, SourceLocal},
		{l.precedence.ExplicitConfig, SourceExplicit},
	}
}

// loadFile loads a single configuration file
func (l *Loader) loadFile(path string) (*Config, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &config, nil
}

// SaveFile saves configuration to a file
func (l *Loader) SaveFile(config *Config, path string) error {
	// Validate before saving
	if err := l.validator.Validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	// Ensure directory exists
	if err := l.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Marshal with pretty printing
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(l.fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// mergeConfigs merges two configurations with the second taking precedence
func (l *Loader) mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}
	if override.APIBase != "" {
		result.APIBase = override.APIBase
	}
	if override.UserID != "" {
		result.UserID = override.UserID
	}

	result.Transport = l.mergeTransport(result.Transport, override.Transport)
	result.Chat = l.mergeChat(result.Chat, override.Chat)

	// Merge Storage
	if override.Storage.DatabasePath != "" {
		result.Storage.DatabasePath = override.Storage.DatabasePath
	}
	result.Storage.DisableOutbox = result.Storage.DisableOutbox || override.Storage.DisableOutbox

	// Merge Logging
	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}
	if override.Logging.File != "" {
		result.Logging.File = override.Logging.File
	}

	return &result
}

// mergeTransport merges transport configurations
func (l *Loader) mergeTransport(base, override TransportConfig) TransportConfig {
	result := base

	if override.Timeout != 0 {
		result.Timeout = override.Timeout
	}
	if override.RetryCount != 0 {
		result.RetryCount = override.RetryCount
	}
	if override.RetryDelay != 0 {
		result.RetryDelay = override.RetryDelay
	}
	if override.RequestsPerMinute != 0 {
		result.RequestsPerMinute = override.RequestsPerMinute
	}
	if override.BurstSize != 0 {
		result.BurstSize = override.BurstSize
	}
	if len(override.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(override.Headers))
		maps.Copy(headers, result.Headers)
		maps.Copy(headers, override.Headers)
		result.Headers = headers
	}

	return result
}

// mergeChat merges chat configurations
func (l *Loader) mergeChat(base, override ChatConfig) ChatConfig {
	result := base

	if override.MaxTokens != 0 {
		result.MaxTokens = override.MaxTokens
	}
	if override.Temperature != 0 {
		result.Temperature = override.Temperature
	}
	if override.TitleLength != 0 {
		result.TitleLength = override.TitleLength
	}
	if override.DefaultTitle != "" {
		result.DefaultTitle = override.DefaultTitle
	}
	if override.DefaultModel != "" {
		result.DefaultModel = override.DefaultModel
	}

	return result
}

// applyEnvironmentOverrides applies environment variable overrides to config
func (l *Loader) applyEnvironmentOverrides(config *Config) {
	prefix := l.precedence.EnvironmentPrefix

	if apiBase := os.Getenv(prefix + "_API_BASE"); apiBase != "" {
		config.APIBase = apiBase
	}
	if userID := os.Getenv(prefix + "_USER_ID"); userID != "" {
		config.UserID = userID
	}
	if level := os.Getenv(prefix + "_LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}
	if dbPath := os.Getenv(prefix + "_DB_PATH"); dbPath != "" {
		config.Storage.DatabasePath = dbPath
	}
	if model := os.Getenv(prefix + "_MODEL"); model != "" {
		config.Chat.DefaultModel = model
	}
}

func applyOverrides(config *Config, o Overrides) {
	if o.APIBase != "" {
		config.APIBase = o.APIBase
	}
	if o.UserID != "" {
		config.UserID = o.UserID
	}
	if o.LogLevel != "" {
		config.Logging.Level = strings.ToLower(o.LogLevel)
	}
	if o.LogFile != "" {
		config.Logging.File = o.LogFile
	}
	if o.DBPath != "" {
		config.Storage.DatabasePath = o.DBPath
	}
}

// GetConfigPaths returns the configuration file paths to check
func GetConfigPaths() ConfigPrecedence {
	// System config path varies by OS
	systemConfigPath := "/etc/playground/config.json"
	if runtime.GOOS == "windows" {
		systemConfigPath = filepath.Join(os.Getenv("PROGRAMDATA"), "playground", "config.json")
	}

	return ConfigPrecedence{
		SystemConfig:      systemConfigPath,
		UserConfig:        UserConfigPath(),
		ProjectConfig:     filepath.Join(".playground", "config.json"),
		LocalConfig:       filepath.Join(".playground", "config.local.json"),
		EnvironmentPrefix: "PLAYGROUND",
	}
}

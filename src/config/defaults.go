package config

import (
	"time"
)

const (
	DefaultAPIBase = "http://localhost:5000/api"
	DefaultUserID  = "demo-user"
)

// DefaultConfig returns a default configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		APIBase: DefaultAPIBase,
		UserID:  DefaultUserID,

		Transport: TransportConfig{
			Timeout:    Duration(30 * time.Second),
			RetryCount: 3,
			RetryDelay: Duration(time.Second),
		},

		Chat: ChatConfig{
			MaxTokens:    500,
			Temperature:  0.7,
			TitleLength:  50,
			DefaultTitle: "New Conversation",
		},

		Storage: StorageConfig{
			DatabasePath: DefaultDatabasePath(),
		},

		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

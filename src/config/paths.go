package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "playground"

// DefaultDatabasePath returns the sqlite path under XDG_STATE_HOME, which is
// where runtime state belongs per the XDG base directory layout.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.StateHome, appName, "playground.db")
}

// DefaultLogPath returns the log file path used when file logging is enabled
// without an explicit location.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, appName, "playground.log")
}

// UserConfigPath returns the per-user config file path.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.json")
}

package config

import (
	"fmt"
)

// ConfigLocation represents a configuration file the loader checks
type ConfigLocation struct {
	Path   string
	Source ConfigSource
	Exists bool
	// Error is set when the file exists but cannot be parsed
	Error string
}

// ConfigInfo provides information about the configuration setup
type ConfigInfo struct {
	Locations []ConfigLocation
	Warnings  []string
}

// Locations reports every configured file in precedence order, lowest first.
func (l *Loader) Locations() []ConfigLocation {
	var locations []ConfigLocation
	for _, src := range l.sources() {
		if src.path == "" {
			continue
		}
		loc := ConfigLocation{Path: src.path, Source: src.source}
		if info, err := l.fs.Stat(src.path); err == nil && !info.IsDir() {
			loc.Exists = true
			if _, err := l.loadFile(src.path); err != nil {
				loc.Error = err.Error()
			}
		}
		locations = append(locations, loc)
	}
	return locations
}

// Info describes which files contribute to the configuration.
func (l *Loader) Info() *ConfigInfo {
	info := &ConfigInfo{Locations: l.Locations()}

	found := false
	for _, loc := range info.Locations {
		if loc.Exists {
			found = true
		}
		if loc.Error != "" {
			info.Warnings = append(info.Warnings, fmt.Sprintf("failed to load %s config from %s: %s", loc.Source, loc.Path, loc.Error))
		}
		if loc.Source == SourceExplicit && !loc.Exists {
			info.Warnings = append(info.Warnings, fmt.Sprintf("config file %s does not exist", loc.Path))
		}
	}
	if !found {
		info.Warnings = append(info.Warnings, "No configuration files found, using defaults")
	}
	return info
}

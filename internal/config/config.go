package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds all configurable CropScan settings.
type Config struct {
	ServerURL             string `json:"server_url"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	WatchDir              string `json:"watch_dir"`  // drop directory to auto-offer new images from
	ExportDir             string `json:"export_dir"` // where saved image copies land
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		ServerURL:             "http://localhost:8000",
		RequestTimeoutSeconds: 30,
		ExportDir:             ".",
	}
}

// LoadGlobal reads ~/.config/cropscan/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, ".config", "cropscan", "config.json")
	return loadFile(path, true)
}

// LoadProject reads .cropscanconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".cropscanconfig", false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()

	// Apply global values over defaults.
	if global != nil {
		if global.ServerURL != "" {
			result.ServerURL = global.ServerURL
		}
		if global.RequestTimeoutSeconds > 0 {
			result.RequestTimeoutSeconds = global.RequestTimeoutSeconds
		}
		if global.WatchDir != "" {
			result.WatchDir = global.WatchDir
		}
		if global.ExportDir != "" {
			result.ExportDir = global.ExportDir
		}
	}

	// Apply project values over global.
	if project != nil {
		if project.ServerURL != "" {
			result.ServerURL = project.ServerURL
		}
		if project.RequestTimeoutSeconds > 0 {
			result.RequestTimeoutSeconds = project.RequestTimeoutSeconds
		}
		if project.WatchDir != "" {
			result.WatchDir = project.WatchDir
		}
		if project.ExportDir != "" {
			result.ExportDir = project.ExportDir
		}
	}

	return result
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Package config handles runtime configuration for the simulator
// daemon: where state lives, which backend persists it, and how the
// process logs. Protocol behavior is not configurable.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// StorageBackend selects the key-value store implementation.
type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageBadger StorageBackend = "badger"
)

// Config holds runtime settings for one simulator process.
type Config struct {
	// Core
	DataDir    string `conf:"datadir"`
	ContractID string `conf:"contract"`

	// Storage
	Storage StorageBackend `conf:"storage"`

	// Logging
	Log LogConfig
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet-mt
//	macOS:   ~/Library/Application Support/KlingnetMT
//	Windows: %APPDATA%\KlingnetMT
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-mt"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetMT")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "KlingnetMT")
		}
		return filepath.Join(home, "AppData", "Roaming", "KlingnetMT")
	default:
		return filepath.Join(home, ".klingnet-mt")
	}
}

// StateDir returns the contract state database directory.
func (c *Config) StateDir() string {
	return filepath.Join(c.DataDir, "state")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "mtsim.conf")
}

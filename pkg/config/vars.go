package config

import (
	"path/filepath"
)

var (
	// AppName is used in generating file system paths.
	AppName = "dwca-tools"
)

// ConfigDir returns the directory path for configuration files.
// Returns ~/.config/dwca-tools by default.
func ConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", AppName)
}

// CacheDir returns the directory path for cache files.
// Returns ~/.cache/dwca-tools by default.
func CacheDir(homeDir string) string {
	return filepath.Join(homeDir, ".cache", AppName)
}

// LogDir returns the directory path for log files.
// Returns ~/.local/share/dwca-tools/logs by default.
func LogDir(homeDir string) string {
	return filepath.Join(homeDir, ".local", "share", AppName, "logs")
}

// ConfigFilePath returns the full path to the config.yaml file.
// Returns ~/.config/dwca-tools/config.yaml by default.
func ConfigFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "config.yaml")
}

// DefaultDatabaseURL returns a SQLite URL for a database file named
// after the archive, placed in the current directory.
func DefaultDatabaseURL(archivePath string) string {
	base := filepath.Base(archivePath)
	stem := base[:len(base)-len(filepath.Ext(base))]
	return "sqlite:///" + stem + ".db"
}

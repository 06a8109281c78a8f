// Package paths resolves where tablekit keeps its configuration and its
// default SQLite database.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "tablekit"

// File names inside the resolved directories.
const (
	ConfigFileName   = "config.yaml"
	DatabaseFileName = "tablekit.db"
)

// Environment variables overriding the platform defaults.
const (
	EnvConfigDir = "TABLEKIT_CONFIG_DIR"
	EnvDataDir   = "TABLEKIT_DATA_DIR"
)

// platformDir holds platform lookups that tests replace.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/tablekit (fallback ~/.config/tablekit)
// macOS:   ~/Library/Application Support/tablekit
// Windows: %APPDATA%/tablekit
func DefaultConfigDir() (string, error) {
	return platformPath("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/tablekit (fallback ~/.local/share/tablekit)
// macOS and Windows: the configuration directory.
func DefaultDataDir() (string, error) {
	return platformPath("XDG_DATA_HOME", ".local", "share")
}

func platformPath(xdgVar string, homeRel ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, homeRel...), appName)...), nil
}

// ResolveConfigDir applies flag > TABLEKIT_CONFIG_DIR > DefaultConfigDir.
// Overrides are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config value > TABLEKIT_DATA_DIR >
// DefaultDataDir. Overrides are made absolute.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, dir := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	return DefaultDataDir()
}

// DefaultDSN returns the SQLite database path inside dataDir, used when
// the configuration names no dsn.
func DefaultDSN(dataDir string) string {
	return filepath.Join(dataDir, DatabaseFileName)
}

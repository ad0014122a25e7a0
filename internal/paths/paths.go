// Package paths resolves where linknav keeps its configuration and data.
// Each location follows the same precedence: explicit flag, then the
// LINKNAV_* environment variable, then the platform default.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "linknav"

// File names inside the config directory.
const (
	ConfigFileName = "config.yaml"
	LinksFileName  = "links.yaml"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "LINKNAV_CONFIG_DIR"
	EnvDataDir   = "LINKNAV_DATA_DIR"
)

// platformDir is swapped out in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/linknav (fallback ~/.config/linknav)
// macOS:   ~/Library/Application Support/linknav
// Windows: %APPDATA%/linknav
func DefaultConfigDir() (string, error) {
	return platformPath("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/linknav (fallback ~/.local/share/linknav)
// macOS and Windows: same as DefaultConfigDir.
func DefaultDataDir() (string, error) {
	return platformPath("XDG_DATA_HOME", ".local", "share")
}

func platformPath(xdgEnv string, homeRel ...string) (string, error) {
	if platformDir.goos != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, homeRel...)
	return filepath.Join(append(parts, appName)...), nil
}

// ResolveConfigDir applies flag > LINKNAV_CONFIG_DIR > DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	return resolve(flag, "", EnvConfigDir, DefaultConfigDir)
}

// ResolveDataDir applies flag > config file value > LINKNAV_DATA_DIR >
// DefaultDataDir.
func ResolveDataDir(flag, configValue string) (string, error) {
	return resolve(flag, configValue, EnvDataDir, DefaultDataDir)
}

func resolve(flag, configValue, env string, fallback func() (string, error)) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(env)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	return fallback()
}

// ConfigFile returns the config.yaml path inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

// LinksFile returns the path of the links configuration. A relative value
// from the config file is taken relative to configDir; an empty value means
// links.yaml in configDir.
func LinksFile(configDir, configValue string) string {
	switch {
	case configValue == "":
		return filepath.Join(configDir, LinksFileName)
	case filepath.IsAbs(configValue):
		return configValue
	default:
		return filepath.Join(configDir, configValue)
	}
}

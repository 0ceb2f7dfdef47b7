// Package paths resolves configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appDirName is the per-user directory name under the platform roots.
const appDirName = "indexkeeper"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "INDEXKEEPER_CONFIG_DIR"
	EnvDataDir   = "INDEXKEEPER_DATA_DIR"
)

// Files inside the resolved directories.
const (
	ConfigFileName  = "config.yaml"
	CatalogFileName = "catalog.json"
	StateDirName    = "state"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/indexkeeper (fallback ~/.config/indexkeeper)
// macOS:   ~/Library/Application Support/indexkeeper
// Windows: %APPDATA%/indexkeeper
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appDirName), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDirName), nil
	}
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/indexkeeper (fallback ~/.local/share/indexkeeper)
// macOS:   ~/Library/Application Support/indexkeeper
// Windows: %APPDATA%/indexkeeper
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", appDirName), nil
	default:
		// macOS and Windows: same as config dir.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDirName), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > INDEXKEEPER_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > INDEXKEEPER_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}

// ResolveCatalog returns the catalog path: configured, relative paths
// anchored at the data directory, else <dataDir>/catalog.json.
func ResolveCatalog(configured, dataDir string) string {
	switch {
	case configured == "":
		return filepath.Join(dataDir, CatalogFileName)
	case filepath.IsAbs(configured):
		return configured
	default:
		return filepath.Join(dataDir, configured)
	}
}

// StateDir is the directory holding local collection documents.
func StateDir(dataDir string) string {
	return filepath.Join(dataDir, StateDirName)
}

package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns where an on-disk history store goes when none is
// configured. XDG_DATA_HOME wins; otherwise the usual per-OS location under
// the home directory, falling back to ./data without a home directory.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "taxiway")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}
	candidates := []struct {
		parent string
		dir    string
	}{
		{filepath.Join(home, "Library"), filepath.Join(home, "Library", "Application Support", "taxiway")},
		{filepath.Join(home, "AppData"), filepath.Join(home, "AppData", "Local", "taxiway")},
		{filepath.Join(home, ".local", "share"), filepath.Join(home, ".local", "share", "taxiway")},
	}
	for _, c := range candidates {
		if isDir(c.parent) {
			return c.dir
		}
	}
	return filepath.Join(home, ".taxiway")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

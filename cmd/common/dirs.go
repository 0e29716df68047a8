package common

import (
	"os"
	"path/filepath"
)

const appName = "strobe"

// ConfigDir returns ~/.strobe, or "" when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "."+appName)
}

// DefaultCatalogPath is where serve and songs look for songs.json when no
// path is given: the working directory first, then the config dir.
func DefaultCatalogPath() string {
	if _, err := os.Stat("songs.json"); err == nil {
		return "songs.json"
	}
	if dir := ConfigDir(); dir != "" {
		return filepath.Join(dir, "songs.json")
	}
	return "songs.json"
}

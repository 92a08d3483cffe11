package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Preferences are the user-level settings read from
// ~/.config/stagehand/config.toml. They supply defaults that individual
// command flags can override.
type Preferences struct {
	// LogLevel selects console verbosity: debug, info, warn, or error.
	LogLevel string `toml:"log_level"`
	// AllowNetwork globally disables provisioning steps that reach the
	// network when false.
	AllowNetwork bool `toml:"allow_network"`
	// ConcurrentChecks caps how many requirement checks run at once.
	ConcurrentChecks int `toml:"concurrent_checks"`
	// Channels are extra package channels appended to every environment
	// declaration.
	Channels []string `toml:"channels"`
}

// DefaultPreferences returns the settings used when no preferences file
// exists.
func DefaultPreferences() Preferences {
	return Preferences{
		LogLevel:         "info",
		AllowNetwork:     true,
		ConcurrentChecks: 4,
	}
}

// PreferencesPath returns the location of the user preferences file.
func PreferencesPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(dir, "stagehand", "config.toml"), nil
}

// LoadPreferences reads the preferences file at path. A missing file
// yields the defaults and no error; a malformed file is an error because
// silently ignoring explicit settings would be worse than failing.
func LoadPreferences(path string) (Preferences, error) {
	prefs := DefaultPreferences()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("reading preferences %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &prefs); err != nil {
		return DefaultPreferences(), fmt.Errorf("parsing preferences %s: %w", path, err)
	}
	if prefs.ConcurrentChecks < 1 {
		prefs.ConcurrentChecks = 1
	}
	return prefs, nil
}

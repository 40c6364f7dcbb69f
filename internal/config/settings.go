package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SettingsFilename is the optional per-project settings file, looked up in
// the application root directory.
const SettingsFilename = ".vinfo.yaml"

// Settings holds project defaults. Every field is optional; flags and
// environment variables override them.
type Settings struct {
	// Tool is the package manager executable.
	Tool string `yaml:"tool"`
	// Dependency is the package whose installed version is reported.
	Dependency string `yaml:"dependency"`
	// Profile selects the reported field set.
	Profile string `yaml:"profile"`
	// Timeout bounds each package manager invocation.
	Timeout time.Duration `yaml:"timeout"`
}

var errNegativeTimeout = errors.New("timeout must not be negative")

// LoadSettings reads the settings file in dir. A missing file yields zero
// Settings and no error.
func LoadSettings(dir string) (Settings, error) {
	path := filepath.Join(dir, SettingsFilename)

	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(contents, &s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings %s: %w", path, err)
	}
	if s.Timeout < 0 {
		return Settings{}, fmt.Errorf("settings %s: %w", path, errNegativeTimeout)
	}

	return s, nil
}

// Or returns value unless it is empty, then fallback.
func Or(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// DurationOr returns value unless it is zero, then fallback.
func DurationOr(value, fallback time.Duration) time.Duration {
	if value == 0 {
		return fallback
	}
	return value
}

package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LoadSettings reads the optional TOML settings file. An absent file yields
// DefaultSettings; keys missing from the file keep their defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return Settings{}, &IOError{Op: "read", Path: path, Err: err}
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("CFG_SETTINGS_PARSE: %s: %w", path, err)
	}
	s = NormalizeSettings(s)
	if err := ValidateSettings(s); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded is a parsed config with its origin and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	// Exists is false when the implicit config file is absent and Config
	// holds the defaults.
	Exists bool
}

// Load reads the config named by flag, $DICTUM_CONFIG or the XDG location
// and layers it over Default. Only the implicit location may be missing.
func Load(flag string) (Loaded, error) {
	path, explicit, err := ResolvePath(flag)
	if err != nil {
		return Loaded{}, err
	}
	loaded := Loaded{Path: path, Config: Default()}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", path),
		})
		return loaded, nil
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}

	loaded.Config, loaded.Warnings, err = Parse(string(content), loaded.Config)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	loaded.Exists = true
	return loaded, nil
}

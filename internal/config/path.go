package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// EnvPath names the environment variable that points at a config file when
// --config is not given.
const EnvPath = "DICTUM_CONFIG"

// ResolvePath picks the config file: the --config value, then $DICTUM_CONFIG,
// then config.jsonc in Dir. explicit reports whether the user named the file.
func ResolvePath(flag string) (path string, explicit bool, err error) {
	if p := strings.TrimSpace(flag); p != "" {
		return p, true, nil
	}
	if p := strings.TrimSpace(os.Getenv(EnvPath)); p != "" {
		return p, true, nil
	}

	dir, err := Dir()
	if err != nil {
		return "", false, err
	}
	return filepath.Join(dir, "config.jsonc"), false, nil
}

// Dir is the dictum configuration directory. Override documents live here
// unless paths.override_dir says otherwise.
func Dir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "dictum"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}
	return filepath.Join(home, ".config", "dictum"), nil
}

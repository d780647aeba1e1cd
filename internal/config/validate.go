package config

import (
	"fmt"
	"strings"

	"github.com/rbright/dictum/internal/commands"
	"github.com/rbright/dictum/internal/hypr"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if _, err := commands.ParseMode(cfg.Format.Mode); err != nil {
		return nil, fmt.Errorf("format.mode: %w", err)
	}
	if !containsFold(logLevels, cfg.Log.Level) {
		return nil, fmt.Errorf("log.level must be one of: %s", strings.Join(logLevels, ", "))
	}
	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.TimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.timeout_ms must be >= 0")
	}

	if cfg.Output.Enable {
		if _, err := hypr.ParseShortcut(cfg.Output.DeleteShortcut); err != nil {
			return nil, fmt.Errorf("output.delete_shortcut: %w", err)
		}
		if cfg.Output.TypeCmd.Raw != "" && len(cfg.Output.TypeCmd.Argv) == 0 {
			return nil, fmt.Errorf("output.type_cmd is configured but empty")
		}
		if len(cfg.Output.TypeCmd.Argv) == 0 {
			if len(cfg.Output.Clipboard.Argv) == 0 {
				return nil, fmt.Errorf("output.clipboard_cmd must not be empty when output.type_cmd is unset")
			}
			if _, err := hypr.ParseShortcut(cfg.Output.PasteShortcut); err != nil {
				return nil, fmt.Errorf("output.paste_shortcut: %w", err)
			}
		}
	} else if cfg.Format.Shortcuts {
		warnings = append(warnings, Warning{
			Message: "format.shortcuts has no effect while output.enable=false",
		})
	}

	if cfg.Preedit.Enable && !cfg.Indicator.Enable {
		warnings = append(warnings, Warning{
			Message: "preedit.enable requires indicator.enable; partial results will not be shown",
		})
	}

	return warnings, nil
}

func containsFold(values []string, candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	for _, v := range values {
		if strings.EqualFold(v, candidate) {
			return true
		}
	}
	return false
}

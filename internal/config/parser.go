package config

import (
	"strings"

	"github.com/rbright/dictum/internal/jsonc"
)

type payload struct {
	Locale    *string           `json:"locale"`
	Paths     *pathsPayload     `json:"paths"`
	Format    *formatPayload    `json:"format"`
	Preedit   *preeditPayload   `json:"preedit"`
	Output    *outputPayload    `json:"output"`
	Indicator *indicatorPayload `json:"indicator"`
	Watch     *watchPayload     `json:"watch"`
	Log       *logPayload       `json:"log"`
}

type pathsPayload struct {
	DataDir        *string `json:"data_dir"`
	FormattingFile *string `json:"formatting_file"`
	OverrideDir    *string `json:"override_dir"`
}

type formatPayload struct {
	Mode      *string `json:"mode"`
	UseDigits *bool   `json:"use_digits"`
	Shortcuts *bool   `json:"shortcuts"`
}

type preeditPayload struct {
	Enable *bool `json:"enable"`
}

type outputPayload struct {
	Enable         *bool   `json:"enable"`
	TypeCmd        *string `json:"type_cmd"`
	ClipboardCmd   *string `json:"clipboard_cmd"`
	PasteShortcut  *string `json:"paste_shortcut"`
	DeleteShortcut *string `json:"delete_shortcut"`
}

type indicatorPayload struct {
	Enable         *bool   `json:"enable"`
	Backend        *string `json:"backend"`
	DesktopAppName *string `json:"desktop_app_name"`
	TimeoutMS      *int    `json:"timeout_ms"`
}

type watchPayload struct {
	Enable *bool `json:"enable"`
}

type logPayload struct {
	Level *string `json:"level"`
}

// Parse reads JSONC configuration content layered over base and validates
// the result. Keys absent from content keep their base values.
func Parse(content string, base Config) (Config, []Warning, error) {
	cfg := base
	if strings.TrimSpace(content) != "" {
		var p payload
		if err := jsonc.Decode(content, &p, true); err != nil {
			return Config{}, nil, err
		}
		if err := p.applyTo(&cfg); err != nil {
			return Config{}, nil, err
		}
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (p payload) applyTo(cfg *Config) error {
	if p.Locale != nil {
		cfg.Locale = strings.TrimSpace(*p.Locale)
	}

	if p.Paths != nil {
		setString(&cfg.Paths.DataDir, p.Paths.DataDir)
		setString(&cfg.Paths.FormattingFile, p.Paths.FormattingFile)
		setString(&cfg.Paths.OverrideDir, p.Paths.OverrideDir)
	}

	if p.Format != nil {
		setString(&cfg.Format.Mode, p.Format.Mode)
		setBool(&cfg.Format.UseDigits, p.Format.UseDigits)
		setBool(&cfg.Format.Shortcuts, p.Format.Shortcuts)
	}

	if p.Preedit != nil {
		setBool(&cfg.Preedit.Enable, p.Preedit.Enable)
	}

	if p.Output != nil {
		setBool(&cfg.Output.Enable, p.Output.Enable)
		if p.Output.TypeCmd != nil {
			cmd, err := parseCommand("output.type_cmd", *p.Output.TypeCmd)
			if err != nil {
				return err
			}
			cfg.Output.TypeCmd = cmd
		}
		if p.Output.ClipboardCmd != nil {
			cmd, err := parseCommand("output.clipboard_cmd", *p.Output.ClipboardCmd)
			if err != nil {
				return err
			}
			cfg.Output.Clipboard = cmd
		}
		setString(&cfg.Output.PasteShortcut, p.Output.PasteShortcut)
		setString(&cfg.Output.DeleteShortcut, p.Output.DeleteShortcut)
	}

	if p.Indicator != nil {
		setBool(&cfg.Indicator.Enable, p.Indicator.Enable)
		setString(&cfg.Indicator.Backend, p.Indicator.Backend)
		setString(&cfg.Indicator.DesktopAppName, p.Indicator.DesktopAppName)
		if p.Indicator.TimeoutMS != nil {
			cfg.Indicator.TimeoutMS = *p.Indicator.TimeoutMS
		}
	}

	if p.Watch != nil {
		setBool(&cfg.Watch.Enable, p.Watch.Enable)
	}

	if p.Log != nil {
		setString(&cfg.Log.Level, p.Log.Level)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

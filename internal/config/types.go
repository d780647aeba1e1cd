// Package config resolves, parses, validates, and defaults dictum configuration.
package config

// Config is the fully materialized runtime configuration used by dictum.
type Config struct {
	// Locale overrides the environment locale when non-empty.
	Locale    string
	Paths     PathsConfig
	Format    FormatConfig
	Preedit   PreeditConfig
	Output    OutputConfig
	Indicator IndicatorConfig
	Watch     WatchConfig
	Log       LogConfig
}

// PathsConfig points the locale store at user documents.
type PathsConfig struct {
	DataDir        string
	FormattingFile string
	OverrideDir    string
}

// FormatConfig holds the processor state restored at startup.
type FormatConfig struct {
	Mode      string
	UseDigits bool
	Shortcuts bool
}

// PreeditConfig controls whether partial results are surfaced while speaking.
type PreeditConfig struct {
	Enable bool
}

// OutputConfig controls how final results reach the focused window.
type OutputConfig struct {
	Enable         bool
	TypeCmd        CommandConfig
	Clipboard      CommandConfig
	PasteShortcut  string
	DeleteShortcut string
}

// IndicatorConfig controls mode and preedit notifications.
type IndicatorConfig struct {
	Enable bool
	// Backend is hypr (hyprctl notify) or desktop (freedesktop DBus).
	Backend        string
	DesktopAppName string
	TimeoutMS      int
}

// WatchConfig controls live reload of locale documents.
type WatchConfig struct {
	Enable bool
}

// LogConfig controls the JSONL runtime log.
type LogConfig struct {
	Level string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

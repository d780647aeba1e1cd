package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Format: FormatConfig{
			Mode:      "dictation",
			UseDigits: false,
			Shortcuts: true,
		},
		Preedit: PreeditConfig{Enable: false},
		Output: OutputConfig{
			Enable:         true,
			Clipboard:      CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
			PasteShortcut:  "CTRL,V",
			DeleteShortcut: ",BackSpace",
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "dictum",
			TimeoutMS:      1200,
		},
		Watch: WatchConfig{Enable: true},
		Log:   LogConfig{Level: "info"},
	}
}

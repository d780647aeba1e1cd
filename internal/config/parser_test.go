package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEmptyContentKeepsBase(t *testing.T) {
	t.Parallel()

	cfg, warnings, err := Parse("  \n", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseJSONCOverridesOnlyPresentKeys(t *testing.T) {
	t.Parallel()

	cfg, warnings, err := Parse(`
{
  // user locale wins over $LANG
  "locale": "fr_FR",
  "paths": {
    "data_dir": "/opt/dictum",
    "override_dir": "/tmp/overrides",
  },
  "format": {
    "mode": "spelling",
    "use_digits": true,
  },
  "output": {
    "type_cmd": "wtype -",
    "delete_shortcut": "BackSpace",
  },
  "indicator": { "timeout_ms": 500, "backend": "desktop" },
  "log": { "level": "debug" },
}
`, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, "fr_FR", cfg.Locale)
	require.Equal(t, "/opt/dictum", cfg.Paths.DataDir)
	require.Equal(t, "", cfg.Paths.FormattingFile)
	require.Equal(t, "/tmp/overrides", cfg.Paths.OverrideDir)
	require.Equal(t, "spelling", cfg.Format.Mode)
	require.True(t, cfg.Format.UseDigits)
	require.True(t, cfg.Format.Shortcuts)
	require.Equal(t, []string{"wtype", "-"}, cfg.Output.TypeCmd.Argv)
	require.Equal(t, "BackSpace", cfg.Output.DeleteShortcut)
	require.Equal(t, "CTRL,V", cfg.Output.PasteShortcut)
	require.Equal(t, 500, cfg.Indicator.TimeoutMS)
	require.True(t, cfg.Indicator.Enable)
	require.Equal(t, "desktop", cfg.Indicator.Backend)
	require.Equal(t, "dictum", cfg.Indicator.DesktopAppName)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestParseQuotedClipboardCommand(t *testing.T) {
	t.Parallel()

	cfg, _, err := Parse(`{"output": {"clipboard_cmd": "wl-copy --type 'text/plain'"}}`, Default())
	require.NoError(t, err)
	require.Equal(t, []string{"wl-copy", "--type", "text/plain"}, cfg.Output.Clipboard.Argv)
	require.Equal(t, "wl-copy --type 'text/plain'", cfg.Output.Clipboard.Raw)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, _, err := Parse(`{"format": {"mdoe": "literal"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "mdoe")
}

func TestParseReportsErrorLocation(t *testing.T) {
	t.Parallel()

	_, _, err := Parse("{\n  \"log\": {\n    \"level\": 3\n  }\n}", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
}

func TestParseRejectsUnterminatedCommandQuote(t *testing.T) {
	t.Parallel()

	_, _, err := Parse(`{"output": {"type_cmd": "wtype \"oops"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "output.type_cmd")
	require.Contains(t, err.Error(), "unterminated quote")
}

func TestParseValidatesResult(t *testing.T) {
	t.Parallel()

	_, _, err := Parse(`{"format": {"mode": "shouting"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "format.mode")
}

func TestParseOutputDisabledWarnsAboutShortcuts(t *testing.T) {
	t.Parallel()

	cfg, warnings, err := Parse(`{"output": {"enable": false, "delete_shortcut": ""}}`, Default())
	require.NoError(t, err)
	require.False(t, cfg.Output.Enable)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "format.shortcuts")
}

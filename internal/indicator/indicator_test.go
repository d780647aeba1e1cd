package indicator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/dictum/internal/commands"
	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/segment"
)

func readArgs(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestHyprNotifyDispatch(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installStub(t, "hyprctl", `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := config.Default().Indicator
	cfg.TimeoutMS = 900

	notify := NewHyprNotify(cfg, "en_US", nil)
	ctx := context.Background()
	state := segment.State{Mode: commands.ModeSpelling, CanDictate: true, CanSpell: true}
	notify.ShowState(ctx, state)
	notify.ShowState(ctx, state)
	notify.ShowPreview(ctx, "Hello\nworld")
	notify.ShowError(ctx, "")
	notify.Hide(ctx)

	require.Equal(t, []string{
		"--quiet dispatch notify 1 900 rgb(89b4fa) Spelling",
		"--quiet dispatch notify 2 30000 rgb(89b4fa) Hello⏎world",
		"--quiet dispatch notify 3 900 rgb(f38ba8) Dictation error",
		"--quiet dispatch dismissnotify",
	}, readArgs(t, argsFile))
}

func TestHyprNotifyDegradedStateWarns(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installStub(t, "hyprctl", `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := config.Default().Indicator
	cfg.TimeoutMS = 0

	notify := NewHyprNotify(cfg, "fr_FR", nil)
	notify.ShowState(context.Background(), segment.State{Mode: commands.ModeLiteral})

	require.Equal(t, []string{
		"--quiet dispatch notify 0 1200 rgb(f9e2af) Littéral · mise en forme indisponible",
	}, readArgs(t, argsFile))
}

func TestHyprNotifyDisabledSkipsDispatch(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installStub(t, "hyprctl", `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := config.Default().Indicator
	cfg.Enable = false

	notify := NewHyprNotify(cfg, "en", nil)
	notify.ShowState(context.Background(), segment.State{})
	notify.ShowPreview(context.Background(), "ignored")
	notify.ShowError(context.Background(), "ignored")
	notify.Hide(context.Background())

	_, err := os.Stat(argsFile)
	require.True(t, os.IsNotExist(err))
}

func TestDesktopBackendReplacesAndClosesNotification(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "busctl-args.log")
	t.Setenv("BUSCTL_ARGS_FILE", argsFile)
	installStub(t, "busctl", `
printf '%s\n' "$*" >> "${BUSCTL_ARGS_FILE}"
if [[ "${6:-}" == "Notify" ]]; then
  echo 'u 42'
fi
`)

	cfg := config.Default().Indicator
	cfg.Backend = "desktop"
	cfg.TimeoutMS = 700

	notify := NewHyprNotify(cfg, "en", nil)
	ctx := context.Background()
	notify.ShowError(ctx, "first")
	notify.ShowError(ctx, "second")
	notify.Hide(ctx)
	notify.Hide(ctx)

	prefix := "--user call org.freedesktop.Notifications /org/freedesktop/Notifications org.freedesktop.Notifications "
	require.Equal(t, []string{
		prefix + "Notify susssasa{sv}i dictum 0  first  0 0 700",
		prefix + "Notify susssasa{sv}i dictum 42  second  0 0 700",
		prefix + "CloseNotification u 42",
	}, readArgs(t, argsFile))
}

func TestDesktopNotifyRejectsMalformedResponse(t *testing.T) {
	installStub(t, "busctl", `
echo 'nonsense'
`)

	_, err := desktopNotify(context.Background(), "dictum", 0, "x", 100)
	require.ErrorContains(t, err, "invalid response")
}

func installStub(t *testing.T, name, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}

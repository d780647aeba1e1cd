// Package doctor runs readiness diagnostics for config, locale documents and
// output tools.
package doctor

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rbright/dictum/internal/commands"
	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/locale"
	"github.com/rbright/dictum/internal/numbers"
	"github.com/rbright/dictum/internal/session"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes config, document and environment checks.
func Run(cfg config.Loaded, store *locale.Store) Report {
	checks := []Check{}

	configMessage := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMessage = fmt.Sprintf("%q not found; using defaults", cfg.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMessage})

	checks = append(checks, checkFormatting(store))
	checks = append(checks, checkOverriding(store))
	checks = append(checks, checkNumberGrammar(store))

	out := cfg.Config.Output
	if out.Enable || cfg.Config.Indicator.Enable {
		checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
			return strings.EqualFold(strings.TrimSpace(v), "wayland")
		}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))
	}

	needHypr := out.Enable ||
		(cfg.Config.Indicator.Enable && !strings.EqualFold(cfg.Config.Indicator.Backend, "desktop"))
	if needHypr {
		checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))
		checks = append(checks, checkBinary("hyprctl", "key events and window lookup use hyprctl"))
	}
	if cfg.Config.Indicator.Enable && strings.EqualFold(cfg.Config.Indicator.Backend, "desktop") {
		checks = append(checks, checkBinary("busctl", "desktop notifications use busctl"))
	}

	if out.Enable {
		if len(out.TypeCmd.Argv) > 0 {
			checks = append(checks, checkCommand(out.TypeCmd.Argv, "type_cmd"))
		} else {
			checks = append(checks, checkCommand(out.Clipboard.Argv, "clipboard_cmd"))
		}
	}

	return Report{Checks: checks}
}

// checkFormatting reports where the base document comes from and how many
// phrases it defines.
func checkFormatting(store *locale.Store) Check {
	name := "formatting"
	loaded, err := store.LoadFormatting()
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%v (dictation unavailable)", err)}
	}

	tree := commands.Build(loaded.Document, nil, nil)
	source := loaded.Path
	if loaded.Builtin {
		source = "builtin " + source
	}
	return Check{
		Name:    name,
		Pass:    true,
		Message: fmt.Sprintf("locale %s from %s (%d phrases)", store.Locale(), source, tree.Phrases()) + skippedNote(loaded.Document),
	}
}

func skippedNote(doc *locale.Document) string {
	if len(doc.Skipped) == 0 {
		return ""
	}
	return fmt.Sprintf("; skipped %s", doc.Skipped[0].Error()) + moreNote(len(doc.Skipped)-1)
}

func moreNote(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf(" and %d more", n)
}

// checkOverriding passes when the override document is absent or valid.
func checkOverriding(store *locale.Store) Check {
	name := "overriding"
	loaded, err := store.LoadOverriding()
	switch {
	case errors.Is(err, locale.ErrNotFound):
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("none at %s", store.OverridePath())}
	case err != nil:
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("%d entries from %s", loaded.Document.Len(), loaded.Path) + skippedNote(loaded.Document)}
}

// checkNumberGrammar passes when digits can be produced for the locale.
func checkNumberGrammar(store *locale.Store) Check {
	name := "numbers"
	data, path, err := store.LoadNumberGrammar()
	if errors.Is(err, locale.ErrNotFound) {
		return Check{Name: name, Pass: true, Message: "no grammar for this locale; digits unavailable"}
	}
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	if _, err := numbers.ParseGrammar(bytes.NewReader(data), session.Tag(store.Locale())); err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s: %v", path, err)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("grammar from %s", path)}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/locale"
)

// commandOverride edits or prints the override document of the active
// locale.
func (r Runner) commandOverride(cfg config.Config, logger *slog.Logger, args []string) int {
	store := newStore(cfg, logger)

	switch args[0] {
	case "show":
		if len(args) != 1 {
			fmt.Fprintln(r.Stderr, "error: override show takes no arguments")
			return 2
		}
		loaded, err := store.LoadOverriding()
		if errors.Is(err, locale.ErrNotFound) {
			fmt.Fprintf(r.Stdout, "no override document at %s\n", store.OverridePath())
			return 0
		}
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		doc := loaded.Document
		data, err := locale.Encode(doc, locale.FormatForPath(store.OverridePath()))
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintln(r.Stdout, strings.TrimRight(string(data), "\n"))
		return 0

	case "add":
		if len(args) < 4 {
			fmt.Fprintln(r.Stderr, "error: usage: override add SECTION VALUE UTTERANCE...")
			return 2
		}
		section, err := locale.ParseSection(args[1])
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 2
		}

		loaded, err := store.LoadOverriding()
		switch {
		case errors.Is(err, locale.ErrNotFound):
			loaded.Document = &locale.Document{}
		case err != nil:
			// A broken document is kept for the user to fix.
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		doc := loaded.Document
		if len(doc.Skipped) > 0 {
			// Saving would drop the entries that failed to decode.
			fmt.Fprintf(r.Stderr, "error: %s: fix %s first\n", loaded.Path, doc.Skipped[0].Error())
			return 1
		}
		if err := doc.Append(section, overrideEntry(section, args[2], args[3:])); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if err := store.SaveOverriding(doc); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		logger.Info("override entry added", "section", string(section), "path", store.OverridePath())
		fmt.Fprintf(r.Stdout, "added %s entry to %s (%d entries)\n", section, store.OverridePath(), doc.Len())
		return 0

	default:
		fmt.Fprintf(r.Stderr, "error: unknown override command %q (expected add or show)\n", args[0])
		return 2
	}
}

// overrideEntry builds an entry from command-line words. Diacritic values
// are written "base,combining".
func overrideEntry(section locale.Section, value string, utterances []string) locale.Entry {
	entry := locale.Entry{Utterances: locale.StringList(utterances)}
	if section == locale.SectionDiacritics {
		entry.Value = locale.ListValue(strings.Split(value, ",")...)
	} else {
		entry.Value = locale.TextValue(value)
	}
	return entry
}

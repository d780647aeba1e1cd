package session

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"github.com/rbright/dictum/internal/commands"
	"github.com/rbright/dictum/internal/locale"
	"github.com/rbright/dictum/internal/numbers"
)

// configuration is everything a processor needs for one locale.
type configuration struct {
	tree    *commands.Tree
	grammar *numbers.Grammar
	tag     language.Tag
	locale  string
}

// Tag converts a POSIX locale name to a BCP 47 tag, und when unparseable.
func Tag(name string) language.Tag {
	tag, err := language.Parse(strings.ReplaceAll(locale.Normalize(name), "_", "-"))
	if err != nil {
		return language.Und
	}
	return tag
}

// build reads the documents and grammar of the store's active locale. Missing
// or broken documents degrade capabilities instead of failing.
func build(store *locale.Store, logger *slog.Logger) configuration {
	name := store.Locale()
	tag := Tag(name)

	tree := commands.Build(store.Formatting(), store.Overriding(), logger)

	var grammar *numbers.Grammar
	data, path, err := store.LoadNumberGrammar()
	switch {
	case errors.Is(err, locale.ErrNotFound):
		logger.Info("number grammar unavailable", "locale", name)
	case err != nil:
		logger.Warn("number grammar unreadable", "path", path, "error", err.Error())
	default:
		grammar, err = numbers.ParseGrammar(bytes.NewReader(data), tag)
		if err != nil {
			logger.Warn("number grammar rejected", "path", path, "error", err.Error())
			grammar = nil
		} else {
			grammar.SetSeparator(tree.Language().DecimalPoint)
		}
	}

	return configuration{tree: tree, grammar: grammar, tag: tag, locale: name}
}

// Package commands builds the phrase tree that maps spoken trigger phrases to
// formatting operations, and matches tokenized utterances against it.
package commands

import (
	"log/slog"
	"maps"
	"strings"

	"github.com/rbright/dictum/internal/locale"
	"github.com/rbright/dictum/internal/trie"
)

// Language carries the spacing and capitalization rules of the loaded locale.
type Language struct {
	NoSpaceBefore  string
	NoSpaceAfter   string
	CapitalizeNext string
	// Digits maps spelled words to digits in spelling mode.
	Digits map[string]string
	// DecimalPoint overrides the spoken decimal separator of the number
	// grammar when set.
	DecimalPoint string
}

// DefaultLanguage returns the English rules used when no document sets them.
func DefaultLanguage() Language {
	return Language{
		NoSpaceBefore:  " ….,)]}'-\t\n?!;:",
		NoSpaceAfter:   " ([{@\n\t-",
		CapitalizeNext: ".?!…",
		Digits:         map[string]string{},
	}
}

// Tree is an immutable phrase tree built from a formatting document and an
// optional override document.
type Tree struct {
	root     *trie.Node[Action]
	language Language
	phrases  int

	// FormattingValid reports that the base document was loaded.
	FormattingValid bool
	// OverridingValid reports that the override document was loaded.
	OverridingValid bool
}

// Empty returns a tree without phrases and with default language rules.
func Empty() *Tree {
	return &Tree{root: trie.New[Action](), language: DefaultLanguage()}
}

// Build loads formatting then overriding into a fresh tree. Either document
// may be nil. Phrases already registered keep their first definition.
func Build(formatting, overriding *locale.Document, logger *slog.Logger) *Tree {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	t := Empty()
	b := builder{tree: t, logger: logger}
	if formatting != nil {
		b.load(formatting, "formatting")
		t.FormattingValid = true
	}
	if overriding != nil {
		b.load(overriding, "overriding")
		t.OverridingValid = true
	}
	return t
}

// Language returns the resolved language rules.
func (t *Tree) Language() Language {
	lang := t.language
	lang.Digits = maps.Clone(t.language.Digits)
	return lang
}

// Phrases counts registered trigger phrases.
func (t *Tree) Phrases() int { return t.phrases }

// Lookup returns the action registered for an exact phrase.
func (t *Tree) Lookup(phrase string) (Action, bool) {
	node := t.root
	tokens := strings.Fields(phrase)
	if len(tokens) == 0 {
		return Action{}, false
	}
	for _, token := range tokens {
		child, ok := node.Child(token)
		if !ok {
			return Action{}, false
		}
		node = child
	}
	if !node.Set {
		return Action{}, false
	}
	return node.Value, true
}

// Parse matches the longest phrase starting at tokens[start] that is allowed
// in mode, applies its operation to c and returns the index after the phrase.
// It returns start when nothing matched or when the operation was refused.
func (t *Tree) Parse(mode Mode, tokens []string, start int, c Consumer) int {
	node := t.root.Longest(tokens, start, func(n *trie.Node[Action]) bool {
		return n.Set && n.Value.Op != OpNone && n.Value.Modes&mode != 0
	})
	if node == nil {
		return start
	}

	action := node.Value
	switch action.Op {
	case OpCancel:
		c.Cancel()
	case OpSetMode:
		c.SetMode(action.Mode)
	case OpSetCase:
		c.SetCase(action.Case)
	case OpAddDiacritic:
		c.AddDiacritic(action.Diacritic)
	case OpAddWords:
		c.AddWords(action.Text)
	case OpFlipDigits:
		c.FlipUseDigits()
	case OpAddShortcut:
		if !c.AddShortcut(action.Text) {
			return start
		}
	default:
		return start
	}
	return start + node.Depth
}

type builder struct {
	tree   *Tree
	logger *slog.Logger
	source string
}

func (b *builder) load(doc *locale.Document, source string) {
	b.source = source
	b.loadLanguage(doc.Language)
	b.loadCommands(doc.Commands)
	b.loadCase(doc.Case)
	b.loadDiacritics(doc.Diacritics)
	b.loadPunctuation(doc.Punctuation)
	b.loadCustom(doc.Custom)
}

// loadLanguage replaces each rule the document sets. Rules are never merged
// so a later layer can remove characters.
func (b *builder) loadLanguage(lang *locale.Language) {
	if lang == nil {
		b.logger.Debug("document has no language section", "source", b.source)
		return
	}
	l := &b.tree.language
	if lang.NoSpaceBefore != nil {
		l.NoSpaceBefore = *lang.NoSpaceBefore
	}
	if lang.NoSpaceAfter != nil {
		l.NoSpaceAfter = *lang.NoSpaceAfter
	}
	if lang.CapitalizeNext != nil {
		l.CapitalizeNext = *lang.CapitalizeNext
	}
	if lang.Digits != nil {
		l.Digits = make(map[string]string, len(lang.Digits))
		for word, digit := range lang.Digits {
			l.Digits[strings.ToLower(word)] = digit
		}
	}
	if lang.DecimalPoint != nil {
		l.DecimalPoint = strings.ToLower(strings.TrimSpace(*lang.DecimalPoint))
	}
}

func (b *builder) loadCommands(entries []locale.Entry) {
	for _, entry := range entries {
		value := entryText(entry.Value)
		var action Action
		switch value {
		case "cancel":
			action = Action{Op: OpCancel, Modes: ModeSpelling | ModeDictation}
		case "spelling":
			action = Action{Op: OpSetMode, Mode: ModeSpelling, Modes: ModeAll}
		case "dictation":
			action = Action{Op: OpSetMode, Mode: ModeDictation, Modes: ModeAll}
		case "literal":
			action = Action{Op: OpSetMode, Mode: ModeLiteral, Modes: ModeAll}
		case "digits":
			action = Action{Op: OpFlipDigits, Modes: ModeAll}
		default:
			b.logger.Debug("unknown command skipped", "source", b.source, "value", value)
			continue
		}
		b.add(entry.Utterances, action)
	}
}

func (b *builder) loadCase(entries []locale.Entry) {
	for _, entry := range entries {
		value := entryText(entry.Value)
		var flags Case
		switch value {
		case "upper all":
			flags = CaseLockUpper
		case "upper":
			flags = CaseUpper
		case "lower":
			flags = CaseLower
		case "title":
			flags = CaseLockCapital
		case "capitalize":
			flags = CaseCapital
		default:
			b.logger.Debug("unknown case skipped", "source", b.source, "value", value)
			continue
		}
		b.add(entry.Utterances, Action{Op: OpSetCase, Case: flags, Modes: ModeSpelling | ModeDictation})
	}
}

func (b *builder) loadDiacritics(entries []locale.Entry) {
	for _, entry := range entries {
		if entry.Value == nil || !entry.Value.IsList || len(entry.Value.List) != 2 ||
			entry.Value.List[0] == "" || entry.Value.List[1] == "" {
			b.logger.Warn("malformed diacritic skipped", "source", b.source, "utterances", []string(entry.Utterances))
			continue
		}
		b.add(entry.Utterances, Action{
			Op:        OpAddDiacritic,
			Diacritic: Diacritic{Standalone: entry.Value.List[0], Combining: entry.Value.List[1]},
			Modes:     ModeSpelling | ModeDictation,
		})
	}
}

func (b *builder) loadPunctuation(entries []locale.Entry) {
	for _, entry := range entries {
		if entry.Value == nil || entry.Value.IsList {
			b.logger.Warn("punctuation without value skipped", "source", b.source, "utterances", []string(entry.Utterances))
			continue
		}
		b.add(entry.Utterances, Action{Op: OpAddWords, Text: entry.Value.Text, Modes: ModeSpelling | ModeDictation})
	}
}

// loadCustom registers replacements and shortcuts. A list value or a
// shortcut field makes the entry a shortcut.
func (b *builder) loadCustom(entries []locale.Entry) {
	for _, entry := range entries {
		switch {
		case entry.Value != nil && !entry.Value.IsList:
			b.add(entry.Utterances, Action{Op: OpAddWords, Text: entry.Value.Text, Modes: ModeDictation})
		case entry.Value != nil:
			b.add(entry.Utterances, Action{Op: OpAddShortcut, Text: ShortcutSpec(entry.Value), Modes: ModeDictation})
		case entry.Shortcut != nil:
			b.add(entry.Utterances, Action{Op: OpAddShortcut, Text: ShortcutSpec(entry.Shortcut), Modes: ModeDictation})
		default:
			b.logger.Warn("custom entry without value skipped", "source", b.source, "utterances", []string(entry.Utterances))
		}
	}
}

func (b *builder) add(utterances locale.StringList, action Action) {
	if len(utterances) == 0 {
		b.logger.Warn("value has no utterances", "source", b.source, "op", action.Op.String())
		return
	}

	for _, utterance := range utterances {
		tokens := strings.Fields(strings.ToLower(utterance))
		node := b.tree.root.Insert(tokens)
		if node == nil {
			b.logger.Warn("empty utterance skipped", "source", b.source, "op", action.Op.String())
			continue
		}
		if node.Set {
			b.logger.Warn("node already exists", "source", b.source, "utterance", utterance)
			continue
		}
		node.Value = action
		node.Set = true
		b.tree.phrases++
	}
}

// ShortcutSpec flattens a shortcut value. A list holds modifiers followed by
// the key and becomes "MOD MOD,KEY".
func ShortcutSpec(v *locale.Value) string {
	if v == nil {
		return ""
	}
	if !v.IsList {
		return strings.TrimSpace(v.Text)
	}
	if len(v.List) == 0 {
		return ""
	}
	last := len(v.List) - 1
	return strings.Join(v.List[:last], " ") + "," + v.List[last]
}

func entryText(v *locale.Value) string {
	if v == nil || v.IsList {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(v.Text))
}

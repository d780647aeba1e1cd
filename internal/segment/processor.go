// Package segment formats recognizer utterances into committed text. Each
// call processes one revision of an utterance: partial revisions produce a
// preview and leave history untouched, the final revision commits.
package segment

import (
	"errors"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/rbright/dictum/internal/commands"
	"github.com/rbright/dictum/internal/hypr"
	"github.com/rbright/dictum/internal/numbers"
)

// ErrModeUnavailable is returned when the loaded configuration cannot serve
// the requested mode.
var ErrModeUnavailable = errors.New("mode unavailable")

// compactAt is the arena size past which history is rebuilt from the head.
// At most keepChain committed segments survive, so cancel cannot reach
// further back than that.
const (
	compactAt = 64
	keepChain = compactAt / 2
)

// Options configures a Processor.
type Options struct {
	Tree      *commands.Tree
	Grammar   *numbers.Grammar
	Locale    language.Tag
	Mode      commands.Mode
	UseDigits bool
	// Shortcuts enables key events. Hosts that cannot inject keys leave it
	// off so shortcut phrases are typed as words.
	Shortcuts bool
	Logger    *slog.Logger
}

// State is the mode and capability snapshot sent to listeners.
type State struct {
	Mode         commands.Mode `json:"mode"`
	UseDigits    bool          `json:"use_digits"`
	CanDictate   bool          `json:"can_dictate"`
	CanSpell     bool          `json:"can_spell"`
	CanUseDigits bool          `json:"can_use_digits"`
}

// Preview is the result of a partial revision.
type Preview struct {
	Text string `json:"text"`
	// NeedFinal asks the host to finalize now: the revision removes committed
	// text or injects keys, neither of which can be shown speculatively.
	NeedFinal    bool `json:"need_final"`
	CancelLength int  `json:"cancel_length"`
}

// Final is the result of a committed revision. Chunks has one more entry than
// Shortcuts; shortcut i is pressed between chunk i and chunk i+1.
type Final struct {
	CancelLength int             `json:"cancel_length"`
	Chunks       []string        `json:"chunks"`
	Shortcuts    []hypr.Shortcut `json:"shortcuts"`
}

// Text joins the chunks.
func (f Final) Text() string {
	return strings.Join(f.Chunks, "")
}

// EventKind tells text events from key events.
type EventKind int

const (
	EventText EventKind = iota
	EventShortcut
)

// Event is one ordered output step of a Final.
type Event struct {
	Kind     EventKind
	Text     string
	Shortcut hypr.Shortcut
}

// Events interleaves non-empty chunks with shortcuts in text order.
func (f Final) Events() []Event {
	events := make([]Event, 0, len(f.Chunks)+len(f.Shortcuts))
	for i, chunk := range f.Chunks {
		if chunk != "" {
			events = append(events, Event{Kind: EventText, Text: chunk})
		}
		if i < len(f.Shortcuts) {
			events = append(events, Event{Kind: EventShortcut, Shortcut: f.Shortcuts[i]})
		}
	}
	return events
}

type mark struct {
	offset   int
	shortcut hypr.Shortcut
}

type segment struct {
	text      string
	lastWord  string
	diacritic *commands.Diacritic
	shortcuts []mark
	// previous indexes the prior committed segment, -1 for the root.
	previous int
}

func (s *segment) empty() bool {
	return s.text == "" && s.diacritic == nil && len(s.shortcuts) == 0
}

func (s *segment) clear() {
	s.text = ""
	s.diacritic = nil
	s.shortcuts = nil
}

// Processor is the formatting state machine. It is not safe for concurrent
// use.
type Processor struct {
	logger *slog.Logger

	tree      *commands.Tree
	lang      commands.Language
	grammar   *numbers.Grammar
	upper     cases.Caser
	shortcuts bool

	canDictate bool
	canSpell   bool

	ctx *procContext

	// history is an arena of committed segments; index 0 is the root that
	// stands for text present before the first utterance.
	history  []segment
	head     int
	cur      segment
	inFlight bool
	textLeft string
	cancel   int
	detached bool

	listeners []func(State)
}

// New builds a processor. A nil tree behaves like an empty configuration and
// allows literal mode only.
func New(opts Options) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	mode := opts.Mode
	if mode == commands.ModeNone {
		mode = commands.ModeDictation
	}

	p := &Processor{
		logger:    logger,
		shortcuts: opts.Shortcuts,
		ctx:       &procContext{mode: mode, useDigits: opts.UseDigits},
	}
	p.configure(opts.Tree, opts.Grammar, opts.Locale)
	p.resetHistory()
	return p
}

// Reload swaps the phrase tree, number grammar and locale between two calls
// and notifies listeners. A revision in flight continues with the new
// configuration.
func (p *Processor) Reload(tree *commands.Tree, grammar *numbers.Grammar, tag language.Tag) {
	p.configure(tree, grammar, tag)
	p.logger.Debug("processor configuration reloaded",
		"phrases", p.tree.Phrases(),
		"can_dictate", p.canDictate,
		"can_spell", p.canSpell,
		"can_use_digits", p.grammar != nil,
	)
	p.notify()
}

func (p *Processor) configure(tree *commands.Tree, grammar *numbers.Grammar, tag language.Tag) {
	if tree == nil {
		tree = commands.Empty()
	}
	p.tree = tree
	p.lang = tree.Language()
	p.grammar = grammar
	p.upper = cases.Upper(tag)

	p.canSpell = tree.FormattingValid
	p.canDictate = tree.FormattingValid || tree.OverridingValid

	p.ctx.mode = p.allowedMode(p.ctx.mode)
	if p.ctx.first != nil {
		p.ctx.first.mode = p.allowedMode(p.ctx.first.mode)
	}
}

func (p *Processor) allowedMode(mode commands.Mode) commands.Mode {
	switch {
	case mode == commands.ModeSpelling && !p.canSpell:
		return commands.ModeLiteral
	case mode == commands.ModeDictation && !p.canDictate:
		return commands.ModeLiteral
	default:
		return mode
	}
}

// Subscribe registers fn for mode and capability changes.
func (p *Processor) Subscribe(fn func(State)) {
	if fn != nil {
		p.listeners = append(p.listeners, fn)
	}
}

func (p *Processor) notify() {
	state := p.State()
	for _, fn := range p.listeners {
		fn(state)
	}
}

// State returns the active mode and capabilities.
func (p *Processor) State() State {
	return State{
		Mode:         p.ctx.mode,
		UseDigits:    p.ctx.useDigits,
		CanDictate:   p.canDictate,
		CanSpell:     p.canSpell,
		CanUseDigits: p.grammar != nil,
	}
}

func (p *Processor) CanDictate() bool   { return p.canDictate }
func (p *Processor) CanSpell() bool     { return p.canSpell }
func (p *Processor) CanUseDigits() bool { return p.grammar != nil }

// InFlight reports whether a partial revision is pending finalization.
func (p *Processor) InFlight() bool { return p.inFlight }

// SetMode selects the parse mode. It returns ErrModeUnavailable when the
// configuration cannot serve mode.
func (p *Processor) SetMode(mode commands.Mode) error {
	switch mode {
	case commands.ModeDictation, commands.ModeSpelling, commands.ModeLiteral:
	default:
		return ErrModeUnavailable
	}
	if p.allowedMode(mode) != mode {
		return ErrModeUnavailable
	}
	if p.ctx.mode == mode {
		return nil
	}
	p.ctx.mode = mode
	if p.ctx.first != nil {
		p.ctx.first.mode = mode
	}
	p.notify()
	return nil
}

// SetUseDigits turns number conversion on or off. The flag is kept when no
// grammar is loaded and takes effect once one is.
func (p *Processor) SetUseDigits(on bool) {
	if p.ctx.useDigits == on {
		return
	}
	p.ctx.useDigits = on
	if p.ctx.first != nil {
		p.ctx.first.useDigits = on
	}
	p.notify()
}

// Reset drops history and any revision in flight and clears the case,
// including a lock. Mode and digits keep their committed values.
func (p *Processor) Reset() {
	before := p.State()
	if first := p.ctx.first; first != nil {
		p.ctx.mode = first.mode
		p.ctx.useDigits = first.useDigits
	}
	p.ctx.caseFlags = commands.CaseNone
	p.ctx.first, p.ctx.last = nil, nil
	p.resetHistory()
	if p.State() != before {
		p.notify()
	}
}

func (p *Processor) resetHistory() {
	p.history = append(p.history[:0], segment{previous: -1})
	p.head = 0
	p.cur = segment{}
	p.inFlight = false
	p.textLeft = ""
	p.cancel = 0
	p.detached = false
}

// Begin processes a partial revision and returns its preview. History is not
// modified.
func (p *Processor) Begin(utterance, leftContext string) Preview {
	p.process(utterance, leftContext)
	p.inFlight = true

	text := p.cur.text
	if p.cur.diacritic != nil {
		text += p.cur.diacritic.Standalone
	}
	return Preview{
		Text:         text,
		NeedFinal:    p.detached || len(p.cur.shortcuts) > 0,
		CancelLength: p.cancel,
	}
}

// End processes the final revision and commits it. An empty result is not
// kept; the segment before it becomes the head again.
func (p *Processor) End(utterance, leftContext string) Final {
	p.process(utterance, leftContext)

	final := Final{
		CancelLength: p.cancel,
		Chunks:       make([]string, 0, len(p.cur.shortcuts)+1),
		Shortcuts:    make([]hypr.Shortcut, 0, len(p.cur.shortcuts)),
	}
	offset := 0
	for _, m := range p.cur.shortcuts {
		final.Chunks = append(final.Chunks, p.cur.text[offset:m.offset])
		final.Shortcuts = append(final.Shortcuts, m.shortcut)
		offset = m.offset
	}
	final.Chunks = append(final.Chunks, p.cur.text[offset:])

	if p.cur.empty() {
		p.head = p.cur.previous
		// A diacritic inherited from the head and cancelled here is gone.
		if head := &p.history[p.head]; head.diacritic != nil {
			head.diacritic = nil
			if head.empty() && head.previous >= 0 {
				p.head = head.previous
			}
		}
	} else {
		p.history = append(p.history, p.cur)
		p.head = len(p.history) - 1
	}
	p.cur = segment{}
	p.inFlight = false
	p.ctx.first, p.ctx.last = nil, nil
	p.compact()
	return final
}

func (p *Processor) process(utterance, leftContext string) {
	p.ctx = p.ctx.derive()

	base := p.history[p.head]
	p.cur = segment{previous: p.head, diacritic: base.diacritic}
	p.cancel = 0
	p.detached = false

	if leftContext != "" {
		p.textLeft = leftContext
	} else {
		p.textLeft = base.lastWord
	}

	tokens := strings.Fields(utterance)
	lowered := make([]string, len(tokens))
	for i, token := range tokens {
		lowered[i] = strings.ToLower(token)
	}

	c := consumer{p: p}
	for i := 0; i < len(tokens); {
		if next := p.tree.Parse(p.ctx.mode, lowered, i, c); next != i {
			i = next
			continue
		}
		if p.ctx.useDigits && p.grammar != nil {
			if next := p.grammar.Parse(lowered, i, c); next != i {
				i = next
				continue
			}
		}
		p.appendWord(tokens[i])
		i++
	}

	p.cur.lastWord = p.textLeft
	if p.ctx.changed() {
		p.notify()
	}
}

// compact rebuilds history from the head, keeping the root and at most
// keepChain committed segments.
func (p *Processor) compact() {
	if len(p.history) <= compactAt {
		return
	}

	// history[0] is always the root.
	chain := make([]segment, 0, keepChain)
	for i := p.head; i > 0 && len(chain) < keepChain; i = p.history[i].previous {
		chain = append(chain, p.history[i])
	}
	kept := make([]segment, 0, len(chain)+1)
	kept = append(kept, p.history[0])
	for i := len(chain) - 1; i >= 0; i-- {
		s := chain[i]
		s.previous = len(kept) - 1
		kept = append(kept, s)
	}
	p.logger.Debug("segment history compacted", "before", len(p.history), "after", len(kept))
	p.history = kept
	p.head = len(kept) - 1
}

func (p *Processor) appendWord(word string) {
	if word == "" {
		return
	}
	flags := p.ctx.caseFlags

	if p.ctx.mode == commands.ModeSpelling {
		if digit, ok := p.lang.Digits[strings.ToLower(word)]; ok {
			word = digit
		} else {
			_, size := utf8.DecodeRuneInString(word)
			word = word[:size]
		}
	} else {
		last, size := utf8.DecodeLastRuneInString(p.textLeft)
		first, _ := utf8.DecodeRuneInString(word)
		if size > 0 &&
			!strings.ContainsRune(p.lang.NoSpaceBefore, first) &&
			!strings.ContainsRune(p.lang.NoSpaceAfter, last) {
			p.cur.text += " "
		}

		if size > 0 && unicode.IsSpace(last) {
			last, size = utf8.DecodeLastRuneInString(p.textLeft[:len(p.textLeft)-size])
		}
		if flags&commands.CaseLower == 0 &&
			(size == 0 || strings.ContainsRune(p.lang.CapitalizeNext, last)) {
			word = p.capitalize(word)
		}
	}

	switch {
	case flags&commands.CaseUpper != 0:
		word = p.upper.String(word)
	case flags&commands.CaseCapital != 0:
		word = p.capitalize(word)
	}

	if d := p.cur.diacritic; d != nil {
		word = combine(word, *d)
		p.cur.diacritic = nil
	}

	p.cur.text += word
	if flags&commands.CaseLock == 0 {
		p.ctx.caseFlags = commands.CaseNone
	}
	p.textLeft = word
}

// capitalize upper-cases the first rune and keeps the rest as spoken.
func (p *Processor) capitalize(word string) string {
	_, size := utf8.DecodeRuneInString(word)
	return p.upper.String(word[:size]) + word[size:]
}

// combine places the combining mark after the first letter of word. The mark
// is dropped when that letter already carries it; a word without letters gets
// the standalone form in front.
func combine(word string, d commands.Diacritic) string {
	start := strings.IndexFunc(word, unicode.IsLetter)
	if start < 0 {
		return d.Standalone + word
	}

	_, size := utf8.DecodeRuneInString(word[start:])
	end := start + size
	for end < len(word) {
		r, n := utf8.DecodeRuneInString(word[end:])
		if !unicode.Is(unicode.Mn, r) {
			break
		}
		end += n
	}

	if strings.Contains(norm.NFD.String(word[start:end]), d.Combining) {
		return word
	}
	return norm.NFC.String(word[:end] + d.Combining + word[end:])
}

func (p *Processor) cancelSegment() {
	if p.ctx.caseFlags&commands.CaseLock == 0 {
		p.ctx.caseFlags = commands.CaseNone
	}

	if p.cur.empty() {
		prev := p.history[p.cur.previous]
		// The root stands for the host's text and is never detached.
		if prev.previous >= 0 {
			p.cancel += utf8.RuneCountInString(prev.text)
			p.cur.previous = prev.previous
			p.detached = true
		}
	} else {
		p.cur.clear()
	}
	p.textLeft = p.history[p.cur.previous].lastWord
}

func (p *Processor) addDiacritic(d commands.Diacritic) {
	if p.cur.diacritic != nil {
		p.cur.text += p.cur.diacritic.Standalone
	}
	p.cur.diacritic = &d
}

func (p *Processor) addShortcut(spec string) bool {
	if !p.shortcuts {
		return false
	}
	shortcut, err := hypr.ParseShortcut(spec)
	if err != nil {
		p.logger.Warn("shortcut rejected", "spec", spec, "error", err.Error())
		return false
	}
	p.cur.shortcuts = append(p.cur.shortcuts, mark{offset: len(p.cur.text), shortcut: shortcut})
	return true
}

// consumer applies tree operations to the revision in flight.
type consumer struct {
	p *Processor
}

func (c consumer) Cancel()                           { c.p.cancelSegment() }
func (c consumer) SetMode(mode commands.Mode)        { c.p.ctx.mode = c.p.allowedMode(mode) }
func (c consumer) SetCase(flags commands.Case)       { c.p.ctx.caseFlags = flags }
func (c consumer) AddDiacritic(d commands.Diacritic) { c.p.addDiacritic(d) }
func (c consumer) AddWords(text string)              { c.p.appendWord(text) }
func (c consumer) FlipUseDigits()                    { c.p.ctx.useDigits = !c.p.ctx.useDigits }
func (c consumer) AddShortcut(spec string) bool      { return c.p.addShortcut(spec) }

package segment

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/rbright/dictum/internal/commands"
	"github.com/rbright/dictum/internal/hypr"
	"github.com/rbright/dictum/internal/locale"
	"github.com/rbright/dictum/internal/numbers"
)

const formatting = `{
  "language": {"digits": {"one": "1", "two": "2"}},
  "commands": [
    {"value": "cancel", "utterances": "scratch that"},
    {"value": "spelling", "utterances": "spelling mode"},
    {"value": "dictation", "utterances": "dictation mode"},
    {"value": "literal", "utterances": "literal mode"},
    {"value": "digits", "utterances": "toggle digits"}
  ],
  "case": [
    {"value": "upper all", "utterances": "all caps"},
    {"value": "upper", "utterances": "upper"},
    {"value": "lower", "utterances": "no caps"},
    {"value": "capitalize", "utterances": "cap"},
    {"value": "title", "utterances": "title case"}
  ],
  "diacritics": [
    {"value": ["^", "̂"], "utterances": "circumflex"},
    {"value": ["´", "́"], "utterances": "acute"}
  ],
  "punctuation": [
    {"value": ".", "utterances": "period"},
    {"value": ",", "utterances": "comma"},
    {"value": "\n", "utterances": "new line"}
  ],
  "custom": [
    {"value": "e-mail", "utterances": "email"},
    {"shortcut": ",Return", "utterances": "press enter"},
    {"shortcut": "HYPER,Q", "utterances": "quit app"}
  ]
}`

const grammar = `
one=1
two=2
three=3
twenty=20
hundred=100
measure:thousand=1000
ignore:and=hundred,thousand
point=point
`

func buildTree(t *testing.T) *commands.Tree {
	t.Helper()
	doc, err := locale.Decode([]byte(formatting), locale.FormatJSON)
	require.NoError(t, err)
	return commands.Build(doc, nil, nil)
}

func buildGrammar(t *testing.T) *numbers.Grammar {
	t.Helper()
	g, err := numbers.ParseGrammar(strings.NewReader(grammar), language.English)
	require.NoError(t, err)
	return g
}

func newProcessor(t *testing.T, mutate func(*Options)) *Processor {
	t.Helper()
	opts := Options{
		Tree:    buildTree(t),
		Grammar: buildGrammar(t),
		Locale:  language.English,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return New(opts)
}

func TestEndAppliesSpacingAndCapitalization(t *testing.T) {
	t.Parallel()

	p := New(Options{Locale: language.English, Mode: commands.ModeLiteral})
	require.Equal(t, "Hello world", p.End("hello world", "").Text())
	require.Equal(t, " again", p.End("again", "").Text())
	require.Equal(t, " Next", p.End("next", "Done.").Text())
	require.Equal(t, "Fresh", p.End("fresh", "Done. ").Text())
	require.Equal(t, " (aside", p.End("(aside", "word").Text())
}

func TestEndFormatsPunctuationAndReplacements(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	require.Equal(t, "Hello. How are you, friend", p.End("hello period how are you comma friend", "").Text())
	require.Equal(t, "\nSend e-mail", p.End("new line send email", "").Text())
}

func TestMalformedEntryKeepsDocumentUsable(t *testing.T) {
	t.Parallel()

	doc, err := locale.Decode([]byte(`{
  "diacritics": [{"value": ["^", 770], "utterances": "circumflex"}],
  "punctuation": [{"value": ".", "utterances": "period"}]
}`), locale.FormatJSON)
	require.NoError(t, err)
	require.Len(t, doc.Skipped, 1)

	p := New(Options{Tree: commands.Build(doc, nil, nil), Locale: language.English})
	state := p.State()
	require.True(t, state.CanDictate)
	require.True(t, state.CanSpell)
	require.Equal(t, commands.ModeDictation, state.Mode)
	require.Equal(t, "Hello.", p.End("hello period", "").Text())
	require.Equal(t, " Circumflex", p.End("circumflex", "").Text())
}

func TestCommittedLastWordIsLeftContext(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	require.Equal(t, "It works.", p.End("it works period", "").Text())
	require.Equal(t, " Then", p.End("then", "").Text())
}

func TestCancelDetachesPreviousSegment(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	require.Equal(t, "Hello", p.End("hello", "").Text())
	require.Equal(t, " world", p.End("world", "").Text())

	final := p.End("scratch that", "")
	require.Equal(t, len([]rune(" world")), final.CancelLength)
	require.Empty(t, final.Text())

	// The left context reverted to "Hello".
	require.Equal(t, " again", p.End("again", "").Text())
}

func TestCancelChainStopsAtRoot(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	p.End("hello", "")
	p.End("world", "")

	require.Equal(t, 6, p.End("scratch that", "").CancelLength)
	require.Equal(t, 5, p.End("scratch that", "").CancelLength)
	require.Equal(t, 0, p.End("scratch that", "").CancelLength)
	require.Equal(t, "Fresh", p.End("fresh", "").Text())
}

func TestCancelWithinSegmentClearsOnlyCurrentText(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	p.End("hello", "")

	final := p.End("wrong words scratch that right", "")
	require.Equal(t, 0, final.CancelLength)
	require.Equal(t, " right", final.Text())
}

func TestCancelCountsRunes(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	p.End("café", "")
	require.Equal(t, 4, p.End("scratch that", "").CancelLength)
}

func TestPartialRevisionsDoNotLeakIntoFinal(t *testing.T) {
	t.Parallel()

	once := newProcessor(t, nil)
	want := once.End("all caps hello world", "").Text()
	require.Equal(t, "HELLO WORLD", want)

	p := newProcessor(t, nil)
	require.Equal(t, "HELLO", p.Begin("all caps hello", "").Text)
	require.Equal(t, "HELLO WORLD", p.Begin("all caps hello world", "").Text)
	require.True(t, p.InFlight())
	require.Equal(t, want, p.End("all caps hello world", "").Text())
	require.False(t, p.InFlight())

	// The lock was committed with the utterance.
	require.Equal(t, " AGAIN", p.End("again", "").Text())
}

func TestPartialRevisionsDoNotDuplicateDiacritic(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	require.Equal(t, "^", p.Begin("circumflex", "x").Text)
	require.Equal(t, " ê", p.Begin("circumflex e", "x").Text)
	require.Equal(t, " ê", p.Begin("circumflex e", "x").Text)

	text := p.End("circumflex e", "x").Text()
	require.Equal(t, " ê", text)
	require.Equal(t, 2, utf8.RuneCountInString(text))
}

func TestPartialCancelIsCountedOnce(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	p.End("hello", "")

	preview := p.Begin("scratch that", "")
	require.True(t, preview.NeedFinal)
	require.Equal(t, 5, preview.CancelLength)
	require.Equal(t, 5, p.Begin("scratch that", "").CancelLength)
	require.Equal(t, 5, p.End("scratch that", "").CancelLength)
}

func TestDiacriticCombination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		utterance string
		want      string
	}{
		{name: "adds mark", utterance: "circumflex a", want: " â"},
		{name: "redundant mark dropped", utterance: "circumflex ê", want: " ê"},
		{name: "decomposed input", utterance: "circumflex e\u0302", want: " e\u0302"},
		{name: "other mark composes", utterance: "acute é", want: " é"},
		{name: "after leading punctuation", utterance: "circumflex (a", want: " (â"},
		{name: "no letter", utterance: "circumflex 42", want: " ^42"},
		{name: "standalone kept when replaced", utterance: "circumflex acute e", want: "^ é"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newProcessor(t, nil)
			require.Equal(t, tc.want, p.End(tc.utterance, "x").Text())
		})
	}
}

func TestPendingDiacriticPreviewAndCarryOver(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	require.Equal(t, "^^", p.Begin("circumflex circumflex", "x").Text)

	require.Empty(t, p.End("circumflex", "x").Text())
	require.Equal(t, " ô", p.End("o", "x").Text())
	require.Equal(t, " o", p.End("o", "x").Text())
}

func TestCancelDropsPendingDiacritic(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	require.Equal(t, "Hello", p.End("hello", "").Text())
	require.Empty(t, p.End("circumflex", "").Text())

	final := p.End("scratch that", "")
	require.Empty(t, final.Text())
	require.Zero(t, final.CancelLength)

	require.Equal(t, " etre", p.End("etre", "").Text())

	final = p.End("scratch that", "")
	require.Equal(t, len(" etre"), final.CancelLength)
	require.Equal(t, " again", p.End("again", "").Text())
}

func TestCaseFlagScope(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	require.Equal(t, "HELLO world", p.End("upper hello world", "").Text())
	require.Equal(t, " Big deal", p.End("cap big deal", "").Text())
	require.Equal(t, " Some Nice Words", p.End("title case some nice words", "").Text())

	p.Reset()
	require.Equal(t, "After reset", p.End("after reset", "").Text())

	require.Equal(t, " ALL GOOD", p.End("all caps all good", "").Text())
	require.Equal(t, " STILL", p.End("still", "").Text())

	final := p.End("scratch that scratch that no caps lower start", "")
	require.Equal(t, " lower start", final.Text())
	require.Equal(t, len(" ALL GOOD")+len(" STILL"), final.CancelLength)
}

func TestCancelKeepsCaseLock(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	require.Equal(t, "KEPT", p.End("all caps wrong scratch that kept", "").Text())

	q := newProcessor(t, nil)
	require.Equal(t, "Plain", q.End("oops upper scratch that plain", "").Text())
}

func TestDigits(t *testing.T) {
	t.Parallel()

	on := newProcessor(t, func(o *Options) { o.UseDigits = true })
	require.Equal(t, "23 apples", on.End("twenty three apples", "").Text())
	require.Equal(t, " 101", on.End("one hundred and one", "").Text())
	require.Equal(t, " 1.2", on.End("one point two", "").Text())

	off := newProcessor(t, nil)
	require.Equal(t, "Twenty three", off.End("twenty three", "").Text())
	require.Equal(t, " 23", off.End("toggle digits twenty three", "").Text())
	require.True(t, off.State().UseDigits)

	noGrammar := newProcessor(t, func(o *Options) {
		o.Grammar = nil
		o.UseDigits = true
	})
	require.False(t, noGrammar.CanUseDigits())
	require.Equal(t, "Twenty three", noGrammar.End("twenty three", "").Text())
}

func TestSpellingMode(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	require.Equal(t, "ab1", p.End("spelling mode alpha bravo one", "").Text())
	require.Equal(t, commands.ModeSpelling, p.State().Mode)
	require.Equal(t, "C.", p.End("upper charlie period", "").Text())
	require.Equal(t, " back", p.End("dictation mode back", "x").Text())
}

func TestLiteralModeIgnoresFormattingPhrases(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, func(o *Options) { o.Mode = commands.ModeLiteral })
	require.Equal(t, "Hello period", p.End("hello period", "").Text())
	require.Equal(t, " done.", p.End("dictation mode done period", "").Text())
}

func TestShortcutsSplitOutput(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, func(o *Options) { o.Shortcuts = true })

	preview := p.Begin("hello press enter", "")
	require.True(t, preview.NeedFinal)
	require.Equal(t, "Hello", preview.Text)

	final := p.End("hello press enter world", "")
	require.Equal(t, []string{"Hello", " world"}, final.Chunks)
	require.Equal(t, []hypr.Shortcut{{Key: "Return"}}, final.Shortcuts)
	require.Equal(t, "Hello world", final.Text())
	require.Equal(t, []Event{
		{Kind: EventText, Text: "Hello"},
		{Kind: EventShortcut, Shortcut: hypr.Shortcut{Key: "Return"}},
		{Kind: EventText, Text: " world"},
	}, final.Events())

	leading := p.End("press enter", "")
	require.Equal(t, []string{"", ""}, leading.Chunks)
	require.Len(t, leading.Events(), 1)
}

func TestShortcutFallsBackToWords(t *testing.T) {
	t.Parallel()

	disabled := newProcessor(t, nil)
	require.Equal(t, "Hello press enter", disabled.End("hello press enter", "").Text())

	enabled := newProcessor(t, func(o *Options) { o.Shortcuts = true })
	final := enabled.End("quit app", "")
	require.Equal(t, "Quit app", final.Text())
	require.Empty(t, final.Shortcuts)
}

func TestCapabilitiesFollowLoadedDocuments(t *testing.T) {
	t.Parallel()

	p := New(Options{Locale: language.English})
	state := p.State()
	require.Equal(t, commands.ModeLiteral, state.Mode)
	require.False(t, state.CanDictate)
	require.False(t, state.CanSpell)
	require.ErrorIs(t, p.SetMode(commands.ModeDictation), ErrModeUnavailable)
	require.ErrorIs(t, p.SetMode(commands.ModeSpelling), ErrModeUnavailable)
	require.NoError(t, p.SetMode(commands.ModeLiteral))

	override, err := locale.Decode([]byte(`{"punctuation": [{"value": "!", "utterances": "bang"}]}`), locale.FormatJSON)
	require.NoError(t, err)
	p.Reload(commands.Build(nil, override, nil), nil, language.English)
	require.True(t, p.CanDictate())
	require.False(t, p.CanSpell())
	require.NoError(t, p.SetMode(commands.ModeDictation))
	require.Equal(t, "Wow!", p.End("wow bang", "").Text())
}

func TestTreeModeSwitchToUnavailableModeFallsBackToLiteral(t *testing.T) {
	t.Parallel()

	doc, err := locale.Decode([]byte(`{"commands": [{"value": "spelling", "utterances": "spelling mode"}]}`), locale.FormatJSON)
	require.NoError(t, err)

	p := New(Options{Tree: commands.Build(nil, doc, nil), Locale: language.English})
	require.Equal(t, commands.ModeDictation, p.State().Mode)
	p.End("spelling mode", "")
	require.Equal(t, commands.ModeLiteral, p.State().Mode)
}

func TestListenersNotifiedOncePerRevision(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	var states []State
	p.Subscribe(func(s State) { states = append(states, s) })

	p.Begin("spelling mode a", "")
	p.Begin("spelling mode a b", "")
	p.End("spelling mode a b c", "")
	require.Len(t, states, 1)
	require.Equal(t, commands.ModeSpelling, states[0].Mode)

	p.End("d", "")
	require.Len(t, states, 1)

	require.NoError(t, p.SetMode(commands.ModeDictation))
	require.NoError(t, p.SetMode(commands.ModeDictation))
	p.SetUseDigits(true)
	require.Len(t, states, 3)
	require.True(t, states[2].UseDigits)
}

func TestResetRevertsRevisionInFlight(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	var notified int
	p.Subscribe(func(State) { notified++ })

	p.End("hello", "")
	p.Begin("spelling mode", "")
	require.Equal(t, commands.ModeSpelling, p.State().Mode)
	require.Equal(t, 1, notified)

	p.Reset()
	require.False(t, p.InFlight())
	require.Equal(t, commands.ModeDictation, p.State().Mode)
	require.Equal(t, 2, notified)

	// History is gone: nothing left to cancel.
	require.Equal(t, 0, p.End("scratch that", "").CancelLength)
}

func TestHistoryCompaction(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	p.End("first", "")
	for i := 0; i < 3*compactAt; i++ {
		p.End("word", "")
		p.End("scratch that", "")
	}
	require.LessOrEqual(t, len(p.history), compactAt+1)

	require.Equal(t, " next", p.End("next", "").Text())
	require.Equal(t, len(" next"), p.End("scratch that", "").CancelLength)
	require.Equal(t, len("First"), p.End("scratch that", "").CancelLength)
}

func TestHistoryCompactionBoundsChain(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, nil)
	for i := 0; i < 10*compactAt; i++ {
		p.End("word", "")
		require.LessOrEqual(t, len(p.history), compactAt+1)
	}

	require.Equal(t, " last", p.End("last", "").Text())
	cancelled := 0
	for i := 0; i < 2*compactAt; i++ {
		cancelled += p.End("scratch that", "").CancelLength
	}
	require.LessOrEqual(t, cancelled, len(" last")+compactAt*len(" word"))
	require.Equal(t, "Word", p.End("word", "").Text())
}

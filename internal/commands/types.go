package commands

import (
	"fmt"
	"strings"
)

// Mode is a parse mode bitmask.
type Mode uint8

const (
	ModeNone      Mode = 0
	ModeDictation Mode = 1
	ModeSpelling  Mode = 2
	ModeLiteral   Mode = 4

	ModeAll = ModeDictation | ModeSpelling | ModeLiteral
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeDictation:
		return "dictation"
	case ModeSpelling:
		return "spelling"
	case ModeLiteral:
		return "literal"
	case ModeAll:
		return "all"
	default:
		parts := make([]string, 0, 3)
		for _, single := range []Mode{ModeDictation, ModeSpelling, ModeLiteral} {
			if m&single != 0 {
				parts = append(parts, single.String())
			}
		}
		return strings.Join(parts, "|")
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode reads one of dictation, spelling or literal.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dictation":
		return ModeDictation, nil
	case "spelling":
		return ModeSpelling, nil
	case "literal":
		return ModeLiteral, nil
	default:
		return ModeNone, fmt.Errorf("unknown mode %q (expected dictation, spelling or literal)", name)
	}
}

// Case is a bitmask of case transformations. Without CaseLock a transformation
// applies to the next word only.
type Case uint8

const (
	CaseNone    Case = 0
	CaseLower   Case = 1
	CaseUpper   Case = 2
	CaseCapital Case = 4
	CaseLock    Case = 8

	CaseLockUpper   = CaseLock | CaseUpper
	CaseLockCapital = CaseLock | CaseCapital
)

func (c Case) String() string {
	if c == CaseNone {
		return "none"
	}
	parts := make([]string, 0, 4)
	if c&CaseLock != 0 {
		parts = append(parts, "lock")
	}
	if c&CaseLower != 0 {
		parts = append(parts, "lower")
	}
	if c&CaseUpper != 0 {
		parts = append(parts, "upper")
	}
	if c&CaseCapital != 0 {
		parts = append(parts, "capital")
	}
	return strings.Join(parts, "|")
}

// Diacritic pairs the standalone form of an accent with its combining mark,
// for example "^" and U+0302.
type Diacritic struct {
	Standalone string
	Combining  string
}

// Operation identifies what a matched phrase does.
type Operation uint8

const (
	OpNone Operation = iota
	OpCancel
	OpSetMode
	OpSetCase
	OpAddDiacritic
	OpAddWords
	OpFlipDigits
	OpAddShortcut
)

func (o Operation) String() string {
	switch o {
	case OpCancel:
		return "cancel"
	case OpSetMode:
		return "set_mode"
	case OpSetCase:
		return "set_case"
	case OpAddDiacritic:
		return "add_diacritic"
	case OpAddWords:
		return "add_words"
	case OpFlipDigits:
		return "flip_digits"
	case OpAddShortcut:
		return "add_shortcut"
	default:
		return "none"
	}
}

// Action is the payload stored on a tree node.
type Action struct {
	Op        Operation
	Modes     Mode
	Mode      Mode
	Case      Case
	Diacritic Diacritic
	Text      string
}

// Consumer receives the operations of matched phrases.
type Consumer interface {
	Cancel()
	SetMode(Mode)
	SetCase(Case)
	AddDiacritic(Diacritic)
	AddWords(string)
	FlipUseDigits()
	// AddShortcut returns false when the key spec cannot be injected.
	AddShortcut(spec string) bool
}

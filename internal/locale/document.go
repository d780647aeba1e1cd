package locale

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rbright/dictum/internal/jsonc"
)

// Document is one formatting document: the locale base or the user override.
type Document struct {
	Language    *Language `json:"language,omitempty" yaml:"language,omitempty"`
	Commands    []Entry   `json:"commands,omitempty" yaml:"commands,omitempty"`
	Case        []Entry   `json:"case,omitempty" yaml:"case,omitempty"`
	Diacritics  []Entry   `json:"diacritics,omitempty" yaml:"diacritics,omitempty"`
	Punctuation []Entry   `json:"punctuation,omitempty" yaml:"punctuation,omitempty"`
	Custom      []Entry   `json:"custom,omitempty" yaml:"custom,omitempty"`

	// Skipped lists entries dropped while decoding; the rest of the document
	// is kept.
	Skipped []Skipped `json:"-" yaml:"-"`
}

// Skipped is an entry that could not be decoded.
type Skipped struct {
	Section Section
	Index   int
	Err     error
}

func (s Skipped) Error() string {
	return fmt.Sprintf("%s[%d]: %v", s.Section, s.Index, s.Err)
}

// Language holds the spacing and capitalization rules of a locale. Unset
// fields keep the value from the previous layer.
type Language struct {
	NoSpaceBefore  *string           `json:"no space before,omitempty" yaml:"no space before,omitempty"`
	NoSpaceAfter   *string           `json:"no space after,omitempty" yaml:"no space after,omitempty"`
	CapitalizeNext *string           `json:"capitalize next,omitempty" yaml:"capitalize next,omitempty"`
	Digits         map[string]string `json:"digits,omitempty" yaml:"digits,omitempty"`
	DecimalPoint   *string           `json:"decimal point,omitempty" yaml:"decimal point,omitempty"`
}

// Entry binds trigger phrases to a value.
type Entry struct {
	Value       *Value     `json:"value,omitempty" yaml:"value,omitempty"`
	Shortcut    *Value     `json:"shortcut,omitempty" yaml:"shortcut,omitempty"`
	Utterances  StringList `json:"utterances" yaml:"utterances"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// Section names a list of entries inside a Document.
type Section string

const (
	SectionCommands    Section = "commands"
	SectionCase        Section = "case"
	SectionDiacritics  Section = "diacritics"
	SectionPunctuation Section = "punctuation"
	SectionCustom      Section = "custom"
)

// Sections lists every entry section in load order.
var Sections = []Section{SectionCommands, SectionCase, SectionDiacritics, SectionPunctuation, SectionCustom}

// ParseSection validates a section name.
func ParseSection(name string) (Section, error) {
	section := Section(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Sections {
		if section == known {
			return section, nil
		}
	}
	return "", fmt.Errorf("unknown section %q", name)
}

// Entries returns the entries of one section.
func (d *Document) Entries(section Section) []Entry {
	if d == nil {
		return nil
	}
	switch section {
	case SectionCommands:
		return d.Commands
	case SectionCase:
		return d.Case
	case SectionDiacritics:
		return d.Diacritics
	case SectionPunctuation:
		return d.Punctuation
	case SectionCustom:
		return d.Custom
	default:
		return nil
	}
}

// Append adds an entry to a section.
func (d *Document) Append(section Section, entry Entry) error {
	switch section {
	case SectionCommands:
		d.Commands = append(d.Commands, entry)
	case SectionCase:
		d.Case = append(d.Case, entry)
	case SectionDiacritics:
		d.Diacritics = append(d.Diacritics, entry)
	case SectionPunctuation:
		d.Punctuation = append(d.Punctuation, entry)
	case SectionCustom:
		d.Custom = append(d.Custom, entry)
	default:
		return fmt.Errorf("unknown section %q", section)
	}
	return nil
}

// Len counts entries across all sections.
func (d *Document) Len() int {
	n := 0
	for _, section := range Sections {
		n += len(d.Entries(section))
	}
	return n
}

// Value is an entry payload: either a single string or a list of strings.
type Value struct {
	Text   string
	List   []string
	IsList bool
}

// TextValue wraps a single string.
func TextValue(s string) *Value { return &Value{Text: s} }

// ListValue wraps a list of strings.
func ListValue(items ...string) *Value { return &Value{List: items, IsList: true} }

func (v Value) String() string {
	if v.IsList {
		return "[" + strings.Join(v.List, ", ") + "]"
	}
	return v.Text
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsList {
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Text)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*v = Value{Text: single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = Value{List: list, IsList: true}
		return nil
	}

	return errors.New("expected string or string array")
}

func (v Value) MarshalYAML() (any, error) {
	if v.IsList {
		return v.List, nil
	}
	return v.Text, nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*v = Value{Text: node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*v = Value{List: list, IsList: true}
		return nil
	default:
		return fmt.Errorf("line %d: expected string or string list", node.Line)
	}
}

// StringList accepts either one string or an array of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}

	return errors.New("expected string array or string")
}

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = StringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	default:
		return fmt.Errorf("line %d: expected string or string list", node.Line)
	}
}

// Format selects the document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatForPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a document. JSON may carry comments and trailing commas. An
// entry of the wrong shape is recorded in Skipped instead of failing the
// document.
func Decode(data []byte, format Format) (*Document, error) {
	switch format {
	case FormatYAML:
		var raw rawDocument[yaml.Node]
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return raw.document(func(node yaml.Node, entry *Entry) error {
			if err := node.Decode(entry); err != nil {
				return fmt.Errorf("line %d: %w", node.Line, err)
			}
			return nil
		}), nil
	default:
		if strings.TrimSpace(string(data)) == "" {
			return &Document{}, nil
		}
		var raw rawDocument[json.RawMessage]
		if err := jsonc.Decode(string(data), &raw, false); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return raw.document(func(msg json.RawMessage, entry *Entry) error {
			return json.Unmarshal(msg, entry)
		}), nil
	}
}

// rawDocument defers entry decoding so one bad entry only costs itself.
type rawDocument[T any] struct {
	Language    *Language `json:"language" yaml:"language"`
	Commands    []T       `json:"commands" yaml:"commands"`
	Case        []T       `json:"case" yaml:"case"`
	Diacritics  []T       `json:"diacritics" yaml:"diacritics"`
	Punctuation []T       `json:"punctuation" yaml:"punctuation"`
	Custom      []T       `json:"custom" yaml:"custom"`
}

func (r *rawDocument[T]) section(section Section) []T {
	switch section {
	case SectionCommands:
		return r.Commands
	case SectionCase:
		return r.Case
	case SectionDiacritics:
		return r.Diacritics
	case SectionPunctuation:
		return r.Punctuation
	default:
		return r.Custom
	}
}

func (r *rawDocument[T]) document(decode func(T, *Entry) error) *Document {
	doc := &Document{Language: r.Language}
	for _, section := range Sections {
		for i, item := range r.section(section) {
			var entry Entry
			if err := decode(item, &entry); err != nil {
				doc.Skipped = append(doc.Skipped, Skipped{Section: section, Index: i, Err: err})
				continue
			}
			_ = doc.Append(section, entry)
		}
	}
	return doc
}

// Encode serializes a document in the given format.
func Encode(doc *Document, format Format) ([]byte, error) {
	if doc == nil {
		doc = &Document{}
	}
	switch format {
	case FormatYAML:
		return yaml.Marshal(doc)
	default:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	}
}

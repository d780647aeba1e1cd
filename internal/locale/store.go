// Package locale resolves the per-locale formatting documents and number
// grammar, and reports when they change on disk.
package locale

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

//go:embed data
var builtin embed.FS

// ErrNotFound reports that no document exists for the active locale.
var ErrNotFound = errors.New("document not found")

// Kind identifies which resource changed.
type Kind int

const (
	KindLocale Kind = iota + 1
	KindFormatting
	KindOverriding
)

func (k Kind) String() string {
	switch k {
	case KindLocale:
		return "locale"
	case KindFormatting:
		return "formatting"
	case KindOverriding:
		return "overriding"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers when a resource changes.
type Event struct {
	Kind    Kind
	Deleted bool
}

// Options configures a Store.
type Options struct {
	Locale         string
	DataDir        string
	FormattingFile string
	OverrideDir    string
	Logger         *slog.Logger
}

// Loaded is a decoded document and where it came from.
type Loaded struct {
	Document *Document
	Path     string
	Builtin  bool
}

// Store serves the documents of the active locale.
type Store struct {
	logger *slog.Logger

	mu             sync.RWMutex
	locale         string
	dataDir        string
	formattingFile string
	overrideDir    string
	subscribers    []func(Event)
}

// NewStore builds a store. An empty locale falls back to the process
// environment and finally to "en".
func NewStore(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tag := Normalize(opts.Locale)
	if tag == "" {
		tag = FromEnvironment()
	}
	return &Store{
		logger:         logger,
		locale:         tag,
		dataDir:        strings.TrimSpace(opts.DataDir),
		formattingFile: strings.TrimSpace(opts.FormattingFile),
		overrideDir:    strings.TrimSpace(opts.OverrideDir),
	}
}

// Normalize converts POSIX locale names such as "fr_FR.UTF-8" to "fr_FR".
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	name = strings.ReplaceAll(name, "-", "_")
	if name == "C" || name == "POSIX" {
		return ""
	}
	return name
}

// FromEnvironment reads LC_ALL, LC_MESSAGES and LANG in that order.
func FromEnvironment() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if tag := Normalize(os.Getenv(key)); tag != "" {
			return tag
		}
	}
	return "en"
}

// LanguageOf returns the two-letter language prefix of a locale name.
func LanguageOf(name string) string {
	name = Normalize(name)
	if i := strings.Index(name, "_"); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

// Locale returns the active locale name.
func (s *Store) Locale() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locale
}

// SetLocale switches the active locale and clears any explicit formatting
// file. Subscribers are notified even when the name is unchanged.
func (s *Store) SetLocale(name string) {
	tag := Normalize(name)
	if tag == "" {
		tag = FromEnvironment()
	}

	s.mu.Lock()
	if tag != s.locale {
		s.logger.Debug("locale changed", "from", s.locale, "to", tag)
		s.locale = tag
		s.formattingFile = ""
	}
	s.mu.Unlock()

	s.emit(Event{Kind: KindLocale})
}

// SetFormattingFile pins the base document to an explicit path. An empty path
// restores the data directory lookup.
func (s *Store) SetFormattingFile(path string) {
	path = strings.TrimSpace(path)

	s.mu.Lock()
	if path == s.formattingFile {
		s.mu.Unlock()
		return
	}
	s.formattingFile = path
	s.mu.Unlock()

	s.emit(Event{Kind: KindFormatting})
}

// Subscribe registers fn for change events.
func (s *Store) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) emit(event Event) {
	s.mu.RLock()
	subscribers := append([]func(Event){}, s.subscribers...)
	s.mu.RUnlock()

	for _, fn := range subscribers {
		fn(event)
	}
}

// LoadFormatting resolves the base document: the explicit file, then
// formatting/<locale> and formatting/<language> in the data directory, then
// the built-in copies.
func (s *Store) LoadFormatting() (Loaded, error) {
	s.mu.RLock()
	explicit := s.formattingFile
	tag := s.locale
	dataDir := s.dataDir
	s.mu.RUnlock()

	if explicit != "" {
		return loadFile(explicit)
	}

	names := formattingNames(tag)
	if dataDir != "" {
		for _, name := range names {
			loaded, err := loadFile(filepath.Join(dataDir, "formatting", name))
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return loaded, err
		}
	}

	for _, name := range names {
		path := "data/formatting/" + name
		data, err := fs.ReadFile(builtin, path)
		if err != nil {
			continue
		}
		doc, err := Decode(data, FormatForPath(path))
		if err != nil {
			return Loaded{}, fmt.Errorf("builtin %s: %w", name, err)
		}
		return Loaded{Document: doc, Path: path, Builtin: true}, nil
	}

	return Loaded{}, fmt.Errorf("formatting for locale %q: %w", tag, ErrNotFound)
}

// Formatting returns the base document, or nil when it is missing or broken.
func (s *Store) Formatting() *Document {
	loaded, err := s.LoadFormatting()
	if err != nil {
		s.logDocumentError("formatting", err)
		return nil
	}
	s.logger.Info("formatting document loaded", "path", loaded.Path, "builtin", loaded.Builtin)
	s.logSkipped(loaded)
	return loaded.Document
}

// OverridePath is the user override location for the active locale. There is
// no fallback to the language prefix.
func (s *Store) OverridePath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overridePathLocked()
}

func (s *Store) overridePathLocked() string {
	dir := s.overrideDir
	if dir == "" {
		dir = defaultOverrideDir()
	}
	return filepath.Join(dir, "overrides-"+s.locale+".json")
}

// LoadOverriding reads the user override document.
func (s *Store) LoadOverriding() (Loaded, error) {
	return loadFile(s.OverridePath())
}

// Overriding returns the override document, or nil when it is missing or
// broken.
func (s *Store) Overriding() *Document {
	loaded, err := s.LoadOverriding()
	if err != nil {
		s.logDocumentError("overriding", err)
		return nil
	}
	s.logger.Info("overriding document loaded", "path", loaded.Path)
	s.logSkipped(loaded)
	return loaded.Document
}

func (s *Store) logSkipped(loaded Loaded) {
	for _, skipped := range loaded.Document.Skipped {
		s.logger.Warn("document entry skipped",
			"path", loaded.Path,
			"section", string(skipped.Section),
			"index", skipped.Index,
			"error", skipped.Err.Error(),
		)
	}
}

// SaveOverriding replaces the override document as a whole.
func (s *Store) SaveOverriding(doc *Document) error {
	path := s.OverridePath()
	data, err := Encode(doc, FormatForPath(path))
	if err != nil {
		return fmt.Errorf("encode override: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create override dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write override: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace override: %w", err)
	}
	return nil
}

// LoadNumberGrammar returns the raw number grammar for the active language
// and where it was read from.
func (s *Store) LoadNumberGrammar() ([]byte, string, error) {
	s.mu.RLock()
	lang := LanguageOf(s.locale)
	dataDir := s.dataDir
	s.mu.RUnlock()

	name := "config_" + lang + ".properties"
	if dataDir != "" {
		path := filepath.Join(dataDir, "numbers", name)
		data, err := os.ReadFile(path)
		if err == nil {
			return data, path, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, path, fmt.Errorf("read number grammar %q: %w", path, err)
		}
	}

	path := "data/numbers/" + name
	data, err := fs.ReadFile(builtin, path)
	if err != nil {
		return nil, "", fmt.Errorf("number grammar for %q: %w", lang, ErrNotFound)
	}
	return data, path, nil
}

func (s *Store) logDocumentError(name string, err error) {
	if errors.Is(err, ErrNotFound) {
		s.logger.Info("document unavailable", "document", name, "error", err.Error())
		return
	}
	s.logger.Warn("document rejected", "document", name, "error", err.Error())
}

func formattingNames(tag string) []string {
	names := []string{tag + ".json", tag + ".yaml"}
	if lang := LanguageOf(tag); lang != "" && lang != tag {
		names = append(names, lang+".json", lang+".yaml")
	}
	return names
}

func loadFile(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Loaded{}, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return Loaded{}, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := Decode(data, FormatForPath(path))
	if err != nil {
		return Loaded{}, fmt.Errorf("%s: %w", path, err)
	}
	return Loaded{Document: doc, Path: path}, nil
}

// defaultOverrideDir selects XDG_CONFIG_HOME when available, otherwise
// ~/.config.
func defaultOverrideDir() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "dictum")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "dictum")
	}
	return filepath.Join(home, ".config", "dictum")
}

package locale

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchSettle = 150 * time.Millisecond

// Watch reports edits of the override document and of an on-disk formatting
// document until ctx is done. Bursts of filesystem events are coalesced into
// one notification per document.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	overridePath := s.OverridePath()
	if err := os.MkdirAll(filepath.Dir(overridePath), 0o700); err != nil {
		return fmt.Errorf("create override dir: %w", err)
	}
	if err := watcher.Add(filepath.Dir(overridePath)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(overridePath), err)
	}

	formattingPath := ""
	if loaded, err := s.LoadFormatting(); err == nil && !loaded.Builtin {
		formattingPath = loaded.Path
		dir := filepath.Dir(formattingPath)
		if dir != filepath.Dir(overridePath) {
			if err := watcher.Add(dir); err != nil {
				s.logger.Warn("formatting document not watched", "path", formattingPath, "error", err.Error())
				formattingPath = ""
			}
		}
	}

	s.logger.Debug("watching locale documents", "override", overridePath, "formatting", formattingPath)

	pending := map[Kind]bool{}
	timer := time.NewTimer(watchSettle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			var kind Kind
			switch filepath.Clean(event.Name) {
			case overridePath:
				kind = KindOverriding
			case formattingPath:
				kind = KindFormatting
			default:
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			_, statErr := os.Stat(event.Name)
			pending[kind] = os.IsNotExist(statErr)
			timer.Reset(watchSettle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("locale watcher error", "error", err.Error())
		case <-timer.C:
			if deleted, ok := pending[KindFormatting]; ok {
				s.emit(Event{Kind: KindFormatting, Deleted: deleted})
			}
			if deleted, ok := pending[KindOverriding]; ok {
				s.emit(Event{Kind: KindOverriding, Deleted: deleted})
			}
			clear(pending)
		}
	}
}

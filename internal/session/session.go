// Package session serializes host calls into the formatting engine, tracks
// the utterance lifecycle and dispatches committed results.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/dictum/internal/commands"
	"github.com/rbright/dictum/internal/fsm"
	"github.com/rbright/dictum/internal/locale"
	"github.com/rbright/dictum/internal/observe"
	"github.com/rbright/dictum/internal/segment"
)

var (
	// ErrUtteranceInFlight rejects state changes while an utterance is being
	// composed or committed.
	ErrUtteranceInFlight = errors.New("utterance in flight; finalize or reset first")
	// ErrCommitting rejects new revisions while output is being applied.
	ErrCommitting = errors.New("previous result is still being applied")
)

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowState(context.Context, segment.State)
	ShowPreview(context.Context, string)
	ShowError(context.Context, string)
	Hide(context.Context)
}

// noopIndicator preserves session flow when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) ShowState(context.Context, segment.State) {}
func (noopIndicator) ShowPreview(context.Context, string)      {}
func (noopIndicator) ShowError(context.Context, string)        {}
func (noopIndicator) Hide(context.Context)                     {}

// Options wires a Controller.
type Options struct {
	Store     *locale.Store
	Mode      commands.Mode
	UseDigits bool
	Shortcuts bool
	// Preedit shows partial previews through the indicator.
	Preedit   bool
	Committer Committer
	Indicator Indicator
	Metrics   *observe.Metrics
	Logger    *slog.Logger
}

// Status is the lifecycle and formatting snapshot reported to clients.
type Status struct {
	Lifecycle fsm.State `json:"lifecycle"`
	Locale    string    `json:"locale"`
	segment.State
}

// Controller owns one segment.Processor. All methods are safe for
// concurrent use.
type Controller struct {
	logger    *slog.Logger
	store     *locale.Store
	commit    Committer
	indicator Indicator
	metrics   *observe.Metrics
	preedit   bool

	mu     sync.Mutex
	proc   *segment.Processor
	state  fsm.State
	locale string
}

// NewController loads the store's active locale and subscribes to its
// changes.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	store := opts.Store
	if store == nil {
		store = locale.NewStore(locale.Options{Logger: logger})
	}
	committer := opts.Committer
	if committer == nil {
		committer = CommitFunc(func(context.Context, segment.Final) error { return nil })
	}
	indicator := opts.Indicator
	if indicator == nil {
		indicator = noopIndicator{}
	}

	cfg := build(store, logger)
	c := &Controller{
		logger:    logger,
		store:     store,
		commit:    committer,
		indicator: indicator,
		metrics:   opts.Metrics,
		preedit:   opts.Preedit,
		state:     fsm.StateIdle,
		locale:    cfg.locale,
		proc: segment.New(segment.Options{
			Tree:      cfg.tree,
			Grammar:   cfg.grammar,
			Locale:    cfg.tag,
			Mode:      opts.Mode,
			UseDigits: opts.UseDigits,
			Shortcuts: opts.Shortcuts,
			Logger:    logger,
		}),
	}

	c.proc.Subscribe(func(state segment.State) {
		// Listeners run under c.mu; the indicator call must not re-enter.
		c.indicator.ShowState(context.Background(), state)
	})
	store.Subscribe(func(event locale.Event) {
		c.logger.Info("locale resource changed", "kind", event.Kind.String(), "deleted", event.Deleted)
		c.Reload(context.Background())
	})
	return c
}

// transition applies one FSM event. Callers hold c.mu.
func (c *Controller) transition(event fsm.Event) error {
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// ProcessPartial formats a partial revision of the current utterance.
func (c *Controller) ProcessPartial(ctx context.Context, text, left string) (segment.Preview, error) {
	c.mu.Lock()
	if c.state == fsm.StateCommitting {
		c.mu.Unlock()
		return segment.Preview{}, ErrCommitting
	}
	_ = c.transition(fsm.EventPartial)

	started := time.Now()
	preview := c.proc.Begin(text, left)
	c.metrics.RecordUtterance(ctx, "partial", time.Since(started))
	c.mu.Unlock()

	if c.preedit {
		c.indicator.ShowPreview(ctx, preview.Text)
	}
	return preview, nil
}

// ProcessFinal commits the final revision and applies it through the
// committer. The formatted result is returned even when applying it fails.
func (c *Controller) ProcessFinal(ctx context.Context, text, left string) (segment.Final, error) {
	c.mu.Lock()
	if c.state == fsm.StateCommitting {
		c.mu.Unlock()
		return segment.Final{}, ErrCommitting
	}
	_ = c.transition(fsm.EventFinal)

	started := time.Now()
	final := c.proc.End(text, left)
	c.metrics.RecordUtterance(ctx, "final", time.Since(started))
	c.metrics.RecordFinal(ctx, final.CancelLength, len(final.Shortcuts))
	c.mu.Unlock()

	if c.preedit {
		c.indicator.Hide(ctx)
	}

	err := c.commit.Apply(ctx, final)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		_ = c.transition(fsm.EventFail)
		c.logger.Error("apply final result", "error", err.Error(), "cancel_length", final.CancelLength)
		c.indicator.ShowError(ctx, "Output dispatch failed")
		return final, fmt.Errorf("apply final result: %w", err)
	}
	_ = c.transition(fsm.EventCommitted)
	c.logger.Debug("final result applied",
		"chars", len([]rune(final.Text())),
		"cancel_length", final.CancelLength,
		"shortcuts", len(final.Shortcuts),
	)
	return final, nil
}

// Reset drops the utterance in flight and the segment history.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.transition(fsm.EventReset); err != nil {
		return ErrCommitting
	}
	c.proc.Reset()
	if c.preedit {
		c.indicator.Hide(ctx)
	}
	return nil
}

func (c *Controller) idleLocked() error {
	switch c.state {
	case fsm.StateComposing, fsm.StateCommitting:
		return ErrUtteranceInFlight
	default:
		return nil
	}
}

// SetMode selects the parse mode between utterances.
func (c *Controller) SetMode(mode commands.Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.idleLocked(); err != nil {
		return err
	}
	return c.proc.SetMode(mode)
}

// SetUseDigits turns number conversion on or off between utterances.
func (c *Controller) SetUseDigits(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.idleLocked(); err != nil {
		return err
	}
	c.proc.SetUseDigits(on)
	return nil
}

// FlipUseDigits toggles number conversion and returns the new value.
func (c *Controller) FlipUseDigits() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.idleLocked(); err != nil {
		return false, err
	}
	on := !c.proc.State().UseDigits
	c.proc.SetUseDigits(on)
	return on, nil
}

// State returns the lifecycle and formatting snapshot.
func (c *Controller) State() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{Lifecycle: c.state, Locale: c.locale, State: c.proc.State()}
}

// Subscribe registers fn for mode and capability changes. fn runs with the
// controller locked and must not call back into it.
func (c *Controller) Subscribe(fn func(segment.State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.proc.Subscribe(fn)
}

// SetLocale switches the store to name; the resulting change event reloads
// the processor.
func (c *Controller) SetLocale(name string) error {
	c.mu.Lock()
	err := c.idleLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.store.SetLocale(name)
	return nil
}

// Reload rebuilds the configuration of the active locale. The documents are
// read outside the lock; the swap happens between two calls.
func (c *Controller) Reload(ctx context.Context) {
	cfg := build(c.store, c.logger)

	c.mu.Lock()
	c.proc.Reload(cfg.tree, cfg.grammar, cfg.tag)
	c.locale = cfg.locale
	state := c.proc.State()
	c.mu.Unlock()

	status := "ok"
	if !state.CanDictate {
		status = "degraded"
	}
	c.metrics.RecordReload(ctx, status)
	c.logger.Info("configuration reloaded",
		"locale", cfg.locale,
		"phrases", cfg.tree.Phrases(),
		"can_dictate", state.CanDictate,
		"can_spell", state.CanSpell,
		"can_use_digits", state.CanUseDigits,
	)
}

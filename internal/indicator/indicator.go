// Package indicator shows the formatting mode and preedit text as desktop
// notifications.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/dictum/internal/commands"
	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/hypr"
	"github.com/rbright/dictum/internal/segment"
)

// previewTimeoutMS keeps the preedit notification up while speaking; Hide
// replaces it.
const previewTimeoutMS = 30000

// HyprNotify is the concrete indicator used by the owner process. It routes
// notifications via Hyprland or desktop DBus based on config backend.
type HyprNotify struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	mu                    sync.Mutex
	last                  segment.State
	shown                 bool
	desktopNotificationID uint32
}

// NewHyprNotify creates an indicator from config. lang selects the message
// catalog; empty means the process environment.
func NewHyprNotify(cfg config.IndicatorConfig, lang string, logger *slog.Logger) *HyprNotify {
	return &HyprNotify{
		cfg:      cfg,
		logger:   logger,
		messages: messagesFor(lang),
	}
}

// ShowState announces a mode, digits or capability change. Repeated states
// are not shown again.
func (h *HyprNotify) ShowState(ctx context.Context, state segment.State) {
	if !h.cfg.Enable {
		return
	}

	h.mu.Lock()
	if h.shown && h.last == state {
		h.mu.Unlock()
		return
	}
	h.last, h.shown = state, true
	h.mu.Unlock()

	icon, color := hypr.IconInfo, hypr.ColorInfo
	if !state.CanDictate {
		icon, color = hypr.IconWarning, hypr.ColorWarn
	}
	text := h.messages.describe(state)
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, icon, h.timeout(), color, text)
	})
}

// ShowPreview displays the formatted text of a partial revision.
func (h *HyprNotify) ShowPreview(ctx context.Context, text string) {
	if !h.cfg.Enable || strings.TrimSpace(text) == "" {
		return
	}
	text = strings.ReplaceAll(text, "\n", "⏎")
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, hypr.IconHint, previewTimeoutMS, hypr.ColorInfo, text)
	})
}

// ShowError displays an error-state indicator message.
func (h *HyprNotify) ShowError(ctx context.Context, text string) {
	if !h.cfg.Enable {
		return
	}
	if text == "" {
		text = h.messages.errorText
	}
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, hypr.IconError, h.timeout(), hypr.ColorError, text)
	})
}

// Hide dismisses the active indicator surface.
func (h *HyprNotify) Hide(ctx context.Context) {
	if !h.cfg.Enable {
		return
	}
	h.run(ctx, h.dismiss)
}

func (h *HyprNotify) timeout() int {
	if h.cfg.TimeoutMS <= 0 {
		return 1200
	}
	return h.cfg.TimeoutMS
}

func (h *HyprNotify) desktop() bool {
	return strings.EqualFold(strings.TrimSpace(h.cfg.Backend), "desktop")
}

// notify dispatches indicator output through the configured backend.
func (h *HyprNotify) notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if h.desktop() {
		return h.notifyDesktop(ctx, timeoutMS, text)
	}
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

// dismiss removes indicator output from the configured backend.
func (h *HyprNotify) dismiss(ctx context.Context) error {
	if h.desktop() {
		return h.dismissDesktop(ctx)
	}
	return hypr.DismissNotify(ctx)
}

// notifyDesktop sends a replaceable desktop notification and stores its ID.
func (h *HyprNotify) notifyDesktop(ctx context.Context, timeoutMS int, text string) error {
	h.mu.Lock()
	replaceID := h.desktopNotificationID
	h.mu.Unlock()

	appName := strings.TrimSpace(h.cfg.DesktopAppName)
	if appName == "" {
		appName = "dictum"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.desktopNotificationID = id
	h.mu.Unlock()
	return nil
}

// dismissDesktop closes the current desktop notification ID when present.
func (h *HyprNotify) dismissDesktop(ctx context.Context) error {
	h.mu.Lock()
	id := h.desktopNotificationID
	h.desktopNotificationID = 0
	h.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (h *HyprNotify) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil && h.logger != nil {
		h.logger.Debug("indicator dispatch failed", "error", err.Error())
	}
}

func modeName(m messages, mode commands.Mode) string {
	switch mode {
	case commands.ModeSpelling:
		return m.spelling
	case commands.ModeLiteral:
		return m.literal
	default:
		return m.dictation
	}
}

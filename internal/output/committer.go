// Package output applies final results to the focused window: deletions,
// typed text and key events, in order.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/hypr"
	"github.com/rbright/dictum/internal/segment"
)

const (
	commandTimeout = 2 * time.Second
	keyTimeout     = 1200 * time.Millisecond
	focusAttempts  = 5
	focusDelay     = 10 * time.Millisecond
)

// Committer replays segment.Final values through hyprctl and the configured
// text commands.
type Committer struct {
	config config.OutputConfig
	delete hypr.Shortcut
	paste  hypr.Shortcut
	logger *slog.Logger
}

// NewCommitter constructs a committer from validated output config.
func NewCommitter(cfg config.OutputConfig, logger *slog.Logger) (*Committer, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Committer{config: cfg, logger: logger}

	var err error
	if c.delete, err = hypr.ParseShortcut(cfg.DeleteShortcut); err != nil {
		return nil, fmt.Errorf("delete shortcut: %w", err)
	}
	if len(cfg.TypeCmd.Argv) == 0 {
		if c.paste, err = hypr.ParseShortcut(cfg.PasteShortcut); err != nil {
			return nil, fmt.Errorf("paste shortcut: %w", err)
		}
	}
	return c, nil
}

// Apply removes final.CancelLength characters before the cursor, then types
// the chunks and presses the shortcuts in text order.
func (c *Committer) Apply(ctx context.Context, final segment.Final) error {
	events := final.Events()
	if final.CancelLength == 0 && len(events) == 0 {
		return nil
	}

	window, err := hypr.WaitActiveWindow(ctx, focusAttempts, focusDelay)
	if err != nil {
		return err
	}

	if final.CancelLength > 0 {
		keyCtx, cancel := context.WithTimeout(ctx, keyTimeout)
		err := hypr.PressRepeat(keyCtx, c.delete, window.Address, final.CancelLength)
		cancel()
		if err != nil {
			return fmt.Errorf("delete %d characters: %w", final.CancelLength, err)
		}
	}

	for _, event := range events {
		switch event.Kind {
		case segment.EventText:
			if err := c.typeText(ctx, window.Address, event.Text); err != nil {
				return err
			}
		case segment.EventShortcut:
			keyCtx, cancel := context.WithTimeout(ctx, keyTimeout)
			err := hypr.Press(keyCtx, event.Shortcut, window.Address)
			cancel()
			if err != nil {
				return fmt.Errorf("press %s: %w", event.Shortcut, err)
			}
		}
	}

	c.logger.Debug("final result applied", "window_class", window.Class, "events", len(events))
	return nil
}

// typeText sends text through type_cmd, or through the clipboard and the
// paste shortcut when no type command is configured.
func (c *Committer) typeText(ctx context.Context, address, text string) error {
	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if len(c.config.TypeCmd.Argv) > 0 {
		if err := runCommandWithInput(cmdCtx, c.config.TypeCmd.Argv, text); err != nil {
			return fmt.Errorf("type text: %w", err)
		}
		return nil
	}

	if err := runCommandWithInput(cmdCtx, c.config.Clipboard.Argv, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	keyCtx, keyCancel := context.WithTimeout(ctx, keyTimeout)
	defer keyCancel()
	if err := hypr.Press(keyCtx, c.paste, address); err != nil {
		return fmt.Errorf("paste text: %w", err)
	}
	return nil
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}

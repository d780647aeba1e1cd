package hypr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ActiveWindow identifies the window that receives typed text and keys.
type ActiveWindow struct {
	Address      string `json:"address"`
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
}

var errNoActiveWindow = errors.New("hyprctl activewindow returned empty address")

// QueryActiveWindow asks Hyprland for the focused window.
func QueryActiveWindow(ctx context.Context) (ActiveWindow, error) {
	var w ActiveWindow
	if err := query(ctx, "activewindow", &w); err != nil {
		return ActiveWindow{}, err
	}
	w = ActiveWindow{
		Address:      strings.TrimSpace(w.Address),
		Class:        strings.TrimSpace(w.Class),
		InitialClass: strings.TrimSpace(w.InitialClass),
	}
	if w.Address == "" {
		return ActiveWindow{}, errNoActiveWindow
	}
	return w, nil
}

// WaitActiveWindow polls QueryActiveWindow up to attempts times, delay apart,
// while focus settles after a workspace or window switch.
func WaitActiveWindow(ctx context.Context, attempts int, delay time.Duration) (ActiveWindow, error) {
	var err error
	for i := range max(attempts, 1) {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ActiveWindow{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		var w ActiveWindow
		if w, err = QueryActiveWindow(ctx); err == nil {
			return w, nil
		}
		if ctx.Err() != nil {
			return ActiveWindow{}, ctx.Err()
		}
	}
	return ActiveWindow{}, fmt.Errorf("resolve active window: %w", err)
}

// Package hypr drives Hyprland through hyprctl: window queries, key
// injection and notifications.
package hypr

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// maxBatch bounds the dispatches joined into one hyprctl --batch call.
const maxBatch = 64

func runHyprctl(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "hyprctl", args...).CombinedOutput()
	if err != nil {
		if trimmed := strings.TrimSpace(string(out)); trimmed != "" {
			return nil, fmt.Errorf("hyprctl %v failed: %w (%s)", args, err, trimmed)
		}
		return nil, fmt.Errorf("hyprctl %v failed: %w", args, err)
	}
	return out, nil
}

// dispatch runs one hyprctl dispatcher.
func dispatch(ctx context.Context, dispatcher string, args ...string) error {
	_, err := runHyprctl(ctx, append([]string{"--quiet", "dispatch", dispatcher}, args...)...)
	return err
}

// query decodes the JSON output of a hyprctl request into v.
func query(ctx context.Context, request string, v any) error {
	out, err := runHyprctl(ctx, "-j", request)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, v); err != nil {
		return fmt.Errorf("decode hyprctl %s json: %w", request, err)
	}
	return nil
}

// Payload renders s as a sendshortcut argument, targeted at address when set.
func Payload(s Shortcut, address string) string {
	payload := s.String()
	if address = strings.TrimSpace(address); address != "" {
		payload += ",address:" + address
	}
	return payload
}

// Press sends s to the window at address, or to the focused window when
// address is empty.
func Press(ctx context.Context, s Shortcut, address string) error {
	return dispatch(ctx, "sendshortcut", Payload(s, address))
}

// PressRepeat sends s count times, batching the dispatches.
func PressRepeat(ctx context.Context, s Shortcut, address string, count int) error {
	payload := "dispatch sendshortcut " + Payload(s, address)
	for count > 0 {
		n := min(count, maxBatch)
		cmds := make([]string, n)
		for i := range cmds {
			cmds[i] = payload
		}
		if _, err := runHyprctl(ctx, "--quiet", "--batch", strings.Join(cmds, " ; ")); err != nil {
			return err
		}
		count -= n
	}
	return nil
}

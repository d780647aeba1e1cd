package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rbright/dictum/internal/cli"
	"github.com/rbright/dictum/internal/ipc"
	"github.com/rbright/dictum/internal/observe"
	"github.com/rbright/dictum/internal/session"
)

const (
	controlTimeout = 500 * time.Millisecond
	// finalTimeout covers output dispatch to the focused window.
	finalTimeout = 5 * time.Second
)

// commandForward sends a revision or control command to the owner.
func (r Runner) commandForward(ctx context.Context, parsed cli.Parsed) int {
	req := ipc.Request{Command: string(parsed.Command)}
	timeout := controlTimeout
	switch parsed.Command {
	case cli.CommandPartial, cli.CommandFinal:
		req.Text = parsed.Text()
		req.Left = parsed.Left
		if parsed.Command == cli.CommandFinal {
			timeout = finalTimeout
		}
	case cli.CommandMode, cli.CommandDigits, cli.CommandReload:
		req.Value = parsed.Text()
	}

	resp, err := r.forwardOrFail(ctx, req, timeout)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		if len(resp.Data) > 0 {
			fmt.Fprintln(r.Stdout, string(resp.Data))
		}
		return 1
	}

	switch parsed.Command {
	case cli.CommandPartial, cli.CommandFinal:
		fmt.Fprintln(r.Stdout, string(resp.Data))
	default:
		if resp.Message != "" {
			fmt.Fprintln(r.Stdout, resp.Message)
		}
	}
	return 0
}

// commandStatus prints the owner snapshot, or "stopped" without an owner.
func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "stopped")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: ipc.CommandStatus}, controlTimeout)
	if !handled {
		fmt.Fprintln(r.Stdout, "stopped")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	var status session.Status
	if err := resp.Decode(&status); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, formatStatus(status))
	return 0
}

func formatStatus(s session.Status) string {
	lifecycle := string(s.Lifecycle)
	if lifecycle == "" {
		lifecycle = "idle"
	}
	return fmt.Sprintf("%s locale=%s mode=%s digits=%t dictate=%t spell=%t numbers=%t",
		lifecycle, s.Locale, s.Mode, s.UseDigits, s.CanDictate, s.CanSpell, s.CanUseDigits)
}

// commandStats prints the owner metrics, one stream per line.
func (r Runner) commandStats(ctx context.Context) int {
	resp, err := r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandStats}, controlTimeout)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	var points []observe.Point
	if err := resp.Decode(&points); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(points) == 0 {
		fmt.Fprintln(r.Stdout, "no metrics recorded")
		return 0
	}
	for _, p := range points {
		fmt.Fprintln(r.Stdout, formatPoint(p))
	}
	return 0
}

func formatPoint(p observe.Point) string {
	name := p.Name
	if p.Attrs != "" {
		name += "{" + p.Attrs + "}"
	}
	if p.Count > 0 {
		return fmt.Sprintf("%s mean=%.3f count=%d", name, p.Value, p.Count)
	}
	return fmt.Sprintf("%s %g", name, p.Value)
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request, timeout time.Duration) (ipc.Response, error) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return ipc.Response{}, err
	}

	resp, handled, err := tryForward(ctx, socketPath, req, timeout)
	if !handled {
		return ipc.Response{}, errors.New("no dictum owner running; start one with `dictum serve`")
	}
	return resp, err
}

// tryForward reports handled=false when no owner listens on socketPath.
func tryForward(ctx context.Context, socketPath string, req ipc.Request, timeout time.Duration) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, timeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(strings.TrimSpace(resp.Error))
	}

	if ipc.IsUnavailable(err) {
		return ipc.Response{}, false, nil
	}
	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}

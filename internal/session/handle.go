package session

import (
	"context"
	"fmt"
	"strings"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/rbright/dictum/internal/commands"
	"github.com/rbright/dictum/internal/ipc"
	"github.com/rbright/dictum/internal/observe"
)

// Server answers owner socket requests with a Controller.
type Server struct {
	Controller *Controller
	// Reader backs the stats command; nil disables it.
	Reader *sdkmetric.ManualReader
}

// Handle serves one IPC command.
func (s Server) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	c := s.Controller

	switch req.Command {
	case ipc.CommandStatus:
		status := c.State()
		return ipc.Response{OK: true, State: string(status.Lifecycle), Message: "status"}.WithData(status)

	case ipc.CommandPartial:
		preview, err := c.ProcessPartial(ctx, req.Text, req.Left)
		if err != nil {
			return ipc.Failure(string(c.State().Lifecycle), err)
		}
		return ipc.Response{OK: true, State: string(c.State().Lifecycle)}.WithData(preview)

	case ipc.CommandFinal:
		final, err := c.ProcessFinal(ctx, req.Text, req.Left)
		if err != nil {
			resp := ipc.Failure(string(c.State().Lifecycle), err)
			if final.Chunks != nil {
				// The processor committed; report what was formatted.
				resp = resp.WithData(final)
			}
			return resp
		}
		return ipc.Response{OK: true, State: string(c.State().Lifecycle), Message: final.Text()}.WithData(final)

	case ipc.CommandReset:
		if err := c.Reset(ctx); err != nil {
			return ipc.Failure(string(c.State().Lifecycle), err)
		}
		return ipc.Response{OK: true, State: string(c.State().Lifecycle), Message: "reset"}

	case ipc.CommandMode:
		mode, err := commands.ParseMode(req.Value)
		if err == nil {
			err = c.SetMode(mode)
		}
		if err != nil {
			return ipc.Failure(string(c.State().Lifecycle), fmt.Errorf("mode %s: %w", req.Value, err))
		}
		status := c.State()
		return ipc.Response{OK: true, State: string(status.Lifecycle), Message: status.Mode.String()}.WithData(status)

	case ipc.CommandDigits:
		on, err := s.digits(req.Value)
		if err != nil {
			return ipc.Failure(string(c.State().Lifecycle), err)
		}
		status := c.State()
		return ipc.Response{OK: true, State: string(status.Lifecycle), Message: fmt.Sprintf("digits %t", on)}.WithData(status)

	case ipc.CommandReload:
		if locale := strings.TrimSpace(req.Value); locale != "" {
			if err := c.SetLocale(locale); err != nil {
				return ipc.Failure(string(c.State().Lifecycle), err)
			}
		} else {
			c.Reload(ctx)
		}
		status := c.State()
		return ipc.Response{OK: true, State: string(status.Lifecycle), Message: "reloaded " + status.Locale}.WithData(status)

	case ipc.CommandStats:
		if s.Reader == nil {
			return ipc.Failure(string(c.State().Lifecycle), fmt.Errorf("metrics are not enabled"))
		}
		points, err := observe.Summarize(ctx, s.Reader)
		if err != nil {
			return ipc.Failure(string(c.State().Lifecycle), err)
		}
		return ipc.Response{OK: true, State: string(c.State().Lifecycle)}.WithData(points)

	default:
		return ipc.Response{OK: false, State: string(c.State().Lifecycle), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

func (s Server) digits(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1":
		return true, s.Controller.SetUseDigits(true)
	case "off", "false", "0":
		return false, s.Controller.SetUseDigits(false)
	case "", "toggle":
		return s.Controller.FlipUseDigits()
	default:
		return false, fmt.Errorf("digits: expected on, off or toggle, got %q", value)
	}
}

package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

var ErrAlreadyRunning = errors.New("dictum owner already running")

// EnvSocket overrides the owner socket path.
const EnvSocket = "DICTUM_SOCKET"

// RuntimeSocketPath is $DICTUM_SOCKET, or dictum.sock under XDG_RUNTIME_DIR.
func RuntimeSocketPath() (string, error) {
	if path := strings.TrimSpace(os.Getenv(EnvSocket)); path != "" {
		return path, nil
	}
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return "", fmt.Errorf("XDG_RUNTIME_DIR is not set and %s is empty", EnvSocket)
	}
	return filepath.Join(runtimeDir, "dictum.sock"), nil
}

// AcquireOptions bounds how long Acquire fights over an existing socket.
type AcquireOptions struct {
	// ProbeTimeout bounds the status request sent to an existing owner.
	ProbeTimeout time.Duration
	// Retries is the number of extra listen attempts after a stale socket
	// is removed.
	Retries int
	Logger  *slog.Logger
}

// Acquire listens on path. A socket left behind by a dead owner is removed;
// a live owner yields ErrAlreadyRunning. A socket whose owner neither answers
// nor refuses is left in place.
func Acquire(ctx context.Context, path string, opts AcquireOptions) (net.Listener, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	for attempt := 0; ; attempt++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return listener, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}

		alive, err := Probe(ctx, path, opts.ProbeTimeout)
		if err != nil {
			return nil, fmt.Errorf("probe existing socket %s: %w", path, err)
		}
		if alive {
			return nil, ErrAlreadyRunning
		}

		if attempt >= opts.Retries {
			return nil, fmt.Errorf("failed to acquire socket %s after %d retries", path, opts.Retries)
		}
		logger.Warn("removing stale socket", "path", path, "attempt", attempt+1)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(25*attempt) * time.Millisecond):
		}
	}
}

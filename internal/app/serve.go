package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/errgroup"

	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/indicator"
	"github.com/rbright/dictum/internal/ipc"
	"github.com/rbright/dictum/internal/locale"
	"github.com/rbright/dictum/internal/observe"
	"github.com/rbright/dictum/internal/output"
	"github.com/rbright/dictum/internal/session"
)

// commandServe runs the owner until ctx is cancelled.
func (r Runner) commandServe(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{
		ProbeTimeout: 180 * time.Millisecond,
		Retries:      8,
		Logger:       logger,
	})
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintf(r.Stderr, "error: %v (socket %s)\n", err, socketPath)
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()
	metrics, err := observe.NewMetrics(provider)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: create metrics: %v\n", err)
		return 1
	}

	store := newStore(cfg, logger)
	opts := sessionOptions(cfg, store, logger)
	opts.Metrics = metrics
	opts.Preedit = cfg.Preedit.Enable
	opts.Indicator = indicator.NewHyprNotify(cfg.Indicator, store.Locale(), logger)
	if cfg.Output.Enable {
		committer, err := output.NewCommitter(cfg.Output, logger)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		opts.Committer = committer
	} else {
		opts.Shortcuts = false
	}
	controller := session.NewController(opts)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ipc.Serve(gctx, listener, session.Server{Controller: controller, Reader: reader})
	})
	if cfg.Watch.Enable {
		g.Go(func() error {
			return watchStore(gctx, store)
		})
	}

	status := controller.State()
	logger.Info("owner ready",
		"socket", socketPath,
		"locale", status.Locale,
		"mode", status.Mode.String(),
		"can_dictate", status.CanDictate,
		"output", cfg.Output.Enable,
	)
	fmt.Fprintf(r.Stdout, "listening on %s (locale %s)\n", socketPath, status.Locale)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("owner failed", "error", err.Error())
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	logger.Info("owner stopped")
	return 0
}

// watchStore watches the documents of the active locale and starts over on
// the new locale's paths after each locale switch.
func watchStore(ctx context.Context, store *locale.Store) error {
	restart := make(chan struct{}, 1)
	store.Subscribe(func(event locale.Event) {
		if event.Kind != locale.KindLocale {
			return
		}
		select {
		case restart <- struct{}{}:
		default:
		}
	})

	for {
		watchCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- store.Watch(watchCtx) }()

		select {
		case <-ctx.Done():
			cancel()
			return <-done
		case err := <-done:
			cancel()
			return err
		case <-restart:
			cancel()
			if err := <-done; err != nil {
				return err
			}
		}
	}
}

// Package app dispatches parsed dictum commands to the owner process or to
// an in-process formatting session.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rbright/dictum/internal/cli"
	"github.com/rbright/dictum/internal/commands"
	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/doctor"
	"github.com/rbright/dictum/internal/locale"
	"github.com/rbright/dictum/internal/logging"
	"github.com/rbright/dictum/internal/session"
	"github.com/rbright/dictum/internal/version"
)

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("dictum"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("dictum"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logRuntime, err := logging.New(cfgLoaded.Config.Log.Level)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	cfg := cfgLoaded.Config
	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded, newStore(cfg, logger))
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandServe:
		return r.commandServe(ctx, cfg, logger)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStats:
		return r.commandStats(ctx)
	case cli.CommandPartial, cli.CommandFinal, cli.CommandReset,
		cli.CommandMode, cli.CommandDigits, cli.CommandReload:
		return r.commandForward(ctx, parsed)
	case cli.CommandFormat:
		return r.commandFormat(ctx, cfg, logger)
	case cli.CommandRepl:
		return r.commandRepl(ctx, cfg, logger)
	case cli.CommandOverride:
		return r.commandOverride(cfg, logger, parsed.Args)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// newStore opens the locale store described by cfg.
func newStore(cfg config.Config, logger *slog.Logger) *locale.Store {
	return locale.NewStore(locale.Options{
		Locale:         cfg.Locale,
		DataDir:        cfg.Paths.DataDir,
		FormattingFile: cfg.Paths.FormattingFile,
		OverrideDir:    cfg.Paths.OverrideDir,
		Logger:         logger,
	})
}

// sessionOptions carries the formatting defaults of cfg. The mode was
// validated by config.Load.
func sessionOptions(cfg config.Config, store *locale.Store, logger *slog.Logger) session.Options {
	mode, _ := commands.ParseMode(cfg.Format.Mode)
	return session.Options{
		Store:     store,
		Mode:      mode,
		UseDigits: cfg.Format.UseDigits,
		Shortcuts: cfg.Format.Shortcuts,
		Logger:    logger,
	}
}

func (r Runner) stdin() io.Reader {
	if r.Stdin == nil {
		return os.Stdin
	}
	return r.Stdin
}

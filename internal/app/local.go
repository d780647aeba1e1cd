package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/peterh/liner"

	"github.com/rbright/dictum/internal/commands"
	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/segment"
	"github.com/rbright/dictum/internal/session"
)

// transcript is the text committed so far in a local session. It stands in
// for the host's left context.
type transcript struct {
	text []rune
}

func (t *transcript) left() string {
	return string(t.text)
}

func (t *transcript) apply(final segment.Final) {
	cut := min(final.CancelLength, len(t.text))
	t.text = append(t.text[:len(t.text)-cut], []rune(final.Text())...)
}

// formatResult is one output line of the format command.
type formatResult struct {
	Kind     string           `json:"kind"`
	Input    string           `json:"input"`
	Preview  *segment.Preview `json:"preview,omitempty"`
	Final    *segment.Final   `json:"final,omitempty"`
	Document string           `json:"document"`
}

// splitRevision reads "partial: text" and "final: text" prefixes; a bare
// line is a final revision.
func splitRevision(line string) (kind, text string) {
	for _, prefix := range []string{"partial:", "final:"} {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSuffix(prefix, ":"), strings.TrimSpace(rest)
		}
	}
	return "final", strings.TrimSpace(line)
}

// commandFormat formats stdin revisions in process and prints one JSON
// result per line.
func (r Runner) commandFormat(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	controller := session.NewController(sessionOptions(cfg, newStore(cfg, logger), logger))
	doc := &transcript{}
	enc := json.NewEncoder(r.Stdout)

	scanner := bufio.NewScanner(r.stdin())
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		kind, text := splitRevision(line)
		result := formatResult{Kind: kind, Input: text}
		if kind == "partial" {
			preview, err := controller.ProcessPartial(ctx, text, doc.left())
			if err != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", err)
				return 1
			}
			result.Preview = &preview
		} else {
			final, err := controller.ProcessFinal(ctx, text, doc.left())
			if err != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", err)
				return 1
			}
			doc.apply(final)
			result.Final = &final
		}
		result.Document = doc.left()

		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(r.Stderr, "error: read input: %v\n", err)
		return 1
	}
	return 0
}

// repl is an interactive local session.
type repl struct {
	ctx        context.Context
	controller *session.Controller
	doc        transcript
}

var errQuit = errors.New("quit")

// eval runs one repl line and returns what to print.
func (s *repl) eval(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	if !strings.HasPrefix(line, ":") {
		final, err := s.controller.ProcessFinal(s.ctx, line, s.doc.left())
		if err != nil {
			return "", err
		}
		s.doc.apply(final)
		return s.doc.left(), nil
	}

	name, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "quit", "q":
		return "", errQuit
	case "partial", "p":
		preview, err := s.controller.ProcessPartial(s.ctx, arg, s.doc.left())
		if err != nil {
			return "", err
		}
		out := s.doc.left() + "[" + preview.Text + "]"
		if preview.NeedFinal {
			out += " (needs final)"
		}
		return out, nil
	case "mode":
		mode, err := commands.ParseMode(arg)
		if err != nil {
			return "", err
		}
		if err := s.controller.SetMode(mode); err != nil {
			return "", err
		}
		return "mode " + s.controller.State().Mode.String(), nil
	case "digits":
		var on bool
		var err error
		switch strings.ToLower(arg) {
		case "on":
			on, err = true, s.controller.SetUseDigits(true)
		case "off":
			err = s.controller.SetUseDigits(false)
		case "", "toggle":
			on, err = s.controller.FlipUseDigits()
		default:
			return "", fmt.Errorf("digits: expected on, off or toggle, got %q", arg)
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("digits %t", on), nil
	case "reset":
		if err := s.controller.Reset(s.ctx); err != nil {
			return "", err
		}
		s.doc = transcript{}
		return "reset", nil
	case "state":
		return formatStatus(s.controller.State()), nil
	default:
		return "", fmt.Errorf("unknown repl command :%s (try :partial, :mode, :digits, :reset, :state, :quit)", name)
	}
}

// commandRepl runs the interactive loop on the terminal.
func (r Runner) commandRepl(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	s := &repl{
		ctx:        ctx,
		controller: session.NewController(sessionOptions(cfg, newStore(cfg, logger), logger)),
	}

	line := liner.NewLiner()
	defer func() { _ = line.Close() }()
	line.SetCtrlCAborts(true)

	fmt.Fprintln(r.Stdout, formatStatus(s.controller.State()))
	for {
		input, err := line.Prompt("dictum> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return 0
			}
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}

		out, err := s.eval(input)
		switch {
		case errors.Is(err, errQuit):
			return 0
		case err != nil:
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
		case out != "":
			fmt.Fprintln(r.Stdout, out)
		}
	}
}

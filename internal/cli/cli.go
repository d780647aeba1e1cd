// Package cli parses dictum command lines.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandServe    Command = "serve"
	CommandPartial  Command = "partial"
	CommandFinal    Command = "final"
	CommandReset    Command = "reset"
	CommandMode     Command = "mode"
	CommandDigits   Command = "digits"
	CommandStatus   Command = "status"
	CommandStats    Command = "stats"
	CommandReload   Command = "reload"
	CommandFormat   Command = "format"
	CommandRepl     Command = "repl"
	CommandOverride Command = "override"
	CommandDoctor   Command = "doctor"
	CommandVersion  Command = "version"
	CommandHelp     Command = "help"
)

// arity bounds positional arguments per command; max < 0 means unbounded.
type arity struct {
	min, max int
}

var validCommands = map[Command]arity{
	CommandServe:    {0, 0},
	CommandPartial:  {1, -1},
	CommandFinal:    {1, -1},
	CommandReset:    {0, 0},
	CommandMode:     {1, 1},
	CommandDigits:   {0, 1},
	CommandStatus:   {0, 0},
	CommandStats:    {0, 0},
	CommandReload:   {0, 1},
	CommandFormat:   {0, 0},
	CommandRepl:     {0, 0},
	CommandOverride: {1, -1},
	CommandDoctor:   {0, 0},
	CommandVersion:  {0, 0},
	CommandHelp:     {0, 0},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
	// Args are the positional arguments after the command.
	Args []string
	// Left is the --left context for partial and final.
	Left    string
	HasLeft bool
}

// Text joins the positional arguments into one utterance.
func (p Parsed) Text() string {
	return strings.Join(p.Args, " ")
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	i := 0
	for ; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
			continue
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
			continue
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
			continue
		}

		if strings.HasPrefix(arg, "-") {
			return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
		}

		cmd := Command(arg)
		if _, ok := validCommands[cmd]; !ok {
			return Parsed{}, fmt.Errorf("unknown command: %s", arg)
		}
		parsed.Command = cmd
		parsed.ShowHelp = cmd == CommandHelp
		break
	}
	if i >= len(args) {
		return parsed, nil
	}

	cmd := parsed.Command
	for i++; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--left" && (cmd == CommandPartial || cmd == CommandFinal):
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--left requires a value")
			}
			parsed.Left, parsed.HasLeft = args[i], true
		case arg == "--":
			parsed.Args = append(parsed.Args, args[i+1:]...)
			i = len(args)
		case strings.HasPrefix(arg, "--"):
			return Parsed{}, fmt.Errorf("unexpected flag %s after command %q", arg, cmd)
		default:
			parsed.Args = append(parsed.Args, arg)
		}
	}

	bounds := validCommands[cmd]
	switch {
	case len(parsed.Args) < bounds.min:
		return Parsed{}, fmt.Errorf("command %q requires an argument", cmd)
	case bounds.max >= 0 && len(parsed.Args) > bounds.max:
		return Parsed{}, fmt.Errorf("unexpected arguments after command %q", cmd)
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [args]

Owner:
  serve                      Run the formatting owner on the runtime socket

Forwarded to the owner:
  partial TEXT [--left TEXT] Format a partial revision (preedit)
  final TEXT [--left TEXT]   Commit a final revision and apply it
  reset                      Drop the utterance in flight and the history
  mode NAME                  Select dictation, spelling or literal
  digits [on|off|toggle]     Control spoken-number conversion
  reload [LOCALE]            Rebuild formatting, optionally for a new locale
  status                     Print lifecycle, mode and capabilities
  stats                      Print processing metrics

Local:
  format                     Format stdin lines ("partial: ...", "final: ...")
  repl                       Interactive formatting session
  override show              Print the override document
  override add SECTION VALUE UTTERANCE...
                             Append an entry to the override document
  doctor                     Run configuration and environment checks
  version                    Print version information
  help                       Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/dictum/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}

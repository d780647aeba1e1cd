package config

import (
	"fmt"
	"strings"
	"unicode"
)

// parseCommand splits raw into a CommandConfig, naming key in errors.
func parseCommand(key, raw string) (CommandConfig, error) {
	argv, err := parseArgv(raw)
	if err != nil {
		return CommandConfig{}, fmt.Errorf("%s: %w", key, err)
	}
	return CommandConfig{Raw: strings.TrimSpace(raw), Argv: argv}, nil
}

// parseArgv splits a shell-like command line. Quotes group words and a
// backslash escapes the next rune; nothing is expanded.
func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var argv []string
	var current strings.Builder
	var quote rune
	escaped, quoted := false, false

	flush := func() {
		if current.Len() == 0 && !quoted {
			return
		}
		argv = append(argv, current.String())
		current.Reset()
		quoted = false
	}

	for _, r := range input {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			quoted = true
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
		}
	}

	if escaped {
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}

	flush()
	return argv, nil
}

func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}

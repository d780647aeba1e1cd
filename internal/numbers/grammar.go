// Package numbers turns runs of spoken number words into digit strings using a
// per-language grammar.
package numbers

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/rbright/dictum/internal/trie"
)

// WordAdder receives the digit string of a parsed number.
type WordAdder interface {
	AddWords(string)
}

// Grammar holds the number words of one language. It is read-only once
// parsed.
type Grammar struct {
	values   map[string]int
	names    map[int]string
	measures map[int]string
	// ignore maps a filler word to the words allowed right before it.
	ignore    map[string][]string
	replace   *trie.Node[string]
	separator string
	symbol    string
}

// ParseGrammar reads a properties document:
//
//	one=1
//	measure:thousand=1000
//	replace:dix sept=dix-sept
//	ignore:and=hundred,thousand
//	point=point
//
// Lines starting with # are comments. tag selects the written decimal symbol.
func ParseGrammar(r io.Reader, tag language.Tag) (*Grammar, error) {
	g := &Grammar{
		values:   map[string]int{},
		names:    map[int]string{},
		measures: map[int]string{},
		ignore:   map[string][]string{},
		replace:  trie.New[string](),
		symbol:   DecimalSymbol(tag),
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key=value", lineNo)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch {
		case strings.HasPrefix(key, "replace:"):
			tokens := strings.Fields(strings.TrimPrefix(key, "replace:"))
			node := g.replace.Insert(tokens)
			if node == nil {
				return nil, fmt.Errorf("line %d: empty replacement", lineNo)
			}
			if node.Set {
				continue
			}
			node.Value = strings.ToLower(value)
			node.Set = true
		case strings.HasPrefix(key, "measure:"):
			word := strings.TrimSpace(strings.TrimPrefix(key, "measure:"))
			n, err := parseValue(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if n < 1000 {
				return nil, fmt.Errorf("line %d: measure %q must be at least 1000", lineNo, word)
			}
			g.measures[n] = word
			g.addWord(word, n)
		case strings.HasPrefix(key, "ignore:"):
			word := strings.TrimSpace(strings.TrimPrefix(key, "ignore:"))
			for _, before := range strings.Split(value, ",") {
				if before = strings.ToLower(strings.TrimSpace(before)); before != "" {
					g.ignore[word] = append(g.ignore[word], before)
				}
			}
		case key == "point":
			g.separator = strings.ToLower(value)
		default:
			n, err := parseValue(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			g.addWord(key, n)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read grammar: %w", err)
	}
	if len(g.values) == 0 {
		return nil, fmt.Errorf("grammar defines no number words")
	}
	return g, nil
}

func parseValue(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid number value %q", raw)
	}
	return n, nil
}

func (g *Grammar) addWord(word string, n int) {
	g.values[word] = n
	if _, ok := g.names[n]; !ok {
		g.names[n] = word
	}
}

// SetSeparator replaces the spoken decimal separator. Empty values are
// ignored.
func (g *Grammar) SetSeparator(word string) {
	if word = strings.ToLower(strings.TrimSpace(word)); word != "" {
		g.separator = word
	}
}

// Separator returns the spoken decimal separator.
func (g *Grammar) Separator() string { return g.separator }

// Symbol returns the written decimal symbol.
func (g *Grammar) Symbol() string { return g.symbol }

// DecimalSymbol returns the decimal separator CLDR defines for tag, "." when
// it cannot be derived.
func DecimalSymbol(tag language.Tag) string {
	formatted := message.NewPrinter(tag).Sprint(number.Decimal(1.5))
	symbol := strings.TrimSuffix(strings.TrimPrefix(formatted, "1"), "5")
	if symbol == "" || symbol == formatted {
		return "."
	}
	return symbol
}

// normalize returns the canonical word at tokens[i] and how many tokens it
// spans.
func (g *Grammar) normalize(tokens []string, i int) (string, int) {
	node := g.replace.Longest(tokens, i, func(n *trie.Node[string]) bool { return n.Set })
	if node == nil {
		return strings.ToLower(tokens[i]), 1
	}
	return node.Value, node.Depth
}

// Parse consumes the longest spoken number starting at tokens[start], passes
// its digits to out and returns the index after it. It returns start when no
// number begins there.
func (g *Grammar) Parse(tokens []string, start int, out WordAdder) int {
	if g == nil || start < 0 || start >= len(tokens) {
		return start
	}

	next, radixAt, ignoreAt := start, -1, -1
	integer, temp, result := -1, 0, 0
	var previous, word, prefix string

scan:
	for next < len(tokens) {
		previous = word
		var span int
		word, span = g.normalize(tokens, next)

		if previous != "" {
			if before, ok := g.ignore[word]; ok && ignoreAt < 0 {
				if !contains(before, previous) {
					break
				}
				ignoreAt = next
				next += span
				continue
			}

			if radixAt < 0 && g.separator != "" && word == g.separator {
				if ignoreAt >= 0 {
					break
				}
				radixAt = next
				next += span
				integer = result + temp
				temp, result = 0, 0
				continue
			}
		}

		value, ok := g.values[word]
		if !ok {
			break
		}

		switch {
		case value == 0:
			if integer < 0 {
				// Zero only stands alone as the leading word.
				if result == 0 && temp == 0 && next == start {
					next += span
				}
				break scan
			}
			if result != 0 || temp != 0 {
				break scan
			}
			prefix += "0"
		case value < 10:
			if temp%10 != 0 {
				break scan
			}
			// "ten two" is not twelve.
			if rest := temp % 100; rest != 0 {
				if _, ok := g.names[rest+value]; ok {
					break scan
				}
			}
			temp += value
		case value < 100:
			if temp%100 != 0 {
				break scan
			}
			temp += value
		case value == 100:
			if temp >= 10 {
				break scan
			}
			if temp == 0 {
				temp = 100
			} else {
				temp *= 100
			}
		default:
			if _, ok := g.measures[value]; !ok {
				break scan
			}
			// Magnitudes must strictly decrease.
			if result%(value*1000) != 0 {
				break scan
			}
			if temp != 0 {
				result += temp * value
				temp = 0
			} else {
				result += value
			}
		}

		ignoreAt = -1
		next += span
	}

	// A filler word needs a number after it.
	if ignoreAt >= 0 {
		next = ignoreAt
	}
	if next == start {
		return start
	}

	result += temp
	digits := strconv.Itoa(result)
	if integer >= 0 {
		if result == 0 {
			next = radixAt
			digits = strconv.Itoa(integer)
		} else {
			digits = strings.TrimRight(strconv.Itoa(integer)+g.symbol+prefix+digits, "0")
		}
	}

	out.AddWords(digits)
	return next
}

func contains(words []string, word string) bool {
	for _, candidate := range words {
		if candidate == word {
			return true
		}
	}
	return false
}

package hypr

import (
	"fmt"
	"strings"
)

// Modifier is a bitmask of keyboard modifiers.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

var modifierNames = []struct {
	mod  Modifier
	name string
}{
	{ModSuper, "SUPER"},
	{ModCtrl, "CTRL"},
	{ModAlt, "ALT"},
	{ModShift, "SHIFT"},
}

var modifierAliases = map[string]Modifier{
	"SHIFT":   ModShift,
	"CTRL":    ModCtrl,
	"CONTROL": ModCtrl,
	"ALT":     ModAlt,
	"MOD1":    ModAlt,
	"SUPER":   ModSuper,
	"WIN":     ModSuper,
	"META":    ModSuper,
	"MOD4":    ModSuper,
}

// Shortcut is one key press with modifiers.
type Shortcut struct {
	Mods Modifier
	Key  string
}

// ParseShortcut reads "MODS,KEY" (mods separated by spaces, the form
// sendshortcut takes) or "MOD+MOD+KEY".
func ParseShortcut(spec string) (Shortcut, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Shortcut{}, fmt.Errorf("shortcut cannot be empty")
	}

	var mods []string
	var key string
	if before, after, ok := strings.Cut(spec, ","); ok {
		mods = strings.FieldsFunc(before, func(r rune) bool { return r == ' ' || r == '+' })
		key = strings.TrimSpace(after)
	} else {
		parts := strings.Split(spec, "+")
		key = strings.TrimSpace(parts[len(parts)-1])
		mods = parts[:len(parts)-1]
	}

	if key == "" || strings.ContainsAny(key, " ,") {
		return Shortcut{}, fmt.Errorf("shortcut %q: invalid key %q", spec, key)
	}

	var s Shortcut
	s.Key = key
	for _, raw := range mods {
		name := strings.ToUpper(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		mod, ok := modifierAliases[name]
		if !ok {
			return Shortcut{}, fmt.Errorf("shortcut %q: unknown modifier %q", spec, raw)
		}
		s.Mods |= mod
	}
	return s, nil
}

// ModString lists the modifiers space separated.
func (s Shortcut) ModString() string {
	names := make([]string, 0, len(modifierNames))
	for _, m := range modifierNames {
		if s.Mods&m.mod != 0 {
			names = append(names, m.name)
		}
	}
	return strings.Join(names, " ")
}

// String renders the shortcut in sendshortcut form, e.g. "CTRL SHIFT,Z".
func (s Shortcut) String() string {
	return s.ModString() + "," + s.Key
}

func (s Shortcut) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Shortcut) UnmarshalText(text []byte) error {
	parsed, err := ParseShortcut(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

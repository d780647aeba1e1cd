package indicator

import (
	"strings"

	"github.com/rbright/dictum/internal/locale"
	"github.com/rbright/dictum/internal/segment"
)

type messages struct {
	dictation string
	spelling  string
	literal   string
	digitsOn  string
	digitsOff string
	degraded  string
	errorText string
}

var catalogs = map[string]messages{
	"en": {
		dictation: "Dictation",
		spelling:  "Spelling",
		literal:   "Literal",
		digitsOn:  "digits on",
		digitsOff: "digits off",
		degraded:  "formatting unavailable",
		errorText: "Dictation error",
	},
	"fr": {
		dictation: "Dictée",
		spelling:  "Épellation",
		literal:   "Littéral",
		digitsOn:  "chiffres activés",
		digitsOff: "chiffres désactivés",
		degraded:  "mise en forme indisponible",
		errorText: "Erreur de dictée",
	},
}

// messagesFor picks the catalog for a locale name, English when unknown.
func messagesFor(name string) messages {
	if strings.TrimSpace(name) == "" {
		name = locale.FromEnvironment()
	}
	if m, ok := catalogs[locale.LanguageOf(name)]; ok {
		return m
	}
	return catalogs["en"]
}

// describe renders a state as "Mode · digits" with a degradation note.
func (m messages) describe(state segment.State) string {
	parts := []string{modeName(m, state.Mode)}
	if state.CanUseDigits {
		if state.UseDigits {
			parts = append(parts, m.digitsOn)
		} else {
			parts = append(parts, m.digitsOff)
		}
	}
	if !state.CanDictate {
		parts = append(parts, m.degraded)
	}
	return strings.Join(parts, " · ")
}

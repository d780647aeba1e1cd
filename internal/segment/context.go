package segment

import "github.com/rbright/dictum/internal/commands"

// procContext carries mode, case and digits for one revision. first is the
// committed base every revision of an utterance starts from; last is the
// previous revision.
type procContext struct {
	mode      commands.Mode
	caseFlags commands.Case
	useDigits bool

	first *procContext
	last  *procContext
}

func (c *procContext) derive() *procContext {
	first := c.first
	if first == nil {
		first = c
	}
	// Only the previous revision is compared against.
	c.last = nil
	return &procContext{
		mode:      first.mode,
		caseFlags: first.caseFlags,
		useDigits: first.useDigits,
		first:     first,
		last:      c,
	}
}

// changed reports whether this revision moved mode or digits relative to the
// previous one.
func (c *procContext) changed() bool {
	if c.last == nil {
		return false
	}
	return c.mode != c.last.mode || c.useDigits != c.last.useDigits
}

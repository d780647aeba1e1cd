// Package fsm tracks the lifecycle of one dictated utterance in the owner
// process.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateComposing  State = "composing"
	StateCommitting State = "committing"
	StateError      State = "error"
)

const (
	EventPartial   Event = "partial"
	EventFinal     Event = "final"
	EventCommitted Event = "committed"
	EventFail      Event = "fail"
	EventReset     Event = "reset"
)

// Transition returns the state after event. An invalid event leaves the
// state unchanged and returns an error.
func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StateIdle, StateComposing, StateError:
		switch event {
		case EventPartial:
			return StateComposing, nil
		case EventFinal:
			return StateCommitting, nil
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateCommitting:
		switch event {
		case EventCommitted:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}

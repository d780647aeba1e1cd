package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventPartial)
	require.NoError(t, err)
	require.Equal(t, StateComposing, next)

	next, err = Transition(next, EventPartial)
	require.NoError(t, err)
	require.Equal(t, StateComposing, next)

	next, err = Transition(next, EventFinal)
	require.NoError(t, err)
	require.Equal(t, StateCommitting, next)

	next, err = Transition(next, EventCommitted)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionFailFromAnyStateGoesError(t *testing.T) {
	states := []State{StateIdle, StateComposing, StateCommitting, StateError}
	for _, state := range states {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateError, next)
	}
}

func TestTransitionMatrix(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle final commits directly", state: StateIdle, event: EventFinal, want: StateCommitting},
		{name: "idle committed invalid", state: StateIdle, event: EventCommitted, want: StateIdle, wantErr: true},
		{name: "composing reset", state: StateComposing, event: EventReset, want: StateIdle},
		{name: "composing committed invalid", state: StateComposing, event: EventCommitted, want: StateComposing, wantErr: true},
		{name: "committing partial invalid", state: StateCommitting, event: EventPartial, want: StateCommitting, wantErr: true},
		{name: "committing final invalid", state: StateCommitting, event: EventFinal, want: StateCommitting, wantErr: true},
		{name: "committing reset invalid", state: StateCommitting, event: EventReset, want: StateCommitting, wantErr: true},
		{name: "error partial resumes", state: StateError, event: EventPartial, want: StateComposing},
		{name: "error reset valid", state: StateError, event: EventReset, want: StateIdle},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventPartial)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}

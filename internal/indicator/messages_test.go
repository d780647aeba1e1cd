package indicator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/dictum/internal/commands"
	"github.com/rbright/dictum/internal/segment"
)

func TestMessagesForLocale(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Dictation", messagesFor("en_US.UTF-8").dictation)
	require.Equal(t, "Dictée", messagesFor("fr_CA").dictation)
	require.Equal(t, "Dictation", messagesFor("ja_JP").dictation)
}

func TestDescribeState(t *testing.T) {
	t.Parallel()

	en := messagesFor("en")
	tests := []struct {
		state segment.State
		want  string
	}{
		{
			state: segment.State{Mode: commands.ModeDictation, CanDictate: true, CanSpell: true},
			want:  "Dictation",
		},
		{
			state: segment.State{Mode: commands.ModeSpelling, UseDigits: true, CanDictate: true, CanUseDigits: true},
			want:  "Spelling · digits on",
		},
		{
			state: segment.State{Mode: commands.ModeLiteral, CanUseDigits: true},
			want:  "Literal · digits off · formatting unavailable",
		},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, en.describe(tc.state))
	}
}

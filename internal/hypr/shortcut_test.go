package hypr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseShortcut(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec string
		want Shortcut
		out  string
	}{
		{spec: "CTRL,Z", want: Shortcut{Mods: ModCtrl, Key: "Z"}, out: "CTRL,Z"},
		{spec: "ctrl shift,z", want: Shortcut{Mods: ModCtrl | ModShift, Key: "z"}, out: "CTRL SHIFT,z"},
		{spec: ",Return", want: Shortcut{Key: "Return"}, out: ",Return"},
		{spec: "Super+Alt+K", want: Shortcut{Mods: ModSuper | ModAlt, Key: "K"}, out: "SUPER ALT,K"},
		{spec: "BackSpace", want: Shortcut{Key: "BackSpace"}, out: ",BackSpace"},
		{spec: " CONTROL+V ", want: Shortcut{Mods: ModCtrl, Key: "V"}, out: "CTRL,V"},
	}

	for _, tc := range tests {
		t.Run(tc.spec, func(t *testing.T) {
			got, err := ParseShortcut(tc.spec)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.out, got.String())
		})
	}
}

func TestParseShortcutRejectsMalformedSpecs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec    string
		wantErr string
	}{
		{spec: "", wantErr: "cannot be empty"},
		{spec: "CTRL,", wantErr: "invalid key"},
		{spec: "CTRL+", wantErr: "invalid key"},
		{spec: "HYPER,Z", wantErr: "unknown modifier"},
		{spec: "CTRL,Z,X", wantErr: "invalid key"},
	}

	for _, tc := range tests {
		t.Run(tc.spec, func(t *testing.T) {
			_, err := ParseShortcut(tc.spec)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestShortcutTextRoundTrip(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal([]Shortcut{{Mods: ModCtrl | ModShift, Key: "Z"}})
	require.NoError(t, err)
	require.JSONEq(t, `["CTRL SHIFT,Z"]`, string(data))

	var decoded []Shortcut
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, []Shortcut{{Mods: ModCtrl | ModShift, Key: "Z"}}, decoded)
}

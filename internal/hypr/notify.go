package hypr

import (
	"context"
	"strconv"
	"strings"
)

// Notification colors.
const (
	ColorInfo  = "rgb(89b4fa)"
	ColorWarn  = "rgb(f9e2af)"
	ColorError = "rgb(f38ba8)"
)

// Notification icons understood by hyprctl notify.
const (
	IconWarning = 0
	IconInfo    = 1
	IconHint    = 2
	IconError   = 3
	IconOK      = 5
)

// Notify shows text in a Hyprland notification for timeoutMS. An empty
// color means ColorInfo.
func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = ColorInfo
	}
	return dispatch(ctx, "notify", strconv.Itoa(icon), strconv.Itoa(timeoutMS), color, text)
}

// DismissNotify clears every Hyprland notification.
func DismissNotify(ctx context.Context) error {
	return dispatch(ctx, "dismissnotify")
}

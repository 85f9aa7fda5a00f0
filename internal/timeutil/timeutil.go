// ABOUTME: Time utility functions for display formatting
// ABOUTME: Provides relative age strings for subscription listings

package timeutil

import (
	"fmt"
	"time"
)

// FormatRelative renders how long ago t was as a short human string.
// A zero time renders as empty.
func FormatRelative(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return formatSince(time.Since(t))
}

func formatSince(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		return fmt.Sprintf("%dm ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		return fmt.Sprintf("%dh ago", h)
	case d < 30*24*time.Hour:
		days := int(d.Hours() / 24)
		return fmt.Sprintf("%dd ago", days)
	default:
		months := int(d.Hours() / 24 / 30)
		if months >= 12 {
			return fmt.Sprintf("%dy ago", months/12)
		}
		return fmt.Sprintf("%dmo ago", months)
	}
}

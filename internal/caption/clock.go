package caption

import (
	"fmt"
	"time"
)

// FormatClock renders d as m:ss, h:mm:ss or d:hh:mm:ss depending on its
// magnitude. The leading field is never padded.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%d:%02d:%02d:%02d", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	default:
		return fmt.Sprintf("%d:%02d", minutes, seconds)
	}
}

// Prefix is the unstyled text drawn before the first body line of m:
// an optional clock followed by "author: ". Braille art puts its author on a
// line of its own and has no prefix.
func Prefix(m Message, showTimestamp bool) string {
	if m.Braille {
		return ""
	}
	p := ""
	if showTimestamp {
		p = FormatClock(m.Offset) + " "
	}
	if m.Author != "" {
		p += m.Author + ": "
	}
	return p
}

package discord

import (
	"fmt"
	"time"
)

// StyleRelative renders a timestamp as "3 minutes ago".
const StyleRelative = "R"

// FormatDateTime renders t in loc the way the board shows dates.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02/01/2006 à 15:04")
}

// Timestamp returns the <t:unix:style> markup the client renders in the
// reader's own time zone.
func Timestamp(t time.Time, style string) string {
	if t.IsZero() {
		return ""
	}
	if style == "" {
		return fmt.Sprintf("<t:%d>", t.Unix())
	}
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), style)
}

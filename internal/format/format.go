// Package format holds small stateless helpers shared by the Markdown renderers.
package format

import (
	"strings"
	"time"
)

// DateLayout is the layout used for every timestamp shown to the model.
const DateLayout = "2006-01-02 15:04"

// Date formats t in UTC as YYYY-MM-DD HH:MM. The zero time renders as "".
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// DateString parses an RFC3339 timestamp and formats it like Date.
// Unparseable input is returned unchanged.
func DateString(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return Date(t)
}

// Truncate shortens s to at most max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// Checkbox renders a task-list marker.
func Checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// JoinNonEmpty joins the non-blank values with sep.
func JoinNonEmpty(values []string, sep string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}

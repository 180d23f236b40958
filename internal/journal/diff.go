package journal

import (
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	// collapseThreshold is the longest unchanged span, in characters, that is
	// still printed verbatim.
	collapseThreshold = 200

	collapsedContext = "  [...]"
)

// TextDiff renders a line-level diff of two texts in unified-diff style:
// "+ " for added lines, "- " for removed lines and "  " for context.
// Unchanged spans longer than 200 characters collapse to a single "  [...]".
// Repeated lines are never treated as junk, so long texts with recurring
// lines still diff line by line.
func TextDiff(oldText, newText string) string {
	a := splitLines(oldText)
	b := splitLines(newText)

	var out []string
	for _, op := range difflib.NewMatcherWithJunk(a, b, false, nil).GetOpCodes() {
		switch op.Tag {
		case 'e':
			out = appendSpan(out, " ", a[op.I1:op.I2], false)
		case 'd':
			out = appendSpan(out, "-", a[op.I1:op.I2], true)
		case 'i':
			out = appendSpan(out, "+", b[op.J1:op.J2], true)
		case 'r':
			out = appendSpan(out, "-", a[op.I1:op.I2], true)
			out = appendSpan(out, "+", b[op.J1:op.J2], true)
		}
	}
	return strings.Join(out, "\n")
}

// splitLines tokenizes text into lines that keep their trailing newline, so a
// missing final newline counts as a change.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func appendSpan(out []string, prefix string, span []string, changed bool) []string {
	text := strings.TrimSuffix(strings.Join(span, ""), "\n")

	if !changed && utf8.RuneCountInString(text) > collapseThreshold {
		return append(out, collapsedContext)
	}

	for _, line := range strings.Split(text, "\n") {
		// Blank context lines carry no information.
		if line != "" || changed {
			out = append(out, prefix+" "+line)
		}
	}
	return out
}

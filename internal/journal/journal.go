// Package journal renders Redmine issue journals (notes and field changes)
// as a Markdown history.
//
// Formatting is a pure function of its inputs: it performs no I/O, keeps no
// state between calls and never fails. Details it cannot render specifically
// degrade to a generic "old → new" line.
package journal

import (
	"fmt"
	"strings"

	"redmine-mcp/internal/format"
	"redmine-mcp/internal/types"
)

const privateMarker = " 🔒"

// Options controls optional parts of the rendering.
type Options struct {
	// IncludeDescriptionDiffs renders full diffs for large text fields
	// instead of a one-line "changed" notice.
	IncludeDescriptionDiffs bool
}

// Format renders journals, given oldest first, as a Markdown history with
// the newest entry first. Entries keep the 1-based number of their position
// in the input so notes can be cited. An empty slice renders as "".
func Format(journals []types.Journal, lookup NameLookup, opts Options) string {
	if len(journals) == 0 {
		return ""
	}

	entries := make([]string, len(journals))
	for i := range journals {
		entries[len(journals)-1-i] = formatEntry(i+1, &journals[i], lookup, opts)
	}

	return fmt.Sprintf("## History (%d entries)\n\n", len(journals)) + strings.Join(entries, "\n---\n\n")
}

func formatEntry(number int, j *types.Journal, lookup NameLookup, opts Options) string {
	author := j.User.Name
	if author == "" {
		author = "Unknown"
	}
	marker := ""
	if j.PrivateNotes {
		marker = privateMarker
	}

	lines := []string{
		fmt.Sprintf("### #%d - %s - %s%s", number, format.Date(j.CreatedOn), author, marker),
		"",
	}

	if notes := strings.TrimSpace(j.Notes); notes != "" {
		lines = append(lines, notes, "")
	}

	if len(j.Details) > 0 {
		lines = append(lines, "**Changes:**")
		for _, d := range j.Details {
			lines = append(lines, FormatDetail(d, lookup, opts))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

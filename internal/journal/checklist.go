package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"redmine-mcp/internal/format"
)

// ErrChecklistSnapshot is wrapped by DiffChecklist when a snapshot cannot be parsed.
var ErrChecklistSnapshot = errors.New("invalid checklist snapshot")

// Checklist diff line markers.
const (
	checklistAdded   = "+"
	checklistRemoved = "-"
	checklistToggled = "~"
)

// ChecklistItem is the part of a checklist plugin item that takes part in diffs.
type ChecklistItem struct {
	Subject string `json:"subject"`
	IsDone  bool   `json:"is_done"`
}

// DiffChecklist compares two JSON snapshots of a checklist and returns one
// line per added item, removed item, or item whose done flag flipped.
//
// Items are matched by subject. Added and toggled items follow the new
// snapshot's order; removed items follow, in the old snapshot's order.
// An empty result with a nil error means nothing meaningful changed.
// Two items sharing a subject are treated as one.
func DiffChecklist(oldSnapshot, newSnapshot string) ([]string, error) {
	oldItems, err := parseChecklist(oldSnapshot)
	if err != nil {
		return nil, fmt.Errorf("old value: %w", err)
	}
	newItems, err := parseChecklist(newSnapshot)
	if err != nil {
		return nil, fmt.Errorf("new value: %w", err)
	}

	oldBySubject := make(map[string]ChecklistItem, len(oldItems))
	for _, item := range oldItems {
		oldBySubject[item.Subject] = item
	}
	inNew := make(map[string]bool, len(newItems))

	var lines []string
	for _, item := range newItems {
		inNew[item.Subject] = true
		prev, existed := oldBySubject[item.Subject]
		switch {
		case !existed:
			lines = append(lines, fmt.Sprintf("%s %s %s", checklistAdded, format.Checkbox(item.IsDone), item.Subject))
		case prev.IsDone != item.IsDone:
			lines = append(lines, fmt.Sprintf("%s %s: %s → %s", checklistToggled, item.Subject, format.Checkbox(prev.IsDone), format.Checkbox(item.IsDone)))
		}
	}

	for _, item := range oldItems {
		if !inNew[item.Subject] {
			lines = append(lines, fmt.Sprintf("%s %s %s", checklistRemoved, format.Checkbox(item.IsDone), item.Subject))
		}
	}

	return lines, nil
}

// parseChecklist decodes a snapshot. A blank snapshot is an empty checklist.
func parseChecklist(snapshot string) ([]ChecklistItem, error) {
	if strings.TrimSpace(snapshot) == "" {
		return nil, nil
	}
	var items []ChecklistItem
	if err := json.Unmarshal([]byte(snapshot), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChecklistSnapshot, err)
	}
	return items, nil
}

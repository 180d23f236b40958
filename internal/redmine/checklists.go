package redmine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"redmine-mcp/internal/client"
	"redmine-mcp/internal/format"
	"redmine-mcp/internal/types"
)

// ListChecklists renders an issue's checklist (redmine_checklists plugin)
// as a task list ordered by position.
func ListChecklists(ctx context.Context, c *client.Client, id int) (string, error) {
	var resp types.ChecklistsResponse
	if err := c.GetJSON(ctx, fmt.Sprintf("/issues/%d/checklists.json", id), &resp); err != nil {
		if client.IsNotFound(err) {
			return "", fmt.Errorf("no checklist for issue #%d (issue missing or checklists plugin not installed)", id)
		}
		return "", err
	}
	return formatChecklist(resp.Checklists), nil
}

func formatChecklist(items []types.Checklist) string {
	if len(items) == 0 {
		return "No checklist items found.\n"
	}

	sorted := make([]types.Checklist, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	done := 0
	for _, item := range sorted {
		if item.IsDone {
			done++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Checklist (%d items)\n\n", len(sorted)))
	sb.WriteString(fmt.Sprintf("_%d/%d completed_\n\n", done, len(sorted)))
	for _, item := range sorted {
		sb.WriteString(fmt.Sprintf("- %s %s\n", format.Checkbox(item.IsDone), item.Subject))
	}
	return sb.String()
}

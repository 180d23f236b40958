package redmine

import (
	"context"
	"fmt"
	"strings"

	"redmine-mcp/internal/client"
	"redmine-mcp/internal/types"
)

// ListStatuses lists issue statuses with their ids, for use in updates.
func ListStatuses(ctx context.Context, c *client.Client) (string, error) {
	var resp types.IssueStatusesResponse
	if err := c.GetJSON(ctx, "/issue_statuses.json", &resp); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("# Issue Statuses\n\n")
	if len(resp.IssueStatuses) == 0 {
		sb.WriteString("No statuses found.\n")
		return sb.String(), nil
	}
	sb.WriteString("| ID | Name | Closed |\n")
	sb.WriteString("|----|------|--------|\n")
	for _, s := range resp.IssueStatuses {
		closed := "No"
		if s.IsClosed {
			closed = "Yes"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s |\n", s.ID, s.Name, closed))
	}
	return sb.String(), nil
}

// ListTrackers lists trackers with their ids.
func ListTrackers(ctx context.Context, c *client.Client) (string, error) {
	var resp types.TrackersResponse
	if err := c.GetJSON(ctx, "/trackers.json", &resp); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("# Trackers\n\n")
	if len(resp.Trackers) == 0 {
		sb.WriteString("No trackers found.\n")
		return sb.String(), nil
	}
	sb.WriteString("| ID | Name | Default Status |\n")
	sb.WriteString("|----|------|----------------|\n")
	for _, t := range resp.Trackers {
		def := ""
		if t.DefaultStatus != nil {
			def = t.DefaultStatus.Name
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s |\n", t.ID, t.Name, def))
	}
	return sb.String(), nil
}

// ListPriorities lists issue priorities with their ids.
func ListPriorities(ctx context.Context, c *client.Client) (string, error) {
	var resp types.IssuePrioritiesResponse
	if err := c.GetJSON(ctx, "/enumerations/issue_priorities.json", &resp); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("# Issue Priorities\n\n")
	if len(resp.IssuePriorities) == 0 {
		sb.WriteString("No priorities found.\n")
		return sb.String(), nil
	}
	sb.WriteString("| ID | Name | Default |\n")
	sb.WriteString("|----|------|---------|\n")
	for _, p := range resp.IssuePriorities {
		def := ""
		if p.IsDefault {
			def = "✓"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s |\n", p.ID, p.Name, def))
	}
	return sb.String(), nil
}

package redmine

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"redmine-mcp/internal/client"
	"redmine-mcp/internal/types"
)

var versionStatusNames = map[string]string{
	"open":   "Open",
	"locked": "Locked",
	"closed": "Closed",
}

// ListVersions lists the versions (milestones) of a project, including
// those shared with it.
func ListVersions(ctx context.Context, c *client.Client, project string) (string, error) {
	var resp types.VersionsResponse
	if err := c.GetJSON(ctx, fmt.Sprintf("/projects/%s/versions.json", url.PathEscape(project)), &resp); err != nil {
		if client.IsNotFound(err) {
			return "", fmt.Errorf("project %s not found or no permission", project)
		}
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Versions (%d)\n\n", len(resp.Versions)))
	if len(resp.Versions) == 0 {
		sb.WriteString("No versions found.\n")
		return sb.String(), nil
	}

	sb.WriteString("| ID | Name | Status | Due Date | Progress | Project |\n")
	sb.WriteString("|----|------|--------|----------|----------|---------|\n")
	for _, v := range resp.Versions {
		status, ok := versionStatusNames[v.Status]
		if !ok {
			status = v.Status
		}
		due := v.DueDate
		if due == "" {
			due = "-"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
			v.ID, v.Name, status, due, versionProgress(v.EstimatedHours, v.SpentHours), v.Project.Name))
	}
	sb.WriteString("\nUse the ID as fixed_version_id in update_issue.\n")
	return sb.String(), nil
}

// versionProgress is spent over estimated hours, or the spent hours alone
// when nothing is estimated.
func versionProgress(estimated, spent *float64) string {
	var s float64
	if spent != nil {
		s = *spent
	}
	if estimated == nil || *estimated == 0 {
		if s > 0 {
			return formatHours(s) + " spent"
		}
		return "-"
	}
	est := *estimated
	pct := 100 * s / est
	return fmt.Sprintf("%.0f%%", pct)
}

package redmine

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"redmine-mcp/internal/client"
	"redmine-mcp/internal/format"
	"redmine-mcp/internal/types"
)

var projectStatusNames = map[int]string{
	1: "Active",
	5: "Closed",
	9: "Archived",
}

// ListProjects lists the projects visible to the API key's user.
func ListProjects(ctx context.Context, c *client.Client) (string, error) {
	var resp types.ProjectsResponse
	if err := c.GetJSON(ctx, "/projects.json?limit=100", &resp); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Projects (%d)\n\n", resp.TotalCount))
	if len(resp.Projects) == 0 {
		sb.WriteString("No projects found.\n")
		return sb.String(), nil
	}

	sb.WriteString("| ID | Name | Identifier | Status | Public | Parent |\n")
	sb.WriteString("|----|------|------------|--------|--------|--------|\n")
	for _, p := range resp.Projects {
		status, ok := projectStatusNames[p.Status]
		if !ok {
			status = fmt.Sprintf("%d", p.Status)
		}
		public := "No"
		if p.IsPublic {
			public = "Yes"
		}
		parent := ""
		if p.Parent != nil {
			parent = p.Parent.Name
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
			p.ID, format.Truncate(p.Name, 60), p.Identifier, status, public, parent))
	}
	if len(resp.Projects) < resp.TotalCount {
		sb.WriteString(fmt.Sprintf("\n_Showing %d of %d projects_\n", len(resp.Projects), resp.TotalCount))
	}

	return sb.String(), nil
}

// GetProject renders one project with its trackers and enabled modules.
func GetProject(ctx context.Context, c *client.Client, project string) (string, error) {
	var resp types.ProjectResponse
	endpoint := fmt.Sprintf("/projects/%s.json?include=trackers,enabled_modules", url.PathEscape(project))
	if err := c.GetJSON(ctx, endpoint, &resp); err != nil {
		if client.IsNotFound(err) {
			return "", fmt.Errorf("project %s not found or no permission", project)
		}
		return "", err
	}
	p := resp.Project

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", p.Name))

	status, ok := projectStatusNames[p.Status]
	if !ok {
		status = "Unknown"
	}
	public := "No"
	if p.IsPublic {
		public = "Yes"
	}
	sb.WriteString(fmt.Sprintf("**ID:** %d | **Identifier:** %s | **Status:** %s | **Public:** %s\n\n", p.ID, p.Identifier, status, public))

	if desc := strings.TrimRight(p.Description, "\r\n"); desc != "" {
		sb.WriteString("## Description\n\n" + desc + "\n\n")
	}

	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	if p.Parent != nil {
		sb.WriteString(fmt.Sprintf("| Parent | %s |\n", p.Parent.Name))
	}
	if p.Homepage != "" {
		sb.WriteString(fmt.Sprintf("| Homepage | %s |\n", p.Homepage))
	}
	sb.WriteString(fmt.Sprintf("| Created | %s |\n", format.Date(p.CreatedOn)))
	sb.WriteString(fmt.Sprintf("| Updated | %s |\n", format.Date(p.UpdatedOn)))

	writeNames := func(title string, refs []types.Ref) {
		if len(refs) == 0 {
			return
		}
		sb.WriteString("\n## " + title + "\n\n")
		for _, r := range refs {
			if r.ID != 0 {
				sb.WriteString(fmt.Sprintf("- %s (%d)\n", r.Name, r.ID))
			} else {
				sb.WriteString("- " + r.Name + "\n")
			}
		}
	}
	writeNames("Trackers", p.Trackers)
	writeNames("Enabled Modules", p.EnabledModules)

	return sb.String(), nil
}

package redmine

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"redmine-mcp/internal/client"
	"redmine-mcp/internal/types"
)

// SearchUsers searches users by login, name or email and returns their ids
// for use as assignees. Listing users requires an administrator API key.
func SearchUsers(ctx context.Context, c *client.Client, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("search query is required")
	}

	endpoint := fmt.Sprintf("/users.json?name=%s&limit=25", url.QueryEscape(query))
	var resp types.UsersResponse
	if err := c.GetJSON(ctx, endpoint, &resp); err != nil {
		return "", err
	}

	if len(resp.Users) == 0 {
		return "No users found matching: " + query + "\n", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# User Search Results (%d found)\n\n", len(resp.Users)))
	sb.WriteString("| Name | Login | ID | Email |\n")
	sb.WriteString("|------|-------|----|-------|\n")
	for _, u := range resp.Users {
		name := strings.TrimSpace(u.Firstname + " " + u.Lastname)
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s |\n", name, u.Login, u.ID, u.Mail))
	}
	sb.WriteString("\n**Usage:** Pass the ID as assigned_to_id in update_issue or assigned_to in create_issue.\n")

	return sb.String(), nil
}

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

// GetWikiPage renders a project wiki page, optionally at an older version.
func GetWikiPage(ctx context.Context, c *client.Client, project, title string, version int) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("page is required")
	}

	endpoint := fmt.Sprintf("/projects/%s/wiki/%s", url.PathEscape(project), url.PathEscape(title))
	if version > 0 {
		endpoint += fmt.Sprintf("/%d", version)
	}
	endpoint += ".json?include=attachments"

	var resp types.WikiPageResponse
	if err := c.GetJSON(ctx, endpoint, &resp); err != nil {
		if client.IsNotFound(err) {
			return "", fmt.Errorf("wiki page %s not found in project %s (or wiki module disabled)", title, project)
		}
		return "", err
	}
	page := resp.WikiPage

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", page.Title))

	meta := []string{
		fmt.Sprintf("**Version:** %d", page.Version),
		"**Author:** " + page.Author.Name,
	}
	if updated := format.Date(page.UpdatedOn); updated != "" {
		meta = append(meta, "**Updated:** "+updated)
	}
	if page.Parent != nil && page.Parent.Title != "" {
		meta = append(meta, "**Parent:** "+page.Parent.Title)
	}
	sb.WriteString(strings.Join(meta, " | ") + "\n\n")
	if page.Comments != "" {
		sb.WriteString("_" + page.Comments + "_\n\n")
	}

	sb.WriteString("---\n\n")
	sb.WriteString(strings.TrimRight(page.Text, "\r\n") + "\n")

	if len(page.Attachments) > 0 {
		sb.WriteString("\n## Attachments\n\n")
		for _, a := range page.Attachments {
			sb.WriteString(fmt.Sprintf("- [%s](%s) (%d bytes)\n", a.Filename, a.ContentURL, a.Filesize))
		}
	}
	return sb.String(), nil
}

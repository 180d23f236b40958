package redmine

import (
	"context"
	"fmt"

	"redmine-mcp/internal/client"
	"redmine-mcp/internal/journal"
)

// FetchHistory renders only the journal history of an issue.
func FetchHistory(ctx context.Context, c *client.Client, id int, opts journal.Options) (string, error) {
	issue, err := getIssue(ctx, c, id, "journals")
	if err != nil {
		return "", err
	}

	if len(issue.Journals) == 0 {
		return fmt.Sprintf("No history entries for issue #%d.\n", id), nil
	}

	lookup := BuildNameLookup(ctx, c, issue)
	return fmt.Sprintf("# History of #%d: %s\n\n", issue.ID, issue.Subject) + journal.Format(issue.Journals, lookup, opts), nil
}

package redmine

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"redmine-mcp/internal/client"
	"redmine-mcp/internal/format"
	"redmine-mcp/internal/types"
)

const dateLayout = "2006-01-02"

// TimeEntryParams filters a time entry listing. All fields are optional.
type TimeEntryParams struct {
	Project string `json:"project"`
	Issue   int    `json:"issue"`
	User    string `json:"user"`
	SpentOn string `json:"spent_on"`
	From    string `json:"from"`
	To      string `json:"to"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
}

func (p TimeEntryParams) values() (url.Values, error) {
	v := url.Values{}
	if p.Project != "" {
		v.Set("project_id", p.Project)
	}
	if p.Issue > 0 {
		v.Set("issue_id", strconv.Itoa(p.Issue))
	}
	if p.User != "" {
		v.Set("user_id", p.User)
	}
	dates := []struct{ key, value string }{
		{"spent_on", p.SpentOn},
		{"from", p.From},
		{"to", p.To},
	}
	for _, d := range dates {
		if d.value == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d.value); err != nil {
			return nil, fmt.Errorf("invalid %s: %s (expected YYYY-MM-DD)", d.key, d.value)
		}
		v.Set(d.key, d.value)
	}

	limit := p.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	v.Set("limit", strconv.Itoa(limit))
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	return v, nil
}

// ListTimeEntries lists logged time with the total of the listed hours.
func ListTimeEntries(ctx context.Context, c *client.Client, p TimeEntryParams) (string, error) {
	query, err := p.values()
	if err != nil {
		return "", err
	}

	var resp types.TimeEntriesResponse
	if err := c.GetJSON(ctx, "/time_entries.json?"+query.Encode(), &resp); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Time Entries (%d)\n\n", resp.TotalCount))
	if len(resp.TimeEntries) == 0 {
		sb.WriteString("No time entries found.\n")
		return sb.String(), nil
	}

	var total float64
	sb.WriteString("| ID | Date | Hours | User | Activity | Issue | Comments |\n")
	sb.WriteString("|----|------|-------|------|----------|-------|----------|\n")
	for _, e := range resp.TimeEntries {
		issue := "-"
		if e.Issue != nil {
			issue = fmt.Sprintf("#%d", e.Issue.ID)
		}
		comments := e.Comments
		if comments == "" {
			comments = "-"
		}
		total += e.Hours
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s |\n",
			e.ID, e.SpentOn, strconv.FormatFloat(e.Hours, 'f', -1, 64), e.User.Name, e.Activity.Name, issue, format.Truncate(comments, 80)))
	}

	sb.WriteString(fmt.Sprintf("\n**Total:** %s", formatHours(total)))
	if len(resp.TimeEntries) < resp.TotalCount {
		sb.WriteString(fmt.Sprintf(" (%d of %d entries)", len(resp.TimeEntries), resp.TotalCount))
	}
	sb.WriteString("\n")
	return sb.String(), nil
}

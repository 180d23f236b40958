// Package redmine implements the Redmine operations exposed as MCP verbs and
// renders their results as Markdown.
package redmine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"redmine-mcp/internal/client"
	"redmine-mcp/internal/format"
	"redmine-mcp/internal/journal"
	"redmine-mcp/internal/types"
)

const issueIncludes = "journals,attachments,relations,children,watchers"

// Search limits
const (
	defaultSearchLimit = 25
	maxSearchLimit     = 100
)

// unguardedFields may be updated without a checksum.
var unguardedFields = map[string]bool{
	"start_date":       true,
	"due_date":         true,
	"estimated_hours":  true,
	"fixed_version_id": true,
	"category_id":      true,
	"parent_issue_id":  true,
	"is_private":       true,
	"custom_fields":    true,
}

func getIssue(ctx context.Context, c *client.Client, id int, include string) (*types.Issue, error) {
	endpoint := fmt.Sprintf("/issues/%d.json", id)
	if include != "" {
		endpoint += "?include=" + include
	}
	var resp types.IssueResponse
	if err := c.GetJSON(ctx, endpoint, &resp); err != nil {
		if client.IsNotFound(err) {
			return nil, fmt.Errorf("issue #%d not found or no permission", id)
		}
		return nil, err
	}
	return &resp.Issue, nil
}

// FetchIssue fetches an issue with its history and returns formatted markdown.
func FetchIssue(ctx context.Context, c *client.Client, id int, opts journal.Options) (string, error) {
	issue, err := getIssue(ctx, c, id, issueIncludes)
	if err != nil {
		return "", err
	}

	var lookup journal.NameLookup
	if len(issue.Journals) > 0 {
		lookup = BuildNameLookup(ctx, c, issue)
	}
	return formatIssue(issue, lookup, opts), nil
}

func formatIssue(issue *types.Issue, lookup journal.NameLookup, opts journal.Options) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# #%d: %s\n\n", issue.ID, issue.Subject))

	statusParts := []string{
		"**Status:** " + issue.Status.Name,
		"**Priority:** " + issue.Priority.Name,
	}
	if issue.Tracker != nil {
		statusParts = append(statusParts, "**Tracker:** "+issue.Tracker.Name)
	}
	if issue.AssignedTo != nil {
		statusParts = append(statusParts, "**Assigned:** "+issue.AssignedTo.Name)
	}
	sb.WriteString(strings.Join(statusParts, " | ") + "\n\n")

	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	writeRow := func(field, value string) {
		if value != "" {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", field, value))
		}
	}
	writeRow("Project", issue.Project.Name)
	writeRow("Author", issue.Author.Name)
	writeRow("Created", format.Date(issue.CreatedOn))
	writeRow("Updated", format.Date(issue.UpdatedOn))
	writeRow("Closed", format.Date(issue.ClosedOn))
	writeRow("Start Date", issue.StartDate)
	writeRow("Due Date", issue.DueDate)
	if issue.EstimatedHours != nil && *issue.EstimatedHours > 0 {
		writeRow("Estimated", formatHours(*issue.EstimatedHours))
	}
	if issue.SpentHours != nil && *issue.SpentHours > 0 {
		writeRow("Spent", formatHours(*issue.SpentHours))
	}
	if issue.DoneRatio != nil {
		writeRow("Progress", fmt.Sprintf("%d%%", *issue.DoneRatio))
	}
	if issue.Category != nil {
		writeRow("Category", issue.Category.Name)
	}
	if issue.FixedVersion != nil {
		writeRow("Version", issue.FixedVersion.Name)
	}
	if issue.Parent != nil {
		writeRow("Parent", fmt.Sprintf("#%d", issue.Parent.ID))
	}
	if issue.IsPrivate {
		writeRow("Private", "yes")
	}
	sb.WriteString("\n")

	var customFields []string
	for _, cf := range issue.CustomFields {
		if v := cf.String(); v != "" {
			customFields = append(customFields, fmt.Sprintf("- **%s:** %s\n", cf.Name, v))
		}
	}
	if len(customFields) > 0 {
		sb.WriteString("## Custom Fields\n\n")
		sb.WriteString(strings.Join(customFields, ""))
		sb.WriteString("\n")
	}

	if strings.TrimSpace(issue.Description) != "" {
		sb.WriteString("## Description\n\n")
		sb.WriteString(strings.TrimRight(issue.Description, "\r\n") + "\n\n")
	}

	if len(issue.Children) > 0 {
		sb.WriteString("## Subtasks\n\n")
		for _, child := range issue.Children {
			sb.WriteString(fmt.Sprintf("- #%d: %s (%s)\n", child.ID, child.Subject, child.Tracker.Name))
		}
		sb.WriteString("\n")
	}

	if len(issue.Relations) > 0 {
		sb.WriteString("## Relations\n\n")
		for _, rel := range issue.Relations {
			target := rel.IssueID
			if target == issue.ID {
				target = rel.IssueToID
			}
			sb.WriteString(fmt.Sprintf("- %s #%d\n", rel.RelationType, target))
		}
		sb.WriteString("\n")
	}

	if len(issue.Attachments) > 0 {
		sb.WriteString("## Attachments\n\n")
		for _, att := range issue.Attachments {
			sb.WriteString(fmt.Sprintf("- [%s](%s) (%d bytes)\n", att.Filename, att.ContentURL, att.Filesize))
		}
		sb.WriteString("\n")
	}

	if len(issue.Watchers) > 0 {
		names := make([]string, 0, len(issue.Watchers))
		for _, w := range issue.Watchers {
			names = append(names, w.Name)
		}
		sb.WriteString("## Watchers\n\n")
		sb.WriteString(format.JoinNonEmpty(names, ", ") + "\n\n")
	}

	if history := journal.Format(issue.Journals, lookup, opts); history != "" {
		sb.WriteString(history)
		sb.WriteString("\n")
	}

	// Checksums for optimistic concurrency control on update_issue
	checksums := ComputeFieldsChecksums(issue, ChecksumFields)
	sb.WriteString("\n__CHECKSUMS__\n")
	for _, field := range ChecksumFields {
		sb.WriteString(fmt.Sprintf("%s=%s\n", field, checksums[field]))
	}
	sb.WriteString("__END_CHECKSUMS__\n")

	return sb.String()
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64) + "h"
}

// SearchParams filters an issue search.
type SearchParams struct {
	Project    string `json:"project"`
	Status     string `json:"status"`
	AssignedTo string `json:"assigned_to"`
	Tracker    int    `json:"tracker"`
	Query      string `json:"query"`
	Sort       string `json:"sort"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

func (p SearchParams) values() url.Values {
	v := url.Values{}
	if p.Project != "" {
		v.Set("project_id", p.Project)
	}
	status := p.Status
	if status == "" {
		status = "open"
	}
	switch status {
	case "all":
		v.Set("status_id", "*")
	default:
		v.Set("status_id", status)
	}
	if p.AssignedTo != "" {
		v.Set("assigned_to_id", p.AssignedTo)
	}
	if p.Tracker > 0 {
		v.Set("tracker_id", strconv.Itoa(p.Tracker))
	}
	if q := strings.TrimSpace(p.Query); q != "" {
		v.Add("f[]", "subject")
		v.Set("op[subject]", "~")
		v.Add("v[subject][]", q)
		v.Add("f[]", "status_id")
		v.Set("op[status_id]", statusOperator(status))
		if status != "open" && status != "closed" && status != "all" && status != "*" {
			v.Add("v[status_id][]", status)
		}
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
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
	return v
}

func statusOperator(status string) string {
	switch status {
	case "open":
		return "o"
	case "closed":
		return "c"
	case "all", "*":
		return "*"
	default:
		return "="
	}
}

// SearchIssues lists issues matching p.
func SearchIssues(ctx context.Context, c *client.Client, p SearchParams) (string, error) {
	var resp types.IssuesResponse
	if err := c.GetJSON(ctx, "/issues.json?"+p.values().Encode(), &resp); err != nil {
		return "", err
	}

	if len(resp.Issues) == 0 {
		return "No issues found.\n", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Search Results (%d of %d issues)\n\n", len(resp.Issues), resp.TotalCount))
	if resp.Offset > 0 {
		sb.WriteString(fmt.Sprintf("_Starting from result %d_\n\n", resp.Offset+1))
	}

	for _, issue := range resp.Issues {
		tracker := ""
		if issue.Tracker != nil {
			tracker = issue.Tracker.Name
		}
		assignee := "Unassigned"
		if issue.AssignedTo != nil {
			assignee = issue.AssignedTo.Name
		}
		sb.WriteString(fmt.Sprintf("- **#%d** [%s] %s (%s) - %s\n",
			issue.ID, tracker, format.Truncate(issue.Subject, 120), issue.Status.Name, assignee))
	}

	return sb.String(), nil
}

// AddNote appends a note to an issue's history.
func AddNote(ctx context.Context, c *client.Client, id int, notes string, private bool) (string, error) {
	if strings.TrimSpace(notes) == "" {
		return "", fmt.Errorf("note text is required")
	}

	payload := map[string]any{
		"issue": map[string]any{
			"notes":         notes,
			"private_notes": private,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal note")
	}

	if _, err := c.Put(ctx, fmt.Sprintf("/issues/%d.json", id), body); err != nil {
		return "", err
	}
	return fmt.Sprintf("Note added to issue #%d", id), nil
}

// UpdateIssue updates fields on an issue with optimistic concurrency control.
// Checksums are required for every guarded field being updated.
func UpdateIssue(ctx context.Context, c *client.Client, id int, fields map[string]any, checksums map[string]string, notes string) (string, error) {
	if len(fields) == 0 && strings.TrimSpace(notes) == "" {
		return "", fmt.Errorf("nothing to update: provide fields or notes")
	}

	guarded := make(map[string]bool, len(ChecksumFields))
	for _, f := range ChecksumFields {
		guarded[f] = true
	}

	var unsupported, missingChecksums, toVerify []string
	for name := range fields {
		switch {
		case guarded[name]:
			if _, ok := checksums[name]; !ok {
				missingChecksums = append(missingChecksums, name)
			}
			toVerify = append(toVerify, name)
		case !unguardedFields[name]:
			unsupported = append(unsupported, name)
		}
	}
	if len(unsupported) > 0 {
		sort.Strings(unsupported)
		return "", fmt.Errorf("unsupported fields: %s", strings.Join(unsupported, ", "))
	}
	if len(missingChecksums) > 0 {
		sort.Strings(missingChecksums)
		return "", fmt.Errorf("missing checksums for fields: %s", strings.Join(missingChecksums, ", "))
	}

	if len(toVerify) > 0 {
		current, err := getIssue(ctx, c, id, "")
		if err != nil {
			return "", err
		}

		var mismatched []string
		for _, name := range toVerify {
			if ComputeFieldChecksum(CanonicalFieldValue(name, current)) != checksums[name] {
				mismatched = append(mismatched, name)
			}
		}
		if len(mismatched) > 0 {
			sort.Strings(mismatched)
			return "", fmt.Errorf("conflict: fields modified since read: %s", strings.Join(mismatched, ", "))
		}
	}

	update := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		update[k] = v
	}
	if strings.TrimSpace(notes) != "" {
		update["notes"] = notes
	}

	body, err := json.Marshal(map[string]any{"issue": update})
	if err != nil {
		return "", fmt.Errorf("failed to marshal update")
	}
	if _, err := c.Put(ctx, fmt.Sprintf("/issues/%d.json", id), body); err != nil {
		return "", err
	}

	updated := make([]string, 0, len(fields))
	for k := range fields {
		updated = append(updated, k)
	}
	sort.Strings(updated)
	if len(updated) == 0 {
		return fmt.Sprintf("Issue #%d updated successfully (note added)", id), nil
	}
	return fmt.Sprintf("Issue #%d updated successfully (fields: %s)", id, strings.Join(updated, ", ")), nil
}

// CreateIssueParams are the fields accepted when creating an issue.
type CreateIssueParams struct {
	Project     string `json:"project"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Tracker     int    `json:"tracker"`
	Priority    int    `json:"priority"`
	AssignedTo  int    `json:"assigned_to"`
	Parent      int    `json:"parent"`
}

// CreateIssue creates an issue and returns its number and URL.
func CreateIssue(ctx context.Context, c *client.Client, p CreateIssueParams) (string, error) {
	if strings.TrimSpace(p.Project) == "" {
		return "", fmt.Errorf("project is required")
	}
	if strings.TrimSpace(p.Subject) == "" {
		return "", fmt.Errorf("subject is required")
	}

	issue := map[string]any{
		"project_id": p.Project,
		"subject":    p.Subject,
	}
	if p.Description != "" {
		issue["description"] = p.Description
	}
	optionalIDs := map[string]int{
		"tracker_id":      p.Tracker,
		"priority_id":     p.Priority,
		"assigned_to_id":  p.AssignedTo,
		"parent_issue_id": p.Parent,
	}
	for key, v := range optionalIDs {
		if v > 0 {
			issue[key] = v
		}
	}

	body, err := json.Marshal(map[string]any{"issue": issue})
	if err != nil {
		return "", fmt.Errorf("failed to marshal issue")
	}

	resp, err := c.Post(ctx, "/issues.json", body)
	if err != nil {
		return "", err
	}

	var created types.IssueResponse
	if err := json.Unmarshal(resp, &created); err != nil {
		return "", fmt.Errorf("failed to parse response")
	}

	return fmt.Sprintf("Issue created successfully: #%d (%s/issues/%d)", created.Issue.ID, c.BaseURL(), created.Issue.ID), nil
}

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"redmine-mcp/internal/config"
	"redmine-mcp/internal/journal"
	"redmine-mcp/internal/redmine"
	"redmine-mcp/internal/types"
)

func (h *Handler) readVerbs() map[string]verbFunc {
	return map[string]verbFunc{
		"get_issue":            h.getIssue,
		"get_history":          h.getHistory,
		"search_issues":        h.searchIssues,
		"list_projects":        h.listProjects,
		"get_project":          h.getProject,
		"list_versions":        h.listVersions,
		"list_issue_relations": h.listRelations,
		"list_checklists":      h.listChecklists,
		"list_statuses":        h.listStatuses,
		"list_trackers":        h.listTrackers,
		"list_priorities":      h.listPriorities,
		"list_time_entries":    h.listTimeEntries,
		"get_wiki_page":        h.getWikiPage,
		"search_users":         h.searchUsers,
	}
}

func (h *Handler) getIssue(ctx context.Context, param string) (string, error) {
	id, opts, err := parseIssueView(param, "get_issue")
	if err != nil {
		return "", err
	}
	return redmine.FetchIssue(ctx, h.client, id, opts)
}

func (h *Handler) getHistory(ctx context.Context, param string) (string, error) {
	id, opts, err := parseIssueView(param, "get_history")
	if err != nil {
		return "", err
	}
	return redmine.FetchHistory(ctx, h.client, id, opts)
}

func (h *Handler) searchIssues(ctx context.Context, param string) (string, error) {
	var p redmine.SearchParams
	if strings.HasPrefix(param, "{") {
		if err := json.Unmarshal([]byte(param), &p); err != nil {
			return "", fmt.Errorf("Invalid JSON params: %v\n\n%s", err, types.ReadVerbHelp["search_issues"])
		}
		if p.Project != "" {
			project, err := config.ExtractProjectID(p.Project)
			if err != nil {
				return "", err
			}
			p.Project = project
		}
	} else {
		p.Query = param
	}
	return redmine.SearchIssues(ctx, h.client, p)
}

func (h *Handler) listProjects(ctx context.Context, _ string) (string, error) {
	return redmine.ListProjects(ctx, h.client)
}

func (h *Handler) getProject(ctx context.Context, param string) (string, error) {
	project, err := config.ExtractProjectID(param)
	if err != nil {
		return "", err
	}
	return redmine.GetProject(ctx, h.client, project)
}

func (h *Handler) listVersions(ctx context.Context, param string) (string, error) {
	project, err := config.ExtractProjectID(param)
	if err != nil {
		return "", err
	}
	return redmine.ListVersions(ctx, h.client, project)
}

func (h *Handler) listRelations(ctx context.Context, param string) (string, error) {
	id, _, err := parseIssueView(param, "list_issue_relations")
	if err != nil {
		return "", err
	}
	return redmine.ListRelations(ctx, h.client, id)
}

func (h *Handler) listTimeEntries(ctx context.Context, param string) (string, error) {
	var p redmine.TimeEntryParams
	if param != "" {
		if err := json.Unmarshal([]byte(param), &p); err != nil {
			return "", fmt.Errorf("Invalid JSON params: %v\n\n%s", err, types.ReadVerbHelp["list_time_entries"])
		}
	}
	if p.Project != "" {
		project, err := config.ExtractProjectID(p.Project)
		if err != nil {
			return "", err
		}
		p.Project = project
	}
	return redmine.ListTimeEntries(ctx, h.client, p)
}

func (h *Handler) getWikiPage(ctx context.Context, param string) (string, error) {
	var p types.WikiPageParams
	if err := json.Unmarshal([]byte(param), &p); err != nil {
		return "", fmt.Errorf("Invalid JSON params: %v\n\n%s", err, types.ReadVerbHelp["get_wiki_page"])
	}
	project, err := config.ExtractProjectID(p.Project)
	if err != nil {
		return "", err
	}
	return redmine.GetWikiPage(ctx, h.client, project, p.Page, p.Version)
}

func (h *Handler) listChecklists(ctx context.Context, param string) (string, error) {
	id, _, err := parseIssueView(param, "list_checklists")
	if err != nil {
		return "", err
	}
	return redmine.ListChecklists(ctx, h.client, id)
}

func (h *Handler) listStatuses(ctx context.Context, _ string) (string, error) {
	return redmine.ListStatuses(ctx, h.client)
}

func (h *Handler) listTrackers(ctx context.Context, _ string) (string, error) {
	return redmine.ListTrackers(ctx, h.client)
}

func (h *Handler) listPriorities(ctx context.Context, _ string) (string, error) {
	return redmine.ListPriorities(ctx, h.client)
}

func (h *Handler) searchUsers(ctx context.Context, param string) (string, error) {
	if param == "" {
		return "", fmt.Errorf("search query is required\n\n%s", types.ReadVerbHelp["search_users"])
	}
	return redmine.SearchUsers(ctx, h.client, param)
}

// parseIssueView accepts an issue reference or IssueViewParams JSON.
func parseIssueView(param, verb string) (int, journal.Options, error) {
	if !strings.HasPrefix(param, "{") {
		id, err := config.ExtractIssueID(param)
		return id, journal.Options{}, err
	}

	var p types.IssueViewParams
	if err := json.Unmarshal([]byte(param), &p); err != nil {
		return 0, journal.Options{}, fmt.Errorf("Invalid JSON params: %v\n\n%s", err, types.ReadVerbHelp[verb])
	}
	id, err := issueRef(p.Issue)
	if err != nil {
		return 0, journal.Options{}, err
	}
	return id, journal.Options{IncludeDescriptionDiffs: p.IncludeDescriptionDiffs}, nil
}

// issueRef converts a decoded JSON "issue" value to an issue number.
func issueRef(v any) (int, error) {
	switch ref := v.(type) {
	case nil:
		return 0, fmt.Errorf("issue is required")
	case float64:
		if ref != float64(int(ref)) || ref <= 0 {
			return 0, fmt.Errorf("invalid issue number: %v", ref)
		}
		return int(ref), nil
	case string:
		return config.ExtractIssueID(ref)
	default:
		return 0, fmt.Errorf("invalid issue reference: %s", strconv.Quote(fmt.Sprint(ref)))
	}
}

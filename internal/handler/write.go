package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"redmine-mcp/internal/config"
	"redmine-mcp/internal/redmine"
	"redmine-mcp/internal/types"
)

func (h *Handler) writeVerbs() map[string]verbFunc {
	return map[string]verbFunc{
		"add_note":              h.addNote,
		"update_issue":          h.updateIssue,
		"create_issue":          h.createIssue,
		"attach_file":           h.attachFile,
		"create_issue_relation": h.createRelation,
		"delete_relation":       h.deleteRelation,
		"add_issue_watcher":     h.addWatcher,
		"remove_issue_watcher":  h.removeWatcher,
	}
}

// decodeParams unmarshals a JSON param, appending the verb help on failure.
func decodeParams(param, verb string, v any) error {
	if err := json.Unmarshal([]byte(param), v); err != nil {
		return fmt.Errorf("Invalid JSON params: %v\n\n%s", err, types.WriteVerbHelp[verb])
	}
	return nil
}

func (h *Handler) addNote(ctx context.Context, param string) (string, error) {
	var p types.AddNoteParams
	if err := decodeParams(param, "add_note", &p); err != nil {
		return "", err
	}
	id, err := issueRef(p.Issue)
	if err != nil {
		return "", err
	}
	return redmine.AddNote(ctx, h.client, id, p.Notes, p.Private)
}

func (h *Handler) updateIssue(ctx context.Context, param string) (string, error) {
	var p types.UpdateIssueParams
	if err := decodeParams(param, "update_issue", &p); err != nil {
		return "", err
	}
	id, err := issueRef(p.Issue)
	if err != nil {
		return "", err
	}
	return redmine.UpdateIssue(ctx, h.client, id, p.Fields, p.Checksums, p.Notes)
}

func (h *Handler) createIssue(ctx context.Context, param string) (string, error) {
	var p redmine.CreateIssueParams
	if err := decodeParams(param, "create_issue", &p); err != nil {
		return "", err
	}
	if p.Project != "" {
		project, err := config.ExtractProjectID(p.Project)
		if err != nil {
			return "", err
		}
		p.Project = project
	}
	return redmine.CreateIssue(ctx, h.client, p)
}

func (h *Handler) attachFile(ctx context.Context, param string) (string, error) {
	var p types.AttachFileParams
	if err := decodeParams(param, "attach_file", &p); err != nil {
		return "", err
	}
	id, err := issueRef(p.Issue)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(p.Source) == "" {
		return "", fmt.Errorf("source is required")
	}
	return redmine.AttachFile(ctx, h.client, id, p.Source, p.Filename, p.Description)
}

func (h *Handler) createRelation(ctx context.Context, param string) (string, error) {
	var p types.RelationParams
	if err := decodeParams(param, "create_issue_relation", &p); err != nil {
		return "", err
	}
	id, err := issueRef(p.Issue)
	if err != nil {
		return "", err
	}
	if p.IssueTo == nil {
		return "", fmt.Errorf("issue_to is required")
	}
	to, err := issueRef(p.IssueTo)
	if err != nil {
		return "", err
	}
	return redmine.CreateRelation(ctx, h.client, id, redmine.CreateRelationParams{
		IssueToID:    to,
		RelationType: p.RelationType,
		Delay:        p.Delay,
	})
}

func (h *Handler) deleteRelation(ctx context.Context, param string) (string, error) {
	var p types.DeleteRelationParams
	if err := decodeParams(param, "delete_relation", &p); err != nil {
		return "", err
	}
	return redmine.DeleteRelation(ctx, h.client, p.RelationID)
}

func (h *Handler) addWatcher(ctx context.Context, param string) (string, error) {
	id, userID, err := parseWatcher(param, "add_issue_watcher")
	if err != nil {
		return "", err
	}
	return redmine.AddWatcher(ctx, h.client, id, userID)
}

func (h *Handler) removeWatcher(ctx context.Context, param string) (string, error) {
	id, userID, err := parseWatcher(param, "remove_issue_watcher")
	if err != nil {
		return "", err
	}
	return redmine.RemoveWatcher(ctx, h.client, id, userID)
}

func parseWatcher(param, verb string) (int, int, error) {
	var p types.WatcherParams
	if err := decodeParams(param, verb, &p); err != nil {
		return 0, 0, err
	}
	id, err := issueRef(p.Issue)
	if err != nil {
		return 0, 0, err
	}
	return id, p.UserID, nil
}

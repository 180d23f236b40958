package types

// VerbArgs represents verb-based dispatching arguments.
type VerbArgs struct {
	Verb  string `json:"verb"`
	Param string `json:"param"`
}

// IssueViewParams is the JSON form of the get_issue and get_history param.
type IssueViewParams struct {
	Issue                   any  `json:"issue"`
	IncludeDescriptionDiffs bool `json:"include_description_diffs"`
}

// AddNoteParams is the param of add_note.
type AddNoteParams struct {
	Issue   any    `json:"issue"`
	Notes   string `json:"notes"`
	Private bool   `json:"private"`
}

// UpdateIssueParams is the param of update_issue.
type UpdateIssueParams struct {
	Issue     any               `json:"issue"`
	Fields    map[string]any    `json:"fields"`
	Checksums map[string]string `json:"checksums"`
	Notes     string            `json:"notes"`
}

// AttachFileParams is the param of attach_file.
type AttachFileParams struct {
	Issue       any    `json:"issue"`
	Source      string `json:"source"`
	Filename    string `json:"filename"`
	Description string `json:"description"`
}

// WikiPageParams is the param of get_wiki_page.
type WikiPageParams struct {
	Project string `json:"project"`
	Page    string `json:"page"`
	Version int    `json:"version"`
}

// RelationParams is the param of create_issue_relation.
type RelationParams struct {
	Issue        any    `json:"issue"`
	IssueTo      any    `json:"issue_to"`
	RelationType string `json:"relation_type"`
	Delay        *int   `json:"delay"`
}

// DeleteRelationParams is the param of delete_relation.
type DeleteRelationParams struct {
	RelationID int `json:"relation_id"`
}

// WatcherParams is the param of add_issue_watcher and remove_issue_watcher.
type WatcherParams struct {
	Issue  any `json:"issue"`
	UserID int `json:"user_id"`
}

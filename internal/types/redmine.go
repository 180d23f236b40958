package types

import (
	"fmt"
	"strings"
	"time"
)

// Redmine REST API types. Field names follow the API's JSON vocabulary.

// Ref is the {id, name} reference Redmine embeds for related records.
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// JournalDetail is one field-level change inside a journal.
// A nil value means the field was absent on that side of the change.
type JournalDetail struct {
	Property string  `json:"property"`
	Name     string  `json:"name"`
	OldValue *string `json:"old_value"`
	NewValue *string `json:"new_value"`
}

// Journal is one history entry of an issue: an optional note plus field changes.
type Journal struct {
	ID           int             `json:"id"`
	User         Ref             `json:"user"`
	Notes        string          `json:"notes"`
	PrivateNotes bool            `json:"private_notes"`
	CreatedOn    time.Time       `json:"created_on"`
	Details      []JournalDetail `json:"details"`
}

// CustomFieldValue is a custom field as reported on an issue.
// Value is a string, or a list of strings for multi-value fields.
type CustomFieldValue struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Value    any    `json:"value"`
	Multiple bool   `json:"multiple,omitempty"`
}

// String renders the value, joining multi-value fields with ", ".
func (c CustomFieldValue) String() string {
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			if s, ok := p.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// Attachment is a file attached to an issue.
type Attachment struct {
	ID          int       `json:"id"`
	Filename    string    `json:"filename"`
	Filesize    int64     `json:"filesize"`
	ContentType string    `json:"content_type"`
	Description string    `json:"description"`
	ContentURL  string    `json:"content_url"`
	Author      Ref       `json:"author"`
	CreatedOn   time.Time `json:"created_on"`
}

// Relation links two issues.
type Relation struct {
	ID           int    `json:"id"`
	IssueID      int    `json:"issue_id"`
	IssueToID    int    `json:"issue_to_id"`
	RelationType string `json:"relation_type"`
	Delay        *int   `json:"delay"`
}

// RelationsResponse lists an issue's relations.
type RelationsResponse struct {
	Relations []Relation `json:"relations"`
}

// RelationResponse wraps a single relation.
type RelationResponse struct {
	Relation Relation `json:"relation"`
}

// ChildIssue is a subtask summary embedded in an issue.
type ChildIssue struct {
	ID      int    `json:"id"`
	Tracker Ref    `json:"tracker"`
	Subject string `json:"subject"`
}

// ParentRef points at a parent issue.
type ParentRef struct {
	ID int `json:"id"`
}

// Issue is a Redmine issue with optional includes.
type Issue struct {
	ID             int                `json:"id"`
	Project        Ref                `json:"project"`
	Tracker        *Ref               `json:"tracker"`
	Status         Ref                `json:"status"`
	Priority       Ref                `json:"priority"`
	Author         Ref                `json:"author"`
	AssignedTo     *Ref               `json:"assigned_to"`
	Category       *Ref               `json:"category"`
	FixedVersion   *Ref               `json:"fixed_version"`
	Parent         *ParentRef         `json:"parent"`
	Subject        string             `json:"subject"`
	Description    string             `json:"description"`
	StartDate      string             `json:"start_date"`
	DueDate        string             `json:"due_date"`
	DoneRatio      *int               `json:"done_ratio"`
	IsPrivate      bool               `json:"is_private"`
	EstimatedHours *float64           `json:"estimated_hours"`
	SpentHours     *float64           `json:"spent_hours"`
	CustomFields   []CustomFieldValue `json:"custom_fields"`
	CreatedOn      time.Time          `json:"created_on"`
	UpdatedOn      time.Time          `json:"updated_on"`
	ClosedOn       time.Time          `json:"closed_on"`
	Attachments    []Attachment       `json:"attachments"`
	Relations      []Relation         `json:"relations"`
	Journals       []Journal          `json:"journals"`
	Watchers       []Ref              `json:"watchers"`
	Children       []ChildIssue       `json:"children"`
}

// IssueResponse wraps a single issue.
type IssueResponse struct {
	Issue Issue `json:"issue"`
}

// IssuesResponse is a page of issues.
type IssuesResponse struct {
	Issues     []Issue `json:"issues"`
	TotalCount int     `json:"total_count"`
	Offset     int     `json:"offset"`
	Limit      int     `json:"limit"`
}

// Project is a Redmine project. Trackers and EnabledModules are only filled
// when requested with include.
type Project struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Identifier     string    `json:"identifier"`
	Description    string    `json:"description"`
	Homepage       string    `json:"homepage"`
	Status         int       `json:"status"`
	IsPublic       bool      `json:"is_public"`
	Parent         *Ref      `json:"parent"`
	Trackers       []Ref     `json:"trackers"`
	EnabledModules []Ref     `json:"enabled_modules"`
	CreatedOn      time.Time `json:"created_on"`
	UpdatedOn      time.Time `json:"updated_on"`
}

// ProjectResponse wraps a single project.
type ProjectResponse struct {
	Project Project `json:"project"`
}

// ProjectsResponse is a page of projects.
type ProjectsResponse struct {
	Projects   []Project `json:"projects"`
	TotalCount int       `json:"total_count"`
	Offset     int       `json:"offset"`
	Limit      int       `json:"limit"`
}

// IssueStatus is a workflow status.
type IssueStatus struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	IsClosed bool   `json:"is_closed"`
}

// IssueStatusesResponse lists all statuses.
type IssueStatusesResponse struct {
	IssueStatuses []IssueStatus `json:"issue_statuses"`
}

// Tracker is an issue type such as Bug or Feature.
type Tracker struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	DefaultStatus *Ref   `json:"default_status"`
	Description   string `json:"description"`
}

// TrackersResponse lists all trackers.
type TrackersResponse struct {
	Trackers []Tracker `json:"trackers"`
}

// Enumeration is an entry of a Redmine enumeration (priorities, activities).
type Enumeration struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// IssuePrioritiesResponse lists issue priorities.
type IssuePrioritiesResponse struct {
	IssuePriorities []Enumeration `json:"issue_priorities"`
}

// Version is a project version (target version of issues).
type Version struct {
	ID             int      `json:"id"`
	Project        Ref      `json:"project"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Status         string   `json:"status"`
	DueDate        string   `json:"due_date"`
	Sharing        string   `json:"sharing"`
	EstimatedHours *float64 `json:"estimated_hours"`
	SpentHours     *float64 `json:"spent_hours"`
}

// VersionsResponse lists a project's versions.
type VersionsResponse struct {
	Versions   []Version `json:"versions"`
	TotalCount int       `json:"total_count"`
}

// Category is an issue category of a project.
type Category struct {
	ID         int    `json:"id"`
	Project    Ref    `json:"project"`
	Name       string `json:"name"`
	AssignedTo *Ref   `json:"assigned_to"`
}

// CategoriesResponse lists a project's issue categories.
type CategoriesResponse struct {
	IssueCategories []Category `json:"issue_categories"`
}

// Membership is a user or group membership in a project.
type Membership struct {
	ID      int   `json:"id"`
	Project Ref   `json:"project"`
	User    *Ref  `json:"user"`
	Group   *Ref  `json:"group"`
	Roles   []Ref `json:"roles"`
}

// MembershipsResponse lists a project's memberships.
type MembershipsResponse struct {
	Memberships []Membership `json:"memberships"`
	TotalCount  int          `json:"total_count"`
}

// User is a Redmine user account.
type User struct {
	ID        int    `json:"id"`
	Login     string `json:"login"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Mail      string `json:"mail"`
}

// UsersResponse is a page of users.
type UsersResponse struct {
	Users      []User `json:"users"`
	TotalCount int    `json:"total_count"`
}

// Checklist is an item of the redmine_checklists plugin.
type Checklist struct {
	ID       int    `json:"id"`
	IssueID  int    `json:"issue_id"`
	Subject  string `json:"subject"`
	IsDone   bool   `json:"is_done"`
	Position int    `json:"position"`
}

// ChecklistsResponse lists an issue's checklist items.
type ChecklistsResponse struct {
	Checklists []Checklist `json:"checklists"`
}

// TimeEntry is time logged on a project or issue.
type TimeEntry struct {
	ID        int        `json:"id"`
	Project   Ref        `json:"project"`
	Issue     *ParentRef `json:"issue"`
	User      Ref        `json:"user"`
	Activity  Ref        `json:"activity"`
	Hours     float64    `json:"hours"`
	Comments  string     `json:"comments"`
	SpentOn   string     `json:"spent_on"`
	CreatedOn time.Time  `json:"created_on"`
}

// TimeEntriesResponse is a page of time entries.
type TimeEntriesResponse struct {
	TimeEntries []TimeEntry `json:"time_entries"`
	TotalCount  int         `json:"total_count"`
	Offset      int         `json:"offset"`
	Limit       int         `json:"limit"`
}

// WikiPage is one version of a project wiki page.
type WikiPage struct {
	Title       string       `json:"title"`
	Parent      *WikiParent  `json:"parent"`
	Text        string       `json:"text"`
	Version     int          `json:"version"`
	Author      Ref          `json:"author"`
	Comments    string       `json:"comments"`
	CreatedOn   time.Time    `json:"created_on"`
	UpdatedOn   time.Time    `json:"updated_on"`
	Attachments []Attachment `json:"attachments"`
}

// WikiParent names the parent of a wiki page.
type WikiParent struct {
	Title string `json:"title"`
}

// WikiPageResponse wraps a single wiki page.
type WikiPageResponse struct {
	WikiPage WikiPage `json:"wiki_page"`
}

// UploadResponse is returned by POST /uploads.json.
type UploadResponse struct {
	Upload struct {
		ID    int    `json:"id"`
		Token string `json:"token"`
	} `json:"upload"`
}

// ErrorResponse is the body Redmine sends with 4xx validation errors.
type ErrorResponse struct {
	Errors []string `json:"errors"`
}

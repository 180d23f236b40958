package types

// ReadVerbHelp maps redmine_read verbs to their usage.
var ReadVerbHelp = map[string]string{
	"get_issue": `Get an issue with metadata, description, relations, attachments and history. Param: issue number, #number, issue URL, or JSON

Examples:
- "123"
- "https://redmine.example.com/issues/123"
- {"issue": 123, "include_description_diffs": true}

History is listed newest first. Description changes are summarized unless
include_description_diffs is true, in which case a line diff is shown.

The output ends with a __CHECKSUMS__ block. Pass the values of the fields you
change to update_issue.`,

	"get_history": `Get only the change history of an issue. Param: same as get_issue

Example: {"issue": 123, "include_description_diffs": true}

Each entry shows its number (oldest is #1), date, author, note and field
changes with ids resolved to names where possible. Private notes are marked 🔒.`,

	"search_issues": `Search issues. Param: free text (matched against subject) or JSON filters

JSON fields (all optional):
- project: project id or identifier
- status: "open" (default), "closed", "all" or a status id
- assigned_to: user id or "me"
- tracker: tracker id
- query: text contained in the subject
- sort: e.g. "updated_on:desc"
- limit: 1-100 (default 25)
- offset: skip first N results

Example: {"project": "web", "status": "open", "assigned_to": "me"}`,

	"list_projects": `List visible projects with ids and identifiers. Param: ignored`,

	"get_project": `Get a project with its trackers and enabled modules. Param: project id, identifier or project URL

Example: "web-app"`,

	"list_versions": `List the versions (milestones) of a project. Param: project id, identifier or project URL

Returns ids usable as fixed_version_id in update_issue.`,

	"list_issue_relations": `List the relations of an issue with their ids. Param: issue number or URL

Relation ids are needed by delete_relation.`,

	"list_time_entries": `List logged time. Param: JSON filters or empty

JSON fields (all optional):
- project: project id or identifier
- issue: issue number
- user: user id or "me"
- spent_on: exact date (YYYY-MM-DD)
- from, to: date range (YYYY-MM-DD)
- limit: 1-100 (default 25)
- offset: skip first N results

Example: {"project": "web", "user": "me", "from": "2024-01-01"}`,

	"get_wiki_page": `Get a project wiki page. Param: JSON

Example: {"project": "web", "page": "Installation", "version": 3}

version is optional and selects an older version of the page.`,

	"list_checklists": `List the checklist of an issue (requires the checklists plugin). Param: issue number or URL`,

	"list_statuses": `List issue statuses with ids, for status_id in update_issue. Param: ignored`,

	"list_trackers": `List trackers with ids, for tracker_id in update_issue and create_issue. Param: ignored`,

	"list_priorities": `List issue priorities with ids, for priority_id. Param: ignored`,

	"search_users": `Search users by login, name or email. Param: search query

Example: "jane"

Returns ids usable as assigned_to_id. Listing users needs an administrator API key.`,
}

// WriteVerbHelp maps redmine_write verbs to their usage.
var WriteVerbHelp = map[string]string{
	"add_note": `Add a note to an issue. Param: JSON

Example: {"issue": 123, "notes": "Deployed to staging", "private": false}`,

	"update_issue": `Update issue fields with conflict detection. Param: JSON

Example:
{"issue": 123,
 "fields": {"status_id": 3, "done_ratio": 50},
 "checksums": {"status_id": "<from get_issue>", "done_ratio": "<from get_issue>"},
 "notes": "optional note"}

Fields needing a checksum: subject, description, status_id, assigned_to_id,
priority_id, tracker_id, done_ratio.
Fields without checksum: start_date, due_date, estimated_hours,
fixed_version_id, category_id, parent_issue_id, is_private, custom_fields.

If a guarded field changed since get_issue the update is refused; fetch the
issue again and retry. Use list_statuses, list_trackers, list_priorities and
search_users to find ids.`,

	"create_issue": `Create an issue. Param: JSON

Example: {"project": "web", "subject": "Login fails", "description": "Steps...", "tracker": 1, "priority": 4, "assigned_to": 5, "parent": 100}

project and subject are required.`,

	"create_issue_relation": `Relate two issues. Param: JSON

Example: {"issue": 123, "issue_to": 456, "relation_type": "blocks"}

relation_type: relates, duplicates, duplicated, blocks, blocked, precedes,
follows, copied_to, copied_from. delay (days) is allowed for precedes and
follows only.`,

	"delete_relation": `Delete an issue relation. Param: JSON

Example: {"relation_id": 17}

Use list_issue_relations to find relation ids.`,

	"add_issue_watcher": `Add a watcher to an issue. Param: JSON

Example: {"issue": 123, "user_id": 5}

Use search_users to find user ids.`,

	"remove_issue_watcher": `Remove a watcher from an issue. Param: JSON

Example: {"issue": 123, "user_id": 5}`,

	"attach_file": `Attach a local file or a downloaded URL to an issue. Param: JSON

Example: {"issue": 123, "source": "/tmp/screenshot.png", "filename": "login-error.png", "description": "Error dialog"}

filename and description are optional. Files are limited to 5MB.`,
}

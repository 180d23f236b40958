package redmine

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"redmine-mcp/internal/journal"
	"redmine-mcp/internal/types"
)

func TestBuildNameLookup(t *testing.T) {
	t.Parallel()
	f, c := newFakeRedmine(t, metadataRoutes())
	issue := &types.Issue{
		ID:         42,
		Project:    types.Ref{ID: 1, Name: "Web App"},
		Status:     types.Ref{ID: 2, Name: "In Progress"},
		AssignedTo: &types.Ref{ID: 5, Name: "Jane Roe"},
		Journals:   []types.Journal{{User: types.Ref{ID: 9, Name: "Bot"}}},
	}
	issue.CustomFields = []types.CustomFieldValue{
		{ID: 12, Name: "Sprint", Value: "Sprint 2"},
		{ID: 0, Name: "Broken"},
	}

	lookup := BuildNameLookup(context.Background(), c, issue)

	tests := []struct {
		field, raw, want string
		ok               bool
	}{
		{field: "status_id", raw: "1", want: "New", ok: true},
		{field: "tracker_id", raw: "1", want: "Bug", ok: true},
		{field: "priority_id", raw: "4", want: "Normal", ok: true},
		{field: "project_id", raw: "1", want: "Web App", ok: true},
		{field: "assigned_to_id", raw: "5", want: "Jane Roe", ok: true},
		{field: "assigned_to_id", raw: "7", want: "Ann Smith", ok: true},
		{field: "assigned_to_id", raw: "8", want: "Developers", ok: true},
		{field: "assigned_to_id", raw: "9", want: "Bot", ok: true},
		{field: "fixed_version_id", raw: "3", want: "3", ok: false},
		{field: journal.CustomFieldKey, raw: "12", want: "Sprint", ok: true},
		{field: journal.CustomFieldKey, raw: "0", want: "0", ok: false},
	}
	for _, tt := range tests {
		name, ok := lookup.Resolve(tt.field, tt.raw)
		assert.Equal(t, tt.ok, ok, "%s=%s", tt.field, tt.raw)
		assert.Equal(t, tt.want, name, "%s=%s", tt.field, tt.raw)
	}
	assert.True(t, f.called("GET /projects/1/versions.json"))
}

func TestBuildNameLookup_AllFetchesFail(t *testing.T) {
	t.Parallel()
	_, c := newFakeRedmine(t, map[string]http.HandlerFunc{
		"GET /issue_statuses.json": statusHandler(http.StatusForbidden),
	})
	issue := &types.Issue{
		ID:      1,
		Project: types.Ref{ID: 3, Name: "Ops"},
		Status:  types.Ref{ID: 1, Name: "New"},
	}

	lookup := BuildNameLookup(context.Background(), c, issue)

	assert.NotNil(t, lookup)
	name, ok := lookup.Resolve("status_id", "1")
	assert.True(t, ok)
	assert.Equal(t, "New", name)
	_, ok = lookup.Resolve("status_id", "2")
	assert.False(t, ok)
}

func TestBuildNameLookup_NoProjectSkipsProjectFetches(t *testing.T) {
	t.Parallel()
	f, c := newFakeRedmine(t, metadataRoutes())

	BuildNameLookup(context.Background(), c, &types.Issue{ID: 1})

	assert.True(t, f.called("GET /issue_statuses.json"))
	assert.False(t, f.called("GET /projects/0/versions.json"))
}

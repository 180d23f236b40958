package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redmine-mcp/internal/client"
)

func newTestHandler(t *testing.T, readOnly bool, mux *http.ServeMux) *Handler {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(client.New(srv.URL, "test-key", 5*time.Second), readOnly)
}

func callRequest(tool, verb, param string) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{
		Name:      tool,
		Arguments: map[string]any{"verb": verb, "param": param},
	}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestTools_ReadOnlyOmitsWriteTool(t *testing.T) {
	t.Parallel()
	h := New(client.New("https://redmine.example.com", "k", time.Second), true)
	tools := h.Tools()
	require.Len(t, tools, 1)
	assert.Equal(t, ReadTool, tools[0].Tool.Name)

	h = New(client.New("https://redmine.example.com", "k", time.Second), false)
	tools = h.Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, WriteTool, tools[1].Tool.Name)
	assert.Contains(t, tools[1].Tool.Description, "update_issue")
}

func TestHandleRead_Help(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, true, http.NewServeMux())

	res, err := h.handleRead(context.Background(), callRequest(ReadTool, "", "help"))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.False(t, res.IsError)
	assert.Contains(t, text, "Available read verbs:")
	assert.Contains(t, text, "- get_issue\n")
	assert.Contains(t, text, "- search_users\n")

	res, err = h.handleRead(context.Background(), callRequest(ReadTool, "get_issue", "help"))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "__CHECKSUMS__")
}

func TestHandleRead_UnknownVerb(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, true, http.NewServeMux())

	res, err := h.handleRead(context.Background(), callRequest(ReadTool, "delete_everything", "1"))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Unknown verb: delete_everything. Valid: get_history, get_issue,")
}

func TestHandleRead_GetIssue(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/issues/42.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Redmine-API-Key"))
		_, _ = io.WriteString(w, `{"issue":{"id":42,"subject":"Login fails","project":{"id":1,"name":"Web"},
			"status":{"id":1,"name":"New"},"priority":{"id":2,"name":"Normal"},"author":{"id":3,"name":"Jane"},
			"created_on":"2024-01-15T10:30:00Z","updated_on":"2024-01-15T10:30:00Z"}}`)
	})
	h := newTestHandler(t, true, mux)

	for _, param := range []string{"42", "#42", "https://redmine.example.com/issues/42", `{"issue": 42}`, `{"issue": "#42"}`} {
		res, err := h.handleRead(context.Background(), callRequest(ReadTool, "Redmine_Get_Issue", param))
		require.NoError(t, err)
		text := resultText(t, res)
		assert.False(t, res.IsError, "param %s: %s", param, text)
		assert.Contains(t, text, "# #42: Login fails", "param %s", param)
	}
}

func TestHandleRead_GetIssueErrors(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, true, http.NewServeMux())

	tests := []struct {
		name  string
		param string
		want  string
	}{
		{name: "Not_Found", param: "7", want: "issue #7 not found or no permission"},
		{name: "Bad_Reference", param: "abc", want: "invalid input"},
		{name: "Bad_JSON", param: `{"issue":`, want: "Invalid JSON params"},
		{name: "Missing_Issue", param: `{}`, want: "issue is required"},
		{name: "Fractional_Number", param: `{"issue": 1.5}`, want: "invalid issue number"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := h.handleRead(context.Background(), callRequest(ReadTool, "get_issue", tt.param))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
}

func TestHandleRead_SearchIssues(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/issues.json", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("project_id") != "" {
			assert.Equal(t, "web-app", q.Get("project_id"))
		} else {
			assert.Equal(t, "login", q.Get("v[subject][]"))
		}
		_, _ = io.WriteString(w, `{"issues":[{"id":5,"subject":"Login fails","status":{"id":1,"name":"New"},"tracker":{"id":1,"name":"Bug"}}],"total_count":1,"offset":0,"limit":25}`)
	})
	h := newTestHandler(t, true, mux)

	res, err := h.handleRead(context.Background(), callRequest(ReadTool, "search_issues", "login"))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "- **#5** [Bug] Login fails (New) - Unassigned")

	res, err = h.handleRead(context.Background(), callRequest(ReadTool, "search_issues", `{"project": "https://redmine.example.com/projects/web-app"}`))
	require.NoError(t, err)
	assert.False(t, res.IsError, resultText(t, res))
}

func TestHandleWrite_ReadOnly(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, true, http.NewServeMux())

	res, err := h.handleWrite(context.Background(), callRequest(WriteTool, "add_note", `{"issue": 1, "notes": "x"}`))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Server is in read-only mode", resultText(t, res))
}

func TestHandleWrite_AddNote(t *testing.T) {
	t.Parallel()
	var got map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/issues/12.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})
	h := newTestHandler(t, false, mux)

	res, err := h.handleWrite(context.Background(), callRequest(WriteTool, "add_note", `{"issue": "#12", "notes": "Deployed", "private": true}`))
	require.NoError(t, err)
	assert.False(t, res.IsError, resultText(t, res))
	assert.Equal(t, "Note added to issue #12", resultText(t, res))

	issue, ok := got["issue"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Deployed", issue["notes"])
	assert.Equal(t, true, issue["private_notes"])
}

func TestHandleWrite_InvalidJSONIncludesHelp(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, false, http.NewServeMux())

	res, err := h.handleWrite(context.Background(), callRequest(WriteTool, "update_issue", "status closed"))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	text := resultText(t, res)
	assert.Contains(t, text, "Invalid JSON params")
	assert.Contains(t, text, "Fields needing a checksum")
}

func TestHandleWrite_UpdateRequiresChecksums(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, false, http.NewServeMux())

	res, err := h.handleWrite(context.Background(), callRequest(WriteTool, "update_issue", `{"issue": 3, "fields": {"status_id": 5}}`))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "missing checksums for fields: status_id")
}

func TestParseVerb(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "get_issue", parseVerb("get_issue"))
	assert.Equal(t, "get_issue", parseVerb("  Redmine_Get_Issue "))
	assert.Equal(t, "", parseVerb(""))
}

func TestHandleRead_ProjectAndWikiVerbs(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/web-app/versions.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"versions":[{"id":4,"project":{"id":1,"name":"Web"},"name":"v1.1","status":"open"}],"total_count":1}`)
	})
	mux.HandleFunc("/projects/web-app/wiki/Setup.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"wiki_page":{"title":"Setup","text":"Run make","version":1,"author":{"id":3,"name":"Jane"}}}`)
	})
	mux.HandleFunc("/time_entries.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("issue_id"))
		_, _ = io.WriteString(w, `{"time_entries":[],"total_count":0}`)
	})
	h := newTestHandler(t, true, mux)
	ctx := context.Background()

	res, err := h.handleRead(ctx, callRequest(ReadTool, "list_versions", "https://redmine.example.com/projects/web-app/roadmap"))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "| 4 | v1.1 | Open | - | - | Web |")

	res, err = h.handleRead(ctx, callRequest(ReadTool, "get_wiki_page", `{"project": "web-app", "page": "Setup"}`))
	require.NoError(t, err)
	assert.False(t, res.IsError, resultText(t, res))
	assert.Contains(t, resultText(t, res), "# Setup\n")

	res, err = h.handleRead(ctx, callRequest(ReadTool, "get_wiki_page", "Setup"))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Invalid JSON params")

	res, err = h.handleRead(ctx, callRequest(ReadTool, "list_time_entries", `{"issue": 42}`))
	require.NoError(t, err)
	assert.Equal(t, "# Time Entries (0)\n\nNo time entries found.\n", resultText(t, res))
}

func TestHandleWrite_RelationsAndWatchers(t *testing.T) {
	t.Parallel()
	var relation, watcher map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/issues/12/relations.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&relation))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"relation":{"id":30,"issue_id":12,"issue_to_id":13,"relation_type":"blocks"}}`)
	})
	mux.HandleFunc("/issues/12/watchers.json", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&watcher))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/relations/30.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	h := newTestHandler(t, false, mux)
	ctx := context.Background()

	res, err := h.handleWrite(ctx, callRequest(WriteTool, "create_issue_relation", `{"issue": 12, "issue_to": "#13", "relation_type": "blocks"}`))
	require.NoError(t, err)
	assert.Equal(t, "Relation 30 created: #12 blocks #13", resultText(t, res))
	assert.Equal(t, map[string]any{"issue_to_id": float64(13), "relation_type": "blocks"}, relation["relation"])

	res, err = h.handleWrite(ctx, callRequest(WriteTool, "create_issue_relation", `{"issue": 12, "relation_type": "blocks"}`))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "issue_to is required", resultText(t, res))

	res, err = h.handleWrite(ctx, callRequest(WriteTool, "delete_relation", `{"relation_id": 30}`))
	require.NoError(t, err)
	assert.Equal(t, "Relation 30 deleted", resultText(t, res))

	res, err = h.handleWrite(ctx, callRequest(WriteTool, "add_issue_watcher", `{"issue": 12, "user_id": 5}`))
	require.NoError(t, err)
	assert.Equal(t, "User 5 is now watching issue #12", resultText(t, res))
	assert.Equal(t, map[string]any{"user_id": float64(5)}, watcher)
}

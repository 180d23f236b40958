package redmine

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTimeEntries(t *testing.T) {
	t.Parallel()
	_, c := newFakeRedmine(t, map[string]http.HandlerFunc{
		"GET /time_entries.json": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "web", q.Get("project_id"))
			assert.Equal(t, "me", q.Get("user_id"))
			assert.Equal(t, "2024-01-01", q.Get("from"))
			assert.Equal(t, "25", q.Get("limit"))
			assert.Empty(t, q.Get("issue_id"))
			jsonHandler(`{"time_entries":[
				{"id":1,"project":{"id":1,"name":"Web App"},"issue":{"id":42},"user":{"id":5,"name":"Jane Roe"},"activity":{"id":9,"name":"Development"},"hours":1.5,"comments":"Fix login","spent_on":"2024-01-15"},
				{"id":2,"project":{"id":1,"name":"Web App"},"user":{"id":5,"name":"Jane Roe"},"activity":{"id":10,"name":"Meeting"},"hours":0.25,"comments":"","spent_on":"2024-01-16"}
			],"total_count":5,"offset":0,"limit":25}`)(w, r)
		},
	})

	got, err := ListTimeEntries(context.Background(), c, TimeEntryParams{Project: "web", User: "me", From: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, "# Time Entries (5)\n\n"+
		"| ID | Date | Hours | User | Activity | Issue | Comments |\n"+
		"|----|------|-------|------|----------|-------|----------|\n"+
		"| 1 | 2024-01-15 | 1.5 | Jane Roe | Development | #42 | Fix login |\n"+
		"| 2 | 2024-01-16 | 0.25 | Jane Roe | Meeting | - | - |\n"+
		"\n**Total:** 1.75h (2 of 5 entries)\n", got)
}

func TestListTimeEntries_Empty(t *testing.T) {
	t.Parallel()
	_, c := newFakeRedmine(t, map[string]http.HandlerFunc{
		"GET /time_entries.json": jsonHandler(`{"time_entries":[],"total_count":0}`),
	})

	got, err := ListTimeEntries(context.Background(), c, TimeEntryParams{})
	require.NoError(t, err)
	assert.Equal(t, "# Time Entries (0)\n\nNo time entries found.\n", got)
}

func TestTimeEntryParams_Values(t *testing.T) {
	t.Parallel()
	v, err := TimeEntryParams{Issue: 42, SpentOn: "2024-02-29", Limit: 500, Offset: 25}.values()
	require.NoError(t, err)
	assert.Equal(t, "42", v.Get("issue_id"))
	assert.Equal(t, "2024-02-29", v.Get("spent_on"))
	assert.Equal(t, "100", v.Get("limit"))
	assert.Equal(t, "25", v.Get("offset"))

	tests := []struct {
		name string
		p    TimeEntryParams
		want string
	}{
		{name: "Bad_Spent_On", p: TimeEntryParams{SpentOn: "15/01/2024"}, want: "invalid spent_on: 15/01/2024 (expected YYYY-MM-DD)"},
		{name: "Bad_From", p: TimeEntryParams{From: "2024-13-01"}, want: "invalid from: 2024-13-01 (expected YYYY-MM-DD)"},
		{name: "Bad_To", p: TimeEntryParams{To: "yesterday"}, want: "invalid to: yesterday (expected YYYY-MM-DD)"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.p.values()
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

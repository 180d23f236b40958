package journal

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redmine-mcp/internal/types"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFormat_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", Format(nil, nil, Options{}))
	assert.Equal(t, "", Format([]types.Journal{}, NameLookup{}, Options{IncludeDescriptionDiffs: true}))
}

func TestFormat_SingleNote(t *testing.T) {
	t.Parallel()
	journals := []types.Journal{{
		ID:        1,
		User:      types.Ref{ID: 3, Name: "John Doe"},
		Notes:     "Looks good",
		CreatedOn: at("2024-01-15T10:30:00Z"),
	}}

	got := Format(journals, nil, Options{})

	assert.Equal(t, "## History (1 entries)\n\n### #1 - 2024-01-15 10:30 - John Doe\n\nLooks good\n", got)
	assert.NotContains(t, got, "**Changes:**")
}

func TestFormat_NewestFirstWithStableNumbers(t *testing.T) {
	t.Parallel()
	journals := []types.Journal{
		{ID: 10, User: types.Ref{Name: "A"}, Notes: "first", CreatedOn: at("2024-01-01T09:00:00Z")},
		{ID: 11, User: types.Ref{Name: "B"}, Notes: "second", CreatedOn: at("2024-01-02T09:00:00Z")},
		{ID: 12, User: types.Ref{Name: "C"}, Notes: "third", CreatedOn: at("2024-01-03T09:00:00Z")},
	}

	got := Format(journals, nil, Options{})

	require.True(t, strings.HasPrefix(got, "## History (3 entries)\n\n"))
	third := strings.Index(got, "### #3 - 2024-01-03 09:00 - C")
	second := strings.Index(got, "### #2 - 2024-01-02 09:00 - B")
	first := strings.Index(got, "### #1 - 2024-01-01 09:00 - A")
	require.NotEqual(t, -1, third)
	require.NotEqual(t, -1, second)
	require.NotEqual(t, -1, first)
	assert.Less(t, third, second)
	assert.Less(t, second, first)
	assert.Equal(t, 2, strings.Count(got, "\n---\n\n"))
}

func TestFormat_ChangesSection(t *testing.T) {
	t.Parallel()
	lookup := NameLookup{"status_id": {"1": "New", "2": "In Progress"}}
	journals := []types.Journal{{
		ID:        5,
		User:      types.Ref{Name: "Jane Roe"},
		Notes:     "  Starting work  \n",
		CreatedOn: at("2024-03-04T15:04:05Z"),
		Details: []types.JournalDetail{
			{Property: "attr", Name: "status_id", OldValue: ptr("1"), NewValue: ptr("2")},
			{Property: "cf", Name: "Sprint", OldValue: ptr("Sprint 1"), NewValue: ptr("Sprint 2")},
		},
	}}

	got := Format(journals, lookup, Options{})

	want := "## History (1 entries)\n\n" +
		"### #1 - 2024-03-04 15:04 - Jane Roe\n" +
		"\n" +
		"Starting work\n" +
		"\n" +
		"**Changes:**\n" +
		"- status: New (1) → In Progress (2)\n" +
		"- Sprint: Sprint 1 → Sprint 2\n"
	assert.Equal(t, want, got)
}

func TestFormat_DetailsWithoutNotes(t *testing.T) {
	t.Parallel()
	journals := []types.Journal{{
		ID:        2,
		User:      types.Ref{Name: "Bot"},
		Notes:     "   ",
		CreatedOn: at("2024-01-15T10:30:00Z"),
		Details: []types.JournalDetail{
			{Property: "attachment", Name: "7", NewValue: ptr("screenshot.png")},
		},
	}}

	got := Format(journals, nil, Options{})

	assert.Equal(t, "## History (1 entries)\n\n### #1 - 2024-01-15 10:30 - Bot\n\n**Changes:**\n- Added attachment: screenshot.png\n", got)
}

func TestFormat_PrivateAndUnknownAuthor(t *testing.T) {
	t.Parallel()
	journals := []types.Journal{
		{ID: 1, Notes: "internal only", PrivateNotes: true, CreatedOn: at("2024-01-15T10:30:00Z")},
		{ID: 2, User: types.Ref{Name: "Jane"}, Notes: "public", CreatedOn: at("2024-01-16T10:30:00Z")},
	}

	got := Format(journals, nil, Options{})

	assert.Contains(t, got, "### #1 - 2024-01-15 10:30 - Unknown 🔒\n")
	assert.Contains(t, got, "### #2 - 2024-01-16 10:30 - Jane\n")
	assert.Equal(t, 1, strings.Count(got, "🔒"))
}

func TestFormat_DescriptionDiffOption(t *testing.T) {
	t.Parallel()
	journals := []types.Journal{{
		ID:        1,
		User:      types.Ref{Name: "Jane"},
		CreatedOn: at("2024-01-15T10:30:00Z"),
		Details: []types.JournalDetail{{
			Property: "attr",
			Name:     "description",
			OldValue: ptr("Original description"),
			NewValue: ptr("Updated description with more details"),
		}},
	}}

	hidden := Format(journals, nil, Options{})
	assert.Contains(t, hidden, "description: _(changed - use include_description_diffs to see diff)_")
	assert.NotContains(t, hidden, "Original description")

	shown := Format(journals, nil, Options{IncludeDescriptionDiffs: true})
	assert.Contains(t, shown, "```diff\n- Original description\n+ Updated description with more details\n```")
}

func TestFormat_EntryCountMatchesInput(t *testing.T) {
	t.Parallel()
	for _, n := range []int{1, 2, 7} {
		journals := make([]types.Journal, n)
		for i := range journals {
			journals[i] = types.Journal{ID: i + 1, User: types.Ref{Name: "U"}, CreatedOn: at("2024-01-15T10:30:00Z")}
		}
		got := Format(journals, nil, Options{})
		assert.Equal(t, n, strings.Count(got, "### #"), "n=%d", n)
		assert.Contains(t, got, fmt.Sprintf("## History (%d entries)", n))
	}
}

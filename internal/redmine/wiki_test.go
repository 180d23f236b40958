package redmine

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const installPage = `{"wiki_page":{"title":"Getting_Started","parent":{"title":"Wiki"},
	"text":"h1. Getting Started\r\n\r\nRun make.\r\n","version":3,"author":{"id":3,"name":"John Doe"},
	"comments":"Typo","created_on":"2024-01-01T08:00:00Z","updated_on":"2024-01-20T12:00:00Z",
	"attachments":[{"id":7,"filename":"setup.png","filesize":512,"content_url":"https://redmine.example.com/attachments/download/7/setup.png"}]}}`

func TestGetWikiPage(t *testing.T) {
	t.Parallel()
	_, c := newFakeRedmine(t, map[string]http.HandlerFunc{
		"GET /projects/web/wiki/Getting_Started.json": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "attachments", r.URL.Query().Get("include"))
			jsonHandler(installPage)(w, r)
		},
	})

	got, err := GetWikiPage(context.Background(), c, "web", "Getting_Started", 0)
	require.NoError(t, err)
	assert.Equal(t, "# Getting_Started\n\n"+
		"**Version:** 3 | **Author:** John Doe | **Updated:** 2024-01-20 12:00 | **Parent:** Wiki\n\n"+
		"_Typo_\n\n"+
		"---\n\n"+
		"h1. Getting Started\r\n\r\nRun make.\n"+
		"\n## Attachments\n\n"+
		"- [setup.png](https://redmine.example.com/attachments/download/7/setup.png) (512 bytes)\n", got)
}

func TestGetWikiPage_VersionAndEscaping(t *testing.T) {
	t.Parallel()
	f, c := newFakeRedmine(t, map[string]http.HandlerFunc{
		"GET /projects/web/wiki/Release Notes/2.json": jsonHandler(`{"wiki_page":{"title":"Release Notes","text":"Old","version":2,"author":{"id":3,"name":"John Doe"}}}`),
	})

	got, err := GetWikiPage(context.Background(), c, "web", "Release Notes", 2)
	require.NoError(t, err)
	assert.Contains(t, got, "# Release Notes\n\n**Version:** 2 | **Author:** John Doe\n\n---\n\nOld\n")
	assert.True(t, f.called("GET /projects/web/wiki/Release Notes/2.json"))
}

func TestGetWikiPage_Errors(t *testing.T) {
	t.Parallel()
	_, c := newFakeRedmine(t, nil)

	_, err := GetWikiPage(context.Background(), c, "web", "Missing", 0)
	require.Error(t, err)
	assert.Equal(t, "wiki page Missing not found in project web (or wiki module disabled)", err.Error())

	_, err = GetWikiPage(context.Background(), c, "web", "  ", 0)
	require.Error(t, err)
	assert.Equal(t, "page is required", err.Error())
}

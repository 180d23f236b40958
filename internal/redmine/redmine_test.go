package redmine

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"redmine-mcp/internal/client"
)

// fakeRedmine serves routes keyed by "METHOD /path"; anything else is a 404.
type fakeRedmine struct {
	t      *testing.T
	routes map[string]http.HandlerFunc

	mu    sync.Mutex
	calls []string
}

func newFakeRedmine(t *testing.T, routes map[string]http.HandlerFunc) (*fakeRedmine, *client.Client) {
	t.Helper()
	f := &fakeRedmine{t: t, routes: routes}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, client.New(srv.URL, "test-key", 5*time.Second)
}

func (f *fakeRedmine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()

	if h, ok := f.routes[key]; ok {
		h(w, r)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (f *fakeRedmine) called(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == key {
			return true
		}
	}
	return false
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func statusHandler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}

// captureJSON decodes the request body into dst and answers with status.
func captureJSON(t *testing.T, dst *map[string]any, status int, reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, dst))
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}
}

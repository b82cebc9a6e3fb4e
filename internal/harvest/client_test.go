package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(srvURL string) http.HandlerFunc) *Client {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler(srv.URL)(w, r)
	}))
	t.Cleanup(srv.Close)

	orig := backoff
	backoff = func(int) time.Duration { return 0 }
	t.Cleanup(func() { backoff = orig })

	return NewClient(Credentials{AccountID: "1234", Token: "secret", UserAgent: "hourbridge-test"}, srv.URL, nil)
}

func TestFetchCatalog(t *testing.T) {
	c := newTestServer(t, func(base string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1234", r.Header.Get("Harvest-Account-ID"))
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.Equal(t, "hourbridge-test", r.Header.Get("User-Agent"))

			switch {
			case r.URL.Path == "/projects" && r.URL.Query().Get("page") == "":
				fmt.Fprintf(w, `{"projects":[{"id":2,"name":"Zeta","code":"ZET","is_active":true,"client":{"id":7,"name":"Acme"}}],
					"links":{"next":"%s/projects?page=2"}}`, base)
			case r.URL.Path == "/projects":
				fmt.Fprint(w, `{"projects":[
					{"id":1,"name":"Alpha","code":null,"is_active":false,"client":{"id":7,"name":"Acme"}},
					{"id":3,"name":"Beta","code":"BET","is_active":true,"client":{"id":8,"name":"Initech"}}],
					"links":{"next":null}}`)
			case r.URL.Path == "/task_assignments":
				fmt.Fprint(w, `{"task_assignments":[
					{"id":10,"is_active":true,"project":{"id":2},"task":{"id":15,"name":"Development"}},
					{"id":11,"is_active":false,"project":{"id":2},"task":{"id":16,"name":"Design"}},
					{"id":12,"is_active":true,"project":{"id":99},"task":{"id":17,"name":"Orphan"}}],
					"links":{"next":null}}`)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}
	})

	projects, err := c.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 3)

	assert.Equal(t, "Beta", projects[0].Name)
	assert.Equal(t, "Zeta", projects[1].Name)
	assert.Equal(t, "Alpha", projects[2].Name)
	assert.Nil(t, projects[2].Code)

	zeta := projects[1]
	assert.Equal(t, "ZET", *zeta.Code)
	assert.Equal(t, "Acme", zeta.Client.Name)
	require.Len(t, zeta.Tasks, 2)
	assert.Equal(t, "Development", zeta.Tasks[15].Name)
	assert.True(t, *zeta.Tasks[15].LinkActive)
	assert.False(t, *zeta.Tasks[16].LinkActive)
	assert.Empty(t, projects[0].Tasks)
}

func TestCreateTimeEntry(t *testing.T) {
	c := newTestServer(t, func(string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/time_entries", r.URL.Path)

			var req TimeEntryRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, TimeEntryRequest{ProjectID: 123, TaskID: 15, SpentDate: "2019-01-01", Hours: 1.5, Notes: "TEST-1 work"}, req)

			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":555,"spent_date":"2019-01-01","hours":1.5,"notes":"TEST-1 work","project":{"id":123},"task":{"id":15}}`)
		}
	})

	created, err := c.CreateTimeEntry(context.Background(), TimeEntryRequest{
		ProjectID: 123, TaskID: 15, SpentDate: "2019-01-01", Hours: 1.5, Notes: "TEST-1 work",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(555), created.ID)
	assert.Equal(t, int64(123), created.Project.ID)
}

func TestCreateTimeEntry_ServerErrorNotRetried(t *testing.T) {
	var calls int32
	c := newTestServer(t, func(string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, "upstream down")
		}
	})

	_, err := c.CreateTimeEntry(context.Background(), TimeEntryRequest{ProjectID: 1, TaskID: 2})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCreateTimeEntry_RetriesRateLimit(t *testing.T) {
	var calls int32
	c := newTestServer(t, func(string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var req TimeEntryRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(1), req.ProjectID)

			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, `{"id":9}`)
		}
	})

	created, err := c.CreateTimeEntry(context.Background(), TimeEntryRequest{ProjectID: 1, TaskID: 2})

	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchCatalog_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestServer(t, func(string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/projects" && atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			name := r.URL.Path[1:]
			fmt.Fprintf(w, `{%q:[],"links":{"next":null}}`, name)
		}
	})

	projects, err := c.FetchCatalog(context.Background())

	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestFetchCatalog_Unauthorized(t *testing.T) {
	c := newTestServer(t, func(string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"invalid_token"}`)
		}
	})

	_, err := c.FetchCatalog(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "listing projects")
}

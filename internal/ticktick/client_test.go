package ticktick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

// newTestClient starts a fake Open API serving mux and returns a client
// authenticated with a static token.
func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("missing bearer"))
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	session := NewSession(Credentials{AccessToken: testToken})
	return NewClient(session, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestClient_ListProjects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /open/v1/project", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []Project{
			{ID: "p2", Name: "Work", Color: "#ff0000"},
			{ID: "p1", Name: "Home", Closed: true},
		})
	})
	c := newTestClient(t, mux)

	projects, err := c.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "p2", projects[0].ID)
	assert.Equal(t, "#ff0000", projects[0].Color)
	assert.Equal(t, "p1", projects[1].ID)
	assert.True(t, projects[1].Closed)
}

func TestClient_ListProjectTasks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /open/v1/project/p1/data", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"project":{"id":"p1","name":"Home"},"tasks":[
			{"id":"t1","projectId":"p1","title":"Buy milk","priority":3,"dueDate":"2024-01-10T00:00:00.000+0000","isAllDay":true,
			 "items":[{"id":"i1","title":"whole","status":0}]}
		]}`)
	})
	c := newTestClient(t, mux)

	tasks, err := c.ListProjectTasks(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, PriorityMedium, tasks[0].Priority)
	assert.True(t, tasks[0].IsAllDay)
	require.Len(t, tasks[0].Items, 1)
	assert.Equal(t, "whole", tasks[0].Items[0].Title)
}

func TestClient_CreateTask(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /open/v1/task", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Write report", body["title"])
		assert.Equal(t, float64(5), body["priority"])
		assert.NotContains(t, body, "content")
		writeJSON(t, w, Task{ID: "new", ProjectID: "inbox123", Title: "Write report", Priority: 5})
	})
	c := newTestClient(t, mux)

	title := "Write report"
	prio := PriorityHigh
	task, err := c.CreateTask(context.Background(), TaskInput{Title: &title, Priority: &prio})
	require.NoError(t, err)
	assert.Equal(t, "new", task.ID)
	assert.Equal(t, PriorityHigh, task.Priority)
}

func TestClient_UpdateTask(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /open/v1/task/t1", func(w http.ResponseWriter, r *http.Request) {
		var body TaskInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "t1", body.ID)
		assert.Equal(t, "p1", body.ProjectID)
		require.NotNil(t, body.Title)
		assert.Equal(t, "Renamed", *body.Title)
		writeJSON(t, w, Task{ID: "t1", ProjectID: "p1", Title: "Renamed"})
	})
	c := newTestClient(t, mux)

	title := "Renamed"
	task, err := c.UpdateTask(context.Background(), "t1", TaskInput{ProjectID: "p1", Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", task.Title)
}

func TestClient_DeleteTask(t *testing.T) {
	var called atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /open/v1/project/p1/task/t1", func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
	})
	c := newTestClient(t, mux)

	require.NoError(t, c.DeleteTask(context.Background(), "t1", "p1"))
	assert.True(t, called.Load())
}

func TestClient_CompleteTask(t *testing.T) {
	var completed atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /open/v1/project/p1/task/t1/complete", func(w http.ResponseWriter, r *http.Request) {
		completed.Store(true)
	})
	mux.HandleFunc("GET /open/v1/project/p1/task/t1", func(w http.ResponseWriter, r *http.Request) {
		task := Task{ID: "t1", ProjectID: "p1", Title: "Done"}
		if completed.Load() {
			task.Status = 2
			task.CompletedTime = "2024-01-11T08:00:00.000+0000"
		}
		writeJSON(t, w, task)
	})
	c := newTestClient(t, mux)

	task, err := c.CompleteTask(context.Background(), "t1", "p1")
	require.NoError(t, err)
	assert.True(t, task.Completed())
	assert.Equal(t, 2, task.Status)
}

func TestClient_GetTaskNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /open/v1/project/p1/task/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"errorCode":"task_not_found"}`)
	})
	c := newTestClient(t, mux)

	_, err := c.GetTask(context.Background(), "missing", "p1")
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.True(t, remoteErr.NotFound())
	assert.Equal(t, "get task", remoteErr.Op)
	assert.Contains(t, err.Error(), "get task")
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "task_not_found")
	assert.False(t, IsFatal(err))
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(NewSession(Credentials{AccessToken: testToken}), WithBaseURL(base))
	_, err := c.ListProjects(context.Background())

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Zero(t, remoteErr.StatusCode)
	assert.NotNil(t, remoteErr.Unwrap())
	assert.Contains(t, err.Error(), "list projects")
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"configuration", &ConfigurationError{}, true},
		{"authentication", &AuthenticationError{StatusCode: 401}, true},
		{"cancelled call", &RemoteError{Op: "list projects", Err: context.Canceled}, true},
		{"deadline", fmt.Errorf("inbox: %w", context.DeadlineExceeded), true},
		{"remote status", &RemoteError{Op: "list projects", StatusCode: 500}, false},
		{"validation", &ValidationError{Field: "title"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFatal(tt.err))
		})
	}
}

func TestClient_ListInboxTasksCancelled(t *testing.T) {
	mux := http.NewServeMux()
	c := newTestClient(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := c.ListInboxTasks(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestClient_ConfigurationErrorBeforeRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := NewClient(NewSession(Credentials{}), WithBaseURL(srv.URL))
	_, err := c.ListProjects(context.Background())

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, int32(0), hits.Load())
}

func TestClient_ListInboxTasks(t *testing.T) {
	t.Run("primary route", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /open/v1/project/inbox/data", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, projectData{Tasks: []Task{{ID: "i1", Title: "Inbox one"}}})
		})
		c := newTestClient(t, mux)

		res, err := c.ListInboxTasks(context.Background())
		require.NoError(t, err)
		assert.Equal(t, InboxRouteProjectData, res.Route)
		assert.NoError(t, res.Warning)
		require.Len(t, res.Tasks, 1)
		assert.Equal(t, "i1", res.Tasks[0].ID)
	})

	t.Run("fallback route", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /open/v1/project/inbox/data", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		mux.HandleFunc("GET /open/v1/task", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "inbox", r.URL.Query().Get("projectId"))
			writeJSON(t, w, []Task{{ID: "i2"}, {ID: "i3"}})
		})
		c := newTestClient(t, mux)

		res, err := c.ListInboxTasks(context.Background())
		require.NoError(t, err)
		assert.Equal(t, InboxRouteTaskQuery, res.Route)
		require.Len(t, res.Tasks, 2)
		assert.Equal(t, "i2", res.Tasks[0].ID)
	})

	t.Run("both routes fail", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /open/v1/project/inbox/data", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		mux.HandleFunc("GET /open/v1/task", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		c := newTestClient(t, mux)

		res, err := c.ListInboxTasks(context.Background())
		require.NoError(t, err)
		assert.Empty(t, res.Tasks)
		assert.Empty(t, res.Route)
		require.Error(t, res.Warning)
		assert.Contains(t, res.Warning.Error(), "502")
		assert.Contains(t, res.Warning.Error(), "404")
	})

	t.Run("configuration error propagates", func(t *testing.T) {
		c := NewClient(NewSession(Credentials{}), WithBaseURL("http://127.0.0.1:1"))
		_, err := c.ListInboxTasks(context.Background())
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantUTC string
		wantErr bool
	}{
		{name: "ticktick layout", input: "2024-01-10T16:00:00.000+0000", wantUTC: "2024-01-10T16:00:00Z"},
		{name: "ticktick layout with offset", input: "2024-01-10T08:00:00.000+0800", wantUTC: "2024-01-10T00:00:00Z"},
		{name: "rfc3339", input: "2024-01-10T00:00:00Z", wantUTC: "2024-01-10T00:00:00Z"},
		{name: "rfc3339 fraction", input: "2024-01-10T00:00:00.5Z", wantUTC: "2024-01-10T00:00:00.5Z"},
		{name: "date only", input: "2024-01-10", wantUTC: "2024-01-10T00:00:00Z"},
		{name: "garbage", input: "tomorrow", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUTC, got.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"))
		})
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmind/internal/auth"
	"taskmind/internal/classify"
	"taskmind/internal/models"
	"taskmind/internal/tasklist"
)

// memStore is a minimal in-memory storage.Store for handler tests.
type memStore struct {
	mu    sync.Mutex
	tasks map[string]models.Task
}

func newMemStore() *memStore {
	return &memStore{tasks: make(map[string]models.Task)}
}

func (m *memStore) EnsureSchema(context.Context) error { return nil }
func (m *memStore) Close() error                       { return nil }

func (m *memStore) List(_ context.Context, owner string) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Task
	for _, t := range m.tasks {
		if t.Owner == owner {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) Create(_ context.Context, t models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
	return nil
}

func (m *memStore) Update(_ context.Context, _, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tasks[id]
	if v, ok := fields["completed"].(bool); ok {
		t.Completed = v
	}
	m.tasks[id] = t
	return nil
}

func (m *memStore) Delete(_ context.Context, _, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	return nil
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := auth.New("test-secret", time.Hour, logger)
	controller := tasklist.New(newMemStore(), classify.New(nil, 8, logger), logger)
	t.Cleanup(controller.BindAuth(authSvc))

	srv := New(authSvc, controller, logger, "")

	body, _ := json.Marshal(map[string]string{"email": "someone@example.com"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	srv.Engine().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Token)
	return srv, loginResp.Token
}

func do(srv *Server, token, method, path string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestTaskRoutes(t *testing.T) {
	t.Run("Should reject task access without a token", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rec := do(srv, "", http.MethodGet, "/api/tasks", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Should create, list, toggle and delete a task", func(t *testing.T) {
		srv, token := newTestServer(t)

		rec := do(srv, token, http.MethodPost, "/api/tasks", map[string]string{"title": "Buy milk"})
		require.Equal(t, http.StatusCreated, rec.Code)

		var createResp struct {
			Task models.Task `json:"task"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &createResp))
		id := createResp.Task.ID
		require.NotEmpty(t, id)
		assert.Equal(t, models.DefaultCategory, createResp.Task.Category)
		assert.Equal(t, models.DefaultPriority, createResp.Task.Priority)

		rec = do(srv, token, http.MethodGet, "/api/tasks?search=milk&category=all", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var listResp struct {
			Tasks []models.Task    `json:"tasks"`
			Stats tasklist.Summary `json:"stats"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
		require.Len(t, listResp.Tasks, 1)
		assert.Equal(t, 1, listResp.Stats.Remaining)

		rec = do(srv, token, http.MethodPut, "/api/tasks/"+id, map[string]bool{"completed": true})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(srv, token, http.MethodGet, "/api/tasks", nil)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
		require.Len(t, listResp.Tasks, 1)
		assert.True(t, listResp.Tasks[0].Completed)
		assert.Equal(t, 1, listResp.Stats.Completed)

		rec = do(srv, token, http.MethodDelete, "/api/tasks/"+id, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(srv, token, http.MethodGet, "/api/tasks", nil)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
		assert.Empty(t, listResp.Tasks)
		assert.Equal(t, 0, listResp.Stats.Total)
	})

	t.Run("Should reject a whitespace-only title", func(t *testing.T) {
		srv, token := newTestServer(t)
		rec := do(srv, token, http.MethodPost, "/api/tasks", map[string]string{"title": "   "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should scope tasks to their owner", func(t *testing.T) {
		srv, token := newTestServer(t)
		rec := do(srv, token, http.MethodPost, "/api/tasks", map[string]string{"title": "Mine"})
		require.Equal(t, http.StatusCreated, rec.Code)

		body, _ := json.Marshal(map[string]string{"email": "other@example.com"})
		loginRec := httptest.NewRecorder()
		srv.Engine().ServeHTTP(loginRec, httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body)))
		require.Equal(t, http.StatusOK, loginRec.Code)
		var loginResp struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &loginResp))

		rec = do(srv, loginResp.Token, http.MethodGet, "/api/tasks", nil)
		var listResp struct {
			Tasks []models.Task `json:"tasks"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
		assert.Empty(t, listResp.Tasks)
	})
}

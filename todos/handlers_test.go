package todos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/todoapp-go/auth"
	"github.com/user/todoapp-go/config"
)

// memStore is an in-memory Store. Like the SQL queries, every lookup is
// scoped by owner id, so cross-owner ids come back as not found.
type memStore struct {
	mu    sync.Mutex
	todos map[string]*Todo
}

func newMemStore() *memStore {
	return &memStore{todos: map[string]*Todo{}}
}

func (s *memStore) ListByOwner(ctx context.Context, ownerID string) ([]Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []Todo{}
	for _, t := range s.todos {
		if t.UserID == ownerID {
			list = append(list, *t)
		}
	}
	return list, nil
}

func (s *memStore) Create(ctx context.Context, todo *Todo) (*Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todo.ID = uuid.NewString()
	todo.CreatedAt = time.Now().UTC()
	todo.UpdatedAt = todo.CreatedAt
	cp := *todo
	s.todos[todo.ID] = &cp
	return todo, nil
}

func (s *memStore) FindByID(ctx context.Context, id, ownerID string) (*Todo, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok || t.UserID != ownerID {
		return nil, false, nil
	}
	cp := *t
	return &cp, true, nil
}

func (s *memStore) Update(ctx context.Context, id, ownerID string, req UpdateTodoRequest) (*Todo, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok || t.UserID != ownerID {
		return nil, false, nil
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.Done != nil {
		t.Done = *req.Done
	}
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	return &cp, true, nil
}

func (s *memStore) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok || t.UserID != ownerID {
		return false, nil
	}
	delete(s.todos, id)
	return true, nil
}

type testEnv struct {
	router   chi.Router
	sessions *auth.SessionManager
	store    *memStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	sessions := auth.NewSessionManager(config.AuthConfig{
		JWTSecret:    "test-jwt-secret",
		CookieSecret: "test-cookie-secret",
		SessionTTL:   time.Hour,
	})
	store := newMemStore()
	h := NewHandlers(NewService(store), sessions)

	r := chi.NewRouter()
	r.Route("/todos", h.RegisterRoutes)
	return &testEnv{router: r, sessions: sessions, store: store}
}

// login issues a session for userID and returns the cookies a browser
// would hold afterwards.
func (e *testEnv) login(t *testing.T, userID string) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, e.sessions.IssueSession(rec, userID))
	return rec.Result().Cookies()
}

// do sends a request through the router. When cookies are given they are
// attached, and for mutating methods the CSRF header is set from the CSRF
// cookie unless skipCSRF is true.
func (e *testEnv) do(t *testing.T, method, path, body string, cookies []*http.Cookie, skipCSRF bool) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		r.AddCookie(c)
		if c.Name == auth.CSRFCookieName && !skipCSRF {
			r.Header.Set(auth.CSRFHeaderName, c.Value)
		}
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func (e *testEnv) createTodo(t *testing.T, cookies []*http.Cookie, body string) Todo {
	t.Helper()
	w := e.do(t, http.MethodPost, "/todos", body, cookies, false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var todo Todo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &todo))
	return todo
}

func TestCreateTodoAuthMatrix(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "user-1")
	body := `{"description":"write tests"}`

	t.Run("no session", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/todos", body, nil, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("session but no CSRF header", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/todos", body, cookies, true)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("session and CSRF", func(t *testing.T) {
		todo := env.createTodo(t, cookies, body)
		assert.NotEmpty(t, todo.ID)
		assert.Equal(t, "user-1", todo.UserID)
		assert.Equal(t, "write tests", todo.Description)
		assert.Equal(t, PriorityLow, todo.Priority, "priority defaults to low")
		assert.False(t, todo.Done)
	})
}

func TestCreateTodoValidation(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "user-1")

	tests := []struct {
		name string
		body string
	}{
		{"empty description", `{"description":""}`},
		{"description too long", `{"description":"` + strings.Repeat("x", 256) + `"}`},
		{"invalid priority", `{"description":"ok","priority":"urgent"}`},
		{"malformed body", `{"description":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/todos", tt.body, cookies, false)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateTodoExplicitPriority(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "user-1")

	todo := env.createTodo(t, cookies, `{"description":"urgent thing","priority":"high"}`)
	assert.Equal(t, PriorityHigh, todo.Priority)
}

func TestListTodosScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice")
	bob := env.login(t, "bob")

	env.createTodo(t, alice, `{"description":"alice one"}`)
	env.createTodo(t, alice, `{"description":"alice two"}`)
	env.createTodo(t, bob, `{"description":"bob one"}`)

	w := env.do(t, http.MethodGet, "/todos", "", alice, false)
	require.Equal(t, http.StatusOK, w.Code)

	var list []Todo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	for _, todo := range list {
		assert.Equal(t, "alice", todo.UserID)
	}
}

func TestListTodosEmptyIsArray(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "user-1")

	w := env.do(t, http.MethodGet, "/todos", "", cookies, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestGetTodoCrossOwnerIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice")
	bob := env.login(t, "bob")

	todo := env.createTodo(t, alice, `{"description":"alice only"}`)

	// The existing id must be indistinguishable from a missing one.
	w := env.do(t, http.MethodGet, "/todos/"+todo.ID, "", bob, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/todos/"+uuid.NewString(), "", bob, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateTodoPartial(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "user-1")
	todo := env.createTodo(t, cookies, `{"description":"original","priority":"medium"}`)

	w := env.do(t, http.MethodPut, "/todos/"+todo.ID, `{"done":true}`, cookies, false)
	require.Equal(t, http.StatusOK, w.Code)

	var updated Todo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.True(t, updated.Done)
	assert.Equal(t, "original", updated.Description, "untouched fields survive")
	assert.Equal(t, PriorityMedium, updated.Priority)
}

func TestUpdateTodoValidation(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "user-1")
	todo := env.createTodo(t, cookies, `{"description":"original"}`)

	w := env.do(t, http.MethodPut, "/todos/"+todo.ID, `{"priority":"asap"}`, cookies, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/todos/"+todo.ID, `{"description":""}`, cookies, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateTodoCrossOwnerIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice")
	bob := env.login(t, "bob")
	todo := env.createTodo(t, alice, `{"description":"alice only"}`)

	w := env.do(t, http.MethodPut, "/todos/"+todo.ID, `{"done":true}`, bob, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Unchanged for the owner.
	got, found, err := env.store.FindByID(context.Background(), todo.ID, "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, got.Done)
}

func TestDeleteTodo(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "user-1")
	todo := env.createTodo(t, cookies, `{"description":"short lived"}`)

	w := env.do(t, http.MethodDelete, "/todos/"+todo.ID, "", cookies, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "todo deleted")

	w = env.do(t, http.MethodDelete, "/todos/"+todo.ID, "", cookies, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteTodoCrossOwnerIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice")
	bob := env.login(t, "bob")
	todo := env.createTodo(t, alice, `{"description":"alice only"}`)

	w := env.do(t, http.MethodDelete, "/todos/"+todo.ID, "", bob, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, found, err := env.store.FindByID(context.Background(), todo.ID, "alice")
	require.NoError(t, err)
	assert.True(t, found, "todo must survive a cross-owner delete")
}

func TestReadsRequireSessionButNotCSRF(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t, "user-1")

	// GETs never consult the CSRF guard.
	w := env.do(t, http.MethodGet, "/todos", "", cookies, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/todos", "", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

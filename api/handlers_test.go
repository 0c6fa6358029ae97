package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/wenderenzo/listaTarefas/domain"
)

type mockStore struct {
	tasks       []domain.Task
	nextID      int64
	listErr     error
	lastReorder []domain.Task
}

func (m *mockStore) ListTasks(ctx context.Context) ([]domain.Task, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.tasks, nil
}

func (m *mockStore) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			t := m.tasks[i]
			return &t, nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

func (m *mockStore) CreateTask(ctx context.Context, fields domain.TaskFields) (*domain.Task, error) {
	for i := range m.tasks {
		if m.tasks[i].Name == fields.Name {
			return nil, domain.ErrDuplicateName
		}
	}
	m.nextID++
	t := domain.Task{
		ID:           m.nextID,
		Name:         fields.Name,
		Cost:         fields.Cost,
		DueDate:      fields.DueDate,
		DisplayOrder: len(m.tasks) + 1,
	}
	m.tasks = append(m.tasks, t)
	return &t, nil
}

func (m *mockStore) UpdateTask(ctx context.Context, id int64, fields domain.TaskFields) (*domain.Task, error) {
	for i := range m.tasks {
		if m.tasks[i].Name == fields.Name && m.tasks[i].ID != id {
			return nil, domain.ErrDuplicateName
		}
	}
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks[i].Name = fields.Name
			m.tasks[i].Cost = fields.Cost
			m.tasks[i].DueDate = fields.DueDate
			t := m.tasks[i]
			return &t, nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

func (m *mockStore) DeleteTask(ctx context.Context, id int64) error {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return domain.ErrTaskNotFound
}

func (m *mockStore) ReorderTasks(ctx context.Context, tasks []domain.Task) error {
	m.lastReorder = tasks
	for _, upd := range tasks {
		found := false
		for i := range m.tasks {
			if m.tasks[i].ID == upd.ID {
				m.tasks[i].DisplayOrder = upd.DisplayOrder
				found = true
			}
		}
		if !found {
			return domain.ErrTaskNotFound
		}
	}
	return nil
}

type memDeduper struct {
	seen map[string]bool
}

func (d *memDeduper) Add(ctx context.Context, key string) (bool, error) {
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *memDeduper) Remove(ctx context.Context, key string) error {
	delete(d.seen, key)
	return nil
}

func testLogger() *log.Logger {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return logger
}

func do(t *testing.T, e *echo.Echo, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newTestServer(store Storage, deduper Deduper) *echo.Echo {
	e := echo.New()
	Register(e, store, deduper, testLogger())
	return e
}

func TestListTasks(t *testing.T) {
	store := &mockStore{tasks: []domain.Task{{ID: 1, Name: "A", DisplayOrder: 1}}}
	e := newTestServer(store, nil)

	rec := do(t, e, http.MethodGet, "/api/tasks", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data []domain.Task `json:"data"`
		Time string        `json:"time"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Name != "A" {
		t.Fatalf("unexpected tasks: %#v", resp.Data)
	}
	if resp.Time == "" {
		t.Fatal("expected time field in envelope")
	}
}

func TestCreateTask(t *testing.T) {
	store := &mockStore{}
	e := newTestServer(store, nil)

	rec := do(t, e, http.MethodPost, "/api/tasks",
		`{"name":"Pay rent","cost":1200,"dueDate":"2025-01-05"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data domain.Task `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Data.ID != 1 || resp.Data.DisplayOrder != 1 {
		t.Fatalf("unexpected task: %#v", resp.Data)
	}
}

func TestCreateTaskRejectsDuplicateName(t *testing.T) {
	store := &mockStore{tasks: []domain.Task{{ID: 1, Name: "Pay rent", DisplayOrder: 1}}, nextID: 1}
	e := newTestServer(store, nil)

	rec := do(t, e, http.MethodPost, "/api/tasks",
		`{"name":"Pay rent","cost":10,"dueDate":"2025-01-05"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.tasks) != 1 {
		t.Fatalf("expected no task created, got %#v", store.tasks)
	}
}

func TestCreateTaskValidatesFields(t *testing.T) {
	e := newTestServer(&mockStore{}, nil)

	for _, body := range []string{
		`{"name":"","cost":10,"dueDate":"2025-01-05"}`,
		`{"name":"x","cost":-1,"dueDate":"2025-01-05"}`,
		`{"name":"x","cost":10,"dueDate":"bogus"}`,
		`{"name":"x","cost":10,"dueDate":"2025-01-05","extra":true}`,
	} {
		rec := do(t, e, http.MethodPost, "/api/tasks", body, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestUpdateTaskConflictAndSelfRename(t *testing.T) {
	store := &mockStore{tasks: []domain.Task{
		{ID: 3, Name: "Pay rent", DisplayOrder: 1},
		{ID: 7, Name: "Buy milk", DisplayOrder: 2},
	}, nextID: 7}
	e := newTestServer(store, nil)

	rec := do(t, e, http.MethodPut, "/api/tasks/3",
		`{"name":"Buy milk","cost":10,"dueDate":"2025-01-05"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	// Renaming a task to its own current name is not a conflict.
	rec = do(t, e, http.MethodPut, "/api/tasks/3",
		`{"name":"Pay rent","cost":99,"dueDate":"2025-01-05"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.tasks[0].Cost != 99 {
		t.Fatalf("expected cost updated, got %#v", store.tasks[0])
	}
}

func TestUpdateMissingTask(t *testing.T) {
	e := newTestServer(&mockStore{}, nil)
	rec := do(t, e, http.MethodPut, "/api/tasks/42",
		`{"name":"x","cost":1,"dueDate":"2025-01-05"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteTask(t *testing.T) {
	store := &mockStore{tasks: []domain.Task{{ID: 1, Name: "A", DisplayOrder: 1}}}
	e := newTestServer(store, nil)

	rec := do(t, e, http.MethodDelete, "/api/tasks/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(store.tasks) != 0 {
		t.Fatalf("expected task deleted, got %#v", store.tasks)
	}

	rec = do(t, e, http.MethodDelete, "/api/tasks/1", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestReorderTasks(t *testing.T) {
	store := &mockStore{tasks: []domain.Task{
		{ID: 1, Name: "A", DisplayOrder: 1},
		{ID: 2, Name: "B", DisplayOrder: 2},
	}, nextID: 2}
	e := newTestServer(store, nil)

	rec := do(t, e, http.MethodPut, "/api/tasks/order",
		`[{"id":2,"name":"B","cost":0,"dueDate":"","displayOrder":1},`+
			`{"id":1,"name":"A","cost":0,"dueDate":"","displayOrder":2}]`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.tasks[0].DisplayOrder != 2 || store.tasks[1].DisplayOrder != 1 {
		t.Fatalf("expected persisted orders, got %#v", store.tasks)
	}
}

func TestReorderRejectsBadPayloads(t *testing.T) {
	e := newTestServer(&mockStore{}, nil)

	for _, body := range []string{
		`[]`,
		`[{"id":1,"name":"A","cost":0,"dueDate":"","displayOrder":0}]`,
	} {
		rec := do(t, e, http.MethodPut, "/api/tasks/order", body, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestMutationDeduped(t *testing.T) {
	store := &mockStore{}
	e := newTestServer(store, &memDeduper{})
	headers := map[string]string{"Idempotency-Key": "abc-123"}
	body := `{"name":"Pay rent","cost":1200,"dueDate":"2025-01-05"}`

	rec := do(t, e, http.MethodPost, "/api/tasks", body, headers)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = do(t, e, http.MethodPost, "/api/tasks", body, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected replay to be dropped with 200, got %d", rec.Code)
	}
	if len(store.tasks) != 1 {
		t.Fatalf("expected single task after replay, got %#v", store.tasks)
	}
}

func TestFailedMutationReleasesIdempotencyKey(t *testing.T) {
	store := &mockStore{tasks: []domain.Task{{ID: 1, Name: "Pay rent", DisplayOrder: 1}}, nextID: 1}
	deduper := &memDeduper{}
	e := newTestServer(store, deduper)
	headers := map[string]string{"Idempotency-Key": "retry-me"}

	rec := do(t, e, http.MethodPost, "/api/tasks",
		`{"name":"Pay rent","cost":1,"dueDate":"2025-01-05"}`, headers)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	// The key must be reusable after the failure.
	rec = do(t, e, http.MethodPost, "/api/tasks",
		`{"name":"Buy milk","cost":1,"dueDate":"2025-01-05"}`, headers)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 after retry, got %d", rec.Code)
	}
}

func TestGetTaskByID(t *testing.T) {
	store := &mockStore{tasks: []domain.Task{{ID: 5, Name: "A", DisplayOrder: 1}}}
	e := newTestServer(store, nil)

	rec := do(t, e, http.MethodGet, "/api/tasks/5", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = do(t, e, http.MethodGet, "/api/tasks/6", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = do(t, e, http.MethodGet, "/api/tasks/abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

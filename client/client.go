package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/wenderenzo/listaTarefas/domain"
)

const defaultTimeout = 10 * time.Second

// responseEnvelope is the wire shape every API response is wrapped in.
type responseEnvelope struct {
	Data json.RawMessage `json:"data"`
	Time string          `json:"time"`
}

// Client implements domain.TaskStore over the JSON HTTP API. BaseURL points
// at the API root (for example "http://localhost:8080/api").
type Client struct {
	BaseURL string
	HTTP    *http.Client

	logger  *log.Logger
	timeout time.Duration
}

// New creates a client for the API at baseURL. A nil logger falls back to
// the logrus standard logger.
func New(baseURL string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{},
		logger:  logger,
		timeout: defaultTimeout,
	}
}

// SetTimeout overrides the per-call deadline applied to every request.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// FetchAll returns every task; ordering on the wire is not significant.
func (c *Client) FetchAll(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks, "fetch tasks"); err != nil {
		return nil, err
	}
	return tasks, nil
}

// FetchByID returns a single task by id.
func (c *Client) FetchByID(ctx context.Context, id int64) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/"+formatID(id), nil, &task, "fetch task"); err != nil {
		return nil, err
	}
	return &task, nil
}

// Create submits a new task; the server assigns its id and display order.
func (c *Client) Create(ctx context.Context, fields domain.TaskFields) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", fields, &task, "create task"); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update rewrites the name, cost and due date of the task with the given id.
func (c *Client) Update(ctx context.Context, id int64, fields domain.TaskFields) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodPut, "/tasks/"+formatID(id), fields, &task, "update task"); err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes the task with the given id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+formatID(id), nil, nil, "delete task")
}

// Reorder persists the display order carried by each submitted task.
func (c *Client) Reorder(ctx context.Context, tasks []domain.Task) error {
	return c.do(ctx, http.MethodPut, "/tasks/order", tasks, nil, "reorder tasks")
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, op string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return &domain.TransportError{Op: op, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// Each mutation attempt carries a fresh key: a failed write is never
	// retried here, the caller resubmits it as a new mutation. The key guards
	// the server against transport-level replays of a single request, not
	// against resubmission.
	if method != http.MethodGet {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.WithFields(log.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"total_ms": float64(time.Since(start)) / float64(time.Millisecond),
	}).Debug("tasks.api.request")

	switch {
	case resp.StatusCode == http.StatusConflict:
		return domain.ErrDuplicateName
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrTaskNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &domain.TransportError{Op: op, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	var envelope responseEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(envelope.Data, out); err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	return nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

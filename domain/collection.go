package domain

import (
	"context"
	"sync"
)

// Collection is the in-memory ordered view of tasks used for display and as
// the base for computing the next mutation. It caches the remote store's
// state; the store stays the owner of task identity.
type Collection struct {
	store TaskStore

	mu      sync.RWMutex
	tasks   []Task
	loading bool
}

// NewCollection creates an empty collection backed by the given store.
func NewCollection(store TaskStore) *Collection {
	if store == nil {
		panic("domain.NewCollection: store is nil")
	}
	return &Collection{store: store}
}

// Load fetches the full task set from the store, sorts it ascending by
// display order and swaps it in. On failure the previous list is kept
// unchanged and the error is returned for user notification.
func (c *Collection) Load(ctx context.Context) error {
	c.setLoading(true)
	defer c.setLoading(false)

	tasks, err := c.store.FetchAll(ctx)
	if err != nil {
		return err
	}
	SortByDisplayOrder(tasks)

	c.mu.Lock()
	c.tasks = tasks
	c.mu.Unlock()
	return nil
}

// Replace atomically swaps the in-memory list. Observers see either the old
// or the new list, never a mix.
func (c *Collection) Replace(tasks []Task) {
	next := make([]Task, len(tasks))
	copy(next, tasks)

	c.mu.Lock()
	c.tasks = next
	c.mu.Unlock()
}

// Tasks returns a copy of the current ordered list.
func (c *Collection) Tasks() []Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Len returns the number of cached tasks.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tasks)
}

// Find returns the cached task with the given id, or nil when absent.
func (c *Collection) Find(id int64) *Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			t := c.tasks[i]
			return &t
		}
	}
	return nil
}

// Loading reports whether a Load call is currently running. Observability
// only; not part of the consistency contract.
func (c *Collection) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *Collection) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

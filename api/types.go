package api

import (
	"context"

	"github.com/wenderenzo/listaTarefas/domain"
)

// Storage abstracts persistence for handlers. Implementations signal a name
// conflict with domain.ErrDuplicateName and a missing task with
// domain.ErrTaskNotFound.
type Storage interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	CreateTask(ctx context.Context, fields domain.TaskFields) (*domain.Task, error)
	UpdateTask(ctx context.Context, id int64, fields domain.TaskFields) (*domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ReorderTasks(ctx context.Context, tasks []domain.Task) error
}

// Deduper prevents reprocessing of replayed mutations.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, key string) (bool, error)
	// Remove deletes a previously added key, used when the mutation fails so
	// the caller may retry with the same key.
	Remove(ctx context.Context, key string) error
}

package domain

import "context"

// TaskStore is the remote, authoritative owner of task records. The engine
// never assumes exclusive access to it; another client may mutate it between
// any two calls, which is why uniqueness checks always re-fetch.
type TaskStore interface {
	FetchAll(ctx context.Context) ([]Task, error)
	FetchByID(ctx context.Context, id int64) (*Task, error)
	Create(ctx context.Context, fields TaskFields) (*Task, error)
	Update(ctx context.Context, id int64, fields TaskFields) (*Task, error)
	Delete(ctx context.Context, id int64) error
	Reorder(ctx context.Context, tasks []Task) error
}

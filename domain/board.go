package domain

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Board wires the collection, guard, reorderer and session together and
// serializes mutations: at most one write is outstanding against the remote
// store at a time, additional requests are rejected with
// ErrMutationInFlight until the in-flight one resolves.
type Board struct {
	store   TaskStore
	col     *Collection
	guard   NameGuard
	reord   Reorderer
	session *Session
	logger  *log.Logger

	mu   sync.Mutex
	busy bool
}

// NewBoard creates a board over the given store. A nil logger falls back to
// the logrus standard logger.
func NewBoard(store TaskStore, logger *log.Logger) *Board {
	if store == nil {
		panic("domain.NewBoard: store is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Board{
		store:   store,
		col:     NewCollection(store),
		guard:   NewNameGuard(store, logger),
		reord:   NewReorderer(store, logger),
		session: NewSession(),
		logger:  logger,
	}
}

// Collection exposes the ordered in-memory view for rendering.
func (b *Board) Collection() *Collection { return b.col }

// Session exposes the current create-or-edit interaction.
func (b *Board) Session() *Session { return b.session }

// Refresh reloads the collection from the remote store.
func (b *Board) Refresh(ctx context.Context) error {
	return b.col.Load(ctx)
}

// OpenCreate starts a create interaction.
func (b *Board) OpenCreate() error {
	return b.session.OpenCreate()
}

// OpenEdit starts an edit interaction for the cached task with the given id.
func (b *Board) OpenEdit(id int64) error {
	t := b.col.Find(id)
	if t == nil {
		return ErrTaskNotFound
	}
	return b.session.OpenEdit(*t)
}

// Cancel discards the open interaction.
func (b *Board) Cancel() error {
	return b.session.Cancel()
}

// Submit runs the open session to completion: validate the entered fields,
// check the name against a fresh store snapshot, then issue the create or
// update and reload the collection from the authoritative list. The
// duplicate check always finishes before the write is issued.
func (b *Board) Submit(ctx context.Context) error {
	if !b.acquire() {
		return ErrMutationInFlight
	}
	defer b.release()

	editing := b.session.Editing()
	taskID := b.session.TaskID()

	fields, err := b.session.Submit()
	if err != nil {
		return err
	}

	if err := b.guard.CheckName(ctx, fields.Name, taskID); err != nil {
		b.session.Resolve(err)
		return err
	}

	if editing {
		_, err = b.store.Update(ctx, taskID, fields)
	} else {
		_, err = b.store.Create(ctx, fields)
	}
	b.session.Resolve(err)
	if err != nil {
		b.logger.WithFields(log.Fields{"task": taskID, "editing": editing, "error": err}).
			Warn("task submit failed")
		return err
	}
	return b.col.Load(ctx)
}

// Move shifts the task one position and persists the new order. Boundary
// moves are no-ops and report moved=false with a nil error.
func (b *Board) Move(ctx context.Context, id int64, dir Direction) (bool, error) {
	if !b.acquire() {
		return false, ErrMutationInFlight
	}
	defer b.release()
	return b.reord.Move(ctx, b.col, id, dir)
}

// Delete removes the task from the remote store and reloads the collection.
func (b *Board) Delete(ctx context.Context, id int64) error {
	if !b.acquire() {
		return ErrMutationInFlight
	}
	defer b.release()

	if err := b.store.Delete(ctx, id); err != nil {
		return err
	}
	return b.col.Load(ctx)
}

func (b *Board) acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.busy {
		return false
	}
	b.busy = true
	return true
}

func (b *Board) release() {
	b.mu.Lock()
	b.busy = false
	b.mu.Unlock()
}

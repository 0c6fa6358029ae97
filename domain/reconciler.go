package domain

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Direction names the way a task is moved relative to its neighbours.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Reorderer turns a requested move into a new dense order, applies it to the
// collection optimistically and persists it through the store.
type Reorderer struct {
	store  TaskStore
	logger *log.Logger
}

// NewReorderer creates a reorderer writing through the given store.
func NewReorderer(store TaskStore, logger *log.Logger) Reorderer {
	if store == nil {
		panic("domain.NewReorderer: store is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return Reorderer{store: store, logger: logger}
}

// Move shifts the task one position up or down, renumbers every display
// order to its 1-based slice position and persists the full list in one
// reorder call. Moves past either end are no-ops and report moved=false.
//
// The collection is updated before the store call returns so readers see the
// move immediately. When persistence fails the collection is reloaded from
// the store to restore the authoritative order, and the failure is returned
// so the user learns the move did not persist.
func (r Reorderer) Move(ctx context.Context, col *Collection, id int64, dir Direction) (moved bool, err error) {
	metrics := newMoveMetrics(r.logger, id, dir)
	defer func() { metrics.Log(moved, err) }()

	if dir != DirectionUp && dir != DirectionDown {
		err = fmt.Errorf("unknown direction %q", dir)
		return false, err
	}

	tasks := col.Tasks()
	idx := -1
	for i := range tasks {
		if tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, ErrTaskNotFound
	}
	if (dir == DirectionUp && idx == 0) || (dir == DirectionDown && idx == len(tasks)-1) {
		return false, nil
	}

	target := idx - 1
	if dir == DirectionDown {
		target = idx + 1
	}
	moving := tasks[idx]
	tasks = append(tasks[:idx], tasks[idx+1:]...)
	tasks = append(tasks[:target], append([]Task{moving}, tasks[target:]...)...)
	Renumber(tasks)

	col.Replace(tasks)
	metrics.SetApplied(true)

	if persistErr := r.store.Reorder(ctx, tasks); persistErr != nil {
		metrics.SetErrorStage("persist")
		if loadErr := col.Load(ctx); loadErr != nil {
			metrics.SetErrorStage("reload")
			r.logger.WithFields(log.Fields{"task": id, "error": loadErr}).
				Error("reload after failed reorder did not complete; cached order may be stale")
		}
		err = persistErr
		return false, err
	}
	return true, nil
}

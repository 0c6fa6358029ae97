package domain

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// NameGuard validates name uniqueness against a fresh snapshot of the remote
// store. The local cache may be stale, so the check always re-fetches.
//
// The check is inherently racy against concurrent writers; the remote store
// rejecting conflicting writes is the authoritative enforcement, this guard
// is the fast path that avoids a doomed write.
type NameGuard struct {
	store  TaskStore
	logger *log.Logger
}

// NewNameGuard creates a guard checking against the given store. A nil logger
// falls back to the logrus standard logger.
func NewNameGuard(store TaskStore, logger *log.Logger) NameGuard {
	if store == nil {
		panic("domain.NewNameGuard: store is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return NameGuard{store: store, logger: logger}
}

// CheckName returns ErrDuplicateName when a task other than excludeID already
// carries the candidate name (case-sensitive exact match). excludeID is the
// id of the task being edited so it is not considered a duplicate of itself;
// pass 0 for a create. Fetch failures are returned unchanged.
func (g NameGuard) CheckName(ctx context.Context, name string, excludeID int64) error {
	tasks, err := g.store.FetchAll(ctx)
	if err != nil {
		return err
	}
	for i := range tasks {
		if tasks[i].Name == name && tasks[i].ID != excludeID {
			g.logger.WithFields(log.Fields{"name": name, "existing": tasks[i].ID}).Debug("duplicate task name")
			return ErrDuplicateName
		}
	}
	return nil
}

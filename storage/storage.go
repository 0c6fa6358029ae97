package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/wenderenzo/listaTarefas/domain"
)

const (
	seqKey   = "tasks:seq"
	itemsKey = "tasks:items"
	namesKey = "tasks:names"
)

// Storage persists tasks in Redis. Task records live in a hash keyed by id;
// a second hash indexes names so conflicting writes are rejected atomically,
// making uniqueness a capability of the store rather than of its callers.
type Storage struct {
	rdb *redis.Client
}

// New creates a Storage over the provided Redis client.
func New(client *redis.Client) *Storage {
	if client == nil {
		panic("storage.New: redis client is nil")
	}
	return &Storage{rdb: client}
}

// ListTasks returns every task in no particular order.
func (s *Storage) ListTasks(ctx context.Context) ([]domain.Task, error) {
	items, err := s.rdb.HGetAll(ctx, itemsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]domain.Task, 0, len(items))
	for id, raw := range items {
		var t domain.Task
		if err := sonic.UnmarshalString(raw, &t); err != nil {
			return nil, fmt.Errorf("decode task %s: %w", id, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// GetTask returns the task with the given id.
func (s *Storage) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	raw, err := s.rdb.HGet(ctx, itemsKey, formatID(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	var t domain.Task
	if err := sonic.UnmarshalString(raw, &t); err != nil {
		return nil, fmt.Errorf("decode task %d: %w", id, err)
	}
	return &t, nil
}

// CreateTask claims the name, assigns the next id and appends the task one
// past the highest existing display order. Deletes leave gaps rather than
// renumbering, so the task count cannot be used as the next order without
// colliding with a survivor.
func (s *Storage) CreateTask(ctx context.Context, fields domain.TaskFields) (*domain.Task, error) {
	id, err := s.rdb.Incr(ctx, seqKey).Result()
	if err != nil {
		return nil, fmt.Errorf("next task id: %w", err)
	}

	claimed, err := s.rdb.HSetNX(ctx, namesKey, fields.Name, formatID(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("claim name: %w", err)
	}
	if !claimed {
		return nil, domain.ErrDuplicateName
	}

	existing, err := s.ListTasks(ctx)
	if err != nil {
		s.releaseName(ctx, fields.Name)
		return nil, err
	}
	maxOrder := 0
	for i := range existing {
		if existing[i].DisplayOrder > maxOrder {
			maxOrder = existing[i].DisplayOrder
		}
	}

	t := domain.Task{
		ID:           id,
		Name:         fields.Name,
		Cost:         fields.Cost,
		DueDate:      fields.DueDate,
		DisplayOrder: maxOrder + 1,
	}
	if err := s.writeTask(ctx, t); err != nil {
		s.releaseName(ctx, fields.Name)
		return nil, err
	}
	return &t, nil
}

// UpdateTask rewrites name, cost and due date; the display order is kept.
// Renaming onto another task's name is rejected, renaming a task to its own
// current name is not a conflict.
func (s *Storage) UpdateTask(ctx context.Context, id int64, fields domain.TaskFields) (*domain.Task, error) {
	existing, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	renamed := fields.Name != existing.Name
	if renamed {
		claimed, err := s.rdb.HSetNX(ctx, namesKey, fields.Name, formatID(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("claim name: %w", err)
		}
		if !claimed {
			return nil, domain.ErrDuplicateName
		}
	}

	t := *existing
	t.Name = fields.Name
	t.Cost = fields.Cost
	t.DueDate = fields.DueDate
	if err := s.writeTask(ctx, t); err != nil {
		if renamed {
			s.releaseName(ctx, fields.Name)
		}
		return nil, err
	}
	if renamed {
		s.releaseName(ctx, existing.Name)
	}
	return &t, nil
}

// DeleteTask removes the task and frees its name for reuse.
func (s *Storage) DeleteTask(ctx context.Context, id int64) error {
	existing, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, itemsKey, formatID(id))
		pipe.HDel(ctx, namesKey, existing.Name)
		return nil
	}); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

// ReorderTasks persists the display order carried by each submitted task.
// Only the order is taken from the payload; name, cost and due date stay as
// stored.
func (s *Storage) ReorderTasks(ctx context.Context, tasks []domain.Task) error {
	updated := make([]domain.Task, 0, len(tasks))
	for _, upd := range tasks {
		existing, err := s.GetTask(ctx, upd.ID)
		if err != nil {
			return err
		}
		existing.DisplayOrder = upd.DisplayOrder
		updated = append(updated, *existing)
	}

	if _, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, t := range updated {
			raw, err := sonic.MarshalString(t)
			if err != nil {
				return err
			}
			pipe.HSet(ctx, itemsKey, formatID(t.ID), raw)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("reorder tasks: %w", err)
	}
	return nil
}

func (s *Storage) writeTask(ctx context.Context, t domain.Task) error {
	raw, err := sonic.MarshalString(t)
	if err != nil {
		return fmt.Errorf("encode task %d: %w", t.ID, err)
	}
	if err := s.rdb.HSet(ctx, itemsKey, formatID(t.ID), raw).Err(); err != nil {
		return fmt.Errorf("write task %d: %w", t.ID, err)
	}
	return nil
}

func (s *Storage) releaseName(ctx context.Context, name string) {
	_ = s.rdb.HDel(ctx, namesKey, name).Err()
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

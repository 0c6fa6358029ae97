package domain

import (
	"context"
	"errors"
)

type fakeStore struct {
	tasks  []Task
	nextID int64

	fetchErr   error
	createErr  error
	updateErr  error
	deleteErr  error
	reorderErr error

	fetchCalls   int
	createCalls  int
	updateCalls  int
	reorderCalls int
	lastReorder  []Task
}

func (f *fakeStore) FetchAll(ctx context.Context) ([]Task, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

func (f *fakeStore) FetchByID(ctx context.Context, id int64) (*Task, error) {
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			t := f.tasks[i]
			return &t, nil
		}
	}
	return nil, ErrTaskNotFound
}

func (f *fakeStore) Create(ctx context.Context, fields TaskFields) (*Task, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	t := Task{
		ID:           f.nextID,
		Name:         fields.Name,
		Cost:         fields.Cost,
		DueDate:      fields.DueDate,
		DisplayOrder: len(f.tasks) + 1,
	}
	f.tasks = append(f.tasks, t)
	return &t, nil
}

func (f *fakeStore) Update(ctx context.Context, id int64, fields TaskFields) (*Task, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Name = fields.Name
			f.tasks[i].Cost = fields.Cost
			f.tasks[i].DueDate = fields.DueDate
			t := f.tasks[i]
			return &t, nil
		}
	}
	return nil, ErrTaskNotFound
}

func (f *fakeStore) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return ErrTaskNotFound
}

func (f *fakeStore) Reorder(ctx context.Context, tasks []Task) error {
	f.reorderCalls++
	f.lastReorder = make([]Task, len(tasks))
	copy(f.lastReorder, tasks)
	if f.reorderErr != nil {
		return f.reorderErr
	}
	for _, upd := range tasks {
		for i := range f.tasks {
			if f.tasks[i].ID == upd.ID {
				f.tasks[i].DisplayOrder = upd.DisplayOrder
			}
		}
	}
	return nil
}

var errBoom = errors.New("boom")

package domain

import (
	"sort"
	"time"
)

// DueDateLayout is the calendar-date format tasks carry on the wire.
const DueDateLayout = "2006-01-02"

// Task represents a single list item: a named expense with a due date and a
// display position. IDs are assigned by the remote store and never change.
type Task struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Cost         float64 `json:"cost"`
	DueDate      string  `json:"dueDate"`
	DisplayOrder int     `json:"displayOrder"`
}

// TaskFields is the validated payload of a create or update submission.
type TaskFields struct {
	Name    string  `json:"name"`
	Cost    float64 `json:"cost"`
	DueDate string  `json:"dueDate"`
}

// Validate reports per-field problems with the payload. A nil return means
// the fields are acceptable for a create or update.
func (f TaskFields) Validate() error {
	fields := map[string]string{}
	if f.Name == "" {
		fields["name"] = "name must not be empty"
	}
	if f.Cost < 0 {
		fields["cost"] = "cost must not be negative"
	}
	if f.DueDate == "" {
		fields["dueDate"] = "due date must not be empty"
	} else if _, err := time.Parse(DueDateLayout, f.DueDate); err != nil {
		fields["dueDate"] = "due date must be a valid YYYY-MM-DD date"
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// SortByDisplayOrder orders tasks ascending by display position in place.
func SortByDisplayOrder(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].DisplayOrder < tasks[j].DisplayOrder
	})
}

// Renumber rewrites every display order to the task's 1-based slice position,
// restoring the dense 1..N sequence even when the input had gaps.
func Renumber(tasks []Task) {
	for i := range tasks {
		tasks[i].DisplayOrder = i + 1
	}
}

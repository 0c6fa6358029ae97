package domain

import (
	"errors"
	"strconv"
	"time"
)

// SessionState names the phase of a create-or-edit interaction.
type SessionState int

const (
	SessionClosed SessionState = iota
	SessionOpenForCreate
	SessionOpenForEdit
	SessionSubmitting
)

func (s SessionState) String() string {
	switch s {
	case SessionClosed:
		return "closed"
	case SessionOpenForCreate:
		return "open-for-create"
	case SessionOpenForEdit:
		return "open-for-edit"
	case SessionSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// ErrBadTransition is returned when a session operation is requested in a
// state that does not support it, such as opening a second session while one
// is already open.
var ErrBadTransition = errors.New("session transition not allowed")

// Session governs one create-or-edit interaction at a time. Field values are
// held as entered; they are parsed and validated on submit, and retained
// across failures so the user never has to re-enter them.
type Session struct {
	state  SessionState
	prev   SessionState
	taskID int64
	err    error

	Name    string
	Cost    string
	DueDate string
}

// NewSession creates a closed session.
func NewSession() *Session {
	return &Session{state: SessionClosed}
}

// State returns the current phase.
func (s *Session) State() SessionState { return s.state }

// TaskID returns the id of the task being edited; zero during a create.
func (s *Session) TaskID() int64 { return s.taskID }

// Editing reports whether the open session targets an existing task.
func (s *Session) Editing() bool { return s.taskID != 0 }

// Err returns the failure attached to the session after a rejected submit,
// or nil.
func (s *Session) Err() error { return s.err }

// OpenCreate starts a create interaction with empty fields. Only a closed
// session can be opened.
func (s *Session) OpenCreate() error {
	if s.state != SessionClosed {
		return ErrBadTransition
	}
	s.reset()
	s.state = SessionOpenForCreate
	return nil
}

// OpenEdit starts an edit interaction pre-populated from the given task.
func (s *Session) OpenEdit(t Task) error {
	if s.state != SessionClosed {
		return ErrBadTransition
	}
	s.reset()
	s.state = SessionOpenForEdit
	s.taskID = t.ID
	s.Name = t.Name
	s.Cost = strconv.FormatFloat(t.Cost, 'f', -1, 64)
	s.DueDate = t.DueDate
	return nil
}

// Cancel discards the interaction and its field values. No side effects.
func (s *Session) Cancel() error {
	if s.state != SessionOpenForCreate && s.state != SessionOpenForEdit {
		return ErrBadTransition
	}
	s.reset()
	return nil
}

// Submit validates the entered fields and moves the session to Submitting.
// On a validation failure the session stays in its open state with the
// per-field errors attached, and no fields are returned.
func (s *Session) Submit() (TaskFields, error) {
	if s.state != SessionOpenForCreate && s.state != SessionOpenForEdit {
		return TaskFields{}, ErrBadTransition
	}
	fields, err := s.parseFields()
	if err != nil {
		s.err = err
		return TaskFields{}, err
	}
	s.prev = s.state
	s.state = SessionSubmitting
	s.err = nil
	return fields, nil
}

// Resolve records the outcome of the submitted write. A nil error closes the
// session; any other outcome returns it to the open state it was submitted
// from, with the error attached and the field values retained.
func (s *Session) Resolve(err error) {
	if s.state != SessionSubmitting {
		return
	}
	if err == nil {
		s.reset()
		return
	}
	s.state = s.prev
	s.err = err
}

func (s *Session) reset() {
	s.state = SessionClosed
	s.prev = SessionClosed
	s.taskID = 0
	s.err = nil
	s.Name = ""
	s.Cost = ""
	s.DueDate = ""
}

func (s *Session) parseFields() (TaskFields, error) {
	fields := map[string]string{}
	out := TaskFields{Name: s.Name, DueDate: s.DueDate}

	if s.Name == "" {
		fields["name"] = "name must not be empty"
	}
	switch cost, err := strconv.ParseFloat(s.Cost, 64); {
	case s.Cost == "":
		fields["cost"] = "cost must be provided"
	case err != nil:
		fields["cost"] = "cost must be a number"
	case cost < 0:
		fields["cost"] = "cost must not be negative"
	default:
		out.Cost = cost
	}
	if s.DueDate == "" {
		fields["dueDate"] = "due date must be provided"
	} else if _, err := time.Parse(DueDateLayout, s.DueDate); err != nil {
		fields["dueDate"] = "due date must be a valid YYYY-MM-DD date"
	}

	if len(fields) > 0 {
		return TaskFields{}, &ValidationError{Fields: fields}
	}
	return out, nil
}

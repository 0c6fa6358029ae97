package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrDuplicateName indicates that another task already carries the submitted
// name. It is produced both by the NameGuard pre-check and by the remote
// store rejecting a conflicting write.
var ErrDuplicateName = errors.New("task name already exists")

// ErrTaskNotFound indicates that the addressed task does not exist in the
// remote store.
var ErrTaskNotFound = errors.New("task not found")

// ErrMutationInFlight is returned when a mutation is requested while another
// one is still awaiting its remote confirmation.
var ErrMutationInFlight = errors.New("another mutation is in flight")

// ValidationError reports per-field problems with a submission. The session
// stays open when it is returned so the user can correct the named fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid fields: %s", strings.Join(names, ", "))
}

// Field returns the message recorded for the named field, or "" when the
// field passed validation.
func (e *ValidationError) Field(name string) string {
	return e.Fields[name]
}

// TransportError wraps a failed remote store call. The operation name tells
// the caller which call did not resolve; the wrapped error keeps the cause.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

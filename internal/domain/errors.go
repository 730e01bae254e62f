package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for record storage and session sources.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("record already exists")
	ErrSourceUnavailable = errors.New("session source unavailable")
)

// ValidationError is returned when a raw session record is missing a required
// field or a field has the wrong type. The record cannot become a Session.
type ValidationError struct {
	SessionID string
	Field     string
	Reason    string
}

func (e *ValidationError) Error() string {
	id := e.SessionID
	if id == "" {
		id = "<unknown>"
	}
	if e.Field == "" {
		return fmt.Sprintf("invalid session %s: %s", id, e.Reason)
	}
	return fmt.Sprintf("invalid session %s: field %q: %s", id, e.Field, e.Reason)
}

package domain

import (
	"context"
	"errors"
	"fmt"
)

// ApplyOp names a persistence operation applied for one session.
type ApplyOp string

const (
	OpInsert ApplyOp = "insert"
	OpUpdate ApplyOp = "update"
	OpRemove ApplyOp = "remove"
)

// ApplyFailure records a session whose write did not succeed.
type ApplyFailure struct {
	SessionID string  `json:"session_id"`
	Op        ApplyOp `json:"op"`
	Err       error   `json:"-"`
	Message   string  `json:"error"`
}

// ApplyReport summarizes the writes issued for a SessionListDiff.
type ApplyReport struct {
	Inserted  int            `json:"inserted"`
	Updated   int            `json:"updated"`
	Removed   int            `json:"removed"`
	Conflicts int            `json:"conflicts"`
	Missing   int            `json:"missing"`
	Skipped   int            `json:"skipped"`
	Failures  []ApplyFailure `json:"failures,omitempty"`
}

// Err joins every failure into one error, or returns nil when all writes succeeded.
func (r *ApplyReport) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("%s %s: %w", f.Op, f.SessionID, f.Err))
	}
	return errors.Join(errs...)
}

// SyncReport summarizes one reconciliation run. Retained counts stored sessions
// kept because their fetched record was invalid.
type SyncReport struct {
	Fetched   int                `json:"fetched"`
	Rejected  int                `json:"rejected"`
	Invalid   []*ValidationError `json:"-"`
	Added     int                `json:"added"`
	Updated   int                `json:"updated"`
	Removed   int                `json:"removed"`
	Unchanged int                `json:"unchanged"`
	Retained  int                `json:"retained"`
	DryRun    bool               `json:"dry_run"`
	Diff      *SessionListDiff   `json:"diff,omitempty"`
	Apply     *ApplyReport       `json:"apply,omitempty"`
}

// SyncService reconciles the stored snapshot with the session source.
type SyncService interface {
	Run(ctx context.Context) (*SyncReport, error)
}

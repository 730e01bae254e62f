package domain

import (
	"context"
	"encoding/json"
)

// SessionSource supplies the current full list of raw session records.
// An empty successful result is valid but suspicious and must not be applied.
type SessionSource interface {
	Fetch(ctx context.Context) ([]json.RawMessage, error)
}

package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"sessionwatch/internal/domain"
)

// RawValidator checks a raw record before it is decoded.
type RawValidator interface {
	RawSession(data []byte) error
}

// Normalizer turns raw portal records into canonical sessions.
type Normalizer struct {
	validator RawValidator
	logger    *slog.Logger
}

// NewNormalizer returns a Normalizer. A nil validator skips schema validation and
// relies on decoding alone.
func NewNormalizer(validator RawValidator, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{validator: validator, logger: logger}
}

// Normalize validates and decodes one raw record and derives its classification.
// Invalid records yield a *domain.ValidationError.
func (n *Normalizer) Normalize(raw json.RawMessage) (*domain.Session, error) {
	if n.validator != nil {
		if err := n.validator.RawSession(raw); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				return nil, verr
			}
			return nil, &domain.ValidationError{Reason: err.Error()}
		}
	}

	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &domain.ValidationError{SessionID: rawSessionID(raw), Reason: fmt.Sprintf("decode: %v", err)}
	}
	if s.SessionUid == "" {
		return nil, &domain.ValidationError{Field: "sessionUid", Reason: "required"}
	}
	return domain.NewSession(s, n.logger), nil
}

// rawSessionID returns the sessionUid of a record that may not decode as a Session.
func rawSessionID(raw json.RawMessage) string {
	var doc struct {
		SessionUid string `json:"sessionUid"`
	}
	_ = json.Unmarshal(raw, &doc)
	return doc.SessionUid
}

// NormalizeAll normalizes every record, skipping and returning the invalid ones.
func (n *Normalizer) NormalizeAll(raws []json.RawMessage) ([]*domain.Session, []*domain.ValidationError) {
	sessions := make([]*domain.Session, 0, len(raws))
	var invalid []*domain.ValidationError
	for _, raw := range raws {
		s, err := n.Normalize(raw)
		if err != nil {
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				verr = &domain.ValidationError{Reason: err.Error()}
			}
			n.logger.Warn("dropping invalid session record", "session_id", verr.SessionID, "field", verr.Field, "error", verr.Reason)
			invalid = append(invalid, verr)
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, invalid
}

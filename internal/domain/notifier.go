package domain

import (
	"context"
	"time"
)

// ChangeKind identifies what happened to a session.
type ChangeKind string

const (
	SessionAdded   ChangeKind = "SessionAdded"
	SessionUpdated ChangeKind = "SessionUpdated"
	SessionRemoved ChangeKind = "SessionRemoved"
)

// ChangeEvent describes a single applied change to the stored snapshot.
// Session is set for Added and Removed; Old, New and Changes are set for Updated.
type ChangeEvent struct {
	ID           string      `json:"id"`
	Kind         ChangeKind  `json:"kind"`
	SessionID    string      `json:"session_id"`
	ThirdPartyID string      `json:"third_party_id"`
	OccurredAt   time.Time   `json:"occurred_at"`
	Session      *Session    `json:"session,omitempty"`
	Old          *Session    `json:"old,omitempty"`
	New          *Session    `json:"new,omitempty"`
	Changes      []FieldDiff `json:"changes,omitempty"`
}

// Notifier receives change events. Delivery and ordering are the notifier's concern.
type Notifier interface {
	Notify(ctx context.Context, event ChangeEvent) error
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sessionwatch/internal/diff"
	"sessionwatch/internal/domain"
)

// ChangeEmailData holds data for the session change email templates.
type ChangeEmailData struct {
	Kind         string
	SessionID    string
	ThirdPartyID string
	Title        string
	TrackName    string
	OccurredAt   string
	Changes      []ChangeLine
}

// ChangeLine describes one changed field of an updated session.
type ChangeLine struct {
	Field    string
	OldValue string
	NewValue string
	Added    []string
	Removed  []string
}

var templateByKind = map[domain.ChangeKind]string{
	domain.SessionAdded:   "session_added",
	domain.SessionUpdated: "session_updated",
	domain.SessionRemoved: "session_removed",
}

type emailNotifier struct {
	mailer     domain.Mailer
	renderer   domain.EmailTemplateRenderer
	recipients []string
	logger     *slog.Logger
}

// NewEmailNotifier returns a Notifier that emails every change event to recipients.
func NewEmailNotifier(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, recipients []string, logger *slog.Logger) domain.Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &emailNotifier{mailer: mailer, renderer: renderer, recipients: recipients, logger: logger}
}

func (n *emailNotifier) Notify(ctx context.Context, event domain.ChangeEvent) error {
	name, ok := templateByKind[event.Kind]
	if !ok {
		return fmt.Errorf("no email template for change kind %q", event.Kind)
	}
	subject, htmlBody, textBody, err := n.renderer.Render(name, NewChangeEmailData(event))
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", name, err)
	}
	var errs []error
	for _, to := range n.recipients {
		if err := n.mailer.Send(ctx, to, subject, htmlBody, textBody); err != nil {
			errs = append(errs, fmt.Errorf("failed to send %s email to %s: %w", name, to, err))
			continue
		}
		n.logger.Debug("change email sent", "to", to, "kind", event.Kind, "session_id", event.SessionID)
	}
	return errors.Join(errs...)
}

// NewChangeEmailData flattens a change event for the email templates.
func NewChangeEmailData(event domain.ChangeEvent) ChangeEmailData {
	data := ChangeEmailData{
		Kind:         string(event.Kind),
		SessionID:    event.SessionID,
		ThirdPartyID: event.ThirdPartyID,
		OccurredAt:   event.OccurredAt.UTC().Format("2006-01-02 15:04 MST"),
	}
	s := event.Session
	if s == nil {
		s = event.New
	}
	if s != nil {
		data.Title = s.Title
		data.TrackName = s.TrackName
	}
	for _, c := range event.Changes {
		line := ChangeLine{Field: c.Field}
		added, removed := diff.ListDelta(c.OldValue, c.NewValue)
		if added != nil || removed != nil {
			line.Added = formatValues(added)
			line.Removed = formatValues(removed)
		} else {
			line.OldValue = formatValue(c.OldValue)
			line.NewValue = formatValue(c.NewValue)
		}
		data.Changes = append(data.Changes, line)
	}
	return data
}

func formatValues(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, formatValue(v))
	}
	return out
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "(none)"
	case string:
		return x
	case domain.Tag:
		return strings.TrimSpace(x.TagName)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(b)
	}
}

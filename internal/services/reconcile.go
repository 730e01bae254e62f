package services

import (
	"sessionwatch/internal/diff"
	"sessionwatch/internal/domain"
)

// Reconcile compares the stored snapshot with a freshly fetched one, keyed by session id.
// Sessions only in stored are removed, sessions only in fetched are added, and sessions
// in both are updated when at least one field differs.
//
// Callers must not apply the result of an empty fetched snapshot: an empty source
// response is treated as a fetch failure, never as "remove everything".
func Reconcile(stored, fetched []*domain.Session) *domain.SessionListDiff {
	result := domain.NewSessionListDiff()

	storedByID := make(map[string]*domain.Session, len(stored))
	for _, s := range stored {
		storedByID[s.SessionUid] = s
	}
	fetchedIDs := make(map[string]struct{}, len(fetched))
	for _, s := range fetched {
		fetchedIDs[s.SessionUid] = struct{}{}
	}

	for id, s := range storedByID {
		if _, ok := fetchedIDs[id]; !ok {
			result.Removed[id] = s
		}
	}

	for _, s := range fetched {
		old, ok := storedByID[s.SessionUid]
		if !ok {
			result.Added[s.SessionUid] = s
			continue
		}
		if changes := DiffSessions(old, s); len(changes) > 0 {
			result.Updated[s.SessionUid] = &domain.SessionDiff{
				OldSession:    old,
				NewSession:    s,
				ChangedFields: changes,
			}
		} else {
			// A later duplicate of the same id replaces an earlier one.
			delete(result.Updated, s.SessionUid)
		}
	}
	return result
}

// DiffSessions returns one FieldDiff per top-level field whose value differs between
// a and b, in schema order. List fields are compared without regard to order.
func DiffSessions(a, b *domain.Session) []domain.FieldDiff {
	if sameFingerprint(a, b) {
		return nil
	}
	af, bf := a.Fields(), b.Fields()
	var changes []domain.FieldDiff
	for i := range af {
		if !diff.Equal(af[i].Value, bf[i].Value) {
			changes = append(changes, domain.FieldDiff{
				Field:    af[i].Name,
				OldValue: af[i].Value,
				NewValue: bf[i].Value,
			})
		}
	}
	return changes
}

func sameFingerprint(a, b *domain.Session) bool {
	fa, err := diff.Fingerprint(a)
	if err != nil {
		return false
	}
	fb, err := diff.Fingerprint(b)
	if err != nil {
		return false
	}
	return fa == fb
}

package domain

import (
	"log/slog"
	"strings"
)

// UnknownLevel is the level of a session that carries no level tag.
const UnknownLevel = -1

// Session represents a conference session as published by the attendee portal,
// after tag-derived classification.
type Session struct {
	SessionUid       string `json:"sessionUid"`
	ThirdPartyID     string `json:"thirdPartyID"`
	SessionType      string `json:"sessionType"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	TrackName        string `json:"trackName"`
	ScheduleTrackUid string `json:"scheduleTrackUid"`
	ScheduleUid      string `json:"scheduleUid"`

	Level           int      `json:"level"`
	Tags            []Tag    `json:"tags"`
	Topics          []string `json:"topics"`
	Industries      []string `json:"industries"`
	Roles           []string `json:"roles"`
	AreasOfInterest []string `json:"areas_of_interest"`
	Services        []string `json:"services"`

	VenueUid                           *string `json:"venueUid"`
	VenueName                          *string `json:"venueName"`
	StartDateTime                      *string `json:"startDateTime"`
	EndDateTime                        *string `json:"endDateTime"`
	SessionCap                         *string `json:"sessionCap"`
	FloorplanName                      *string `json:"floorplanName"`
	LocationName                       *string `json:"locationName"`
	LocationUid                        *string `json:"locationUid"`
	EmbargoDate                        *string `json:"embargoDate"`
	EmbargoManualEnabled               *int    `json:"embargoManualEnabled"`
	EmbargoOption                      *int    `json:"embargoOption"`
	InviteStatus                       *string `json:"inviteStatus"`
	ShowAddToAgendaButton              *int    `json:"showAddToAgendaButton"`
	HideOnAgenda                       *int    `json:"hideOnAgenda"`
	HideTime                           *int    `json:"hideTime"`
	TrackPersonalAgenda                *int    `json:"trackPersonalAgenda"`
	TrackHideOnAgenda                  *int    `json:"trackHideOnAgenda"`
	EnableWaitlist                     *int    `json:"enableWaitlist"`
	EnableInviteOnly                   *int    `json:"enableInviteOnly"`
	PersonalAgendaSessionAttendeeTypes *string `json:"PersonalAgendaSessionAttendeeTypes"`
	BlockedAttendeeTypes               *string `json:"blockedAttendeeTypes"`
	ContentStatusID                    *int    `json:"contentStatusID"`
	Speakers                           []any   `json:"speakers"`
	Sponsors                           []any   `json:"sponsors"`
}

// NewSession returns s with defaults applied and its classification derived from its tags.
// Tags with an unknown parent category are reported to logger, if non-nil.
func NewSession(s Session, logger *slog.Logger) *Session {
	if s.Tags == nil {
		s.Tags = []Tag{}
	}
	if s.Speakers == nil {
		s.Speakers = []any{}
	}
	if s.Sponsors == nil {
		s.Sponsors = []any{}
	}
	s.Classify(logger)
	return &s
}

// Classify recomputes Level and the classification lists from Tags.
// Tags whose parent category is not known are reported to logger, if non-nil.
func (s *Session) Classify(logger *slog.Logger) {
	s.Level = UnknownLevel
	s.Topics = []string{}
	s.Industries = []string{}
	s.Roles = []string{}
	s.AreasOfInterest = []string{}
	s.Services = []string{}

	for _, tag := range s.Tags {
		level, isLevel := LevelForTag(tag.ScheduleTagUid)
		if isLevel {
			s.Level = level
		}

		name := strings.TrimSpace(tag.TagName)
		switch CategoryOf(tag.ParentTagUid) {
		case CategoryTopic:
			s.Topics = appendUnique(s.Topics, name)
		case CategoryIndustry:
			s.Industries = appendUnique(s.Industries, name)
		case CategoryRole:
			s.Roles = appendUnique(s.Roles, name)
		case CategoryAreaOfInterest:
			s.AreasOfInterest = appendUnique(s.AreasOfInterest, name)
		case CategoryServices:
			s.Services = appendUnique(s.Services, name)
		case CategoryLevel:
		default:
			if logger != nil && !isLevel {
				logger.Warn("unknown parent tag category",
					"session_id", s.SessionUid,
					"parent_tag_name", tag.ParentTagName,
					"parent_tag_uid", tag.ParentTagUid,
				)
			}
		}
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// Field is a named top-level value of a Session.
type Field struct {
	Name  string
	Value any
}

// Fields returns every comparable top-level field of the session in schema order.
// Optional scalars are reported as nil when unset.
func (s *Session) Fields() []Field {
	return []Field{
		{"sessionType", s.SessionType},
		{"thirdPartyID", s.ThirdPartyID},
		{"trackName", s.TrackName},
		{"scheduleTrackUid", s.ScheduleTrackUid},
		{"description", s.Description},
		{"scheduleUid", s.ScheduleUid},
		{"sessionUid", s.SessionUid},
		{"title", s.Title},
		{"level", s.Level},
		{"tags", TagList(s.Tags)},
		{"topics", s.Topics},
		{"industries", s.Industries},
		{"roles", s.Roles},
		{"areas_of_interest", s.AreasOfInterest},
		{"services", s.Services},
		{"venueUid", optString(s.VenueUid)},
		{"startDateTime", optString(s.StartDateTime)},
		{"sessionCap", optString(s.SessionCap)},
		{"floorplanName", optString(s.FloorplanName)},
		{"embargoManualEnabled", optInt(s.EmbargoManualEnabled)},
		{"showAddToAgendaButton", optInt(s.ShowAddToAgendaButton)},
		{"locationName", optString(s.LocationName)},
		{"locationUid", optString(s.LocationUid)},
		{"venueName", optString(s.VenueName)},
		{"embargoDate", optString(s.EmbargoDate)},
		{"inviteStatus", optString(s.InviteStatus)},
		{"hideOnAgenda", optInt(s.HideOnAgenda)},
		{"speakers", s.Speakers},
		{"trackPersonalAgenda", optInt(s.TrackPersonalAgenda)},
		{"enableWaitlist", optInt(s.EnableWaitlist)},
		{"hideTime", optInt(s.HideTime)},
		{"enableInviteOnly", optInt(s.EnableInviteOnly)},
		{"embargoOption", optInt(s.EmbargoOption)},
		{"PersonalAgendaSessionAttendeeTypes", optString(s.PersonalAgendaSessionAttendeeTypes)},
		{"sponsors", s.Sponsors},
		{"blockedAttendeeTypes", optString(s.BlockedAttendeeTypes)},
		{"contentStatusID", optInt(s.ContentStatusID)},
		{"endDateTime", optString(s.EndDateTime)},
		{"trackHideOnAgenda", optInt(s.TrackHideOnAgenda)},
	}
}

func optString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func optInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// FieldDiff is a single top-level field whose value differs between two sessions.
type FieldDiff struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
}

// SessionDiff pairs two versions of the same session with their differing fields.
type SessionDiff struct {
	OldSession    *Session    `json:"old_session"`
	NewSession    *Session    `json:"new_session"`
	ChangedFields []FieldDiff `json:"changed_fields"`
}

// SessionListDiff is the result of reconciling a stored snapshot with a fetched one.
type SessionListDiff struct {
	Added   map[string]*Session     `json:"added_sessions"`
	Removed map[string]*Session     `json:"removed_sessions"`
	Updated map[string]*SessionDiff `json:"updated_sessions"`
}

// NewSessionListDiff returns an empty diff with initialized maps.
func NewSessionListDiff() *SessionListDiff {
	return &SessionListDiff{
		Added:   make(map[string]*Session),
		Removed: make(map[string]*Session),
		Updated: make(map[string]*SessionDiff),
	}
}

// Empty reports whether the diff carries no change.
func (d *SessionListDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Updated) == 0
}

package domain

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	topicUID    = "F2BB2A9C-8783-4072-A0A4-5621D1A481A6"
	roleUID     = "22A77ABD-348D-4E44-800F-846017E75A5D"
	levelParent = "2634F5B6-B8E0-4208-92C3-FAE426C930F7"
)

func TestNewSession_Classification(t *testing.T) {
	tests := []struct {
		name      string
		tags      []Tag
		wantLevel int
		assert    func(t *testing.T, s *Session)
	}{
		{
			name:      "no tags",
			tags:      nil,
			wantLevel: UnknownLevel,
			assert: func(t *testing.T, s *Session) {
				assert.Equal(t, []Tag{}, s.Tags)
				assert.Equal(t, []string{}, s.Topics)
				assert.Equal(t, []string{}, s.Services)
			},
		},
		{
			name: "duplicate topic is trimmed and deduped",
			tags: []Tag{
				{ScheduleTagUid: "t1", TagName: " AI/ML ", ParentTagName: "Topic", ParentTagUid: topicUID},
				{ScheduleTagUid: "t1", TagName: " AI/ML ", ParentTagName: "Topic", ParentTagUid: topicUID},
				{ScheduleTagUid: "t1", TagName: "AI/ML", ParentTagName: "Topic", ParentTagUid: topicUID},
			},
			wantLevel: UnknownLevel,
			assert: func(t *testing.T, s *Session) {
				assert.Equal(t, []string{"AI/ML"}, s.Topics)
				assert.Len(t, s.Tags, 3)
			},
		},
		{
			name: "dedup is case sensitive and keeps first-occurrence order",
			tags: []Tag{
				{TagName: "Developer/Engineer", ParentTagUid: roleUID},
				{TagName: "DevOps Engineer", ParentTagUid: roleUID},
				{TagName: "developer/engineer", ParentTagUid: roleUID},
				{TagName: "Developer/Engineer", ParentTagUid: roleUID},
			},
			wantLevel: UnknownLevel,
			assert: func(t *testing.T, s *Session) {
				assert.Equal(t, []string{"Developer/Engineer", "DevOps Engineer", "developer/engineer"}, s.Roles)
			},
		},
		{
			name: "level tag",
			tags: []Tag{
				{ScheduleTagUid: "2CABCC3D-F2BB-490C-9265-8CBB7660C579", TagName: "300 – Advanced", ParentTagUid: levelParent},
			},
			wantLevel: 300,
			assert: func(t *testing.T, s *Session) {
				assert.Empty(t, s.Topics)
			},
		},
		{
			name: "last level tag wins",
			tags: []Tag{
				{ScheduleTagUid: "6F2C43D3-196B-4957-82C5-9F46BAC3DE5E", ParentTagUid: levelParent},
				{ScheduleTagUid: "79C488FF-B9FC-471C-992C-DE6C35671BDE", ParentTagUid: levelParent},
			},
			wantLevel: 200,
		},
		{
			name: "every category",
			tags: []Tag{
				{TagName: "Serverless", ParentTagUid: categoryUID(CategoryTopic)},
				{TagName: "Financial Services", ParentTagUid: categoryUID(CategoryIndustry)},
				{TagName: "Architect", ParentTagUid: categoryUID(CategoryRole)},
				{TagName: "Migration", ParentTagUid: categoryUID(CategoryAreaOfInterest)},
				{TagName: "AWS Lambda", ParentTagUid: categoryUID(CategoryServices)},
			},
			wantLevel: UnknownLevel,
			assert: func(t *testing.T, s *Session) {
				assert.Equal(t, []string{"Serverless"}, s.Topics)
				assert.Equal(t, []string{"Financial Services"}, s.Industries)
				assert.Equal(t, []string{"Architect"}, s.Roles)
				assert.Equal(t, []string{"Migration"}, s.AreasOfInterest)
				assert.Equal(t, []string{"AWS Lambda"}, s.Services)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(Session{SessionUid: "s-1", Tags: tt.tags}, nil)
			assert.Equal(t, tt.wantLevel, s.Level)
			if tt.assert != nil {
				tt.assert(t, s)
			}
		})
	}
}

func TestClassify_UnknownCategoryIsReported(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := NewSession(Session{
		SessionUid: "s-1",
		Tags: []Tag{
			{TagName: "Mystery", ParentTagName: "Mystery Category", ParentTagUid: "00000000-0000-0000-0000-000000000000"},
			{ScheduleTagUid: "0F1F69D2-692C-4B25-AEDA-89A0919B8167", ParentTagName: "Level", ParentTagUid: levelParent},
		},
	}, logger)

	assert.Equal(t, 100, s.Level)
	assert.Contains(t, buf.String(), "unknown parent tag category")
	assert.Contains(t, buf.String(), "Mystery Category")
	assert.NotContains(t, buf.String(), "parent_tag_name=Level")
}

func TestClassify_LevelTagUnderUnexpectedParentIsNotReported(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := NewSession(Session{
		SessionUid: "s-2",
		Tags: []Tag{
			{ScheduleTagUid: levelTagUID(300), TagName: "300 - Advanced", ParentTagName: "Session Level", ParentTagUid: "11111111-1111-1111-1111-111111111111"},
		},
	}, logger)

	assert.Equal(t, 300, s.Level)
	assert.Empty(t, buf.String())
}

func TestClassify_ReplacesStaleDerivedFields(t *testing.T) {
	s := &Session{
		Level:  400,
		Topics: []string{"stale"},
		Tags:   []Tag{{TagName: "Fresh", ParentTagUid: topicUID}},
	}
	s.Classify(nil)
	assert.Equal(t, UnknownLevel, s.Level)
	assert.Equal(t, []string{"Fresh"}, s.Topics)
}

func TestSession_Fields(t *testing.T) {
	venue := "Venetian"
	hide := 0
	s := NewSession(Session{SessionUid: "s-1", Title: "Talk", VenueName: &venue, HideOnAgenda: &hide}, nil)

	fields := s.Fields()
	byName := make(map[string]any, len(fields))
	for _, f := range fields {
		_, dup := byName[f.Name]
		require.False(t, dup, "duplicate field %s", f.Name)
		byName[f.Name] = f.Value
	}

	assert.Equal(t, "sessionType", fields[0].Name)
	assert.Equal(t, "s-1", byName["sessionUid"])
	assert.Equal(t, "Talk", byName["title"])
	assert.Equal(t, UnknownLevel, byName["level"])
	assert.Equal(t, "Venetian", byName["venueName"])
	assert.Equal(t, 0, byName["hideOnAgenda"])
	assert.Nil(t, byName["venueUid"])
	assert.Nil(t, byName["contentStatusID"])
	assert.Equal(t, TagList{}, byName["tags"])
}

func TestTagLookups(t *testing.T) {
	assert.Equal(t, CategoryTopic, CategoryOf(topicUID))
	assert.Equal(t, TagCategory(""), CategoryOf("nope"))
	assert.Equal(t, topicUID, categoryUID(CategoryTopic))

	for _, level := range []int{100, 200, 300, 400} {
		uid := levelTagUID(level)
		require.NotEmpty(t, uid)
		got, ok := LevelForTag(uid)
		require.True(t, ok)
		assert.Equal(t, level, got)
	}
	_, ok := LevelForTag(topicUID)
	assert.False(t, ok)
	assert.Empty(t, levelTagUID(500))
}

func TestSessionListDiff_Empty(t *testing.T) {
	d := NewSessionListDiff()
	assert.True(t, d.Empty())
	d.Added["x"] = &Session{SessionUid: "x"}
	assert.False(t, d.Empty())
}

package domain

// Tag is a classification label attached to a session, scoped to a parent category.
type Tag struct {
	ScheduleTagUid string `json:"scheduleTagUid"`
	TagName        string `json:"tagName"`
	ParentTagName  string `json:"parentTagName"`
	ParentTagUid   string `json:"parentTagUid"`
}

// DiffFields exposes the tag as a record for structural comparison.
func (t Tag) DiffFields() map[string]any {
	return map[string]any{
		"scheduleTagUid": t.ScheduleTagUid,
		"tagName":        t.TagName,
		"parentTagName":  t.ParentTagName,
		"parentTagUid":   t.ParentTagUid,
	}
}

// TagList is a list of tags compared without regard to order.
type TagList []Tag

// DiffItems exposes the list elements for structural comparison.
func (l TagList) DiffItems() []any {
	items := make([]any, len(l))
	for i, t := range l {
		items[i] = t
	}
	return items
}

// TagCategory names a parent tag category used for classification.
type TagCategory string

const (
	CategoryAreaOfInterest TagCategory = "AREA_OF_INTEREST"
	CategoryTopic          TagCategory = "TOPIC"
	CategoryServices       TagCategory = "SERVICES"
	CategoryRole           TagCategory = "ROLE"
	CategoryIndustry       TagCategory = "INDUSTRY"
	CategoryLevel          TagCategory = "LEVEL"
)

// parentTagUIDs maps the portal's parent tag UIDs to their category.
var parentTagUIDs = map[string]TagCategory{
	"3428EB86-4D79-4EFE-9F33-E911FCC500A4": CategoryAreaOfInterest,
	"F2BB2A9C-8783-4072-A0A4-5621D1A481A6": CategoryTopic,
	"7A26869A-A0C9-48CC-9731-541C3AFA9DF4": CategoryServices,
	"22A77ABD-348D-4E44-800F-846017E75A5D": CategoryRole,
	"B78A961D-DC03-42C9-A32E-DA576734A89E": CategoryIndustry,
	"2634F5B6-B8E0-4208-92C3-FAE426C930F7": CategoryLevel,
}

// levelTagUIDs maps the schedule tag UID of each level tag to its numeric level.
var levelTagUIDs = map[string]int{
	"0F1F69D2-692C-4B25-AEDA-89A0919B8167": 100,
	"79C488FF-B9FC-471C-992C-DE6C35671BDE": 200,
	"2CABCC3D-F2BB-490C-9265-8CBB7660C579": 300,
	"6F2C43D3-196B-4957-82C5-9F46BAC3DE5E": 400,
}

// CategoryOf returns the category for a parent tag UID, or "" if it is not known.
func CategoryOf(parentTagUid string) TagCategory {
	return parentTagUIDs[parentTagUid]
}

// LevelForTag returns the level a schedule tag UID stands for.
func LevelForTag(scheduleTagUid string) (int, bool) {
	level, ok := levelTagUIDs[scheduleTagUid]
	return level, ok
}

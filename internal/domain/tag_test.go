package domain

// categoryUID returns the parent tag UID of a category.
func categoryUID(c TagCategory) string {
	for uid, cat := range parentTagUIDs {
		if cat == c {
			return uid
		}
	}
	return ""
}

// levelTagUID returns the schedule tag UID for a numeric level.
func levelTagUID(level int) string {
	for uid, l := range levelTagUIDs {
		if l == level {
			return uid
		}
	}
	return ""
}

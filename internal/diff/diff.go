// Package diff compares structured values the way session fields are compared:
// lists are multisets at every depth, records are compared key by key, and
// numbers are compared by value regardless of their Go type.
package diff

import (
	"encoding/json"
	"reflect"
)

// Lister is implemented by list types whose elements need structural comparison.
type Lister interface {
	DiffItems() []any
}

// Recorder is implemented by struct types compared field by field.
type Recorder interface {
	DiffFields() map[string]any
}

// Equal reports whether a and b hold the same value. List order is ignored at
// every depth; two records are equal iff they have the same keys with equal values.
func Equal(a, b any) bool {
	a, b = normalize(a), normalize(b)
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		return ok && equalUnordered(av, bv)
	case map[string]any:
		bv, ok := b.(map[string]any)
		return ok && equalRecord(av, bv)
	default:
		return reflect.DeepEqual(a, b)
	}
}

// ListDelta returns the elements of list b missing from list a (added) and the
// elements of a missing from b (removed), counting duplicates. It returns nil
// slices when either value is not a list.
func ListDelta(a, b any) (added, removed []any) {
	al, ok := normalize(a).([]any)
	if !ok {
		return nil, nil
	}
	bl, ok := normalize(b).([]any)
	if !ok {
		return nil, nil
	}
	matchedB := make([]bool, len(bl))
	for _, x := range al {
		j := indexOf(x, bl, matchedB)
		if j < 0 {
			removed = append(removed, x)
			continue
		}
		matchedB[j] = true
	}
	for j, y := range bl {
		if !matchedB[j] {
			added = append(added, y)
		}
	}
	return added, removed
}

func equalUnordered(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	matched := make([]bool, len(b))
	for _, x := range a {
		j := indexOf(x, b, matched)
		if j < 0 {
			return false
		}
		matched[j] = true
	}
	return true
}

// indexOf returns the first unmatched index of list equal to x, or -1.
func indexOf(x any, list []any, matched []bool) int {
	for j, y := range list {
		if !matched[j] && Equal(x, y) {
			return j
		}
	}
	return -1
}

func equalRecord(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string, bool, float64:
		return x
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *int:
		if x == nil {
			return nil
		}
		return float64(*x)
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return items
	case []any:
		return x
	case map[string]any:
		return x
	case Lister:
		return x.DiffItems()
	case Recorder:
		return x.DiffFields()
	default:
		return x
	}
}

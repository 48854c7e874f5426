package engine

import (
	"strings"
	"time"

	"curator-hq/curator/pkg/rules/types"
)

// compare applies a possibility to two normalized operands.
func compare(action types.Possibility, first, second any, now time.Time) bool {
	switch action {
	case types.Bigger:
		c, ok := order(first, second)
		return ok && c > 0
	case types.Smaller:
		c, ok := order(first, second)
		return ok && c < 0
	case types.Equals:
		return equals(first, second)
	case types.Contains:
		return contains(first, second)
	case types.Before:
		c, ok := order(first, second)
		return ok && c <= 0
	case types.After:
		c, ok := order(first, second)
		return ok && c >= 0
	case types.InLast:
		return between(first, second, now)
	case types.InNext:
		return between(first, now, second)
	default:
		return false
	}
}

// order compares two scalars of the same kind. It returns false when they
// cannot be ordered.
func order(a, b any) (int, bool) {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	default:
		return 0, false
	}
}

// between reports lo <= v <= hi for dates.
func between(v, lo, hi any) bool {
	t, ok := v.(time.Time)
	if !ok {
		return false
	}
	l, ok := lo.(time.Time)
	if !ok {
		return false
	}
	h, ok := hi.(time.Time)
	if !ok {
		return false
	}
	return !t.Before(l) && !t.After(h)
}

func equals(first, second any) bool {
	a, aList := elements(first)
	b, bList := elements(second)
	if !aList && !bList {
		return same(first, second)
	}
	return subset(a, b)
}

func contains(first, second any) bool {
	if s, ok := first.(string); ok {
		if sub, ok := second.(string); ok {
			return strings.Contains(s, sub)
		}
	}
	a, _ := elements(first)
	b, bList := elements(second)
	if !bList {
		return includes(a, second)
	}
	return len(b) > 0 && subset(b, a)
}

// elements returns the elements of a list operand, or a single-element list
// for a scalar. The flag reports whether v was a list.
func elements(v any) ([]any, bool) {
	switch l := v.(type) {
	case []string:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	case []float64:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	case []time.Time:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	default:
		return []any{v}, false
	}
}

// subset reports whether every element of a is present in b.
func subset(a, b []any) bool {
	for _, x := range a {
		if !includes(b, x) {
			return false
		}
	}
	return true
}

func includes(list []any, v any) bool {
	for _, x := range list {
		if same(x, v) {
			return true
		}
	}
	return false
}

func same(a, b any) bool {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	default:
		return false
	}
}

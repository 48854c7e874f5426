package engine

import (
	"testing"
	"time"

	"curator-hq/curator/pkg/rules/types"
)

// TestCompare tests every possibility against normalized operands
func TestCompare(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name   string
		action types.Possibility
		first  any
		second any
		want   bool
	}{
		{name: "bigger", action: types.Bigger, first: 5.0, second: 3.0, want: true},
		{name: "bigger is strict", action: types.Bigger, first: 3.0, second: 3.0, want: false},
		{name: "smaller", action: types.Smaller, first: 2.0, second: 3.0, want: true},
		{name: "smaller is strict", action: types.Smaller, first: 3.0, second: 3.0, want: false},
		{name: "bigger date", action: types.Bigger, first: now, second: now.Add(-day), want: true},
		{name: "number against date", action: types.Bigger, first: 5.0, second: now, want: false},
		{name: "bigger on list", action: types.Bigger, first: []float64{5}, second: 3.0, want: false},

		{name: "equals number", action: types.Equals, first: 3.0, second: 3.0, want: true},
		{name: "equals text", action: types.Equals, first: "Alice", second: "Alice", want: true},
		{name: "equals text is case sensitive", action: types.Equals, first: "alice", second: "Alice", want: false},
		{name: "equals date", action: types.Equals, first: now, second: now.In(time.FixedZone("X", 3600)), want: true},
		{name: "equals mixed kinds", action: types.Equals, first: "3", second: 3.0, want: false},
		{name: "equals list subset", action: types.Equals, first: []string{"a"}, second: []string{"a", "b"}, want: true},
		{name: "equals list superset", action: types.Equals, first: []string{"a", "b"}, second: []string{"a"}, want: false},
		{name: "equals same list", action: types.Equals, first: []string{"b", "a"}, second: []string{"a", "b"}, want: true},

		{name: "contains scalar", action: types.Contains, first: []string{"Drama", "Comedy"}, second: "Comedy", want: true},
		{name: "contains scalar missing", action: types.Contains, first: []string{"Drama"}, second: "Comedy", want: false},
		{name: "contains in empty list", action: types.Contains, first: []string{}, second: "Comedy", want: false},
		{name: "contains list subset", action: types.Contains, first: []string{"a", "b", "c"}, second: []string{"c", "a"}, want: true},
		{name: "contains list not subset", action: types.Contains, first: []string{"a"}, second: []string{"a", "z"}, want: false},
		{name: "contains empty second list", action: types.Contains, first: []string{"a"}, second: []string{}, want: false},
		{name: "contains both empty", action: types.Contains, first: []string{}, second: []string{}, want: false},
		{name: "contains numbers", action: types.Contains, first: []float64{1, 2}, second: 2.0, want: true},
		{name: "contains substring", action: types.Contains, first: "The Matrix", second: "Matrix", want: true},

		{name: "before", action: types.Before, first: now.Add(-day), second: now, want: true},
		{name: "before is inclusive", action: types.Before, first: now, second: now, want: true},
		{name: "before fails after", action: types.Before, first: now.Add(day), second: now, want: false},
		{name: "after", action: types.After, first: now.Add(day), second: now, want: true},
		{name: "after is inclusive", action: types.After, first: now, second: now, want: true},
		{name: "after fails before", action: types.After, first: now.Add(-day), second: now, want: false},

		{name: "in last", action: types.InLast, first: now.Add(-day), second: now.Add(-2 * day), want: true},
		{name: "in last too old", action: types.InLast, first: now.Add(-3 * day), second: now.Add(-2 * day), want: false},
		{name: "in last future", action: types.InLast, first: now.Add(day), second: now.Add(-2 * day), want: false},
		{name: "in next", action: types.InNext, first: now.Add(day), second: now.Add(2 * day), want: true},
		{name: "in next too far", action: types.InNext, first: now.Add(3 * day), second: now.Add(2 * day), want: false},
		{name: "in next past", action: types.InNext, first: now.Add(-day), second: now.Add(2 * day), want: false},
		{name: "in last on numbers", action: types.InLast, first: 1.0, second: 0.0, want: false},

		{name: "unknown possibility", action: types.Possibility(42), first: 1.0, second: 1.0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compare(tt.action, tt.first, tt.second, now)
			if got != tt.want {
				t.Errorf("compare(%v, %v, %v) = %v, want %v", tt.action, tt.first, tt.second, got, tt.want)
			}
		})
	}
}

// TestCompare_EmptySecondListNeverContained checks every first operand shape
func TestCompare_EmptySecondListNeverContained(t *testing.T) {
	firsts := []any{
		[]string{"a"},
		[]string{},
		[]float64{1},
		[]time.Time{time.Now()},
		"text",
		1.0,
	}
	empties := []any{[]string{}, []float64{}, []time.Time{}}
	for _, f := range firsts {
		for _, e := range empties {
			if compare(types.Contains, f, e, time.Now()) {
				t.Errorf("CONTAINS(%v, %v) = true, want false", f, e)
			}
		}
	}
}

package query

import (
	"strings"
	"time"

	"daylog/internal/model"
)

// Selection describes which events delete removes. All selects everything.
// Otherwise an event is selected when ANY supplied clause matches it: same
// date, description containing DescriptionContains, or exact Category. An
// empty string clause counts as not supplied.
type Selection struct {
	Date                *time.Time
	DescriptionContains string
	Category            string
	All                 bool
}

// IsZero reports whether s has no clause and would select nothing.
func (s Selection) IsZero() bool {
	return !s.All && s.Date == nil && s.DescriptionContains == "" && s.Category == ""
}

func (s Selection) Match(e model.Event) bool {
	if s.All {
		return true
	}
	if s.Date != nil && e.Date().Equal(model.DateOf(*s.Date)) {
		return true
	}
	if s.DescriptionContains != "" && strings.Contains(e.Description(), s.DescriptionContains) {
		return true
	}
	if s.Category != "" && e.Category() == s.Category {
		return true
	}
	return false
}

// Indexes returns the ascending positions of the selected events. Each
// position appears once even when several clauses match it.
func (s Selection) Indexes(events []model.Event) []int {
	var idx []int
	for i, e := range events {
		if s.Match(e) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Pick returns the events at the given positions, in that order.
func Pick(events []model.Event, idx []int) []model.Event {
	out := make([]model.Event, 0, len(idx))
	for _, i := range idx {
		out = append(out, events[i])
	}
	return out
}

// Remove returns the events whose positions are not in idx, keeping order.
// idx must be ascending, as returned by Indexes.
func Remove(events []model.Event, idx []int) []model.Event {
	out := make([]model.Event, 0, len(events)-len(idx))
	j := 0
	for i, e := range events {
		if j < len(idx) && idx[j] == i {
			j++
			continue
		}
		out = append(out, e)
	}
	return out
}

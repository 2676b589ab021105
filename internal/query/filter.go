// Package query selects events from an in-memory collection.
//
// Two predicate shapes exist on purpose. Criteria, used by list and export,
// combines every supplied option with AND. Selection, used by delete,
// combines its clauses with OR.
package query

import (
	"iter"
	"slices"
	"time"

	"daylog/internal/model"
)

// Criteria holds the optional list filters. A nil or empty field places no
// constraint on its axis.
type Criteria struct {
	SpecificDate *time.Time
	BeforeDate   *time.Time
	AfterDate    *time.Time

	Categories []string
	// Exclude inverts the Categories predicate. It has no effect when
	// Categories is empty.
	Exclude bool
}

// IsZero reports whether c constrains nothing.
func (c Criteria) IsZero() bool {
	return c.SpecificDate == nil && c.BeforeDate == nil && c.AfterDate == nil && len(c.Categories) == 0
}

// Match reports whether e satisfies every active predicate. Date bounds are
// exclusive: with both set only after < date < before passes.
func (c Criteria) Match(e model.Event) bool {
	d := e.Date()
	if c.SpecificDate != nil && !d.Equal(model.DateOf(*c.SpecificDate)) {
		return false
	}
	if c.BeforeDate != nil && !d.Before(model.DateOf(*c.BeforeDate)) {
		return false
	}
	if c.AfterDate != nil && !d.After(model.DateOf(*c.AfterDate)) {
		return false
	}
	if len(c.Categories) > 0 {
		if slices.Contains(c.Categories, e.Category()) == c.Exclude {
			return false
		}
	}
	return true
}

// Filter lazily yields the events matching c, in input order.
func Filter(events []model.Event, c Criteria) iter.Seq[model.Event] {
	return func(yield func(model.Event) bool) {
		for _, e := range events {
			if !c.Match(e) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

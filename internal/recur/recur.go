// Package recur expands a recurrence rule into concrete calendar dates.
//
// Two rule syntaxes are accepted:
//
//   - RFC 5545 RRULE values, e.g. "FREQ=WEEKLY;BYDAY=MO,WE;COUNT=6"
//     (an optional "RRULE:" prefix is allowed)
//   - cron expressions and descriptors, e.g. "0 0 1 * *", "@weekly"
//
// Expansion always starts on the start date, is bounded by an inclusive
// end date, and is capped at a maximum number of occurrences.
package recur

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/teambition/rrule-go"

	appLog "daylog/internal/log"
	"daylog/internal/model"
)

const defaultMaxOccurrences = 1000

// Options bounds an expansion.
type Options struct {
	// Start is the first calendar day considered; it anchors RRULE DTSTART.
	Start time.Time
	// Until is the last calendar day that may be produced (inclusive).
	Until time.Time
	// MaxOccurrences caps the result; zero means defaultMaxOccurrences.
	MaxOccurrences int
}

// Result lists the produced dates and whether the cap cut the list short.
type Result struct {
	Dates     []time.Time
	Truncated bool
}

// Expand parses rule and returns the calendar days it produces between
// opts.Start and opts.Until. Dates are normalized with model.DateOf and
// never repeat.
func Expand(rule string, opts Options) (Result, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return Result{}, errors.New("recurrence rule is empty")
	}

	start := model.DateOf(opts.Start)
	until := model.DateOf(opts.Until)
	if until.Before(start) {
		return Result{}, fmt.Errorf("recurrence end %s is before start %s",
			model.FormatDate(until), model.FormatDate(start))
	}
	limit := opts.MaxOccurrences
	if limit <= 0 {
		limit = defaultMaxOccurrences
	}

	var (
		res Result
		err error
	)
	if IsRRule(rule) {
		res, err = expandRRule(rule, start, until, limit)
	} else {
		res, err = expandCron(rule, start, until, limit)
	}
	if err != nil {
		return Result{}, err
	}

	if res.Truncated {
		appLog.Warn("recurrence truncated at occurrence cap", "rule", rule, "cap", limit)
	}
	return res, nil
}

// IsRRule reports whether rule uses RRULE syntax rather than cron.
func IsRRule(rule string) bool {
	upper := strings.ToUpper(strings.TrimSpace(rule))
	return strings.HasPrefix(upper, "RRULE:") || strings.Contains(upper, "FREQ=")
}

func expandRRule(rule string, start, until time.Time, limit int) (Result, error) {
	r, err := rrule.StrToRRule(strings.ToUpper(rule))
	if err != nil {
		return Result{}, fmt.Errorf("invalid RRULE %q: %w", rule, err)
	}

	// Ensure Dtstart is the first requested day.
	r.DTStart(start)

	// Time-of-day parts (BYHOUR etc.) collapse onto their calendar day.
	end := until.Add(24 * time.Hour)
	var c collector
	next := r.Iterator()
	for {
		t, ok := next()
		if !ok || !t.Before(end) {
			break
		}
		if !c.add(t, limit) {
			break
		}
	}
	return c.res, nil
}

func expandCron(rule string, start, until time.Time, limit int) (Result, error) {
	sched, err := cron.ParseStandard(rule)
	if err != nil {
		return Result{}, fmt.Errorf("invalid cron expression %q: %w", rule, err)
	}

	// Next is strictly after its argument, so step back one second to let a
	// firing at midnight of the start day count. After each hit, skip to the
	// last second of that day.
	end := until.Add(24 * time.Hour)
	var c collector
	for t := sched.Next(start.Add(-time.Second)); !t.IsZero() && t.Before(end); {
		if !c.add(t, limit) {
			break
		}
		t = sched.Next(model.DateOf(t).Add(24*time.Hour - time.Second))
	}
	return c.res, nil
}

// collector gathers distinct calendar days up to a cap.
type collector struct {
	res  Result
	last time.Time
}

// add records t's calendar day and reports whether more may follow.
// Input must be chronological.
func (c *collector) add(t time.Time, limit int) bool {
	d := model.DateOf(t)
	if len(c.res.Dates) > 0 && d.Equal(c.last) {
		return true
	}
	if len(c.res.Dates) == limit {
		c.res.Truncated = true
		return false
	}
	c.last = d
	c.res.Dates = append(c.res.Dates, d)
	return true
}

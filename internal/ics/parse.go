package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "daylog/internal/log"
	"daylog/internal/model"
	"daylog/internal/recur"
)

// ImportOptions controls how VEVENTs become log events.
type ImportOptions struct {
	// Location converts timed DTSTART values to a calendar day. If nil,
	// time.Local is used. All-day values keep their calendar day.
	Location *time.Location

	// HorizonDays bounds recurrence expansion, counted from each
	// recurring event's own DTSTART.
	HorizonDays int

	// MaxOccurrences caps the expansion of a single recurring VEVENT.
	MaxOccurrences int

	// Category, when set, replaces the CATEGORIES of every imported event.
	Category string
}

// parsedEvent is the subset of a VEVENT that maps onto a log entry.
type parsedEvent struct {
	UID         string
	Summary     string
	Description string
	Category    string

	Start  time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID day, if present
}

// Parse decodes an iCalendar payload into events, one per non-recurring
// VEVENT and one per occurrence of a recurring one. Broken VEVENTs are
// logged and skipped; the rest of the calendar is still imported.
func Parse(body []byte, opts ImportOptions) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	parsed := make([]parsedEvent, 0)
	for _, comp := range cal.Events() {
		pe, perr := parseVEvent(comp, opts.Location)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "err", perr)
			continue
		}
		parsed = append(parsed, pe)
	}

	// RECURRENCE-ID overrides replace the base occurrence on that day.
	overridden := make(map[string]map[time.Time]bool)
	for _, pe := range parsed {
		if pe.Recurrence == nil {
			continue
		}
		if overridden[pe.UID] == nil {
			overridden[pe.UID] = make(map[time.Time]bool)
		}
		overridden[pe.UID][*pe.Recurrence] = true
	}

	events := make([]model.Event, 0, len(parsed))
	for _, pe := range parsed {
		dates, err := occurrenceDates(pe, overridden[pe.UID], opts)
		if err != nil {
			appLog.Warn("ics recurrence skipped", "uid", pe.UID, "rrule", pe.RawRRule, "err", err)
			continue
		}

		text := pe.Summary
		if text == "" {
			text = pe.Description
		}
		category := pe.Category
		if opts.Category != "" {
			category = opts.Category
		}

		for _, d := range dates {
			e, err := model.New(d, text, category)
			if err != nil {
				appLog.Warn("ics vevent skipped", "uid", pe.UID, "err", err)
				break
			}
			events = append(events, e)
		}
	}

	appLog.Info("ics parse completed", "vevents", len(parsed), "events", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (parsedEvent, error) {
	var out parsedEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyCategories); p != nil {
		out.Category = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	// VALUE=DATE or no 'T' in the value -> all-day
	if vs, ok := dtStart.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		out.AllDay = true
	}
	if !strings.Contains(dtStart.Value, "T") {
		out.AllDay = true
	}

	var (
		start time.Time
		err   error
	)
	if out.AllDay {
		start, err = ve.GetAllDayStartAt()
	} else {
		start, err = ve.GetStartAt()
		start = start.In(loc)
	}
	if err != nil {
		return out, err
	}
	out.Start = model.DateOf(start)

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	// EXDATE may appear multiple times, each with a comma-separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if d, err := icsDay(part, p.ICalParameters, loc); err == nil {
				out.ExDates = append(out.ExDates, d)
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRecurrenceId); p != nil {
		if d, err := icsDay(p.Value, p.ICalParameters, loc); err == nil {
			out.Recurrence = &d
		}
	}

	return out, nil
}

// occurrenceDates returns the calendar days pe contributes: its start day
// for single events, or the expanded recurrence minus EXDATEs and
// overridden days.
func occurrenceDates(pe parsedEvent, overridden map[time.Time]bool, opts ImportOptions) ([]time.Time, error) {
	if pe.RawRRule == "" {
		return []time.Time{pe.Start}, nil
	}

	horizon := opts.HorizonDays
	if horizon <= 0 {
		horizon = 365
	}
	res, err := recur.Expand(pe.RawRRule, recur.Options{
		Start:          pe.Start,
		Until:          pe.Start.AddDate(0, 0, horizon),
		MaxOccurrences: opts.MaxOccurrences,
	})
	if err != nil {
		return nil, err
	}

	excluded := make(map[time.Time]bool, len(pe.ExDates))
	for _, ex := range pe.ExDates {
		excluded[ex] = true
	}

	out := make([]time.Time, 0, len(res.Dates))
	for _, d := range res.Dates {
		if excluded[d] || overridden[d] {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// icsDay resolves an EXDATE or RECURRENCE-ID value to a calendar day.
// Date-only values keep their day; UTC values are converted to loc;
// floating values are read in their TZID, or loc without one.
func icsDay(v string, params map[string][]string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// Date-only (all-day), e.g., 20250101
	if !strings.Contains(v, "T") {
		t, err := time.Parse("20060102", v)
		if err != nil {
			return time.Time{}, err
		}
		return model.DateOf(t), nil
	}
	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		if err != nil {
			return time.Time{}, err
		}
		return model.DateOf(t.In(loc)), nil
	}
	// Local date-time, e.g., 20250101T090000
	in := loc
	if tz := params["TZID"]; len(tz) == 1 {
		if l, err := time.LoadLocation(tz[0]); err == nil {
			in = l
		}
	}
	t, err := time.ParseInLocation("20060102T150405", v, in)
	if err != nil {
		return time.Time{}, err
	}
	return model.DateOf(t.In(loc)), nil
}

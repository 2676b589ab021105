package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDescriptionLen is the upper bound on description length, in characters.
const MaxDescriptionLen = 500

// DateLayout is the calendar-date format used for rendering, parsing CLI
// arguments and the backing file.
const DateLayout = "2006-01-02"

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports an invalid field value on an Event.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Event is one dated, categorized log entry.
//
// The description is checked whenever it is assigned, so an Event obtained
// from New or ParseLine always carries a valid one.
type Event struct {
	date        time.Time
	description string
	category    string
}

// New constructs an Event. It fails with a *ValidationError when the
// description is empty or longer than MaxDescriptionLen characters.
func New(date time.Time, description, category string) (Event, error) {
	var e Event
	if err := e.SetDescription(description); err != nil {
		return Event{}, err
	}
	e.SetDate(date)
	e.SetCategory(category)
	return e, nil
}

func (e Event) Date() time.Time     { return e.date }
func (e Event) Description() string { return e.description }
func (e Event) Category() string    { return e.category }

// SetDate stores the calendar day of t; the time of day is dropped.
func (e *Event) SetDate(t time.Time) {
	e.date = DateOf(t)
}

func (e *Event) SetCategory(c string) {
	e.category = c
}

func (e *Event) SetDescription(d string) error {
	if d == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if n := utf8.RuneCountInString(d); n > MaxDescriptionLen {
		return &ValidationError{
			Field:  "description",
			Reason: fmt.Sprintf("too long (%d characters, max %d)", n, MaxDescriptionLen),
		}
	}
	e.description = d
	return nil
}

// String renders "{date}: {description} ({category})".
func (e Event) String() string {
	return FormatDate(e.date) + ": " + e.description + " (" + e.category + ")"
}

// Equal reports whether both events carry the same date, description and
// category.
func (e Event) Equal(o Event) bool {
	return e.date.Equal(o.date) && e.description == o.description && e.category == o.category
}

// ParseLine is the inverse of String. The category is read from the last
// " (" to the closing ")" so it cannot itself contain " (".
func ParseLine(line string) (Event, error) {
	line = strings.TrimRight(line, "\r\n")

	dateStr, rest, ok := strings.Cut(line, ": ")
	if !ok {
		return Event{}, fmt.Errorf("parse line %q: missing date separator", line)
	}
	date, err := ParseDate(dateStr)
	if err != nil {
		return Event{}, fmt.Errorf("parse line %q: %w", line, err)
	}

	if !strings.HasSuffix(rest, ")") {
		return Event{}, fmt.Errorf("parse line %q: missing category suffix", line)
	}
	i := strings.LastIndex(rest, " (")
	if i < 0 {
		return Event{}, fmt.Errorf("parse line %q: missing category suffix", line)
	}

	return New(date, rest[:i], rest[i+2:len(rest)-1])
}

package store

import (
	"errors"
	"fmt"
	"strings"

	"daylog/internal/model"
)

// Column names of the backing file, in the order they are written.
const (
	colDate        = "date"
	colDescription = "description"
	colCategory    = "category"
)

var header = []string{colDate, colDescription, colCategory}

// schema maps each known column to its position in a record. A position of
// -1 means the column is absent from the file.
type schema struct {
	date        int
	description int
	category    int
	width       int // number of fields in the header record
}

// parseHeader resolves column positions from a header record. Names are
// compared case-insensitively after trimming; unknown columns are ignored.
func parseHeader(rec []string) (schema, error) {
	s := schema{date: -1, description: -1, category: -1, width: len(rec)}
	for i, name := range rec {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		switch name {
		case colDate:
			s.date = i
		case colDescription:
			s.description = i
		case colCategory:
			s.category = i
		}
	}

	var missing []string
	if s.date < 0 {
		missing = append(missing, colDate)
	}
	if s.description < 0 {
		missing = append(missing, colDescription)
	}
	if len(missing) > 0 {
		return s, fmt.Errorf("header is missing column(s) %s", strings.Join(missing, ", "))
	}
	return s, nil
}

// decode builds an Event from one data record. On failure it returns the
// offending column name along with the error.
func (s schema) decode(rec []string) (model.Event, string, error) {
	if s.date >= len(rec) || s.description >= len(rec) {
		return model.Event{}, "", errors.New("record is shorter than the header")
	}

	date, err := model.ParseDate(rec[s.date])
	if err != nil {
		return model.Event{}, colDate, err
	}

	var category string
	if s.category >= 0 && s.category < len(rec) {
		category = rec[s.category]
	}

	e, err := model.New(date, rec[s.description], category)
	if err != nil {
		return model.Event{}, colDescription, err
	}
	return e, "", nil
}

// encode returns the record for e in the order this package writes headers.
func encode(e model.Event) []string {
	return []string{model.FormatDate(e.Date()), e.Description(), e.Category()}
}

// encodeFor lays e out in the column order of an existing header. Unknown
// columns are left empty. A category cannot be stored in a file without
// that column.
func (s schema) encodeFor(e model.Event) ([]string, error) {
	if e.Category() != "" && s.category < 0 {
		return nil, errors.New("header has no category column")
	}
	rec := make([]string, s.width)
	rec[s.date] = model.FormatDate(e.Date())
	rec[s.description] = e.Description()
	if s.category >= 0 {
		rec[s.category] = e.Category()
	}
	return rec, nil
}

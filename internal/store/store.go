// Package store persists events in a single CSV backing file.
//
// The file holds a header record followed by one record per event. Load
// reads the whole file, AppendOne/Append add records at the end without
// rereading it, and RewriteAll replaces it through a temp file + rename.
// There is no locking: concurrent invocations may race.
package store

import (
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	appLog "daylog/internal/log"
	"daylog/internal/model"
)

const filePerm = 0o644

// Store is bound to one backing file.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads every event in file order. A missing or empty file yields an
// empty slice. Any malformed record fails the whole load with *FormatError.
func (s *Store) Load() ([]model.Event, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Debug("backing file not found; starting empty", "path", s.path)
			return []model.Event{}, nil
		}
		return nil, &IOError{Op: "open", Path: s.path, Err: err}
	}
	defer f.Close()

	events, err := s.decodeAll(f)
	if err != nil {
		return nil, err
	}
	appLog.Debug("events loaded", "path", s.path, "count", len(events))
	return events, nil
}

func (s *Store) decodeAll(r io.Reader) ([]model.Event, error) {
	cr := csv.NewReader(r)
	// Every record must have as many fields as the header.
	cr.FieldsPerRecord = 0

	rec, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []model.Event{}, nil
	}
	if err != nil {
		return nil, s.formatError(0, err)
	}
	sc, err := parseHeader(rec)
	if err != nil {
		return nil, &FormatError{Path: s.path, Row: 0, Line: 1, Err: err}
	}

	events := make([]model.Event, 0)
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, s.formatError(row, err)
		}

		line, _ := cr.FieldPos(0)
		e, field, err := sc.decode(rec)
		if err != nil {
			return nil, &FormatError{Path: s.path, Row: row, Line: line, Field: field, Err: err}
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *Store) formatError(row int, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &FormatError{Path: s.path, Row: row, Line: perr.Line, Err: perr.Err}
	}
	return &IOError{Op: "read", Path: s.path, Err: err}
}

// AppendOne writes e after all existing records.
func (s *Store) AppendOne(e model.Event) error {
	return s.Append(e)
}

// Append writes events after all existing records in a single open. When
// the file is missing or empty the header is written first.
func (s *Store) Append(events ...model.Event) error {
	if len(events) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: s.path, Err: err}
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, filePerm)
	if err != nil {
		return &IOError{Op: "open", Path: s.path, Err: err}
	}

	if err := s.appendTo(f, events); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: "close", Path: s.path, Err: err}
	}

	appLog.Debug("events appended", "path", s.path, "count", len(events))
	return nil
}

func (s *Store) appendTo(f *os.File, events []model.Event) error {
	info, err := f.Stat()
	if err != nil {
		return &IOError{Op: "stat", Path: s.path, Err: err}
	}

	records, writeHeader, err := s.recordsFor(f, info.Size(), events)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(header); err != nil {
			return &IOError{Op: "append", Path: s.path, Err: err}
		}
	} else if info.Size() > 0 {
		// Keep the new record off a last line that lacks its newline.
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, info.Size()-1); err != nil {
			return &IOError{Op: "read", Path: s.path, Err: err}
		}
		if last[0] != '\n' {
			if _, err := f.Write([]byte("\n")); err != nil {
				return &IOError{Op: "append", Path: s.path, Err: err}
			}
		}
	}

	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return &IOError{Op: "append", Path: s.path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &IOError{Op: "append", Path: s.path, Err: err}
	}
	if err := f.Sync(); err != nil {
		return &IOError{Op: "sync", Path: s.path, Err: err}
	}
	return nil
}

// recordsFor encodes events to match the header already in f, so appended
// rows load back under the file's own column order. Nothing is written
// when the header cannot hold an event. writeHeader is set when the file
// has no header record yet.
func (s *Store) recordsFor(f *os.File, size int64, events []model.Event) (records [][]string, writeHeader bool, err error) {
	records = make([][]string, 0, len(events))

	var rec []string
	if size > 0 {
		rec, err = csv.NewReader(io.NewSectionReader(f, 0, size)).Read()
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, false, s.formatError(0, err)
		}
	}
	if rec == nil {
		for _, e := range events {
			records = append(records, encode(e))
		}
		return records, true, nil
	}

	sc, err := parseHeader(rec)
	if err != nil {
		return nil, false, &FormatError{Path: s.path, Row: 0, Line: 1, Err: err}
	}
	for _, e := range events {
		r, err := sc.encodeFor(e)
		if err != nil {
			return nil, false, &FormatError{Path: s.path, Row: 0, Line: 1, Field: colCategory, Err: err}
		}
		records = append(records, r)
	}
	return records, false, nil
}

// RewriteAll replaces the file contents with the header followed by events
// in the given order. The new content is written to a temp file in the same
// directory and renamed over the target.
func (s *Store) RewriteAll(events []model.Event) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: s.path, Err: err}
	}

	perm := fs.FileMode(filePerm)
	if info, err := os.Stat(s.path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, ".daylog-*.tmp")
	if err != nil {
		return &IOError{Op: "rewrite", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return &IOError{Op: "rewrite", Path: s.path, Err: err}
	}
	for _, e := range events {
		if err := w.Write(encode(e)); err != nil {
			tmp.Close()
			return &IOError{Op: "rewrite", Path: s.path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return &IOError{Op: "rewrite", Path: s.path, Err: err}
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &IOError{Op: "sync", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &IOError{Op: "close", Path: s.path, Err: err}
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return &IOError{Op: "chmod", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &IOError{Op: "rename", Path: s.path, Err: err}
	}

	appLog.Debug("events rewritten", "path", s.path, "count", len(events))
	return nil
}

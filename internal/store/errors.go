package store

import "fmt"

// FormatError reports a backing-file record that could not be decoded.
// Row is the 1-based data row (the header is row 0); Line is the file line.
type FormatError struct {
	Path  string
	Row   int
	Line  int
	Field string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: row %d (line %d): %v", e.Path, e.Row, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: row %d (line %d): field %s: %v", e.Path, e.Row, e.Line, e.Field, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// IOError wraps a failure to read or write the backing file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

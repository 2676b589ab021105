package cli

// ArgumentError reports a malformed, missing or conflicting command-line
// argument. It is raised before anything is loaded or written.
type ArgumentError struct {
	Flag string // without dashes; empty for positional arguments
	Msg  string
}

func (e *ArgumentError) Error() string {
	if e.Flag == "" {
		return e.Msg
	}
	return "--" + e.Flag + ": " + e.Msg
}

package cli

import (
	"time"

	"daylog/internal/model"
)

// dateFlag is a pflag.Value holding an optional YYYY-MM-DD date.
type dateFlag struct {
	t *time.Time
}

func (d *dateFlag) String() string {
	if d.t == nil {
		return ""
	}
	return model.FormatDate(*d.t)
}

func (d *dateFlag) Set(s string) error {
	t, err := model.ParseDate(s)
	if err != nil {
		return err
	}
	d.t = &t
	return nil
}

func (d *dateFlag) Type() string { return "date" }

// Get returns the parsed date, or nil when the flag was not given.
func (d *dateFlag) Get() *time.Time { return d.t }

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"daylog/internal/model"
	"daylog/internal/recur"
)

type addFlags struct {
	date        dateFlag
	category    string
	description string
	repeat      string
	until       dateFlag
}

func (f *addFlags) validate() error {
	f.description = strings.TrimSpace(f.description)
	if f.description == "" {
		return &ArgumentError{Flag: "description", Msg: "must not be empty"}
	}
	f.category = strings.TrimSpace(f.category)
	f.repeat = strings.TrimSpace(f.repeat)
	if f.until.Get() != nil && f.repeat == "" {
		return &ArgumentError{Flag: "until", Msg: "requires --repeat"}
	}
	return nil
}

func (a *App) addCommand() *cobra.Command {
	var f addFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append an event, or one per occurrence of --repeat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.validate(); err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}

			date := a.today()
			if d := f.date.Get(); d != nil {
				date = *d
			}
			if f.repeat == "" {
				e, err := model.New(date, f.description, f.category)
				if err != nil {
					return err
				}
				if err := a.store.AppendOne(e); err != nil {
					return err
				}
				fmt.Fprintln(a.Out, "Event added successfully")
				return nil
			}
			return a.addRepeated(date, f)
		},
	}

	fs := cmd.Flags()
	fs.Var(&f.date, "date", "event `DATE` (default today)")
	fs.StringVar(&f.category, "category", "", "event category")
	fs.StringVar(&f.description, "description", "", "event description (required, at most 500 characters)")
	fs.StringVar(&f.repeat, "repeat", "", "recurrence `RULE`: an RRULE such as FREQ=WEEKLY;COUNT=4, or a cron expression such as @monthly")
	fs.Var(&f.until, "until", "last `DATE` a --repeat occurrence may fall on")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func (a *App) addRepeated(start time.Time, f addFlags) error {
	until := start.AddDate(0, 0, a.cfg.RepeatHorizonDays)
	if u := f.until.Get(); u != nil {
		until = *u
	}

	res, err := recur.Expand(f.repeat, recur.Options{
		Start:          start,
		Until:          until,
		MaxOccurrences: a.cfg.MaxOccurrences,
	})
	if err != nil {
		return &ArgumentError{Flag: "repeat", Msg: err.Error()}
	}
	if len(res.Dates) == 0 {
		return &ArgumentError{Flag: "repeat", Msg: "rule produces no dates before " + model.FormatDate(until)}
	}

	events := make([]model.Event, 0, len(res.Dates))
	for _, d := range res.Dates {
		e, err := model.New(d, f.description, f.category)
		if err != nil {
			return err
		}
		events = append(events, e)
	}
	if err := a.store.Append(events...); err != nil {
		return err
	}
	if res.Truncated {
		fmt.Fprintf(a.Err, "warning: stopped after %d occurrences\n", len(events))
	}
	fmt.Fprintf(a.Out, "Event added successfully (%d occurrences)\n", len(events))
	return nil
}

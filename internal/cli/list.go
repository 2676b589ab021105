package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	appLog "daylog/internal/log"
	"daylog/internal/query"
)

// filterFlags are the list filters, shared by list and export.
type filterFlags struct {
	today      bool
	before     dateFlag
	after      dateFlag
	date       dateFlag
	categories []string
	exclude    bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVar(&f.today, "today", false, "only events dated today")
	fs.Var(&f.before, "before-date", "only events strictly before `DATE`")
	fs.Var(&f.after, "after-date", "only events strictly after `DATE`")
	fs.Var(&f.date, "date", "only events on `DATE`")
	fs.StringSliceVar(&f.categories, "categories", nil, "only events in these comma-separated categories")
	fs.BoolVar(&f.exclude, "exclude", false, "invert --categories: drop events in those categories")
	cmd.MarkFlagsMutuallyExclusive("today", "date")
}

func (f *filterFlags) criteria(today time.Time) query.Criteria {
	c := query.Criteria{
		SpecificDate: f.date.Get(),
		BeforeDate:   f.before.Get(),
		AfterDate:    f.after.Get(),
		Exclude:      f.exclude,
	}
	if f.today {
		c.SpecificDate = &today
	}
	for _, cat := range f.categories {
		if cat = strings.TrimSpace(cat); cat != "" {
			c.Categories = append(c.Categories, cat)
		}
	}
	return c
}

func (a *App) listCommand() *cobra.Command {
	var f filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print events matching all given filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			events, err := a.store.Load()
			if err != nil {
				return err
			}
			c := f.criteria(a.today())
			if c.IsZero() {
				appLog.Debug("no filters, listing every event", "count", len(events))
			}
			for e := range query.Filter(events, c) {
				fmt.Fprintln(a.Out, e.String())
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	appLog "daylog/internal/log"
	"daylog/internal/query"
)

type deleteFlags struct {
	date        dateFlag
	description string
	category    string
	all         bool
	dryRun      bool
}

func (f *deleteFlags) selection() query.Selection {
	return query.Selection{
		Date:                f.date.Get(),
		DescriptionContains: f.description,
		Category:            f.category,
		All:                 f.all,
	}
}

func (a *App) deleteCommand() *cobra.Command {
	var f deleteFlags
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove events matching ANY of the given options",
		Long: `Remove events from the log.

With --all every event is selected. Otherwise an event is selected when it
matches any one of --date, --description (substring) or --category (exact).
Note that this differs from list, where all filters must match.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := f.selection()
			if sel.IsZero() {
				fmt.Fprintln(a.Out, "No matching events")
				fmt.Fprintln(a.Err, "hint: pass --date, --description, --category or --all to select events")
				return nil
			}
			if err := a.open(); err != nil {
				return err
			}
			events, err := a.store.Load()
			if err != nil {
				return err
			}

			idx := sel.Indexes(events)
			if len(idx) == 0 {
				fmt.Fprintln(a.Out, "No matching events")
				return nil
			}

			if f.dryRun {
				fmt.Fprintln(a.Out, "Events to be deleted:")
				for _, e := range query.Pick(events, idx) {
					fmt.Fprintln(a.Out, e.String())
				}
				return nil
			}

			if err := a.store.RewriteAll(query.Remove(events, idx)); err != nil {
				return err
			}
			appLog.Info("events deleted", "count", len(idx), "remaining", len(events)-len(idx))
			fmt.Fprintf(a.Out, "Events deleted successfully (%d)\n", len(idx))
			return nil
		},
	}

	fs := cmd.Flags()
	fs.Var(&f.date, "date", "select events on `DATE`")
	fs.StringVar(&f.description, "description", "", "select events whose description contains `SUBSTR`")
	fs.StringVar(&f.category, "category", "", "select events in category `NAME`")
	fs.BoolVar(&f.all, "all", false, "select every event")
	fs.BoolVar(&f.dryRun, "dry-run", false, "print the selection without deleting")
	return cmd
}

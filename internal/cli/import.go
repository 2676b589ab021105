package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"daylog/internal/ics"
	appLog "daylog/internal/log"
	"daylog/internal/model"
)

func (a *App) importCommand() *cobra.Command {
	var (
		category string
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "import SOURCE",
		Short: "Append events from an .ics file, an iCal URL or a file of list output",
		Long: `Append events from SOURCE, which is one of:
  - an http:// or https:// iCal subscription URL
  - a local iCalendar (.ics) file
  - a text file with one "YYYY-MM-DD: description (category)" line per event,
    as printed by "days list"

Recurring calendar events are expanded up to import_horizon_days.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := strings.TrimSpace(args[0])
			if source == "" {
				return &ArgumentError{Msg: "SOURCE must not be empty"}
			}
			category = strings.TrimSpace(category)
			if err := a.open(); err != nil {
				return err
			}

			events, err := a.readSource(cmd.Context(), source, category)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintln(a.Out, "No events to import")
				return nil
			}

			if dryRun {
				fmt.Fprintln(a.Out, "Events to be imported:")
				for _, e := range events {
					fmt.Fprintln(a.Out, e.String())
				}
				return nil
			}

			if err := a.store.Append(events...); err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "Events imported successfully (%d)\n", len(events))
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&category, "category", "", "assign category `NAME` to every imported event")
	fs.BoolVar(&dryRun, "dry-run", false, "print the events without appending them")
	return cmd
}

func (a *App) readSource(ctx context.Context, source, category string) ([]model.Event, error) {
	opts := ics.ImportOptions{
		Location:       a.loc,
		HorizonDays:    a.cfg.ImportHorizonDays,
		MaxOccurrences: a.cfg.MaxOccurrences,
		Category:       category,
	}

	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		res, err := ics.NewFetcher(a.cfg.CacheDir).Fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		appLog.Debug("import fetched", "bytes", len(res.Body), "from_cache", res.FromCache)
		return ics.Parse(res.Body, opts)
	}

	body, err := os.ReadFile(source)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(source), ".ics") || bytes.HasPrefix(bytes.TrimSpace(body), []byte("BEGIN:VCALENDAR")) {
		return ics.Parse(body, opts)
	}
	return parseLines(source, body, category)
}

// parseLines reads list output back into events. Blank lines are skipped;
// any other unparsable line fails the whole import.
func parseLines(source string, body []byte, category string) ([]model.Event, error) {
	var events []model.Event
	sc := bufio.NewScanner(bytes.NewReader(body))
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, err := model.ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, n, err)
		}
		if category != "" {
			e.SetCategory(category)
		}
		events = append(events, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

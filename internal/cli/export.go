package cli

import (
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"daylog/internal/ics"
	appLog "daylog/internal/log"
	"daylog/internal/model"
	"daylog/internal/query"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonEvent is the JSON export shape of one event.
type jsonEvent struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (a *App) exportCommand() *cobra.Command {
	var (
		f      filterFlags
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write events matching the list filters as iCalendar or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "ics" && format != "json" {
				return &ArgumentError{Flag: "format", Msg: fmt.Sprintf("unknown format %q, want ics or json", format)}
			}
			if err := a.open(); err != nil {
				return err
			}
			events, err := a.store.Load()
			if err != nil {
				return err
			}
			matched := query.Filter(events, f.criteria(a.today()))

			if output == "" {
				return a.writeExport(a.Out, format, matched)
			}
			if err := a.exportFile(output, format, matched); err != nil {
				return err
			}
			appLog.Info("export written", "path", output, "format", format)
			return nil
		},
	}

	f.register(cmd)
	fs := cmd.Flags()
	fs.StringVar(&format, "format", "ics", "output format: ics or json")
	fs.StringVarP(&output, "output", "o", "", "write to `PATH` instead of stdout")
	return cmd
}

// exportFile writes next to output and renames into place, so a failed
// export never leaves a partial file at output.
func (a *App) exportFile(output, format string, events iter.Seq[model.Event]) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(output), ".daylog-export-*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = a.writeExport(tmp, format, events); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), output)
}

func (a *App) writeExport(w io.Writer, format string, events iter.Seq[model.Event]) error {
	if format == "ics" {
		return ics.Encode(w, events, ics.ExportOptions{
			ProductID: a.cfg.ICSProductID,
			Now:       a.Now(),
		})
	}

	out := make([]jsonEvent, 0)
	for e := range events {
		out = append(out, jsonEvent{
			Date:        model.FormatDate(e.Date()),
			Description: e.Description(),
			Category:    e.Category(),
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

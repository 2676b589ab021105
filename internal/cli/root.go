// Package cli wires the daylog commands onto cobra.
//
// Every command validates its flags first, then loads configuration and the
// backing file, and only then mutates anything.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"daylog/internal/config"
	appLog "daylog/internal/log"
	"daylog/internal/model"
	"daylog/internal/store"
)

// App carries the process-wide state shared by all commands.
type App struct {
	Out io.Writer
	Err io.Writer
	// Now is the clock used for --today and default dates.
	Now func() time.Time

	configPath string
	dataFile   string
	debug      bool

	cfg   *config.Config
	loc   *time.Location
	store *store.Store
}

// NewApp returns an App writing to out and errOut.
func NewApp(out, errOut io.Writer) *App {
	return &App{Out: out, Err: errOut, Now: time.Now}
}

// Run executes the command line args (without the program name).
func (a *App) Run(ctx context.Context, args []string) error {
	root := a.Command()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// Command builds the root command tree.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "daylog",
		Short: "Personal event log backed by a CSV file",
		Long: `daylog keeps a log of dated, categorized entries in a CSV file.

All event commands live under "days":
  daylog days list   [--today] [--before-date DATE] [--after-date DATE] [--date DATE] [--categories C1,C2] [--exclude]
  daylog days add    [--date DATE] [--category NAME] --description TEXT [--repeat RULE] [--until DATE]
  daylog days delete [--date DATE] [--description SUBSTR] [--category NAME] [--all] [--dry-run]
  daylog days export [list filters] [--format ics|json] [--output PATH]
  daylog days import SOURCE [--category NAME] [--dry-run]`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return &ArgumentError{Msg: `missing command, expected "days"`}
		},
	}
	root.SetOut(a.Out)
	root.SetErr(a.Err)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ArgumentError{Msg: err.Error()}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "path to config file (default "+config.DefaultPath()+")")
	pf.StringVar(&a.dataFile, "file", "", "backing CSV file (overrides data_file from config)")
	pf.BoolVar(&a.debug, "debug", false, "log at debug level")

	root.AddCommand(a.daysCommand())
	return root
}

func (a *App) daysCommand() *cobra.Command {
	days := &cobra.Command{
		Use:   "days",
		Short: "List, add, delete, export and import events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return &ArgumentError{Msg: "missing subcommand, expected one of list, add, delete, export, import"}
		},
	}
	days.AddCommand(
		a.listCommand(),
		a.addCommand(),
		a.deleteCommand(),
		a.exportCommand(),
		a.importCommand(),
	)
	return days
}

// open loads configuration and prepares the store. Commands call it after
// their own flags are validated.
func (a *App) open() error {
	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	appLog.SetOutput(a.Err)
	cfg, err := config.Load(path)
	if err != nil {
		// First run with an unwritable config location still yields defaults.
		if cfg == nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		appLog.Warn("config not saved; using defaults", "config", path, "err", err)
	}
	if a.debug {
		cfg.LogLevel = "debug"
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("config timezone %q: %w", cfg.Timezone, err)
	}

	dataFile := cfg.DataFile
	if a.dataFile != "" {
		dataFile = a.dataFile
	}

	a.cfg = cfg
	a.loc = loc
	a.store = store.New(dataFile)
	appLog.Debug("config loaded", "config", path, "data_file", a.store.Path(), "timezone", loc.String())
	return nil
}

// today is the current calendar day in the configured timezone.
func (a *App) today() time.Time {
	return model.Today(a.Now(), a.loc)
}

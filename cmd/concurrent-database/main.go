// Command concurrent-database runs the wound-wait scheduler against a
// directory of schedule files.
package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Varun-Date98/concurrent-database/internal/config"
	"github.com/Varun-Date98/concurrent-database/internal/dispatcher"
	"github.com/Varun-Date98/concurrent-database/internal/driver"
	"github.com/Varun-Date98/concurrent-database/internal/executor"
	"github.com/Varun-Date98/concurrent-database/internal/telemetry"
)

// version is set at release time via -ldflags; "dev" otherwise.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:     "concurrent-database",
		Short:   "Runs wound-wait transaction schedules against a lock table",
		Version: version,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(newRunCmd(&configPath))
	return root
}

func newRunCmd(configPath *string) *cobra.Command {
	var (
		dir   string
		debug bool
		quiet bool
	)

	run := &cobra.Command{
		Use:   "run",
		Short: "Process every schedule file in a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cmd.Flags().Changed("dir") {
				cfg.Schedule.Directory = dir
			}
			if cmd.Flags().Changed("debug") {
				cfg.Logging.Debug = debug
			}
			if cmd.Flags().Changed("quiet") {
				cfg.Logging.Quiet = quiet
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			return runSchedules(cfg)
		},
	}

	run.Flags().StringVar(&dir, "dir", "./schedules", "directory of schedule files to process")
	run.Flags().BoolVar(&debug, "debug", false, "emit debug-level lock/transaction table dumps")
	run.Flags().BoolVar(&quiet, "quiet", false, "only log wounds, aborts, and rejections")

	return run
}

func runSchedules(cfg *config.Config) error {
	logger := telemetry.New(telemetry.Options{
		Debug: cfg.Logging.Debug,
		Quiet: cfg.Logging.Quiet,
	})

	schedules, err := driver.LoadSchedules(cfg.Schedule.Directory, cfg.Schedule.HaltOnError)
	if err != nil {
		return fmt.Errorf("loading schedules: %w", err)
	}

	for _, sched := range schedules {
		runSchedule(sched, logger)
	}
	return nil
}

func runSchedule(sched driver.Schedule, logger *telemetry.Logger) {
	lockMgr := executor.NewLockManager()
	tm := executor.NewTransactionManager(lockMgr, logger)
	disp := dispatcher.NewDispatcher(tm)

	for _, item := range orderedItems(sched) {
		if item.err != nil {
			logger.Rejected("parse", 0, item.err)
			continue
		}
		// Dispatch's error is the same rejection the transaction
		// manager already reported through logger as an EventSink;
		// logging it again here would duplicate every entry.
		_ = disp.Dispatch(item.op)
		logger.DumpLockTable(lockMgr.Snapshot())
		logger.DumpTransactionTable(tm.Snapshot())
	}

	fmt.Println(disp.Stats().String())
	logger.EndSchedule(sched.Name)
}

// scheduleItem is either a parsed operation or a malformed line, tagged
// with its source line so the two streams can be replayed in the order
// they appeared in the file.
type scheduleItem struct {
	line int
	op   driver.Operation
	err  error
}

func orderedItems(sched driver.Schedule) []scheduleItem {
	items := make([]scheduleItem, 0, len(sched.Operations)+len(sched.Errors))
	for _, op := range sched.Operations {
		items = append(items, scheduleItem{line: op.Line, op: op})
	}
	for _, err := range sched.Errors {
		line := 0
		var parseErr *driver.ParseError
		if errors.As(err, &parseErr) {
			line = parseErr.Line
		}
		items = append(items, scheduleItem{line: line, err: err})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].line < items[j].line })
	return items
}

package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/pfrederiksen/kino-draws/internal/logger"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *options) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Import draws repeatedly on a cron schedule",
		Long: `Runs an import immediately and then on every tick of the schedule until
interrupted. Runs never overlap: a tick is skipped while the previous import is
still in progress. Failed runs are logged and do not stop the watcher.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, schedule)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", `Cron expression or descriptor, e.g. "*/5 * * * *" (default "@every 5m")`)
	return cmd
}

func runWatch(cmd *cobra.Command, opts *options, schedule string) error {
	cfg, err := opts.loadConfig(!opts.dryRun)
	if err != nil {
		return err
	}
	if schedule == "" {
		schedule = cfg.Watch.Schedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	format, _ := parseFormat(opts.format)

	log, err := opts.newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := opts.openStore(ctx, cfg, log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeStore()

	im, mode, err := newImporter(cfg, store, log)
	if err != nil {
		return err
	}

	job := func() {
		result, err := im.Run(ctx, mode)
		if err != nil {
			if ctx.Err() == nil {
				log.Error("Import failed", logger.Fields{"mode": string(mode)}, err)
			}
			return
		}
		if err := WriteOutput(cmd.OutOrStdout(), &OutputResult{Result: result}, format, opts.verbose); err != nil {
			log.Error("Writing output failed", nil, err)
		}
	}

	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("scheduling import: %w", err)
	}

	log.Info("Watching for draws", logger.Fields{"schedule": schedule, "mode": string(mode)})
	job()

	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	log.Info("Watcher stopped", logger.Fields{"counters": im.Metrics().GetSnapshot()["counters"]})
	return nil
}

// cronLogger adapts the application logger to cron.Logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, kvFields(keysAndValues), err)
}

func kvFields(keysAndValues []interface{}) logger.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make(logger.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

var _ cron.Logger = cronLogger{}

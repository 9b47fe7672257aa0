package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pfrederiksen/kino-draws/internal/storage"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the kino_draws database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := opts.loadConfig(true)
				if err != nil {
					return err
				}
				log, err := opts.newLogger(cfg, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				return storage.MigrateUp(cfg.DB.URL, log)
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1 step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return fmt.Errorf("invalid steps: %s (must be a positive integer)", args[0])
					}
					steps = n
				}

				cfg, err := opts.loadConfig(true)
				if err != nil {
					return err
				}
				log, err := opts.newLogger(cfg, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				return storage.MigrateDown(cfg.DB.URL, steps, log)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := opts.loadConfig(true)
				if err != nil {
					return err
				}
				log, err := opts.newLogger(cfg, cmd.ErrOrStderr())
				if err != nil {
					return err
				}

				status, err := storage.GetMigrationStatus(cfg.DB.URL, log)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if format, _ := parseFormat(opts.format); format == FormatJSON {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(status)
				}
				switch {
				case !status.Applied:
					fmt.Fprintln(w, "No migrations applied.")
				case status.Dirty:
					fmt.Fprintf(w, "Version: %d (dirty)\n", status.Version)
				default:
					fmt.Fprintf(w, "Version: %d\n", status.Version)
				}
				return nil
			},
		},
	)

	return cmd
}

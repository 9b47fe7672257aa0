package cli

import (
	"fmt"

	"github.com/pfrederiksen/kino-draws/internal/storage"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show how many draws are stored and the latest one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(true)
			if err != nil {
				return err
			}
			format, _ := parseFormat(opts.format)

			log, err := opts.newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := storage.NewConnection(ctx, cfg.DB.URL, cfg.DB.MaxConns)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer db.Close()

			store := storage.NewPostgres(db, cfg.DB.Timeout, log)

			count, err := store.CountDraws(ctx)
			if err != nil {
				return err
			}
			latest, err := store.LatestDraw(ctx)
			if err != nil {
				return err
			}

			return WriteStatus(cmd.OutOrStdout(), &StatusResult{Count: count, Latest: latest}, format)
		},
	}
}

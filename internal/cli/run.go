package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Import draws once (the default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts)
		},
	}
}

// runImport performs one import and writes its result
func runImport(cmd *cobra.Command, opts *options) error {
	cfg, err := opts.loadConfig(!opts.dryRun)
	if err != nil {
		return err
	}
	format, _ := parseFormat(opts.format)

	log, err := opts.newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, closeStore, err := opts.openStore(ctx, cfg, log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeStore()

	im, mode, err := newImporter(cfg, store, log)
	if err != nil {
		return err
	}

	result, err := im.Run(ctx, mode)
	if err != nil {
		return err
	}

	out := &OutputResult{Result: result}
	if opts.verbose {
		out.Metrics = im.Metrics().GetSnapshot()
	}
	if err := WriteOutput(cmd.OutOrStdout(), out, format, opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if opts.exitCode && result.Inserted > 0 {
		return &exitCodeError{code: ExitNewDraws}
	}
	return nil
}

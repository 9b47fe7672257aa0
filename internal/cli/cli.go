package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pfrederiksen/kino-draws/internal/config"
	"github.com/pfrederiksen/kino-draws/internal/importer"
	"github.com/pfrederiksen/kino-draws/internal/logger"
	"github.com/pfrederiksen/kino-draws/internal/scraper"
	"github.com/pfrederiksen/kino-draws/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess  = 0
	ExitError    = 1
	ExitNewDraws = 2
)

// exitCodeError asks Execute to exit with code without printing an error
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// options holds flag values that are not configuration keys
type options struct {
	configPath string
	format     string
	verbose    bool
	dryRun     bool
	exitCode   bool
	migrate    bool

	loader *config.Loader
}

// configFlags maps configuration keys to the persistent flags overriding them
var configFlags = map[string]string{
	"source.url":     "url",
	"source.timeout": "timeout",
	"source.mode":    "mode",
	"db.url":         "database-url",
	"log.level":      "log-level",
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{loader: config.NewLoader()}

	cmd := &cobra.Command{
		Use:   "kino-draws",
		Short: "Import Keno draw results into Postgres",
		Long: `A CLI tool that imports Keno draw results from the public draw archive.
Each run fetches the archive page once, keeps the draws that are complete and
not in the future, and inserts the ones not stored yet. Re-running is safe.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for key, name := range configFlags {
				if err := opts.loader.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	flags.String("url", "", "Archive page URL (default "+scraper.ArchiveURL+")")
	flags.Duration("timeout", 0, "HTTP timeout for the page fetch (default 10s)")
	flags.String("mode", "", "Parse mode: latest, archive or text (default latest)")
	flags.String("database-url", "", "Postgres connection string (default $DATABASE_URL)")
	flags.String("log-level", "", "Log level: debug, info, warn or error (default info)")
	flags.StringVar(&opts.format, "format", "text", "Output format: text or json")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging and output")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print draws to stderr instead of storing them")
	flags.BoolVar(&opts.exitCode, "exit-code", false, "Exit with code 2 when new draws were inserted")
	flags.BoolVar(&opts.migrate, "migrate", false, "Apply database migrations before importing")

	cmd.AddCommand(
		newRunCmd(opts),
		newWatchCmd(opts),
		newMigrateCmd(opts),
		newStatusCmd(opts),
	)

	return cmd
}

// loadConfig reads configuration and validates the output format
func (o *options) loadConfig(requireDB bool) (config.Config, error) {
	cfg, err := o.loader.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(requireDB); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := parseFormat(o.format); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the logger writing to w. --verbose raises an info level to debug.
func (o *options) newLogger(cfg config.Config, w io.Writer) (*logger.Logger, error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if o.verbose && level == logger.LevelInfo {
		level = logger.LevelDebug
	}
	log := logger.New(level, w)
	logger.SetDefault(log)
	return log, nil
}

// openStore returns the store for this run and a function releasing it
func (o *options) openStore(ctx context.Context, cfg config.Config, log *logger.Logger, stderr io.Writer) (importer.Store, func(), error) {
	if o.dryRun {
		log.Info("Dry run, draws will not be stored", nil)
		return storage.NewDryRun(stderr), func() {}, nil
	}

	if o.migrate {
		if err := storage.MigrateUp(cfg.DB.URL, log); err != nil {
			return nil, nil, err
		}
	}

	db, err := storage.NewConnection(ctx, cfg.DB.URL, cfg.DB.MaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return storage.NewPostgres(db, cfg.DB.Timeout, log), db.Close, nil
}

// newImporter builds the scraper and importer from cfg
func newImporter(cfg config.Config, store importer.Store, log *logger.Logger) (*importer.Importer, importer.Mode, error) {
	mode, err := importer.ParseMode(cfg.Source.Mode)
	if err != nil {
		return nil, "", err
	}

	sc := scraper.New(
		scraper.WithURL(cfg.Source.URL),
		scraper.WithTimeout(cfg.Source.Timeout),
		scraper.WithTableSelector(cfg.Source.TableSelector),
		scraper.WithMarker(cfg.Source.Marker),
		scraper.WithLogger(log),
	)
	return importer.New(sc, store, log), mode, nil
}

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// Execute runs the CLI
func Execute() {
	err := NewRootCmd().Execute()
	if err == nil {
		os.Exit(ExitSuccess)
	}

	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitError)
}

// Package cli implements the command-line interface for kino-draws.
//
// The root command (and its run alias) performs one import: it fetches the
// Keno archive page, parses it in latest, archive or text mode, validates the
// draws and inserts new ones into Postgres. watch repeats the import on a cron
// schedule, migrate manages the database schema and status reports what is
// stored. Results are written to stdout as text or JSON; logs go to stderr.
package cli

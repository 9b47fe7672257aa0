// Package storage persists Keno draws.
//
// Draws are stored in the PostgreSQL table kino_draws, keyed by the derived draw
// ID. Inserts are insert-or-ignore (ON CONFLICT (id) DO NOTHING) and every run
// commits in a single transaction. The schema is created by embedded
// golang-migrate migrations. DryRun writes draws to an io.Writer instead.
package storage

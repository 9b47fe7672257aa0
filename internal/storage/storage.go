package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pfrederiksen/kino-draws/internal/draw"
)

// PersistenceError reports a database failure other than an ignored conflict.
// Nothing from the run is committed when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// DryRun writes draws as JSON lines instead of storing them
type DryRun struct {
	w io.Writer
}

// NewDryRun creates a dry-run store writing to w
func NewDryRun(w io.Writer) *DryRun {
	return &DryRun{w: w}
}

// SaveDraws writes each draw and reports all of them as inserted
func (d *DryRun) SaveDraws(ctx context.Context, draws []*draw.Draw) (int, error) {
	enc := json.NewEncoder(d.w)
	for _, dr := range draws {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := enc.Encode(dr); err != nil {
			return 0, fmt.Errorf("writing draw %d: %w", dr.ID, err)
		}
	}
	return len(draws), nil
}

// Package importer runs the draw import pipeline: fetch the archive page,
// parse it in the configured mode, validate the draws and store the valid ones.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/kino-draws/internal/draw"
	"github.com/pfrederiksen/kino-draws/internal/logger"
	"github.com/pfrederiksen/kino-draws/internal/scraper"
)

// Mode selects how the page is parsed
type Mode string

const (
	// ModeLatest imports the first data row of the archive table
	ModeLatest Mode = "latest"
	// ModeArchive imports every row of the archive table
	ModeArchive Mode = "archive"
	// ModeText imports the draw blocks found in the page text
	ModeText Mode = "text"
)

// ParseMode converts a mode name into a Mode
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeLatest, ModeArchive, ModeText:
		return m, nil
	default:
		return "", fmt.Errorf("invalid mode: %s (must be 'latest', 'archive' or 'text')", s)
	}
}

// Store persists validated draws and reports how many were new
type Store interface {
	SaveDraws(ctx context.Context, draws []*draw.Draw) (int, error)
}

// Rejection records a dropped row
type Rejection struct {
	DrawnAt string      `json:"drawn_at"`
	Reason  draw.Reason `json:"reason"`
	Message string      `json:"message"`
}

// Result summarizes one run
type Result struct {
	RunID      string        `json:"run_id"`
	Mode       Mode          `json:"mode"`
	SourceURL  string        `json:"source_url"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Found      int           `json:"found"`
	Draws      []*draw.Draw  `json:"draws"`
	Rejected   []Rejection   `json:"rejected,omitempty"`
	Inserted   int           `json:"inserted"`
	NoData     bool          `json:"no_data,omitempty"`
	NoDataNote string        `json:"no_data_reason,omitempty"`
}

// Importer wires the scraper, the validator and the store
type Importer struct {
	scraper *scraper.Scraper
	store   Store
	log     *logger.Logger
	metrics *logger.Metrics
	now     func() time.Time
}

// Option configures an Importer
type Option func(*Importer)

// WithClock sets the clock used for the future-draw check
func WithClock(now func() time.Time) Option {
	return func(im *Importer) {
		if now != nil {
			im.now = now
		}
	}
}

// WithMetrics sets the metrics tracker
func WithMetrics(m *logger.Metrics) Option {
	return func(im *Importer) {
		if m != nil {
			im.metrics = m
		}
	}
}

// New creates an Importer
func New(sc *scraper.Scraper, store Store, log *logger.Logger, opts ...Option) *Importer {
	if log == nil {
		log = logger.Default()
	}
	im := &Importer{
		scraper: sc,
		store:   store,
		log:     log,
		metrics: logger.NewMetrics(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Metrics returns the metrics tracker shared by all runs
func (im *Importer) Metrics() *logger.Metrics {
	return im.metrics
}

// Run performs one import. Transport and persistence failures are returned;
// missing page structure and invalid rows are logged and do not fail the run.
func (im *Importer) Run(ctx context.Context, mode Mode) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		Mode:      mode,
		SourceURL: im.scraper.URL(),
		StartedAt: im.now().UTC(),
		Draws:     make([]*draw.Draw, 0),
	}
	log := im.log.With(logger.Fields{"run_id": result.RunID, "mode": string(mode)})
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		im.metrics.RecordTiming("run", result.Duration)
	}()

	log.Info("Starting import", logger.Fields{"url": result.SourceURL})

	fetchStart := time.Now()
	body, err := im.scraper.Fetch(ctx)
	im.metrics.RecordTiming("fetch", time.Since(fetchStart))
	if err != nil {
		im.metrics.IncrCounter("fetch.errors")
		log.Error("Fetch failed", nil, err)
		return result, fmt.Errorf("fetching draws: %w", err)
	}

	candidates, err := im.parse(bytes.NewReader(body), mode, result, log)
	if err != nil {
		if scraper.IsStructure(err) {
			im.metrics.IncrCounter("runs.no_data")
			log.Warn("Page structure not found, no data this run", logger.Fields{"reason": err.Error()})
			result.NoData = true
			result.NoDataNote = err.Error()
			return result, nil
		}
		return result, fmt.Errorf("parsing draws: %w", err)
	}

	result.Draws = dedupe(candidates)
	im.metrics.AddCounter("draws.valid", int64(len(result.Draws)))
	im.metrics.AddCounter("draws.rejected", int64(len(result.Rejected)))

	if len(result.Draws) == 0 {
		log.Info("No valid draws", logger.Fields{"found": result.Found, "rejected": len(result.Rejected)})
		return result, nil
	}

	inserted, err := im.store.SaveDraws(ctx, result.Draws)
	if err != nil {
		log.Error("Saving draws failed", logger.Fields{"draws": len(result.Draws)}, err)
		return result, fmt.Errorf("saving draws: %w", err)
	}
	result.Inserted = inserted
	im.metrics.AddCounter("draws.inserted", int64(inserted))
	im.metrics.SetGauge("draws.latest_id", float64(result.Draws[0].ID))

	log.Info("Import complete", logger.Fields{
		"found":    result.Found,
		"valid":    len(result.Draws),
		"rejected": len(result.Rejected),
		"inserted": inserted,
	})
	return result, nil
}

// parse extracts candidate draws for mode, recording rejected rows on result
func (im *Importer) parse(r *bytes.Reader, mode Mode, result *Result, log *logger.Logger) ([]*draw.Draw, error) {
	switch mode {
	case ModeLatest:
		row, err := im.scraper.ParseLatest(r)
		if err != nil {
			return nil, err
		}
		return im.validateRows([]draw.Row{*row}, result, log), nil

	case ModeArchive:
		rows, err := im.scraper.ParseArchive(r)
		if err != nil {
			return nil, err
		}
		return im.validateRows(rows, result, log), nil

	case ModeText:
		parsed, err := im.scraper.ParseText(r)
		if err != nil {
			return nil, err
		}
		result.Found = len(parsed)
		im.metrics.AddCounter("draws.parsed", int64(len(parsed)))

		v := draw.NewValidator(draw.LayoutText, im.now)
		valid := make([]*draw.Draw, 0, len(parsed))
		for _, d := range parsed {
			if err := v.CheckDraw(d); err != nil {
				im.reject(result, log, d.DrawnAt.Format(draw.LayoutText), err)
				continue
			}
			valid = append(valid, d)
		}
		return valid, nil

	default:
		return nil, fmt.Errorf("unsupported mode: %s", mode)
	}
}

func (im *Importer) validateRows(rows []draw.Row, result *Result, log *logger.Logger) []*draw.Draw {
	result.Found = len(rows)
	im.metrics.AddCounter("draws.parsed", int64(len(rows)))

	v := draw.NewValidator(draw.LayoutTable, im.now)
	valid := make([]*draw.Draw, 0, len(rows))
	for _, row := range rows {
		d, err := v.Validate(row)
		if err != nil {
			im.reject(result, log, row.DrawnAt, err)
			continue
		}
		valid = append(valid, d)
	}
	return valid
}

func (im *Importer) reject(result *Result, log *logger.Logger, drawnAt string, err error) {
	rej := Rejection{DrawnAt: drawnAt, Message: err.Error()}
	var rowErr *draw.RowValidationError
	if errors.As(err, &rowErr) {
		rej.Reason = rowErr.Reason
	}
	result.Rejected = append(result.Rejected, rej)
	log.Warn("Dropping row", logger.Fields{
		"drawn_at": drawnAt,
		"reason":   string(rej.Reason),
		"detail":   rej.Message,
	})
}

// dedupe keeps the first draw for each ID, preserving order
func dedupe(draws []*draw.Draw) []*draw.Draw {
	seen := make(map[int64]bool, len(draws))
	unique := make([]*draw.Draw, 0, len(draws))
	for _, d := range draws {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		unique = append(unique, d)
	}
	return unique
}

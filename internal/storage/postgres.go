package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pfrederiksen/kino-draws/internal/draw"
	"github.com/pfrederiksen/kino-draws/internal/logger"
)

// DefaultTimeout bounds every database operation of a run
const DefaultTimeout = 30 * time.Second

const insertDrawSQL = `
	INSERT INTO kino_draws (id, drawn_at, nums)
	VALUES ($1, $2, $3)
	ON CONFLICT (id) DO NOTHING`

// DB represents a database connection pool
type DB struct {
	*pgxpool.Pool
}

// NewConnection creates a new database connection pool
func NewConnection(ctx context.Context, databaseURL string, maxConns int) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if maxConns > 0 {
		config.MaxConns = int32(maxConns)
	}
	config.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

// WithTransaction executes fn within a transaction.
// If fn returns an error the transaction is rolled back, otherwise it is committed.
func (db *DB) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Postgres stores draws in the kino_draws table
type Postgres struct {
	db      *DB
	timeout time.Duration
	log     *logger.Logger
}

// NewPostgres creates a draw store on db. A zero timeout means DefaultTimeout.
func NewPostgres(db *DB, timeout time.Duration, log *logger.Logger) *Postgres {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Default()
	}
	return &Postgres{db: db, timeout: timeout, log: log}
}

// SaveDraws inserts draws that are not stored yet, in one transaction, and
// returns how many rows were inserted. Draws whose ID already exists are ignored.
func (p *Postgres) SaveDraws(ctx context.Context, draws []*draw.Draw) (int, error) {
	if len(draws) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	inserted := 0
	err := p.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, d := range draws {
			nums, err := toInt32(d.Nums)
			if err != nil {
				return fmt.Errorf("draw %d: %w", d.ID, err)
			}
			b.Queue(insertDrawSQL, d.ID, d.DrawnAt, nums)
		}

		br := tx.SendBatch(ctx, b)
		for _, d := range draws {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return fmt.Errorf("inserting draw %d: %w", d.ID, err)
			}
			if tag.RowsAffected() == 0 {
				p.log.Debug("Draw already stored", logger.Fields{"draw_id": d.ID})
			}
			inserted += int(tag.RowsAffected())
		}
		return br.Close()
	})
	if err != nil {
		return 0, &PersistenceError{Op: "saving draws", Err: err}
	}

	return inserted, nil
}

// LatestDraw returns the most recent stored draw, or nil when the table is empty
func (p *Postgres) LatestDraw(ctx context.Context) (*draw.Draw, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	query := `
		SELECT id, drawn_at, nums
		FROM kino_draws
		ORDER BY drawn_at DESC
		LIMIT 1
	`

	var d draw.Draw
	var nums []int32
	err := p.db.QueryRow(ctx, query).Scan(&d.ID, &d.DrawnAt, &nums)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "getting latest draw", Err: err}
	}

	d.DrawnAt = d.DrawnAt.UTC()
	d.Nums = fromInt32(nums)
	return &d, nil
}

// GetDraw returns the draw with the given ID, or nil if it is not stored
func (p *Postgres) GetDraw(ctx context.Context, id int64) (*draw.Draw, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var d draw.Draw
	var nums []int32
	err := p.db.QueryRow(ctx, `SELECT id, drawn_at, nums FROM kino_draws WHERE id = $1`, id).
		Scan(&d.ID, &d.DrawnAt, &nums)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: fmt.Sprintf("getting draw %d", id), Err: err}
	}

	d.DrawnAt = d.DrawnAt.UTC()
	d.Nums = fromInt32(nums)
	return &d, nil
}

// CountDraws returns the number of stored draws
func (p *Postgres) CountDraws(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var n int64
	if err := p.db.QueryRow(ctx, `SELECT count(*) FROM kino_draws`).Scan(&n); err != nil {
		return 0, &PersistenceError{Op: "counting draws", Err: err}
	}
	return n, nil
}

// toInt32 converts numbers for the INTEGER[] column, refusing values that would wrap
func toInt32(nums []int) ([]int32, error) {
	out := make([]int32, len(nums))
	for i, n := range nums {
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("number %d out of range for integer column", n)
		}
		out[i] = int32(n)
	}
	return out, nil
}

func fromInt32(nums []int32) []int {
	out := make([]int, len(nums))
	for i, n := range nums {
		out[i] = int(n)
	}
	return out
}

package draw

import (
	"fmt"
	"strings"
	"time"
)

const (
	// LayoutTable is the timestamp layout of the archive table, e.g. "15.05.2024 14:05"
	LayoutTable = "02.01.2006 15:04"
	// LayoutText is the timestamp layout of the live text page, e.g. "15:05:00 10.05.2025"
	LayoutText = "15:04:05 02.01.2006"

	// NumbersPerDraw is the count of numbers in a completed draw
	NumbersPerDraw = 20
)

// Draw represents one completed Keno draw
type Draw struct {
	ID      int64     `json:"id"`
	DrawnAt time.Time `json:"drawn_at"`
	Nums    []int     `json:"nums"`
}

// Row is a raw archive table row: the date-time cell and the numbers cell
type Row struct {
	DrawnAt string `json:"drawn_at"`
	Numbers string `json:"numbers"`
}

// DeriveID returns the draw identifier for a timestamp: its wall-clock fields
// read as UTC, converted to Unix seconds.
func DeriveID(drawnAt time.Time) int64 {
	return toUTC(drawnAt).Unix()
}

// NewDraw creates a Draw with its ID derived from drawnAt
func NewDraw(drawnAt time.Time, nums []int) *Draw {
	return &Draw{
		ID:      DeriveID(drawnAt),
		DrawnAt: toUTC(drawnAt),
		Nums:    nums,
	}
}

// ParseDrawnAt parses site-local timestamp text with the given layout.
// The result is always in UTC.
func ParseDrawnAt(layout, value string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing draw time %q: %w", value, err)
	}
	return t, nil
}

// String returns a short human-readable form of the draw
func (d *Draw) String() string {
	return fmt.Sprintf("#%d %s [%s]", d.ID, d.DrawnAt.Format(LayoutTable), JoinNumbers(d.Nums))
}

// toUTC keeps the wall clock and drops the zone, so a timestamp parsed in any
// location yields the same instant.
func toUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

package draw

import (
	"fmt"
	"time"
)

// Reason identifies why a row was rejected
type Reason string

const (
	ReasonBadTimestamp Reason = "bad_timestamp"
	ReasonFuture       Reason = "future"
	ReasonIncomplete   Reason = "incomplete"
)

// RowValidationError reports a row that cannot become a Draw.
// It is not fatal: the row is dropped and the run continues.
type RowValidationError struct {
	Reason Reason
	Value  string
	Err    error
}

func (e *RowValidationError) Error() string {
	switch e.Reason {
	case ReasonBadTimestamp:
		return fmt.Sprintf("invalid draw time: %v", e.Err)
	case ReasonFuture:
		return fmt.Sprintf("draw time %s is in the future", e.Value)
	case ReasonIncomplete:
		return fmt.Sprintf("incomplete draw: %s numbers, want %d", e.Value, NumbersPerDraw)
	default:
		return fmt.Sprintf("invalid row (%s): %s", e.Reason, e.Value)
	}
}

func (e *RowValidationError) Unwrap() error {
	return e.Err
}

// Validator turns raw rows into Draws
type Validator struct {
	layout string
	now    func() time.Time
}

// NewValidator creates a Validator for timestamps in the given layout.
// If now is nil, time.Now is used.
func NewValidator(layout string, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{
		layout: layout,
		now:    now,
	}
}

// Validate parses and checks a raw row. The checks run in order: timestamp
// format, not in the future, exactly NumbersPerDraw numbers.
func (v *Validator) Validate(row Row) (*Draw, error) {
	drawnAt, err := ParseDrawnAt(v.layout, row.DrawnAt)
	if err != nil {
		return nil, &RowValidationError{Reason: ReasonBadTimestamp, Value: row.DrawnAt, Err: err}
	}

	if err := v.checkTime(drawnAt); err != nil {
		return nil, err
	}

	d := NewDraw(drawnAt, SplitNumbers(row.Numbers))
	if err := checkCount(d.Nums); err != nil {
		return nil, err
	}
	return d, nil
}

// CheckDraw applies the future and completeness checks to an already parsed draw
func (v *Validator) CheckDraw(d *Draw) error {
	if err := v.checkTime(d.DrawnAt); err != nil {
		return err
	}
	return checkCount(d.Nums)
}

// checkTime rejects timestamps strictly after now; equal to now is accepted
func (v *Validator) checkTime(drawnAt time.Time) error {
	if toUTC(drawnAt).After(v.now().UTC()) {
		return &RowValidationError{Reason: ReasonFuture, Value: drawnAt.Format(time.RFC3339)}
	}
	return nil
}

func checkCount(nums []int) error {
	if len(nums) != NumbersPerDraw {
		return &RowValidationError{Reason: ReasonIncomplete, Value: fmt.Sprint(len(nums))}
	}
	return nil
}

package scraper

import (
	"errors"
	"fmt"
)

// ErrStructureNotFound is wrapped by StructureError when the expected table or marker is absent
var ErrStructureNotFound = errors.New("structure not found")

// TransportError reports a network failure or a non-success HTTP status.
// It aborts the run.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StructureError reports that the page does not contain the expected region
type StructureError struct {
	What string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.What, ErrStructureNotFound)
}

func (e *StructureError) Unwrap() error {
	return ErrStructureNotFound
}

// IsStructure reports whether err is a missing-structure error
func IsStructure(err error) bool {
	return errors.Is(err, ErrStructureNotFound)
}

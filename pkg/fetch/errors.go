package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed matches every error delivered for a failed fetch.
	ErrFetchFailed = errors.New("fetch: template fetch failed")
	// ErrEmptyIdentifier is delivered for blank template identifiers.
	ErrEmptyIdentifier = errors.New("fetch: template identifier is required")
	// ErrNoFetcher is the fetch error reported when the coordinator was built
	// without a Fetcher.
	ErrNoFetcher = errors.New("fetch: fetcher is not configured")
)

// Error reports a failed fetch for a template identifier.
type Error struct {
	ID  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch: template %q: %v", e.ID, e.Err)
}

// Unwrap exposes the transport error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes every *Error match ErrFetchFailed.
func (e *Error) Is(target error) bool {
	return target == ErrFetchFailed
}

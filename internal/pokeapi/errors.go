// internal/pokeapi/errors.go
//
// Error values returned by the fetch adapter. Callers branch on them with
// errors.Is / IsFetchFailure.

package pokeapi

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by FetchError when the provider answers 404,
	// i.e. the id or name does not denote a known species.
	ErrNotFound = errors.New("species not found")

	// ErrNoCandidateFound is returned by FetchRandom when the attempt budget is
	// exhausted and strict filtering is enabled.
	ErrNoCandidateFound = errors.New("no candidate satisfied the filter")
)

// FetchError describes a failed call to the data provider: transport error,
// non-2xx status or undecodable body.
type FetchError struct {
	Op         string // "get", "decode"
	Target     string // id or name requested
	StatusCode int    // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("pokeapi: %s %s: status %d: %v", e.Op, e.Target, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("pokeapi: %s %s: %v", e.Op, e.Target, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchFailure reports whether err came from the data provider.
func IsFetchFailure(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

package healthdata

import (
	"errors"
	"fmt"
)

// ErrNoCandidate is returned by the locator when a portal listing is empty.
var ErrNoCandidate = errors.New("no candidate file in listing")

// MalformedListingError marks a listing entry whose publish date could not
// be parsed. The locator fails the whole resolution on it.
type MalformedListingError struct {
	Entry  string
	Reason string
}

func (e *MalformedListingError) Error() string {
	return fmt.Sprintf("malformed listing entry %q: %s", e.Entry, e.Reason)
}

// TransientFetchError wraps timeouts and 5xx responses. Callers may retry
// with backoff.
type TransientFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransientFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient fetch failure for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient fetch failure for %s: %v", e.URL, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// PermanentFetchError wraps 4xx responses and malformed URLs. Never retried.
type PermanentFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *PermanentFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("permanent fetch failure for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("permanent fetch failure for %s: %v", e.URL, e.Err)
}

func (e *PermanentFetchError) Unwrap() error { return e.Err }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var t *TransientFetchError
	return errors.As(err, &t)
}

// UnexpectedArchiveLayoutError means no archive member matched any expected
// name pattern. Fatal to the crawl that hit it.
type UnexpectedArchiveLayoutError struct {
	Archive string
	Members []string
}

func (e *UnexpectedArchiveLayoutError) Error() string {
	return fmt.Sprintf("archive %q matched no expected member patterns (members: %v)", e.Archive, e.Members)
}

// RowError is a single row that failed normalization. Collected, never
// fatal to the batch.
type RowError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: field %q value %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// DuplicateKeyWarning records a repeated unique key within one batch.
// Portals occasionally republish rows, so this is a warning, not an error.
type DuplicateKeyWarning struct {
	Key  string
	Line int
}

func (w DuplicateKeyWarning) String() string {
	return fmt.Sprintf("duplicate key %q at row %d", w.Key, w.Line)
}

// StageError wraps a fatal stage failure with enough context to diagnose
// the run without re-running it.
type StageError struct {
	Source SourceKind
	Stage  Stage
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("crawl %s failed during %s: %v", e.Source, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

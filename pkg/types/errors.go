package types

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Domain errors shared across the scan and ingestion pipeline
var (
	// ErrUnsupportedCapability is returned before any entry is produced
	// when the host root does not grant directory access.
	ErrUnsupportedCapability = errors.New("host does not support directory access")

	ErrEmptyPath     = errors.New("path cannot be empty")
	ErrBackslashPath = errors.New("path must use forward slashes")

	// ErrRootRemoval is returned when a delete targets the scan root.
	ErrRootRemoval = errors.New("refusing to remove the root directory")
)

// EntryAccessError reports a recoverable per-entry failure during a scan.
// It is delivered through error events; the scan continues with siblings.
type EntryAccessError struct {
	Path string
	Op   string // "open", "stat", "read", "iterate"
	Err  error
}

func (e *EntryAccessError) Error() string {
	return fmt.Sprintf("entry access failed: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *EntryAccessError) Unwrap() error { return e.Err }

// NewEntryAccessError wraps a per-entry failure with path and operation
// context.
func NewEntryAccessError(path, op string, err error) *EntryAccessError {
	return &EntryAccessError{Path: path, Op: op, Err: err}
}

// ExtractionError reports a failed document text extraction. It downgrades
// the entry to read-only but never aborts the extraction phase.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %q: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// TransactionError reports a fatal failure of the transactional load. The
// coordinator aborts the index transaction before returning it.
type TransactionError struct {
	Op    string // "begin", "load", "commit"
	Path  string // first path of the failing batch, if known
	Count int    // number of entries in the failing batch
	Err   error
}

func (e *TransactionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load transaction failed during %s (batch of %d starting at %q): %v", e.Op, e.Count, e.Path, e.Err)
	}
	return fmt.Sprintf("load transaction failed during %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// WriteFailure names one file that could not be written back.
type WriteFailure struct {
	Path string
	Err  error
}

// PartialWriteError aggregates per-path write-back failures. It accompanies
// a non-zero success count: callers must inspect both the count and the
// failure list before concluding anything about the batch.
type PartialWriteError struct {
	Failures []WriteFailure
}

func (e *PartialWriteError) Error() string {
	paths := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		paths[i] = f.Path
	}
	return fmt.Sprintf("failed to write %d file(s): %s", len(e.Failures), strings.Join(paths, ", "))
}

// Paths returns the failing paths in recording order.
func (e *PartialWriteError) Paths() []string {
	paths := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		paths[i] = f.Path
	}
	return paths
}

// IsCancellation reports whether err is a context cancellation or deadline.
// Cancellation is propagated unwrapped so errors.Is sees it directly.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

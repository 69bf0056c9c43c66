package index

import (
	"context"
	"errors"
	"io/fs"
	"time"
)

var (
	// ErrNotFound is returned when a requested document doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrLoadInProgress is returned when a second load transaction is
	// opened before the first settles
	ErrLoadInProgress = errors.New("a load transaction is already active")
	// ErrNoActiveLoad is returned by load operations outside a transaction
	ErrNoActiveLoad = errors.New("no active load transaction")
	// ErrBatchLengthMismatch is returned when a batch's parallel slices
	// differ in length
	ErrBatchLengthMismatch = errors.New("batch slices must have equal length")
)

// Index is the content store the ingestion pipeline populates. Bulk loads
// are transactional: BeginLoad opens a transaction, LoadBatch calls stage
// documents, and CommitLoad or AbortLoad settles it. At most one load
// transaction may be active per index instance.
type Index interface {
	// Load transaction operations
	BeginLoad(ctx context.Context) error
	LoadBatch(ctx context.Context, batch *Batch) error
	LoadBatchWithText(ctx context.Context, batch *Batch) error
	CommitLoad(ctx context.Context) error
	AbortLoad(ctx context.Context) error

	// Query operations
	FileCount(ctx context.Context) (int, error)
	GetDocument(ctx context.Context, path string) (*Document, error)
	SearchText(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Stats(ctx context.Context) (*Stats, error)

	// Maintenance operations
	DeleteDocument(ctx context.Context, path string) error
	Close() error
}

// Batch carries one load batch as parallel slices. TextContents is optional;
// when present, an empty string means the document at that position has no
// extracted text.
type Batch struct {
	Paths        []string
	Contents     [][]byte
	ModTimes     []time.Time
	Modes        []fs.FileMode
	TextContents []string
}

// Len returns the number of documents in the batch.
func (b *Batch) Len() int {
	return len(b.Paths)
}

// Validate checks the parallel-slice invariant. withText additionally
// requires the TextContents slice.
func (b *Batch) Validate(withText bool) error {
	n := len(b.Paths)
	if len(b.Contents) != n || len(b.ModTimes) != n || len(b.Modes) != n {
		return ErrBatchLengthMismatch
	}
	if withText {
		if len(b.TextContents) != n {
			return ErrBatchLengthMismatch
		}
	} else if b.TextContents != nil && len(b.TextContents) != n {
		return ErrBatchLengthMismatch
	}
	return nil
}

// Document is one stored file record.
type Document struct {
	ID          int64
	Path        string
	Content     []byte
	TextContent string
	Size        int64
	ModTime     time.Time
	Mode        fs.FileMode
	Extracted   bool
	LoadedAt    time.Time
}

// SearchResult is one full-text match.
type SearchResult struct {
	Path      string
	Snippet   string
	Score     float64
	Size      int64
	Extracted bool
}

// Stats summarizes the committed index contents.
type Stats struct {
	Documents     int
	ExtractedDocs int
	TotalSize     int64
	LastLoadedAt  time.Time
}

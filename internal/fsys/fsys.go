package fsys

import (
	"context"
	"io"
	"io/fs"
	"time"

	"github.com/abaveja313/treedex/pkg/types"
)

// Handle is one node in a hierarchical file tree. Implementations are either
// a File or a Dir, discriminated by Kind.
type Handle interface {
	Kind() types.Kind
	Name() string
}

// FileInfo carries the metadata the ingestion pipeline records per file.
type FileInfo struct {
	Size    int64
	ModTime time.Time
	Mode    fs.FileMode
}

// File is a handle to a regular file.
type File interface {
	Handle

	Stat(ctx context.Context) (FileInfo, error)

	// Read returns the file's full content.
	Read(ctx context.Context) ([]byte, error)

	// OpenWriter opens a writer that replaces the file's content when
	// closed. Until Close, the existing content is untouched; Abort
	// discards everything written.
	OpenWriter(ctx context.Context) (Writer, error)
}

// Writer stages a full-content replacement of a file. Exactly one of Close
// or Abort must be called.
type Writer interface {
	io.Writer

	// Close commits the staged content to the target file.
	Close() error

	// Abort discards the staged content, leaving the target untouched.
	Abort() error
}

// EntryIterator walks one directory's children. After Next returns false,
// Err reports whether iteration stopped on a failure.
type EntryIterator interface {
	Next(ctx context.Context) (Handle, bool)
	Err() error
}

// Dir is a handle to a directory.
type Dir interface {
	Handle

	// Entries iterates the directory's immediate children. Only regular
	// files and directories are yielded; other node types are skipped.
	Entries(ctx context.Context) (EntryIterator, error)

	// File resolves an existing regular-file child.
	File(ctx context.Context, name string) (File, error)

	// CreateFile resolves a regular-file child, creating it empty if
	// missing. Existing content is not truncated.
	CreateFile(ctx context.Context, name string) (File, error)

	// Dir resolves an existing directory child.
	Dir(ctx context.Context, name string) (Dir, error)

	// CreateDir resolves a directory child, creating it if missing.
	CreateDir(ctx context.Context, name string) (Dir, error)

	// Remove deletes a child file or empty directory.
	Remove(ctx context.Context, name string) error

	// Permission verifies the directory grants read access.
	Permission(ctx context.Context) error
}

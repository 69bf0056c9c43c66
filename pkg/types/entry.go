package types

import (
	"errors"
	"strings"
	"time"
)

// Kind discriminates the two node types a scan can produce.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindFile || k == KindDirectory
}

// FileEntry is one scanned node's metadata record. Path is the entry's
// forward-slash path relative to the scan root and is unique within a scan.
type FileEntry struct {
	// Identity
	Path string
	Name string
	Kind Kind

	// Metadata
	Size    int64
	ModTime time.Time

	// MIMEType is derived from the file extension; empty when unknown.
	MIMEType string

	// Editable is true unless the entry's content was replaced by a
	// derived representation (see Extracted).
	Editable bool

	// Extracted is set when the entry's logical content is text extracted
	// from a document format. When set, Size is the byte length of the
	// extracted text and OriginalSize holds the on-disk size.
	Extracted    bool
	OriginalSize int64
}

// Validate checks the entry's structural invariants.
func (e *FileEntry) Validate() error {
	if e.Path == "" {
		return ErrEmptyPath
	}
	if strings.Contains(e.Path, `\`) {
		return ErrBackslashPath
	}
	if !e.Kind.Valid() {
		return errors.New("invalid entry kind")
	}
	if e.Size < 0 {
		return errors.New("size cannot be negative")
	}
	if e.Extracted && e.Kind != KindFile {
		return errors.New("only files can carry extracted text")
	}
	return nil
}

// IsDir reports whether the entry describes a directory.
func (e *FileEntry) IsDir() bool {
	return e.Kind == KindDirectory
}

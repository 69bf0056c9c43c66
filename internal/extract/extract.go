// Package extract converts document formats into indexable text. Extractors
// are selected by path; the registry dispatches to the first extractor that
// recognizes a file.
package extract

import (
	"context"
	"fmt"
)

// Extractor derives a textual representation from a document's raw bytes.
// Implementations receive their own copy of the data and may consume it.
type Extractor interface {
	// Supports reports whether this extractor recognizes the path.
	Supports(path string) bool

	// ExtractText converts data to text. An empty result with a nil error
	// means the document yielded no text.
	ExtractText(ctx context.Context, path string, data []byte) (string, error)
}

// Registry dispatches to the first registered extractor that supports a
// path. It implements Extractor itself so it can be injected anywhere a
// single extractor is accepted.
type Registry struct {
	extractors []Extractor
}

// NewRegistry creates a registry over the given extractors, consulted in
// order.
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// DefaultRegistry returns the standard extractor set: zstd and gzip
// compressed text documents.
func DefaultRegistry() *Registry {
	return NewRegistry(ZstdExtractor{}, GzipExtractor{})
}

// Supports reports whether any registered extractor recognizes the path.
func (r *Registry) Supports(path string) bool {
	for _, e := range r.extractors {
		if e.Supports(path) {
			return true
		}
	}
	return false
}

// ExtractText dispatches to the first supporting extractor.
func (r *Registry) ExtractText(ctx context.Context, path string, data []byte) (string, error) {
	for _, e := range r.extractors {
		if e.Supports(path) {
			return e.ExtractText(ctx, path, data)
		}
	}
	return "", fmt.Errorf("no extractor supports %s", path)
}

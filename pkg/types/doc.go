// Package types provides shared type definitions for the treedex ingestion
// pipeline.
//
// This package defines the domain types used across the walker, coordinator
// and index components: scanned entries, scan options, and the error
// taxonomy.
//
// # Core Types
//
// FileEntry records one scanned node. Paths are forward-slash relative to
// the scan root and unique within a scan:
//
//	entry := types.FileEntry{
//	    Path:     "docs/readme.md",
//	    Name:     "readme.md",
//	    Kind:     types.KindFile,
//	    Size:     1824,
//	    Editable: true,
//	}
//
// ScanOptions controls one scan. The zero value is not the default (zero
// MaxFileSize excludes every file); start from DefaultScanOptions:
//
//	opts := types.DefaultScanOptions()
//	opts.Exclude = []string{"node_modules/**", "*.log"}
//	opts.Concurrency = 4
//
// # Error Taxonomy
//
// Errors are split by blast radius. ErrUnsupportedCapability is fatal and
// precedes any entry. EntryAccessError is per-entry and recoverable: it is
// reported through error events and the scan continues. ExtractionError is
// per-document and only downgrades the entry to read-only. TransactionError
// is fatal to the whole ingestion and always follows an index abort.
// PartialWriteError accompanies a write-back success count and lists every
// failing path:
//
//	n, err := coord.WriteModifiedFiles(ctx, writes)
//	var pw *types.PartialWriteError
//	if errors.As(err, &pw) {
//	    log.Printf("wrote %d, failed %v", n, pw.Paths())
//	}
//
// Context cancellation is never wrapped; IsCancellation distinguishes it
// from genuine failures.
package types

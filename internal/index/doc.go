// Package index provides SQLite-based persistence for ingested file content.
//
// The index stores one document per loaded file:
//   - The raw content bytes as read from disk
//   - Extracted text, when the file was decompressed during ingestion
//   - File metadata (size, modification time, permission bits)
//   - An FTS5 full-text search index over document bodies
//
// # Database Schema
//
// Tables:
//   - documents: One row per loaded file, keyed by relative path
//   - documents_fts: FTS5 full-text index over path and body
//   - schema_version: Applied migration versions
//
// The body fed to the full-text index is the extracted text when present,
// otherwise the raw content.
//
// # Load Transactions
//
// All writes happen inside an explicit load transaction. Readers never see
// a partially loaded tree: documents become visible only at CommitLoad,
// and AbortLoad leaves the index exactly as it was before BeginLoad.
//
//	idx, err := index.NewSQLiteIndex("tree.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer idx.Close()
//
//	if err := idx.BeginLoad(ctx); err != nil {
//	    return err
//	}
//
//	if err := idx.LoadBatch(ctx, batch); err != nil {
//	    _ = idx.AbortLoad(ctx)
//	    return err
//	}
//
//	if err := idx.CommitLoad(ctx); err != nil {
//	    return err
//	}
//
// Only one load transaction may be open at a time; BeginLoad returns
// ErrLoadInProgress otherwise. Loading the same path twice replaces the
// earlier document.
//
// # Full-Text Search
//
// Query using BM25 ranking:
//
//	results, err := idx.SearchText(ctx, "database migration", 10)
//	for _, result := range results {
//	    fmt.Printf("%s: %.3f %s\n", result.Path, result.Score, result.Snippet)
//	}
//
// Scores are normalized to (0, 1] with higher values indicating better
// matches. The FTS index is maintained by triggers and never goes stale.
//
// # Build Tags
//
// The index package supports two build configurations:
//
// CGO Build (sqlite_cgo tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Requires a C compiler and the fts5 build tag
//
//     CGO_ENABLED=1 go build -tags "sqlite_cgo,fts5"
//
// Pure Go Build (default):
//
//   - Uses modernc.org/sqlite driver
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build
package index

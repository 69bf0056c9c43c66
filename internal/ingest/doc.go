// Package ingest coordinates the scan -> extract -> load pipeline that
// turns a directory tree into a committed content index.
//
// # Pipeline
//
// Initialize runs three strictly ordered phases:
//
//  1. Scan: the walker populates the entry table with every in-scope file,
//     applying the caller's exclude, depth, size, and hidden filters.
//  2. Extract: documents the extractor registry recognizes are read once and
//     decompressed. Non-empty text replaces the entry's logical size and
//     marks it extracted and non-editable. A failed extraction only
//     downgrades the entry; the phase always completes.
//  3. Load: paths are partitioned into fixed-size batches and staged inside
//     a single index transaction. Binary and unreadable files are dropped
//     from their batch without failing it. Any batch error aborts the
//     transaction after in-flight batches settle; otherwise the load
//     commits. Readers never observe a partially loaded tree.
//
// # Basic Usage
//
//	root, err := fsys.OpenRoot("/data/docs")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer root.Close()
//
//	idx, err := index.NewSQLiteIndex("docs.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer idx.Close()
//
//	coord := ingest.New(root, idx,
//	    ingest.WithScanOptions(types.ScanOptions{
//	        Exclude:     []string{"tmp/**"},
//	        MaxDepth:    types.Unlimited,
//	        MaxFileSize: 10 << 20,
//	        Concurrency: 4,
//	    }),
//	    ingest.WithScanProgress(func(count int, path string, size int64) {
//	        fmt.Printf("scanned %d: %s\n", count, path)
//	    }),
//	)
//
//	stats, err := coord.Initialize(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("loaded %d files in %s\n", stats.FilesLoaded, stats.Duration)
//
// Only one Initialize may run per coordinator at a time; concurrent calls
// fail fast with ErrIngestInProgress.
//
// # Write-Back
//
// After ingestion the coordinator also manages the tree's files:
//
//	n, err := coord.WriteModifiedFiles(ctx, []ingest.FileWrite{
//	    {Path: "notes/today.md", Content: updated},
//	})
//
// WriteModifiedFiles reports the success count together with a
// types.PartialWriteError listing each failing path, so one bad file never
// hides the writes that succeeded. Extracted documents are refused: their
// on-disk bytes are compressed archives, not the indexed text.
//
// Progress callbacks are optional and fire-and-forget. Extraction and load
// callbacks may be invoked from multiple goroutines.
package ingest

// Package walker traverses a rooted directory handle and emits a filtered,
// cancelable, observable sequence of file and directory entries.
//
// # Basic Usage
//
//	w := walker.New()
//
//	opts := types.DefaultScanOptions()
//	opts.Exclude = []string{"node_modules/**", "*.log"}
//
//	err := w.Walk(ctx, root, opts, func(e types.FileEntry) error {
//	    fmt.Println(e.Path)
//	    return nil
//	})
//
// # Filtering
//
// Filters are applied per entry, in a fixed order:
//
//  1. Hidden names: dot-prefixed entries are skipped unless
//     opts.IncludeHidden is set. This happens before glob matching.
//  2. Exclude globs: paths are matched with doublestar patterns
//     ("**" spans segments, "*" matches within one). A directory matched
//     by "dir/**" is removed along with its entire subtree.
//  3. Depth: a directory is emitted only when it will be entered
//     (its depth is below opts.MaxDepth). MaxDepth of 0 yields only the
//     root's immediate children.
//  4. Size: files above opts.MaxFileSize are skipped; 0 excludes all
//     files, negative disables the filter.
//
// # Events
//
// Scans publish four event kinds, subscribed with handle-based
// unsubscription:
//
//	off := w.On(walker.EventComplete, func(ev walker.Event) {
//	    fmt.Printf("scanned %d entries in %v\n", ev.Processed, ev.Duration)
//	})
//	defer off()
//
// Per-entry access failures surface as EventError and never abort the
// scan; a failing directory aborts only its own subtree. EventComplete
// fires exactly once per natural completion, after every file event, and
// never after cancellation.
//
// # Concurrency
//
// With opts.Concurrency > 1 the walk switches to a single work queue
// drained by a bounded worker set. Workers expand directories into further
// work items and resolve files; entries are handed to the callback serially
// from the calling goroutine. The entry set is identical to a sequential
// walk of the same tree; cross-entry order is unspecified.
//
// # Streaming
//
// Stream exposes the same traversal as a pull-based channel pair:
//
//	entries, errc := w.Stream(ctx, root, opts)
//	for e := range entries {
//	    handle(e)
//	}
//	if err := <-errc; err != nil {
//	    return err
//	}
//
// The entry channel is unbuffered: the next entry is computed only when
// the consumer is ready for it.
package walker

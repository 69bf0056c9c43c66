// Package fsys defines the hierarchical file-handle abstraction the walker
// and coordinator traverse, plus an OS implementation rooted in a single
// authorized directory.
//
// A Handle is either a File or a Dir. Directories enumerate children through
// a pull iterator:
//
//	it, err := dir.Entries(ctx)
//	if err != nil {
//	    return err
//	}
//	for h, ok := it.Next(ctx); ok; h, ok = it.Next(ctx) {
//	    switch h.Kind() {
//	    case types.KindFile:
//	        // ...
//	    case types.KindDirectory:
//	        // ...
//	    }
//	}
//	if err := it.Err(); err != nil {
//	    return err
//	}
//
// The OS implementation wraps os.Root, so no handle can resolve outside the
// opened root, including through symlinks. File writes are staged to a temp
// file and committed by rename, so an aborted write never corrupts the
// target.
package fsys

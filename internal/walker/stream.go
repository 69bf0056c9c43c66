package walker

import (
	"context"

	"github.com/abaveja313/treedex/internal/fsys"
	"github.com/abaveja313/treedex/pkg/types"
)

// Stream runs Walk in a goroutine and exposes it as a pull-based sequence.
// The entry channel is unbuffered, so the next entry is only computed when
// the consumer receives the previous one. The error channel delivers the
// walk's terminal error, if any; both channels are closed when the walk
// ends. Consumers that stop early must cancel ctx, otherwise the producing
// goroutine stays blocked.
func (w *Walker) Stream(ctx context.Context, root fsys.Dir, opts types.ScanOptions) (<-chan types.FileEntry, <-chan error) {
	entries := make(chan types.FileEntry)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(entries)

		err := w.Walk(ctx, root, opts, func(e types.FileEntry) error {
			select {
			case entries <- e:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errc <- err
		}
	}()

	return entries, errc
}

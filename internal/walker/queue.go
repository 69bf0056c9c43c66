package walker

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/abaveja313/treedex/internal/fsys"
	"github.com/abaveja313/treedex/pkg/types"
)

// workItem is one unit of concurrent scan work. For directory items, depth
// is the depth assigned to the directory's children; the synthetic root
// item carries depth 0 and an empty path.
type workItem struct {
	kind  types.Kind
	file  fsys.File
	dir   fsys.Dir
	path  string
	name  string
	depth int
}

// scanResult is what a worker hands back to the consuming goroutine:
// either an entry or a per-path access failure.
type scanResult struct {
	entry types.FileEntry
	path  string
	err   *types.EntryAccessError
}

// workQueue is a FIFO of scan work with drain detection: pop reports
// exhaustion once the queue is empty and no popped item is still being
// processed.
type workQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []workItem
	active int
	closed bool
}

func newWorkQueue() *workQueue {
	q := &workQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *workQueue) push(it workItem) {
	q.mu.Lock()
	q.items = append(q.items, it)
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until work is available. It returns false once the scan is
// drained (empty queue, no active workers) or the queue is closed.
func (q *workQueue) pop() (workItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.closed {
			return workItem{}, false
		}
		if len(q.items) > 0 {
			it := q.items[0]
			q.items = q.items[1:]
			q.active++
			return it, true
		}
		if q.active == 0 {
			q.closed = true
			q.cond.Broadcast()
			return workItem{}, false
		}
		q.cond.Wait()
	}
}

// finish marks one popped item fully processed.
func (q *workQueue) finish() {
	q.mu.Lock()
	q.active--
	drained := q.active == 0 && len(q.items) == 0
	q.mu.Unlock()
	if drained {
		q.cond.Broadcast()
	}
}

// close wakes every blocked pop; used on cancellation.
func (q *workQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// walkConcurrent runs the single-work-queue scan: up to Concurrency workers
// pull items, expanding directories into further items and resolving files,
// while the calling goroutine consumes results and delivers entries to fn
// serially. The produced entry set equals the sequential walk's set;
// cross-entry order is unspecified.
func (r *walkRun) walkConcurrent(ctx context.Context, root fsys.Dir) error {
	q := newWorkQueue()
	q.push(workItem{kind: types.KindDirectory, dir: root, name: root.Name()})

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(cctx)

	// Wake blocked pops when the workers' context ends for any reason.
	stop := context.AfterFunc(gctx, q.close)
	defer stop()

	results := make(chan scanResult, r.opts.Concurrency*2)
	for i := 0; i < r.opts.Concurrency; i++ {
		g.Go(func() error {
			return r.scanWorker(gctx, q, results)
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(results)
	}()

	var fnErr error
	for res := range results {
		if fnErr != nil {
			continue // drain so workers never block on send
		}
		if res.err != nil {
			r.walker.events.emit(Event{Kind: EventError, Path: res.path, Err: res.err})
			continue
		}
		if err := r.deliver(res.entry); err != nil {
			fnErr = err
			cancel()
		}
	}

	werr := <-done
	if fnErr != nil {
		return fnErr
	}
	return werr
}

func (r *walkRun) scanWorker(ctx context.Context, q *workQueue, results chan<- scanResult) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, ok := q.pop()
		if !ok {
			// Either drained naturally or closed by cancellation.
			return ctx.Err()
		}
		err := r.processItem(ctx, item, q, results)
		q.finish()
		if err != nil {
			return err
		}
	}
}

func (r *walkRun) processItem(ctx context.Context, item workItem, q *workQueue, results chan<- scanResult) error {
	if item.kind == types.KindDirectory {
		return r.expandDir(ctx, item, q, results)
	}
	return r.resolveFile(ctx, item, results)
}

// expandDir emits the directory entry (except for the synthetic root) and
// pushes each filtered child as new work.
func (r *walkRun) expandDir(ctx context.Context, item workItem, q *workQueue, results chan<- scanResult) error {
	if item.path != "" {
		if err := sendResult(ctx, results, scanResult{entry: dirEntry(item.path, item.name)}); err != nil {
			return err
		}
	}

	it, err := item.dir.Entries(ctx)
	if err != nil {
		if types.IsCancellation(err) {
			return err
		}
		return sendResult(ctx, results, scanResult{
			path: dirErrPath(item.path),
			err:  types.NewEntryAccessError(dirErrPath(item.path), "iterate", err),
		})
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, ok := it.Next(ctx)
		if !ok {
			break
		}
		name := h.Name()
		if r.hidden(name) {
			continue
		}
		childPath := joinPath(item.path, name)
		isDir := h.Kind() == types.KindDirectory
		if r.excluded(childPath, isDir) {
			continue
		}

		if isDir {
			dir, ok := h.(fsys.Dir)
			if !ok || !r.descend(item.depth) {
				continue
			}
			q.push(workItem{
				kind:  types.KindDirectory,
				dir:   dir,
				path:  childPath,
				name:  name,
				depth: item.depth + 1,
			})
			continue
		}

		file, ok := h.(fsys.File)
		if !ok {
			continue
		}
		q.push(workItem{
			kind: types.KindFile,
			file: file,
			path: childPath,
			name: name,
		})
	}

	if err := it.Err(); err != nil {
		if types.IsCancellation(err) {
			return err
		}
		return sendResult(ctx, results, scanResult{
			path: dirErrPath(item.path),
			err:  types.NewEntryAccessError(dirErrPath(item.path), "iterate", err),
		})
	}
	return nil
}

// resolveFile stats a file item, applies the size filter, and emits it.
func (r *walkRun) resolveFile(ctx context.Context, item workItem, results chan<- scanResult) error {
	info, err := item.file.Stat(ctx)
	if err != nil {
		if types.IsCancellation(err) {
			return err
		}
		return sendResult(ctx, results, scanResult{
			path: item.path,
			err:  types.NewEntryAccessError(item.path, "stat", err),
		})
	}
	if r.sizeExcluded(info.Size) {
		return nil
	}
	return sendResult(ctx, results, scanResult{entry: fileEntry(item.path, item.name, info)})
}

func sendResult(ctx context.Context, ch chan<- scanResult, res scanResult) error {
	select {
	case ch <- res:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

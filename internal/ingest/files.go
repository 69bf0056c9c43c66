package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abaveja313/treedex/internal/fsys"
	"github.com/abaveja313/treedex/internal/index"
	"github.com/abaveja313/treedex/pkg/types"
)

// FileWrite names a relative path and the full content to write there.
type FileWrite struct {
	Path    string
	Content []byte
}

// EnsureFileHandle returns a writable handle for path, creating missing
// parent directories and an empty file as needed. It returns nil when no
// handle can be provided; batch callers surface failures per path.
func (c *Coordinator) EnsureFileHandle(ctx context.Context, path string) fsys.File {
	if path == "" {
		return nil
	}

	c.mu.Lock()
	if f, ok := c.handles[path]; ok {
		c.mu.Unlock()
		return f
	}
	c.mu.Unlock()

	segs := strings.Split(path, "/")
	dir := c.root
	for _, seg := range segs[:len(segs)-1] {
		d, err := dir.CreateDir(ctx, seg)
		if err != nil {
			c.log.Debug("ensure handle failed", zap.String("path", path), zap.Error(err))
			return nil
		}
		dir = d
	}

	f, err := dir.CreateFile(ctx, segs[len(segs)-1])
	if err != nil {
		c.log.Debug("ensure handle failed", zap.String("path", path), zap.Error(err))
		return nil
	}

	c.mu.Lock()
	c.handles[path] = f
	c.mu.Unlock()
	return f
}

// RemoveFile deletes the file at path along with its entry table, handle
// cache, and index records. The tree root itself cannot be removed.
func (c *Coordinator) RemoveFile(ctx context.Context, path string) error {
	if path == "" || path == "." || path == "/" {
		return types.ErrRootRemoval
	}

	segs := strings.Split(path, "/")
	dir := c.root
	for _, seg := range segs[:len(segs)-1] {
		d, err := dir.Dir(ctx, seg)
		if err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		dir = d
	}
	if err := dir.Remove(ctx, segs[len(segs)-1]); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}

	c.mu.Lock()
	delete(c.entries, path)
	delete(c.handles, path)
	c.mu.Unlock()

	if err := c.index.DeleteDocument(ctx, path); err != nil && !errors.Is(err, index.ErrNotFound) {
		return fmt.Errorf("remove %s from index: %w", path, err)
	}
	return nil
}

// WriteModifiedFiles writes each entry's content to disk under the admission
// limiter. Every write is staged in a temp file and committed by rename, so
// a failed write never leaves a half-written target. It returns the number
// of files written and, when any write failed, a types.PartialWriteError
// naming every failing path; callers must inspect both.
func (c *Coordinator) WriteModifiedFiles(ctx context.Context, writes []FileWrite) (int, error) {
	var written int32
	failures := make([]*types.WriteFailure, len(writes))

	g, gctx := errgroup.WithContext(ctx)
	for i, w := range writes {
		g.Go(func() error {
			return c.limiter.Do(gctx, func(taskCtx context.Context) error {
				if err := c.writeOne(taskCtx, w); err != nil {
					failures[i] = &types.WriteFailure{Path: w.Path, Err: err}
					return nil
				}
				atomic.AddInt32(&written, 1)
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return int(written), err
	}

	var failed []types.WriteFailure
	for _, f := range failures {
		if f != nil {
			failed = append(failed, *f)
		}
	}
	if len(failed) > 0 {
		return int(written), &types.PartialWriteError{Failures: failed}
	}
	return int(written), nil
}

// writeOne writes a single file, refusing paths whose indexed form is
// extracted text rather than the on-disk bytes
func (c *Coordinator) writeOne(ctx context.Context, w FileWrite) error {
	c.mu.Lock()
	st, tracked := c.entries[w.Path]
	editable := !tracked || st.entry.Editable
	c.mu.Unlock()
	if !editable {
		return ErrNotEditable
	}

	file := c.EnsureFileHandle(ctx, w.Path)
	if file == nil {
		return fmt.Errorf("no writable handle for %s", w.Path)
	}

	wr, err := file.OpenWriter(ctx)
	if err != nil {
		return err
	}
	if _, err := wr.Write(w.Content); err != nil {
		_ = wr.Abort()
		return err
	}
	if err := wr.Close(); err != nil {
		return err
	}

	c.mu.Lock()
	if st, ok := c.entries[w.Path]; ok {
		st.entry.Size = int64(len(w.Content))
		st.entry.ModTime = time.Now()
	}
	c.mu.Unlock()
	return nil
}

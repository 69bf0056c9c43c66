package walker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/abaveja313/treedex/internal/fsys"
	"github.com/abaveja313/treedex/internal/sniff"
	"github.com/abaveja313/treedex/pkg/types"
)

// Walker traverses a rooted directory handle and emits filtered entries.
// A single Walker can run many scans; event subscriptions apply to all of
// them.
type Walker struct {
	events *emitter
	log    *zap.Logger
}

// New creates a walker with no logging.
func New() *Walker {
	return NewWithLogger(zap.NewNop())
}

// NewWithLogger creates a walker that logs scan diagnostics.
func NewWithLogger(log *zap.Logger) *Walker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Walker{events: newEmitter(), log: log}
}

// On subscribes a handler to one event kind and returns its unsubscribe
// function. Handlers run synchronously on the goroutine driving the scan.
func (w *Walker) On(kind EventKind, fn func(Event)) func() {
	return w.events.subscribe(kind, fn)
}

// Walk traverses root depth-first and invokes fn once per emitted entry,
// always from the calling goroutine. An error from fn stops the walk and is
// returned. Cancellation surfaces as ctx.Err() and suppresses the complete
// event; per-entry failures surface only through error events.
func (w *Walker) Walk(ctx context.Context, root fsys.Dir, opts types.ScanOptions, fn func(types.FileEntry) error) error {
	opts = opts.Normalized()

	if err := validateExcludes(opts.Exclude); err != nil {
		return err
	}
	if err := root.Permission(ctx); err != nil {
		if types.IsCancellation(err) {
			return err
		}
		return fmt.Errorf("%w: %v", types.ErrUnsupportedCapability, err)
	}

	start := time.Now()
	run := &walkRun{walker: w, opts: opts, fn: fn}

	w.log.Debug("scan started",
		zap.Int("concurrency", opts.Concurrency),
		zap.Strings("exclude", opts.Exclude))

	var err error
	if opts.Concurrency > 1 {
		err = run.walkConcurrent(ctx, root)
	} else {
		err = run.walkDir(ctx, root, "", 0)
	}
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	if elapsed < time.Millisecond {
		elapsed = time.Millisecond
	}
	w.log.Debug("scan complete",
		zap.Int("entries", run.processed),
		zap.Duration("duration", elapsed))
	w.events.emit(Event{Kind: EventComplete, Processed: run.processed, Duration: elapsed})
	return nil
}

// validateExcludes rejects malformed glob patterns before any entry is
// produced.
func validateExcludes(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

// walkRun carries the state of one scan.
type walkRun struct {
	walker    *Walker
	opts      types.ScanOptions
	fn        func(types.FileEntry) error
	processed int
}

// walkDir iterates one directory sequentially. depth is the depth assigned
// to the directory's children; root children are at depth 0. A failure to
// iterate aborts only this subtree.
func (r *walkRun) walkDir(ctx context.Context, dir fsys.Dir, parent string, depth int) error {
	it, err := dir.Entries(ctx)
	if err != nil {
		if types.IsCancellation(err) {
			return err
		}
		r.emitError(dirErrPath(parent), "iterate", err)
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, ok := it.Next(ctx)
		if !ok {
			break
		}
		if err := r.handleEntry(ctx, h, parent, depth); err != nil {
			return err
		}
	}

	if err := it.Err(); err != nil {
		if types.IsCancellation(err) {
			return err
		}
		r.emitError(dirErrPath(parent), "iterate", err)
	}
	return nil
}

// handleEntry filters one child and emits it, recursing into directories.
func (r *walkRun) handleEntry(ctx context.Context, h fsys.Handle, parent string, depth int) error {
	name := h.Name()
	if r.hidden(name) {
		return nil
	}
	path := joinPath(parent, name)
	isDir := h.Kind() == types.KindDirectory
	if r.excluded(path, isDir) {
		return nil
	}

	if isDir {
		dir, ok := h.(fsys.Dir)
		if !ok || !r.descend(depth) {
			return nil
		}
		if err := r.deliver(dirEntry(path, name)); err != nil {
			return err
		}
		return r.walkDir(ctx, dir, path, depth+1)
	}

	file, ok := h.(fsys.File)
	if !ok {
		return nil
	}
	info, err := file.Stat(ctx)
	if err != nil {
		if types.IsCancellation(err) {
			return err
		}
		r.emitError(path, "stat", err)
		return nil
	}
	if r.sizeExcluded(info.Size) {
		return nil
	}
	return r.deliver(fileEntry(path, name, info))
}

// deliver hands one entry to the consumer and publishes file and progress
// events. Always called from the goroutine driving the scan.
func (r *walkRun) deliver(e types.FileEntry) error {
	if err := r.fn(e); err != nil {
		return err
	}
	r.processed++
	r.walker.events.emit(Event{Kind: EventFile, Entry: e})
	r.walker.events.emit(Event{Kind: EventProgress, Processed: r.processed, Path: e.Path})
	return nil
}

func (r *walkRun) emitError(path, op string, err error) {
	r.walker.log.Debug("entry access failure",
		zap.String("path", path),
		zap.String("op", op),
		zap.Error(err))
	r.walker.events.emit(Event{
		Kind: EventError,
		Path: path,
		Err:  types.NewEntryAccessError(path, op, err),
	})
}

// hidden reports whether a dotted name should be skipped.
func (r *walkRun) hidden(name string) bool {
	return !r.opts.IncludeHidden && strings.HasPrefix(name, ".")
}

// excluded matches a path against the exclude globs. Hidden filtering has
// already happened by the time this runs. A directory is also removed by a
// pattern of the form "dir/**", which prunes its whole subtree since the
// directory is never entered.
func (r *walkRun) excluded(path string, isDir bool) bool {
	for _, pat := range r.opts.Exclude {
		if ok, _ := doublestar.Match(pat, path); ok {
			return true
		}
		if isDir && strings.HasSuffix(pat, "/**") {
			if ok, _ := doublestar.Match(strings.TrimSuffix(pat, "/**"), path); ok {
				return true
			}
		}
	}
	return false
}

// descend reports whether a directory entry at the given depth may be
// entered. Directories that will not be entered are not emitted.
func (r *walkRun) descend(depth int) bool {
	return r.opts.DepthUnlimited() || depth < r.opts.MaxDepth
}

// sizeExcluded applies the file size filter. Zero excludes every file.
func (r *walkRun) sizeExcluded(size int64) bool {
	if r.opts.MaxFileSize == 0 {
		return true
	}
	return !r.opts.SizeUnlimited() && size > r.opts.MaxFileSize
}

// joinPath joins parent and name with a forward slash, preserving name
// bytes exactly.
func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// dirErrPath names a directory in error events; the root reports as ".".
func dirErrPath(parent string) string {
	if parent == "" {
		return "."
	}
	return parent
}

func fileEntry(path, name string, info fsys.FileInfo) types.FileEntry {
	return types.FileEntry{
		Path:     path,
		Name:     name,
		Kind:     types.KindFile,
		Size:     info.Size,
		ModTime:  info.ModTime,
		MIMEType: sniff.MIMEType(name),
		Editable: true,
	}
}

func dirEntry(path, name string) types.FileEntry {
	return types.FileEntry{
		Path:     path,
		Name:     name,
		Kind:     types.KindDirectory,
		Editable: true,
	}
}

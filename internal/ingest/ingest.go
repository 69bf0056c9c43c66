package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abaveja313/treedex/internal/extract"
	"github.com/abaveja313/treedex/internal/fsys"
	"github.com/abaveja313/treedex/internal/index"
	"github.com/abaveja313/treedex/internal/limiter"
	"github.com/abaveja313/treedex/internal/sniff"
	"github.com/abaveja313/treedex/internal/walker"
	"github.com/abaveja313/treedex/pkg/types"
)

var (
	// ErrIngestInProgress is returned when Initialize is called while another
	// run is still active on the same coordinator
	ErrIngestInProgress = errors.New("an ingestion run is already in progress")
	// ErrNotEditable is returned when a write targets a file whose on-disk
	// form is not the indexed text, such as an extracted archive
	ErrNotEditable = errors.New("file is not editable")
)

const (
	// extractSubBatch is how many documents are extracted between
	// cancellation checks
	extractSubBatch = 10
	// loadBatchSize is the number of files staged per index batch
	loadBatchSize = 50
)

// Phase identifies where a coordinator is in its pipeline.
type Phase int32

const (
	PhaseNotStarted Phase = iota
	PhaseScanning
	PhaseExtracting
	PhaseLoading
	PhaseCommitted
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseScanning:
		return "scanning"
	case PhaseExtracting:
		return "extracting"
	case PhaseLoading:
		return "loading"
	case PhaseCommitted:
		return "committed"
	case PhaseAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Stats summarizes one committed ingestion run
type Stats struct {
	FilesScanned       int
	FilesLoaded        int
	BinaryFilesSkipped int
	DocumentsExtracted int
	TotalSize          int64
	Duration           time.Duration
}

// entryState tracks one scanned file through the pipeline
type entryState struct {
	entry types.FileEntry
	raw   []byte // immutable content snapshot, retained for extracted files
	text  string // extracted text, empty when none
	mode  fs.FileMode
}

// Coordinator drives the scan -> extract -> load pipeline against a content
// index and owns the entry table and handle cache for one tree.
type Coordinator struct {
	root      fsys.Dir
	index     index.Index
	walker    *walker.Walker
	extractor extract.Extractor
	limiter   *limiter.Limiter
	log       *zap.Logger
	opts      types.ScanOptions

	onScanProgress    func(count int, path string, size int64)
	onExtractProgress func(extracted, total int, path string)
	onLoadProgress    func(loaded, total int)

	mu      sync.Mutex
	entries map[string]*entryState
	order   []string
	handles map[string]fsys.File

	phase atomic.Int32
	lock  IngestLock
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithScanOptions sets the walker filters and concurrency for the scan phase.
func WithScanOptions(opts types.ScanOptions) Option {
	return func(c *Coordinator) { c.opts = opts }
}

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithExtractor replaces the default extractor registry.
func WithExtractor(e extract.Extractor) Option {
	return func(c *Coordinator) { c.extractor = e }
}

// WithLimiter shares an admission limiter across coordinators.
func WithLimiter(l *limiter.Limiter) Option {
	return func(c *Coordinator) { c.limiter = l }
}

// WithScanProgress registers a per-file scan callback.
func WithScanProgress(fn func(count int, path string, size int64)) Option {
	return func(c *Coordinator) { c.onScanProgress = fn }
}

// WithExtractProgress registers a per-document extraction callback.
func WithExtractProgress(fn func(extracted, total int, path string)) Option {
	return func(c *Coordinator) { c.onExtractProgress = fn }
}

// WithLoadProgress registers a per-batch load callback.
func WithLoadProgress(fn func(loaded, total int)) Option {
	return func(c *Coordinator) { c.onLoadProgress = fn }
}

// New creates a Coordinator rooted at root, loading into idx.
func New(root fsys.Dir, idx index.Index, opts ...Option) *Coordinator {
	c := &Coordinator{
		root:      root,
		index:     idx,
		extractor: extract.DefaultRegistry(),
		log:       zap.NewNop(),
		opts:      types.DefaultScanOptions(),
		entries:   make(map[string]*entryState),
		handles:   make(map[string]fsys.File),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter == nil {
		c.limiter = limiter.New(0)
	}
	c.walker = walker.NewWithLogger(c.log)
	return c
}

// Phase reports where the coordinator currently is in its pipeline. Safe to
// call from any goroutine while Initialize runs.
func (c *Coordinator) Phase() Phase {
	return Phase(c.phase.Load())
}

func (c *Coordinator) setPhase(p Phase) {
	c.phase.Store(int32(p))
}

// Initialize runs the full pipeline: scan the tree, extract text from
// recognized documents, and load everything into the index inside a single
// transaction. It either commits fully and returns stats, or aborts and
// returns one error; the index never ends up partially loaded.
func (c *Coordinator) Initialize(ctx context.Context) (*Stats, error) {
	if !c.lock.TryAcquire() {
		return nil, ErrIngestInProgress
	}
	defer c.lock.Release()

	log := c.log.With(zap.String("run", uuid.NewString()[:8]))
	start := time.Now()
	stats := &Stats{}

	c.setPhase(PhaseScanning)
	if err := c.scan(ctx, log, stats); err != nil {
		return nil, err
	}

	c.setPhase(PhaseExtracting)
	if err := c.extract(ctx, log, stats); err != nil {
		return nil, err
	}

	c.setPhase(PhaseLoading)
	if err := c.load(ctx, log, stats); err != nil {
		return nil, err
	}
	c.setPhase(PhaseCommitted)

	count, err := c.index.FileCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read file count: %w", err)
	}
	stats.FilesLoaded = count
	stats.Duration = time.Since(start)

	log.Info("ingestion committed",
		zap.Int("scanned", stats.FilesScanned),
		zap.Int("loaded", stats.FilesLoaded),
		zap.Int("extracted", stats.DocumentsExtracted),
		zap.Int("binary_skipped", stats.BinaryFilesSkipped),
		zap.Duration("took", stats.Duration))
	return stats, nil
}

// scan walks the tree and populates the entry table with every in-scope file
func (c *Coordinator) scan(ctx context.Context, log *zap.Logger, stats *Stats) error {
	c.mu.Lock()
	c.entries = make(map[string]*entryState)
	c.order = c.order[:0]
	c.mu.Unlock()

	count := 0
	err := c.walker.Walk(ctx, c.root, c.opts, func(entry types.FileEntry) error {
		if entry.IsDir() {
			return nil
		}

		c.mu.Lock()
		if _, seen := c.entries[entry.Path]; !seen {
			c.order = append(c.order, entry.Path)
		}
		c.entries[entry.Path] = &entryState{entry: entry}
		c.mu.Unlock()

		count++
		c.notifyScanProgress(count, entry.Path, entry.Size)
		return nil
	})
	if err != nil {
		return err
	}

	stats.FilesScanned = count
	log.Debug("scan complete", zap.Int("files", count))
	return nil
}

// extract runs every recognized document through the extractor registry.
// Failures never abort the phase; they only mark the entry non-editable.
func (c *Coordinator) extract(ctx context.Context, log *zap.Logger, stats *Stats) error {
	c.mu.Lock()
	var candidates []string
	for _, path := range c.order {
		if c.extractor.Supports(path) {
			candidates = append(candidates, path)
		}
	}
	c.mu.Unlock()

	total := len(candidates)
	var done int32

	for start := 0; start < total; start += extractSubBatch {
		// Keep the host responsive between sub-batches
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + extractSubBatch
		if end > total {
			end = total
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, path := range candidates[start:end] {
			g.Go(func() error {
				return c.limiter.Do(gctx, func(taskCtx context.Context) error {
					c.extractOne(taskCtx, log, path)
					n := atomic.AddInt32(&done, 1)
					c.notifyExtractProgress(int(n), total, path)
					return nil
				})
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	c.mu.Lock()
	for _, st := range c.entries {
		if st.entry.Extracted {
			stats.DocumentsExtracted++
		}
	}
	c.mu.Unlock()

	log.Debug("extraction complete",
		zap.Int("candidates", total),
		zap.Int("extracted", stats.DocumentsExtracted))
	return nil
}

// extractOne reads a document once, retains the snapshot, and applies the
// extracted text to the entry
func (c *Coordinator) extractOne(ctx context.Context, log *zap.Logger, path string) {
	file, err := c.fileAt(ctx, path)
	if err == nil {
		var info fsys.FileInfo
		if info, err = file.Stat(ctx); err == nil {
			c.mu.Lock()
			if st, ok := c.entries[path]; ok {
				st.mode = info.Mode
			}
			c.mu.Unlock()
		}
	}

	var data []byte
	if err == nil {
		data, err = file.Read(ctx)
	}

	var text string
	if err == nil {
		// Extractors get their own copy; the retained snapshot stays pristine
		buf := make([]byte, len(data))
		copy(buf, data)
		text, err = c.extractor.ExtractText(ctx, path, buf)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.entries[path]
	if !ok {
		return
	}
	if err != nil {
		st.entry.Editable = false
		log.Debug("extraction failed", zap.Error(&types.ExtractionError{Path: path, Err: err}))
		return
	}
	if text == "" {
		return
	}
	st.raw = data
	st.text = text
	st.entry.OriginalSize = st.entry.Size
	st.entry.Size = int64(len(text))
	st.entry.Editable = false
	st.entry.Extracted = true
}

// load partitions the scanned paths into batches and stages them inside one
// index transaction. Any batch failure aborts the transaction after every
// in-flight batch has settled.
func (c *Coordinator) load(ctx context.Context, log *zap.Logger, stats *Stats) error {
	c.mu.Lock()
	paths := make([]string, len(c.order))
	copy(paths, c.order)
	c.mu.Unlock()

	if err := c.index.BeginLoad(ctx); err != nil {
		return &types.TransactionError{Op: "begin", Err: err}
	}

	total := len(paths)
	workers := c.opts.Normalized().Concurrency / 2
	if workers < 1 {
		workers = 1
	}

	var processed int32
	var binarySkipped int32
	var totalSize int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < total; start += loadBatchSize {
		end := start + loadBatchSize
		if end > total {
			end = total
		}
		batchPaths := paths[start:end]

		g.Go(func() error {
			if err := c.loadBatch(gctx, log, batchPaths, &binarySkipped, &totalSize); err != nil {
				return err
			}
			n := atomic.AddInt32(&processed, int32(len(batchPaths)))
			c.notifyLoadProgress(int(n), total)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Every in-flight batch has settled; the transaction is safe to drop
		if abortErr := c.index.AbortLoad(context.Background()); abortErr != nil {
			log.Warn("abort failed", zap.Error(abortErr))
		}
		c.setPhase(PhaseAborted)
		return err
	}

	if err := c.index.CommitLoad(ctx); err != nil {
		c.setPhase(PhaseAborted)
		return &types.TransactionError{Op: "commit", Count: total, Err: err}
	}

	stats.BinaryFilesSkipped = int(binarySkipped)
	stats.TotalSize = totalSize
	log.Debug("load committed", zap.Int("files", total), zap.Int("binary_skipped", stats.BinaryFilesSkipped))
	return nil
}

// loadBatch stages one batch. Unreadable and binary files are dropped from
// the batch rather than failing it.
func (c *Coordinator) loadBatch(ctx context.Context, log *zap.Logger, paths []string, binarySkipped *int32, totalSize *int64) error {
	batch := &index.Batch{}
	hasText := false

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.mu.Lock()
		st, ok := c.entries[path]
		c.mu.Unlock()
		if !ok {
			continue
		}

		var data []byte
		var text string
		if st.entry.Extracted {
			data = st.raw
			text = st.text
			hasText = true
		} else {
			file, err := c.fileAt(ctx, path)
			if err != nil {
				log.Debug("skipping unreadable file", zap.String("path", path), zap.Error(err))
				continue
			}
			info, err := file.Stat(ctx)
			if err != nil {
				log.Debug("skipping unreadable file", zap.String("path", path), zap.Error(err))
				continue
			}
			data, err = file.Read(ctx)
			if err != nil {
				if types.IsCancellation(err) {
					return err
				}
				log.Debug("skipping unreadable file", zap.String("path", path), zap.Error(err))
				continue
			}
			if sniff.Binary(data, path) {
				atomic.AddInt32(binarySkipped, 1)
				continue
			}
			st.mode = info.Mode
		}

		batch.Paths = append(batch.Paths, path)
		batch.Contents = append(batch.Contents, data)
		batch.ModTimes = append(batch.ModTimes, st.entry.ModTime)
		batch.Modes = append(batch.Modes, st.mode)
		batch.TextContents = append(batch.TextContents, text)
		atomic.AddInt64(totalSize, st.entry.Size)
	}

	if batch.Len() == 0 {
		return nil
	}

	var err error
	if hasText {
		err = c.index.LoadBatchWithText(ctx, batch)
	} else {
		err = c.index.LoadBatch(ctx, batch)
	}
	if err != nil {
		if types.IsCancellation(err) {
			return err
		}
		return &types.TransactionError{Op: "load", Path: batch.Paths[0], Count: batch.Len(), Err: err}
	}
	return nil
}

// fileAt resolves a relative forward-slash path to a file handle without
// creating anything
func (c *Coordinator) fileAt(ctx context.Context, path string) (fsys.File, error) {
	segs := strings.Split(path, "/")
	dir := c.root
	for _, seg := range segs[:len(segs)-1] {
		d, err := dir.Dir(ctx, seg)
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return dir.File(ctx, segs[len(segs)-1])
}

// Progress callbacks are fire-and-forget: a panicking callback never breaks
// the pipeline.

func (c *Coordinator) notifyScanProgress(count int, path string, size int64) {
	if c.onScanProgress == nil {
		return
	}
	defer func() { _ = recover() }()
	c.onScanProgress(count, path, size)
}

func (c *Coordinator) notifyExtractProgress(extracted, total int, path string) {
	if c.onExtractProgress == nil {
		return
	}
	defer func() { _ = recover() }()
	c.onExtractProgress(extracted, total, path)
}

func (c *Coordinator) notifyLoadProgress(loaded, total int) {
	if c.onLoadProgress == nil {
		return
	}
	defer func() { _ = recover() }()
	c.onLoadProgress(loaded, total)
}

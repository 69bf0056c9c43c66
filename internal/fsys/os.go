package fsys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/abaveja313/treedex/pkg/types"
)

// readDirBatch bounds how many entries are materialized per ReadDir call so
// huge directories stream instead of loading at once.
const readDirBatch = 128

// Root is a Dir bound to an OS directory. All descendant handles resolve
// paths through os.Root, so traversal cannot escape the opened directory
// even via symlinks.
type Root struct {
	osDir
}

// OpenRoot opens path as the root of a handle tree.
func OpenRoot(path string) (*Root, error) {
	r, err := os.OpenRoot(path)
	if err != nil {
		return nil, fmt.Errorf("open root %s: %w", path, err)
	}
	return &Root{osDir: osDir{sys: r, rel: ".", name: filepath.Base(path)}}, nil
}

// Close releases the underlying OS handle. Handles derived from the root
// must not be used afterwards.
func (r *Root) Close() error {
	return r.sys.Close()
}

// joinRel joins a parent-relative path and a child name with a forward
// slash, preserving the name's bytes exactly.
func joinRel(parent, name string) string {
	if parent == "." {
		return name
	}
	return parent + "/" + name
}

type osDir struct {
	sys  *os.Root
	rel  string
	name string
}

func (d *osDir) Kind() types.Kind { return types.KindDirectory }
func (d *osDir) Name() string     { return d.name }

func (d *osDir) Entries(ctx context.Context) (EntryIterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := d.sys.Open(d.rel)
	if err != nil {
		return nil, err
	}
	return &osIterator{sys: d.sys, dirRel: d.rel, f: f}, nil
}

func (d *osDir) File(ctx context.Context, name string) (File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := joinRel(d.rel, name)
	info, err := d.sys.Stat(rel)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", rel)
	}
	return &osFile{sys: d.sys, rel: rel, name: name}, nil
}

func (d *osDir) CreateFile(ctx context.Context, name string) (File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := joinRel(d.rel, name)
	f, err := d.sys.OpenFile(rel, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &osFile{sys: d.sys, rel: rel, name: name}, nil
}

func (d *osDir) Dir(ctx context.Context, name string) (Dir, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := joinRel(d.rel, name)
	info, err := d.sys.Stat(rel)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", rel)
	}
	return &osDir{sys: d.sys, rel: rel, name: name}, nil
}

func (d *osDir) CreateDir(ctx context.Context, name string) (Dir, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := joinRel(d.rel, name)
	if err := d.sys.Mkdir(rel, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return nil, err
	}
	info, err := d.sys.Stat(rel)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s exists and is not a directory", rel)
	}
	return &osDir{sys: d.sys, rel: rel, name: name}, nil
}

func (d *osDir) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.sys.Remove(joinRel(d.rel, name))
}

func (d *osDir) Permission(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := d.sys.Stat(d.rel)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", d.rel)
	}
	f, err := d.sys.Open(d.rel)
	if err != nil {
		return err
	}
	return f.Close()
}

type osFile struct {
	sys  *os.Root
	rel  string
	name string
}

func (f *osFile) Kind() types.Kind { return types.KindFile }
func (f *osFile) Name() string     { return f.name }

func (f *osFile) Stat(ctx context.Context) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}
	info, err := f.sys.Stat(f.rel)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Size: info.Size(), ModTime: info.ModTime(), Mode: info.Mode()}, nil
}

func (f *osFile) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.sys.ReadFile(f.rel)
}

func (f *osFile) OpenWriter(ctx context.Context) (Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tmpRel := fmt.Sprintf("%s.%s.tmp", f.rel, uuid.NewString()[:8])
	w, err := f.sys.OpenFile(tmpRel, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &osWriter{sys: f.sys, f: w, tmpRel: tmpRel, rel: f.rel}, nil
}

// osWriter stages content in a sibling temp file and renames it over the
// target on Close, so a failed write never leaves a half-written file.
type osWriter struct {
	sys    *os.Root
	f      *os.File
	tmpRel string
	rel    string
	done   bool
}

func (w *osWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *osWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.f.Close(); err != nil {
		_ = w.sys.Remove(w.tmpRel)
		return err
	}
	if err := w.sys.Rename(w.tmpRel, w.rel); err != nil {
		_ = w.sys.Remove(w.tmpRel)
		return err
	}
	return nil
}

func (w *osWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	_ = w.f.Close()
	return w.sys.Remove(w.tmpRel)
}

// osIterator reads directory entries in fixed-size batches. Symlinks and
// special files are not part of the handle tree and are skipped.
type osIterator struct {
	sys    *os.Root
	dirRel string
	f      *os.File
	batch  []fs.DirEntry
	next   int
	err    error
}

func (it *osIterator) Next(ctx context.Context) (Handle, bool) {
	for {
		if err := ctx.Err(); err != nil {
			it.err = err
			it.close()
			return nil, false
		}
		if it.f == nil {
			return nil, false
		}
		if it.next >= len(it.batch) {
			batch, err := it.f.ReadDir(readDirBatch)
			if err != nil && !errors.Is(err, io.EOF) {
				it.err = err
			}
			if len(batch) == 0 {
				it.close()
				return nil, false
			}
			it.batch, it.next = batch, 0
		}
		ent := it.batch[it.next]
		it.next++

		switch {
		case ent.IsDir():
			return &osDir{sys: it.sys, rel: joinRel(it.dirRel, ent.Name()), name: ent.Name()}, true
		case ent.Type().IsRegular():
			return &osFile{sys: it.sys, rel: joinRel(it.dirRel, ent.Name()), name: ent.Name()}, true
		}
	}
}

func (it *osIterator) Err() error {
	return it.err
}

func (it *osIterator) close() {
	if it.f != nil {
		_ = it.f.Close()
		it.f = nil
	}
}

package integration

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/abaveja313/treedex/internal/fsys"
	"github.com/abaveja313/treedex/internal/index"
	"github.com/abaveja313/treedex/internal/ingest"
	"github.com/abaveja313/treedex/pkg/types"
)

// PipelineTestSuite exercises the full ingest pipeline against a
// file-backed SQLite index and a real directory tree.
type PipelineTestSuite struct {
	suite.Suite
	ctx         context.Context
	fixturesDir string
	treeDir     string
	idx         *index.SQLiteIndex
	root        *fsys.Root
	coord       *ingest.Coordinator
}

// SetupSuite runs once before all tests
func (s *PipelineTestSuite) SetupSuite() {
	s.ctx = context.Background()

	wd, err := os.Getwd()
	s.Require().NoError(err)
	s.fixturesDir = filepath.Join(filepath.Dir(wd), "testdata", "fixtures")

	info, err := os.Stat(s.fixturesDir)
	s.Require().NoError(err, "fixtures directory must exist")
	s.Require().True(info.IsDir())
}

// SetupTest copies the fixture tree into a writable temp directory and
// opens a fresh file-backed index
func (s *PipelineTestSuite) SetupTest() {
	s.treeDir = s.T().TempDir()
	copyTree(s.T(), s.fixturesDir, s.treeDir)

	dbPath := filepath.Join(s.T().TempDir(), "treedex.db")
	idx, err := index.NewSQLiteIndex(dbPath)
	s.Require().NoError(err)
	s.idx = idx

	root, err := fsys.OpenRoot(s.treeDir)
	s.Require().NoError(err)
	s.root = root

	s.coord = ingest.New(root, idx)
}

// TearDownTest runs after each test
func (s *PipelineTestSuite) TearDownTest() {
	_ = s.idx.Close()
	_ = s.root.Close()
}

// addFile writes a file into the test tree, creating parents
func (s *PipelineTestSuite) addFile(name string, data []byte) {
	full := filepath.Join(s.treeDir, name)
	s.Require().NoError(os.MkdirAll(filepath.Dir(full), 0o755))
	s.Require().NoError(os.WriteFile(full, data, 0o644))
}

// TestFullPipeline ingests the tree and verifies stats, search, and
// extraction end to end
func (s *PipelineTestSuite) TestFullPipeline() {
	payload := "archived ledger snapshot for March"
	s.addFile("archive/ledger.txt.gz", gzipBytes(s.T(), payload))
	s.addFile("bin/blob.bin", []byte{0x00, 0x01, 0x02, 0xff, 0x00})

	stats, err := s.coord.Initialize(s.ctx)
	s.Require().NoError(err)

	s.Equal(7, stats.FilesScanned)
	s.Equal(6, stats.FilesLoaded)
	s.Equal(1, stats.BinaryFilesSkipped)
	s.Equal(1, stats.DocumentsExtracted)
	s.Greater(stats.TotalSize, int64(0))
	s.Equal(ingest.PhaseCommitted, s.coord.Phase())

	count, err := s.idx.FileCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(6, count)

	// Plain content search
	results, err := s.idx.SearchText(s.ctx, "pagination", 10)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal("docs/api.md", results[0].Path)

	// A term spread across several documents
	results, err = s.idx.SearchText(s.ctx, "reconciliation", 10)
	s.Require().NoError(err)
	s.Len(results, 3)

	// Extracted text is indexed in place of the compressed bytes
	results, err = s.idx.SearchText(s.ctx, "snapshot", 10)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal("archive/ledger.txt.gz", results[0].Path)
	s.True(results[0].Extracted)

	doc, err := s.idx.GetDocument(s.ctx, "archive/ledger.txt.gz")
	s.Require().NoError(err)
	s.Equal(payload, doc.TextContent)

	idxStats, err := s.idx.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(6, idxStats.Documents)
	s.Equal(1, idxStats.ExtractedDocs)
	s.False(idxStats.LastLoadedAt.IsZero())
}

// TestReingest verifies that a second run replaces the snapshot
func (s *PipelineTestSuite) TestReingest() {
	_, err := s.coord.Initialize(s.ctx)
	s.Require().NoError(err)

	s.addFile("src/notes.txt", []byte("completely rewritten ledger commentary"))

	stats, err := s.coord.Initialize(s.ctx)
	s.Require().NoError(err)
	s.Equal(5, stats.FilesLoaded)

	doc, err := s.idx.GetDocument(s.ctx, "src/notes.txt")
	s.Require().NoError(err)
	s.Equal("completely rewritten ledger commentary", string(doc.Content))

	results, err := s.idx.SearchText(s.ctx, "commentary", 10)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal("src/notes.txt", results[0].Path)
}

// TestScanFilters verifies exclude patterns and hidden filtering reach
// the index
func (s *PipelineTestSuite) TestScanFilters() {
	s.addFile(".hidden/secret.txt", []byte("do not surface"))

	opts := types.DefaultScanOptions()
	opts.Exclude = []string{"data/**"}
	c := ingest.New(s.root, s.idx, ingest.WithScanOptions(opts))

	stats, err := c.Initialize(s.ctx)
	s.Require().NoError(err)
	s.Equal(4, stats.FilesScanned)
	s.Equal(4, stats.FilesLoaded)

	_, err = s.idx.GetDocument(s.ctx, "data/records.csv")
	s.ErrorIs(err, index.ErrNotFound)
	_, err = s.idx.GetDocument(s.ctx, ".hidden/secret.txt")
	s.ErrorIs(err, index.ErrNotFound)
}

// TestWriteBack verifies modified content lands on disk and is visible to
// the next ingestion run
func (s *PipelineTestSuite) TestWriteBack() {
	_, err := s.coord.Initialize(s.ctx)
	s.Require().NoError(err)

	written, err := s.coord.WriteModifiedFiles(s.ctx, []ingest.FileWrite{
		{Path: "docs/api.md", Content: []byte("# API Reference\n\nRewritten with idempotency keys.\n")},
		{Path: "docs/changelog.md", Content: []byte("## v2\n\nAdded idempotency keys everywhere.\n")},
	})
	s.Require().NoError(err)
	s.Equal(2, written)

	data, err := os.ReadFile(filepath.Join(s.treeDir, "docs", "changelog.md"))
	s.Require().NoError(err)
	s.Contains(string(data), "idempotency")

	stats, err := s.coord.Initialize(s.ctx)
	s.Require().NoError(err)
	s.Equal(6, stats.FilesLoaded)

	results, err := s.idx.SearchText(s.ctx, "idempotency", 10)
	s.Require().NoError(err)
	s.Len(results, 2)
}

// TestRemoveFile verifies removal from both disk and index
func (s *PipelineTestSuite) TestRemoveFile() {
	_, err := s.coord.Initialize(s.ctx)
	s.Require().NoError(err)

	err = s.coord.RemoveFile(s.ctx, "data/records.csv")
	s.Require().NoError(err)

	_, statErr := os.Stat(filepath.Join(s.treeDir, "data", "records.csv"))
	s.True(os.IsNotExist(statErr))

	count, err := s.idx.FileCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(4, count)

	_, err = s.idx.GetDocument(s.ctx, "data/records.csv")
	s.ErrorIs(err, index.ErrNotFound)
}

// TestFailedLoadKeepsPreviousSnapshot verifies that an aborted run leaves
// the prior snapshot untouched
func (s *PipelineTestSuite) TestFailedLoadKeepsPreviousSnapshot() {
	_, err := s.coord.Initialize(s.ctx)
	s.Require().NoError(err)

	before, err := s.idx.FileCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(5, before)

	failing := &failingIndex{Index: s.idx}
	c := ingest.New(s.root, failing)

	_, err = c.Initialize(s.ctx)
	s.Require().Error(err)

	var txErr *types.TransactionError
	s.Require().ErrorAs(err, &txErr)
	s.Equal(ingest.PhaseAborted, c.Phase())

	after, err := s.idx.FileCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(before, after)

	doc, err := s.idx.GetDocument(s.ctx, "README.md")
	s.Require().NoError(err)
	s.Contains(string(doc.Content), "Sample Project")
}

// TestPipelineTestSuite runs the suite
func TestPipelineTestSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

// Helpers

// failingIndex wraps a real index and fails every load batch
type failingIndex struct {
	index.Index
}

func (f *failingIndex) LoadBatch(ctx context.Context, batch *index.Batch) error {
	return errors.New("simulated load failure")
}

// copyTree recursively copies a fixture tree into dst
func copyTree(t testing.TB, src, dst string) {
	t.Helper()

	entries, err := os.ReadDir(src)
	require.NoError(t, err)

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			require.NoError(t, os.MkdirAll(dstPath, 0o755))
			copyTree(t, srcPath, dstPath)
			continue
		}

		data, err := os.ReadFile(srcPath)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(dstPath, data, 0o644))
	}
}

// gzipBytes compresses a payload for archive fixtures
func gzipBytes(t testing.TB, payload string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

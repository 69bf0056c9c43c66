package extract

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zstdCompress compresses content for test fixtures
func zstdCompress(t *testing.T, content []byte) []byte {
	t.Helper()

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	return enc.EncodeAll(content, nil)
}

// gzipCompress compresses content for test fixtures
func gzipCompress(t *testing.T, content []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// TestZstdExtractor_Supports tests path recognition
func TestZstdExtractor_Supports(t *testing.T) {
	e := ZstdExtractor{}

	assert.True(t, e.Supports("notes.txt.zst"))
	assert.True(t, e.Supports("doc.ZSTD"))
	assert.False(t, e.Supports("notes.txt"))
	assert.False(t, e.Supports("bundle.tar.zst"))
	assert.False(t, e.Supports("bundle.tar.zstd"))
}

// TestZstdExtractor_ExtractText tests round-trip extraction
func TestZstdExtractor_ExtractText(t *testing.T) {
	content := []byte("compressed report\nline two\n")
	data := zstdCompress(t, content)

	text, err := ZstdExtractor{}.ExtractText(context.Background(), "report.txt.zst", data)
	require.NoError(t, err)
	assert.Equal(t, string(content), text)
}

// TestZstdExtractor_CorruptInput tests failure on garbage bytes
func TestZstdExtractor_CorruptInput(t *testing.T) {
	_, err := ZstdExtractor{}.ExtractText(context.Background(), "x.zst", []byte("not zstd at all"))
	assert.Error(t, err)
}

// TestZstdExtractor_BinaryPayload tests rejection of non-text payloads
func TestZstdExtractor_BinaryPayload(t *testing.T) {
	data := zstdCompress(t, []byte{0x89, 'P', 'N', 'G', 0x00, 0x01, 0x02})

	_, err := ZstdExtractor{}.ExtractText(context.Background(), "img.png.zst", data)
	assert.Error(t, err)
}

// TestGzipExtractor_Supports tests path recognition
func TestGzipExtractor_Supports(t *testing.T) {
	e := GzipExtractor{}

	assert.True(t, e.Supports("notes.txt.gz"))
	assert.True(t, e.Supports("LOG.GZ"))
	assert.False(t, e.Supports("notes.txt"))
	assert.False(t, e.Supports("bundle.tar.gz"))
}

// TestGzipExtractor_ExtractText tests round-trip extraction
func TestGzipExtractor_ExtractText(t *testing.T) {
	content := []byte("gzipped changelog\n")
	data := gzipCompress(t, content)

	text, err := GzipExtractor{}.ExtractText(context.Background(), "CHANGELOG.gz", data)
	require.NoError(t, err)
	assert.Equal(t, string(content), text)
}

// TestGzipExtractor_CorruptInput tests failure on garbage bytes
func TestGzipExtractor_CorruptInput(t *testing.T) {
	_, err := GzipExtractor{}.ExtractText(context.Background(), "x.gz", []byte("no gzip header"))
	assert.Error(t, err)
}

// TestExtract_Canceled tests context checks before work
func TestExtract_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ZstdExtractor{}.ExtractText(ctx, "a.zst", nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = GzipExtractor{}.ExtractText(ctx, "a.gz", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestRegistry_Dispatch tests first-match dispatch across extractors
func TestRegistry_Dispatch(t *testing.T) {
	r := DefaultRegistry()

	assert.True(t, r.Supports("a.zst"))
	assert.True(t, r.Supports("a.gz"))
	assert.False(t, r.Supports("a.txt"))

	content := []byte("dispatched")
	text, err := r.ExtractText(context.Background(), "a.txt.gz", gzipCompress(t, content))
	require.NoError(t, err)
	assert.Equal(t, "dispatched", text)

	_, err = r.ExtractText(context.Background(), "a.txt", []byte("plain"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no extractor"))
}

// TestRegistry_Empty tests the degenerate registry
func TestRegistry_Empty(t *testing.T) {
	r := NewRegistry()

	assert.False(t, r.Supports("a.zst"))
	_, err := r.ExtractText(context.Background(), "a.zst", nil)
	assert.Error(t, err)
}

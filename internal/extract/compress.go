package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/abaveja313/treedex/internal/sniff"
)

// maxExtractedBytes caps decompressed output so a small compressed file
// cannot balloon into an unbounded allocation.
const maxExtractedBytes = 64 << 20

var errNotText = errors.New("decompressed content is not text")

// ZstdExtractor extracts text from zstd-compressed documents (.zst, .zstd).
// Tarballs are not documents and are not supported.
type ZstdExtractor struct{}

func (ZstdExtractor) Supports(p string) bool {
	lower := strings.ToLower(p)
	if strings.HasSuffix(lower, ".tar.zst") || strings.HasSuffix(lower, ".tar.zstd") {
		return false
	}
	ext := path.Ext(lower)
	return ext == ".zst" || ext == ".zstd"
}

func (ZstdExtractor) ExtractText(ctx context.Context, p string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxExtractedBytes))
	if err != nil {
		return "", fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return "", fmt.Errorf("decompress %s: %w", p, err)
	}
	return asText(p, out)
}

// GzipExtractor extracts text from gzip-compressed documents (.gz).
// Tarballs (.tar.gz, .tgz) are not supported.
type GzipExtractor struct{}

func (GzipExtractor) Supports(p string) bool {
	lower := strings.ToLower(p)
	if strings.HasSuffix(lower, ".tar.gz") {
		return false
	}
	return path.Ext(lower) == ".gz"
}

func (GzipExtractor) ExtractText(ctx context.Context, p string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open gzip stream %s: %w", p, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, maxExtractedBytes+1))
	if err != nil {
		return "", fmt.Errorf("decompress %s: %w", p, err)
	}
	if len(out) > maxExtractedBytes {
		return "", fmt.Errorf("decompressed %s exceeds %d bytes", p, maxExtractedBytes)
	}
	return asText(p, out)
}

// asText validates that decompressed output is textual, classifying it
// under the inner file name (the path minus its compression extension).
func asText(p string, out []byte) (string, error) {
	inner := strings.TrimSuffix(p, path.Ext(p))
	if sniff.Binary(out, inner) {
		return "", fmt.Errorf("%s: %w", p, errNotText)
	}
	return string(out), nil
}

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/abaveja313/treedex/internal/fsys"
	"github.com/abaveja313/treedex/internal/index"
	"github.com/abaveja313/treedex/internal/ingest"
)

// benchTree builds a flat tree of n small text files
func benchTree(b *testing.B, n int) string {
	b.Helper()

	dir := b.TempDir()
	for i := 0; i < n; i++ {
		name := filepath.Join(dir, fmt.Sprintf("doc%04d.txt", i))
		content := fmt.Sprintf("benchmark document %d with some searchable words", i)
		if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
			b.Fatal(err)
		}
	}
	return dir
}

func BenchmarkIngest(b *testing.B) {
	dir := benchTree(b, 200)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx, err := index.NewSQLiteIndex(":memory:")
		if err != nil {
			b.Fatal(err)
		}
		root, err := fsys.OpenRoot(dir)
		if err != nil {
			b.Fatal(err)
		}

		c := ingest.New(root, idx)
		if _, err := c.Initialize(ctx); err != nil {
			b.Fatal(err)
		}

		_ = idx.Close()
		_ = root.Close()
	}
}

func BenchmarkSearch(b *testing.B) {
	dir := benchTree(b, 200)
	ctx := context.Background()

	idx, err := index.NewSQLiteIndex(":memory:")
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = idx.Close() }()

	root, err := fsys.OpenRoot(dir)
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = root.Close() }()

	c := ingest.New(root, idx)
	if _, err := c.Initialize(ctx); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := idx.SearchText(ctx, "searchable", 10); err != nil {
			b.Fatal(err)
		}
	}
}

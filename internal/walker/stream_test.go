package walker

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abaveja313/treedex/pkg/types"
)

// TestStream_DeliversAllEntries tests full consumption
func TestStream_DeliversAllEntries(t *testing.T) {
	root := setupTree(t)

	entries, errc := New().Stream(context.Background(), root, types.DefaultScanOptions())

	var paths []string
	for e := range entries {
		paths = append(paths, e.Path)
	}
	require.NoError(t, <-errc)

	sort.Strings(paths)
	assert.Equal(t, []string{
		"a.txt", "b.md", "big.bin", "sub", "sub/c.txt", "sub/nested", "sub/nested/d.txt",
	}, paths)
}

// TestStream_CancelStopsProduction tests early termination by the consumer
func TestStream_CancelStopsProduction(t *testing.T) {
	root := setupTree(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries, errc := New().Stream(ctx, root, types.DefaultScanOptions())

	first, ok := <-entries
	require.True(t, ok)
	assert.NoError(t, first.Validate())

	cancel()
	for range entries {
		// drain whatever was already in flight
	}
	assert.ErrorIs(t, <-errc, context.Canceled)
}

// TestStream_IsPullDriven tests that production stalls until the consumer
// receives
func TestStream_IsPullDriven(t *testing.T) {
	root := setupTree(t)

	w := New()
	processed := make(chan int, 16)
	w.On(EventProgress, func(ev Event) { processed <- ev.Processed })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries, errc := w.Stream(ctx, root, types.DefaultScanOptions())

	<-entries
	assert.Equal(t, 1, <-processed)

	// With the consumer idle the producer may compute at most the next
	// entry; it cannot run ahead of the unbuffered channel.
	time.Sleep(20 * time.Millisecond)
	select {
	case n := <-processed:
		t.Fatalf("producer advanced to %d entries without a consumer", n)
	default:
	}

	cancel()
	for range entries {
	}
	<-errc
}

// TestStream_PropagatesWalkErrors tests terminal error delivery
func TestStream_PropagatesWalkErrors(t *testing.T) {
	root := setupTree(t)

	opts := types.DefaultScanOptions()
	opts.Exclude = []string{"[bad"}
	entries, errc := New().Stream(context.Background(), root, opts)

	for range entries {
		t.Fatal("no entries expected for an invalid pattern")
	}
	assert.Error(t, <-errc)
}

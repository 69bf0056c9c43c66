package ingest

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIngestLock(t *testing.T) {
	var lock IngestLock

	assert.True(t, lock.TryAcquire())
	assert.False(t, lock.TryAcquire(), "Second acquire should fail while held")

	lock.Release()
	assert.True(t, lock.TryAcquire(), "Acquire should succeed after release")
	lock.Release()
}

// TestIngestLock_Concurrent tests that exactly one goroutine wins the lock
func TestIngestLock_Concurrent(t *testing.T) {
	var lock IngestLock
	var acquired atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if lock.TryAcquire() {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), acquired.Load())
}

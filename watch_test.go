package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestWatchFilesReportsChangedSource(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.ts")
	assert.NilError(t, os.WriteFile(source, []byte("export const a = 1;"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []string, 16)
	done := make(chan error, 1)
	go func() {
		done <- WatchFiles(ctx, []string{dir}, func(changed []string) {
			changes <- changed
		})
	}()

	ticker := time.NewTicker(3 * watchDebounce)
	defer ticker.Stop()
	timeout := time.After(5 * time.Second)

	var changed []string
wait:
	for {
		select {
		case changed = <-changes:
			break wait
		case <-ticker.C:
			// the watcher may not be registered yet, so keep writing
			assert.NilError(t, os.WriteFile(source, []byte("export const a = 2;"), 0644))
			assert.NilError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
		case <-timeout:
			t.Fatal("no change reported")
		}
	}

	assert.DeepEqual(t, changed, []string{filepath.Clean(source)})

	cancel()
	select {
	case err := <-done:
		assert.NilError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchFilesMissingPath(t *testing.T) {
	err := WatchFiles(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, func([]string) {})
	assert.ErrorContains(t, err, "failed to watch")
}

func TestChangeBatchRunsOneFlushAtATime(t *testing.T) {
	var active, maxActive atomic.Int32
	var mu sync.Mutex
	delivered := 0

	batch := newChangeBatch(func(changed []string) {
		n := active.Add(1)
		for {
			seen := maxActive.Load()
			if n <= seen || maxActive.CompareAndSwap(seen, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		delivered += len(changed)
		mu.Unlock()
		active.Add(-1)
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		batch.mu.Lock()
		batch.pending[fmt.Sprintf("f%d.ts", i)] = struct{}{}
		batch.mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			batch.flush()
		}()
	}
	wg.Wait()

	assert.Equal(t, maxActive.Load(), int32(1))
	assert.Equal(t, delivered, 8)
}

func TestChangeBatchStopDropsPending(t *testing.T) {
	calls := 0
	batch := newChangeBatch(func([]string) { calls++ })
	batch.add("a.ts")
	batch.stop()
	batch.flush()
	batch.add("b.ts")

	time.Sleep(3 * watchDebounce)
	assert.Equal(t, calls, 0)
}

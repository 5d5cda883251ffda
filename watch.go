package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// WatchFiles calls onChange with the set of changed paths after each burst
// of writes under paths. Directories are watched for the files they contain.
// It blocks until ctx is done.
func WatchFiles(ctx context.Context, paths []string, onChange func(changed []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	batch := newChangeBatch(onChange)

	for {
		select {
		case <-ctx.Done():
			batch.stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				batch.stop()
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if KindFromFilename(event.Name) == KindOpaque {
				continue
			}
			logger.Debugw("watched file changed", "file", event.Name, "op", event.Op.String())
			batch.add(filepath.Clean(event.Name))

		case err, ok := <-watcher.Errors:
			if !ok {
				batch.stop()
				return nil
			}
			logger.Warnw("file watcher error", "error", err)
		}
	}
}

// changeBatch collects changed paths and hands them to onChange after
// watchDebounce without further changes. Flushes run one at a time, so a
// burst arriving during onChange is delivered once the call returns.
type changeBatch struct {
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool

	running  sync.Mutex
	onChange func(changed []string)
}

func newChangeBatch(onChange func(changed []string)) *changeBatch {
	return &changeBatch{pending: map[string]struct{}{}, onChange: onChange}
}

func (b *changeBatch) add(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.pending[path] = struct{}{}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(watchDebounce, b.flush)
}

func (b *changeBatch) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
	}
}

func (b *changeBatch) flush() {
	b.running.Lock()
	defer b.running.Unlock()

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(b.pending))
	for path := range b.pending {
		changed = append(changed, path)
	}
	b.pending = map[string]struct{}{}
	b.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	slices.Sort(changed)
	b.onChange(changed)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the settle window for history file events. A
// burst of events (our own atomic rename included) collapses into at most
// one reload after the window passes.
const DefaultWatchDebounce = 500 * time.Millisecond

// =============================================================================
// HISTORY WATCHER
// =============================================================================

// Watcher observes the history file of a FileKV backend and invokes a
// callback when another process rewrites it. Only the file backend is
// watchable; sqlite offers no cross-process change notification here.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func()

	mu        sync.Mutex
	pending   time.Time
	selfWrite func() bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWatcher creates a watcher for the history key of kv. onChange runs on
// the watcher goroutine; callers needing serialization should forward into
// their own event loop (the TUI sends a Bubble Tea message).
func NewWatcher(kv *FileKV, debounce time.Duration, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		watcher:  fsw,
		path:     kv.Path(KeyChatHistory),
		debounce: debounce,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}
	return w, nil
}

// SetSelfWriteFilter installs a predicate consulted when a settled change
// is about to fire. When it returns true the reload is dropped; used with
// HistoryStore.WroteWithin so this process's own flushes never trigger a
// reload.
func (w *Watcher) SetSelfWriteFilter(fn func() bool) {
	w.mu.Lock()
	w.selfWrite = fn
	w.mu.Unlock()
}

// Watch starts watching. The directory is watched rather than the file
// itself: atomic renames replace the inode, which would silently detach a
// file-level watch.
func (w *Watcher) Watch() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go w.processEvents()
	go w.processPending()
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("history watcher: %v", err)
		}
	}
}

// processPending fires the callback once events have settled.
func (w *Watcher) processPending() {
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.mu.Lock()
			fire := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if fire {
				w.pending = time.Time{}
			}
			filter := w.selfWrite
			w.mu.Unlock()

			if !fire {
				continue
			}
			if filter != nil && filter() {
				continue
			}
			if w.onChange != nil {
				w.onChange()
			}
		}
	}
}

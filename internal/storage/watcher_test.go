// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/fintra-ai/fintra-tui/internal/model"
)

const testDebounce = 50 * time.Millisecond

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWatcherFiresOnExternalWrite(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKV failed: %v", err)
	}

	var fired atomic.Int32
	w, err := NewWatcher(kv, testDebounce, func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()
	if err := w.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := kv.Set(KeyChatHistory, []byte("[]")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return fired.Load() > 0 }) {
		t.Fatal("external history write did not trigger the callback")
	}
}

func TestWatcherSelfWriteFilterSuppressesCallback(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKV failed: %v", err)
	}

	var fired atomic.Int32
	w, err := NewWatcher(kv, testDebounce, func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()
	w.SetSelfWriteFilter(func() bool { return true })
	if err := w.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := kv.Set(KeyChatHistory, []byte("[]")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(6 * testDebounce)
	if fired.Load() != 0 {
		t.Fatalf("filtered write fired %d callbacks, want 0", fired.Load())
	}
}

// A user viewing an older session must stay on it after appending a message:
// the store's own flush must not come back through the watcher as a reload
// that re-derives the active session.
func TestWatcherIgnoresOwnFlushes(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKV failed: %v", err)
	}

	h := NewHistoryStore(kv)
	if err := h.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	olderID := h.ActiveID()
	h.CreateSession()
	if _, err := h.SwitchActive(olderID); err != nil {
		t.Fatalf("SwitchActive failed: %v", err)
	}

	w, err := NewWatcher(kv, testDebounce, func() { h.Reload() })
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()
	w.SetSelfWriteFilter(func() bool { return h.WroteWithin(4 * testDebounce) })
	if err := w.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	msg := model.NewMessage("KCHOL güncellemesi", model.SenderUser, model.KindNormal, nil)
	if err := h.AppendMessage(olderID, msg); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	time.Sleep(6 * testDebounce)
	if h.ActiveID() != olderID {
		t.Errorf("active = %q after own write, want %q", h.ActiveID(), olderID)
	}
}

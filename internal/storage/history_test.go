// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/fintra-ai/fintra-tui/internal/model"
)

// flakyKV is an in-memory KV whose failure modes can be toggled per test.
type flakyKV struct {
	data      map[string][]byte
	deleteErr error
}

func newFlakyKV() *flakyKV {
	return &flakyKV{data: make(map[string][]byte)}
}

func (f *flakyKV) Get(key string) ([]byte, error) {
	v, ok := f.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

func (f *flakyKV) Set(key string, value []byte) error {
	f.data[key] = value
	return nil
}

func (f *flakyKV) Delete(key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.data, key)
	return nil
}

func (f *flakyKV) Close() error { return nil }

func newTestStore(t *testing.T) (*HistoryStore, KV) {
	t.Helper()
	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKV failed: %v", err)
	}
	h := NewHistoryStore(kv)
	if err := h.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return h, kv
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func TestInitializeCreatesFirstSession(t *testing.T) {
	h, _ := newTestStore(t)

	if h.Count() != 1 {
		t.Fatalf("session count = %d, want 1", h.Count())
	}
	active := h.Active()
	if active == nil {
		t.Fatal("no active session after Initialize")
	}
	if active.Title != model.PlaceholderTitle {
		t.Errorf("Title = %q, want placeholder", active.Title)
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	h, _ := newTestStore(t)

	if err := h.Initialize(); err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}
	if h.Count() != 1 {
		t.Errorf("session count = %d after double init, want 1", h.Count())
	}
}

func TestInitializeLoadsPersistedCollection(t *testing.T) {
	kv, _ := NewFileKV(t.TempDir())
	h := NewHistoryStore(kv)
	h.Initialize()

	id, _ := h.CreateSession()
	h.AppendMessage(id, model.NewMessage("merhaba", model.SenderUser, model.KindNormal, nil))

	// Fresh store over the same KV sees the same collection, newest first,
	// with the first session active.
	h2 := NewHistoryStore(kv)
	if err := h2.Initialize(); err != nil {
		t.Fatalf("reload Initialize failed: %v", err)
	}
	if h2.Count() != 2 {
		t.Fatalf("reloaded count = %d, want 2", h2.Count())
	}
	if h2.ActiveID() != h2.Sessions()[0].ID {
		t.Error("active session should be first in collection after load")
	}
	if h2.Sessions()[0].ID != id {
		t.Error("newest session should be first after reload")
	}
	if h2.Sessions()[0].Messages[0].Text != "merhaba" {
		t.Error("messages did not round-trip")
	}
}

// =============================================================================
// RELOAD
// =============================================================================

// A reload triggered by this process's own flush must not move the user off
// the session they are viewing.
func TestReloadPreservesSurvivingActiveSession(t *testing.T) {
	h, _ := newTestStore(t)
	olderID := h.ActiveID()
	h.CreateSession()

	if _, err := h.SwitchActive(olderID); err != nil {
		t.Fatalf("SwitchActive failed: %v", err)
	}
	h.AppendMessage(olderID, model.NewMessage("hala burada", model.SenderUser, model.KindNormal, nil))

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if h.ActiveID() != olderID {
		t.Errorf("active = %q after reload, want %q (not the newest)", h.ActiveID(), olderID)
	}
}

func TestReloadActivatesFirstWhenActiveGone(t *testing.T) {
	h, kv := newTestStore(t)
	olderID := h.ActiveID()
	newerID, _ := h.CreateSession()
	h.SwitchActive(olderID)

	// Another process removes the session we are viewing.
	other := NewHistoryStore(kv)
	other.Initialize()
	if err := other.DeleteSession(olderID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if h.ActiveID() != newerID {
		t.Errorf("active = %q, want first remaining %q", h.ActiveID(), newerID)
	}
}

func TestWroteWithinTracksFlushes(t *testing.T) {
	fresh := NewHistoryStore(newFlakyKV())
	if fresh.WroteWithin(time.Minute) {
		t.Error("store reports a write before any flush")
	}

	h, _ := newTestStore(t) // Initialize flushes the first session
	if !h.WroteWithin(time.Minute) {
		t.Error("flush not tracked")
	}
}

// =============================================================================
// CREATE / SWITCH
// =============================================================================

func TestCreateSessionPrependsAndActivates(t *testing.T) {
	h, _ := newTestStore(t)
	firstID := h.ActiveID()

	id, err := h.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if h.ActiveID() != id {
		t.Error("new session should be active")
	}
	sessions := h.Sessions()
	if sessions[0].ID != id {
		t.Error("new session should be first (newest-first order)")
	}
	if sessions[1].ID != firstID {
		t.Error("prior session should follow the new one")
	}
}

func TestSwitchActive(t *testing.T) {
	h, _ := newTestStore(t)
	firstID := h.ActiveID()
	h.CreateSession()

	s, err := h.SwitchActive(firstID)
	if err != nil {
		t.Fatalf("SwitchActive failed: %v", err)
	}
	if s.ID != firstID || h.ActiveID() != firstID {
		t.Error("active session not switched")
	}
}

func TestSwitchActiveNotFound(t *testing.T) {
	h, _ := newTestStore(t)

	_, err := h.SwitchActive("chat_0_dead")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

// =============================================================================
// APPEND
// =============================================================================

func TestAppendMessageUpdatesDerivedFields(t *testing.T) {
	h, _ := newTestStore(t)
	id := h.ActiveID()

	long := "Hello there, this message is intentionally longer than thirty characters"
	if err := h.AppendMessage(id, model.NewMessage(long, model.SenderUser, model.KindNormal, nil)); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	s, _ := h.Get(id)
	if s.Title != "Hello there, this message is i..." {
		t.Errorf("Title = %q", s.Title)
	}
	if s.Preview != "Hello there, this message is intentionally longer ..." {
		t.Errorf("Preview = %q", s.Preview)
	}
	if len(s.Messages) != 1 {
		t.Errorf("message count = %d, want 1", len(s.Messages))
	}
}

func TestAppendMessageNotFound(t *testing.T) {
	h, _ := newTestStore(t)

	err := h.AppendMessage("chat_0_dead", model.NewMessage("x", model.SenderUser, model.KindNormal, nil))
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAppendMessageFlushesBeforeReturn(t *testing.T) {
	kv, _ := NewFileKV(t.TempDir())
	h := NewHistoryStore(kv)
	h.Initialize()

	h.AppendMessage(h.ActiveID(), model.NewMessage("durable", model.SenderUser, model.KindNormal, nil))

	// A second store over the same KV must already see the message.
	h2 := NewHistoryStore(kv)
	h2.Initialize()
	if h2.Active().MessageCount() != 1 {
		t.Error("append was not durable before return")
	}
}

// =============================================================================
// DELETE / CLEAR
// =============================================================================

func TestDeleteOnlySessionAutoCreatesReplacement(t *testing.T) {
	h, _ := newTestStore(t)
	onlyID := h.ActiveID()

	if err := h.DeleteSession(onlyID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	if h.Count() != 1 {
		t.Fatalf("count = %d, want 1 (auto-created)", h.Count())
	}
	active := h.Active()
	if active == nil || active.ID == onlyID {
		t.Error("a fresh session should have been created and activated")
	}
	if !active.IsEmpty() {
		t.Error("replacement session should have no messages")
	}
}

func TestDeleteActiveActivatesFirstRemaining(t *testing.T) {
	h, _ := newTestStore(t)
	olderID := h.ActiveID()
	newerID, _ := h.CreateSession() // active, first in collection

	if err := h.DeleteSession(newerID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if h.ActiveID() != olderID {
		t.Errorf("active = %q, want first remaining %q", h.ActiveID(), olderID)
	}
}

func TestDeleteInactiveKeepsActive(t *testing.T) {
	h, _ := newTestStore(t)
	olderID := h.ActiveID()
	newerID, _ := h.CreateSession()

	if err := h.DeleteSession(olderID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if h.ActiveID() != newerID {
		t.Error("deleting an inactive session must not change the active one")
	}
}

func TestDeleteSessionNotFound(t *testing.T) {
	h, _ := newTestStore(t)

	err := h.DeleteSession("chat_0_dead")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestClearAll(t *testing.T) {
	h, kv := newTestStore(t)
	h.AppendMessage(h.ActiveID(), model.NewMessage("x", model.SenderUser, model.KindNormal, nil))
	h.CreateSession()

	if err := h.ClearAll(); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}

	if h.Count() != 1 {
		t.Fatalf("count = %d after clear, want 1", h.Count())
	}
	if !h.Active().IsEmpty() {
		t.Error("post-clear session should be empty")
	}

	// The fresh session is itself persisted.
	h2 := NewHistoryStore(kv)
	h2.Initialize()
	if h2.Count() != 1 {
		t.Error("cleared state did not persist")
	}
}

// A failed backend delete still leaves one fresh active session in memory;
// sends afterwards must not hit ErrSessionNotFound.
func TestClearAllStaysUsableWhenDeleteFails(t *testing.T) {
	kv := newFlakyKV()
	h := NewHistoryStore(kv)
	h.Initialize()
	h.AppendMessage(h.ActiveID(), model.NewMessage("x", model.SenderUser, model.KindNormal, nil))

	kv.deleteErr = errors.New("disk gone")
	err := h.ClearAll()

	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("ClearAll error = %v, want *PersistenceError", err)
	}
	if h.Count() != 1 {
		t.Fatalf("count = %d after failed clear, want 1", h.Count())
	}
	active := h.Active()
	if active == nil || !active.IsEmpty() {
		t.Fatal("no fresh active session after failed clear")
	}
	if aerr := h.AppendMessage(h.ActiveID(), model.NewMessage("y", model.SenderUser, model.KindNormal, nil)); aerr != nil {
		t.Errorf("append after failed clear: %v", aerr)
	}
}

// =============================================================================
// INVARIANTS
// =============================================================================

// The active ID always refers to a session present in the collection, for
// any sequence of creates and deletes.
func TestActiveAlwaysPresent(t *testing.T) {
	h, _ := newTestStore(t)

	ids := []string{h.ActiveID()}
	for i := 0; i < 4; i++ {
		id, _ := h.CreateSession()
		ids = append(ids, id)
	}
	for _, id := range ids {
		if _, err := h.Get(h.ActiveID()); err != nil {
			t.Fatalf("active %q not in collection", h.ActiveID())
		}
		h.DeleteSession(id)
	}
	if _, err := h.Get(h.ActiveID()); err != nil {
		t.Fatalf("active %q not in collection after draining", h.ActiveID())
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fintra-ai/fintra-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrSessionNotFound is returned when a session ID matches nothing in the
// collection. Use errors.Is(err, ErrSessionNotFound) to check for it.
var ErrSessionNotFound = &HistoryError{Message: "session not found"}

// HistoryError represents a chat-history error.
type HistoryError struct {
	Message string
}

// Error implements the error interface.
func (e *HistoryError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing history errors.
func (e *HistoryError) Is(target error) bool {
	t, ok := target.(*HistoryError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// PersistenceError wraps a failed durable-store write. The in-memory
// collection is still updated when this is returned; callers surface it as
// a transient notice, never as a fatal condition.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persist chat history: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// =============================================================================
// HISTORY STORE
// =============================================================================

// HistoryStore owns the ordered collection of chat sessions. The collection
// is newest-first; exactly one session is active once Initialize has run.
// Every mutation flushes the full collection to the KV store before
// returning.
type HistoryStore struct {
	mu sync.Mutex

	kv          KV
	sessions    []*model.Session // newest first
	activeID    string
	lastFlush   time.Time
	initialized bool
}

// NewHistoryStore creates a store backed by kv. Call Initialize before use.
func NewHistoryStore(kv KV) *HistoryStore {
	return &HistoryStore{kv: kv}
}

// Initialize loads the persisted collection. With no (or empty) persisted
// state it creates exactly one fresh session and makes it active. The
// active session is always re-derived as the first loaded session; it is
// deliberately not persisted (matches the original client's behavior).
// Safe to call more than once; only the first call does work.
func (h *HistoryStore) Initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized {
		return nil
	}
	h.initialized = true

	if err := h.loadLocked(); err != nil {
		return err
	}
	if len(h.sessions) == 0 {
		h.createLocked()
		return h.flushLocked()
	}
	h.activeID = h.sessions[0].ID
	return nil
}

// loadLocked reads the collection from the KV store.
func (h *HistoryStore) loadLocked() error {
	data, err := h.kv.Get(KeyChatHistory)
	if errors.Is(err, ErrKeyNotFound) {
		h.sessions = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("load chat history: %w", err)
	}

	var sessions []*model.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return fmt.Errorf("decode chat history: %w", err)
	}
	h.sessions = sessions
	return nil
}

// Reload re-reads the collection from the KV store, replacing in-memory
// state. The active session is kept when it survived the rewrite; when it
// is gone the first loaded session becomes active, same as on a fresh
// load. Used by the history watcher when another process writes.
func (h *HistoryStore) Reload() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.loadLocked(); err != nil {
		return err
	}
	if len(h.sessions) == 0 {
		h.createLocked()
		return h.flushLocked()
	}
	if h.findLocked(h.activeID) == nil {
		h.activeID = h.sessions[0].ID
	}
	return nil
}

// WroteWithin reports whether this store flushed to the KV backend within
// the last d. The history watcher consults it so reloads never fire for
// this process's own writes.
func (h *HistoryStore) WroteWithin(d time.Duration) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.lastFlush.IsZero() && time.Since(h.lastFlush) < d
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreateSession prepends a fresh session and makes it active. The returned
// error is always a *PersistenceError when non-nil; the session exists in
// memory either way.
func (h *HistoryStore) CreateSession() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.createLocked()
	return s.ID, h.flushLocked()
}

// createLocked prepends a new session and activates it.
func (h *HistoryStore) createLocked() *model.Session {
	s := model.NewSession()
	h.sessions = append([]*model.Session{s}, h.sessions...)
	h.activeID = s.ID
	return s
}

// AppendMessage appends msg to the identified session, updating the derived
// title/preview/timestamp fields, and flushes. Messages are immutable once
// appended.
func (h *HistoryStore) AppendMessage(sessionID string, msg model.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.findLocked(sessionID)
	if s == nil {
		return ErrSessionNotFound
	}
	s.Append(msg)
	return h.flushLocked()
}

// SwitchActive makes sessionID the active session and returns it for
// rendering.
func (h *HistoryStore) SwitchActive(sessionID string) (*model.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.findLocked(sessionID)
	if s == nil {
		return nil, ErrSessionNotFound
	}
	h.activeID = sessionID
	return s, nil
}

// DeleteSession removes the identified session. When the deleted session
// was active, the first remaining session becomes active; when the
// collection empties, a fresh session is created instead.
func (h *HistoryStore) DeleteSession(sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := -1
	for i, s := range h.sessions {
		if s.ID == sessionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrSessionNotFound
	}

	h.sessions = append(h.sessions[:idx], h.sessions[idx+1:]...)

	if sessionID == h.activeID {
		if len(h.sessions) > 0 {
			h.activeID = h.sessions[0].ID
		} else {
			h.createLocked()
		}
	}
	return h.flushLocked()
}

// ClearAll empties the collection, clears the persisted state, then creates
// one fresh active session as on a first run. The fresh session exists in
// memory even when the backend fails; there is never a window with no
// active session.
func (h *HistoryStore) ClearAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions = nil
	h.activeID = ""
	h.createLocked()

	if err := h.kv.Delete(KeyChatHistory); err != nil {
		h.flushLocked()
		return &PersistenceError{Err: err}
	}
	return h.flushLocked()
}

// flushLocked serializes the full collection under the history key.
func (h *HistoryStore) flushLocked() error {
	data, err := json.Marshal(h.sessions)
	if err != nil {
		return &PersistenceError{Err: err}
	}
	if err := h.kv.Set(KeyChatHistory, data); err != nil {
		return &PersistenceError{Err: err}
	}
	h.lastFlush = time.Now()
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Sessions returns the collection, newest first.
func (h *HistoryStore) Sessions() []*model.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*model.Session, len(h.sessions))
	copy(out, h.sessions)
	return out
}

// Active returns the active session, or nil if the collection is empty.
func (h *HistoryStore) Active() *model.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.findLocked(h.activeID)
}

// ActiveID returns the identifier of the active session.
func (h *HistoryStore) ActiveID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.activeID
}

// Get returns the session with the given ID.
func (h *HistoryStore) Get(sessionID string) (*model.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.findLocked(sessionID)
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Count returns the number of sessions.
func (h *HistoryStore) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *HistoryStore) findLocked(id string) *model.Session {
	for _, s := range h.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

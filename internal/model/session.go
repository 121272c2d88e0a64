// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/fintra-ai/fintra-tui/internal/util"
)

// PlaceholderTitle is the title of a session before its first user message.
const PlaceholderTitle = "New Chat"

// DefaultPreview is shown for a session with no messages yet.
const DefaultPreview = "No messages yet"

// Truncation limits for derived session fields.
const (
	TitleMaxRunes   = 30
	PreviewMaxRunes = 50
)

// =============================================================================
// SESSION
// =============================================================================

// Session is one conversation thread. Messages are append-only; only whole-
// session deletion removes them. Title and Preview are derived from message
// text, Timestamp tracks the last activity.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Preview   string    `json:"preview"`
	Timestamp time.Time `json:"timestamp"`
	Messages  []Message `json:"messages"`
}

// NewSession creates an empty session with a placeholder title and a fresh
// time-derived ID.
func NewSession() *Session {
	return &Session{
		ID:        generateSessionID(),
		Title:     PlaceholderTitle,
		Preview:   DefaultPreview,
		Timestamp: time.Now(),
		Messages:  make([]Message, 0),
	}
}

// Append adds a message and updates the derived fields: the preview always
// follows the newest message, the title is set once from the first user
// message and never overwritten afterwards.
func (s *Session) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.Preview = util.TruncateEllipsis(msg.Text, PreviewMaxRunes)
	s.Timestamp = msg.Timestamp

	if msg.Sender == SenderUser && s.Title == PlaceholderTitle {
		s.Title = util.TruncateEllipsis(msg.Text, TitleMaxRunes)
	}
}

// MessageCount returns the number of messages in the session.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}

// IsEmpty returns true if the session has no messages.
func (s *Session) IsEmpty() bool {
	return len(s.Messages) == 0
}

// Clone creates a deep copy of the session.
func (s *Session) Clone() *Session {
	clone := &Session{
		ID:        s.ID,
		Title:     s.Title,
		Preview:   s.Preview,
		Timestamp: s.Timestamp,
		Messages:  make([]Message, len(s.Messages)),
	}
	copy(clone.Messages, s.Messages)
	return clone
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateSessionID creates a unique session ID. The millisecond prefix is
// fixed-width decimal, so IDs sort lexicographically by creation order; the
// random suffix disambiguates sessions created within the same millisecond.
func generateSessionID() string {
	bytes := make([]byte, 4)
	rand.Read(bytes)
	return "chat_" + util.Int64ToString(time.Now().UnixMilli()) + "_" + hex.EncodeToString(bytes)
}

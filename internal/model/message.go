// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"encoding/json"
	"time"
)

// =============================================================================
// SENDER
// =============================================================================

// Sender identifies who authored a message.
type Sender string

const (
	// SenderUser is a message typed by the user.
	SenderUser Sender = "user"
	// SenderBot is a message authored by the assistant.
	SenderBot Sender = "bot"
)

// Label returns the display name for the sender.
func (s Sender) Label() string {
	if s == SenderUser {
		return "You"
	}
	return "Fintra Assistant"
}

// =============================================================================
// MESSAGE KIND
// =============================================================================

// Kind selects the rendering template for a message. The store treats it as
// an opaque tag; only the view interprets it.
type Kind string

const (
	KindNormal             Kind = "normal"
	KindPrediction         Kind = "prediction"
	KindTechnicalAnalysis  Kind = "technical_analysis"
	KindAIResponse         Kind = "ai_response"
	KindFileUpload         Kind = "file_upload"
	KindFileUploadResponse Kind = "file_upload_response"
	KindScreenshot         Kind = "screenshot"
	KindError              Kind = "error"
)

// =============================================================================
// MESSAGE
// =============================================================================

// Message is one immutable turn in a session. Data carries a kind-dependent
// structured payload that the store never inspects.
type Message struct {
	Text      string          `json:"text"`
	Sender    Sender          `json:"sender"`
	Kind      Kind            `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(text string, sender Sender, kind Kind, data json.RawMessage) Message {
	return Message{
		Text:      text,
		Sender:    sender,
		Kind:      kind,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "encoding/json"

// =============================================================================
// CHAT CONTRACT
// =============================================================================

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ChatResponse is the assistant reply. Type selects the rendering template
// (normal, prediction, technical_analysis, ai_response, ...); Data is the
// kind-dependent payload, passed through untouched.
type ChatResponse struct {
	Response string          `json:"response"`
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
}

// =============================================================================
// DOCUMENT CONTRACT
// =============================================================================

// UploadResponse is returned by the document-upload endpoint.
type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// =============================================================================
// GENERIC ENVELOPE
// =============================================================================

// Envelope is the {success, data|message} shape shared by the portfolio,
// calendar and alert endpoints.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// =============================================================================
// DOMAIN PAYLOADS
// =============================================================================

// Holding is one portfolio position.
type Holding struct {
	Symbol    string  `json:"symbol"`
	Quantity  float64 `json:"quantity"`
	BuyPrice  float64 `json:"buy_price"`
	SessionID string  `json:"session_id,omitempty"`
}

// CalendarEvent is one financial-calendar entry.
type CalendarEvent struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	Kind      string `json:"type,omitempty"`
	Notes     string `json:"notes,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Alert is one price alert.
type Alert struct {
	ID          string  `json:"id,omitempty"`
	Symbol      string  `json:"symbol"`
	TargetPrice float64 `json:"target_price"`
	Direction   string  `json:"direction,omitempty"` // "above" or "below"
	Status      string  `json:"status,omitempty"`    // active, triggered, cancelled
	SessionID   string  `json:"session_id,omitempty"`
}

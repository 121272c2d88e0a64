// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fintra-ai/fintra-tui/internal/api"
)

// =============================================================================
// MESSAGES
// =============================================================================

// ChatResponseMsg carries a successful assistant reply. SessionID is the
// session the request was sent from; replies are appended there even if the
// user has switched sessions in the meantime.
type ChatResponseMsg struct {
	SessionID string
	Resp      *api.ChatResponse
}

// ChatErrorMsg carries a failed assistant request.
type ChatErrorMsg struct {
	SessionID string
	Err       error
}

// HistoryReloadedMsg signals that the history store was reloaded from disk
// (external change picked up by the watcher).
type HistoryReloadedMsg struct{}

// SearchDebounceMsg fires when the search debounce timer elapses. Seq guards
// against stale timers: only the message matching the latest keystroke runs.
type SearchDebounceMsg struct {
	Seq int
}

// HighlightClearMsg ends the transient highlight on a selected search match.
type HighlightClearMsg struct {
	Seq int
}

// =============================================================================
// COMMANDS
// =============================================================================

// sendChatCmd sends a message to the assistant backend.
func sendChatCmd(client *api.Client, sessionID, text string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.Chat(context.Background(), text)
		if err != nil {
			return ChatErrorMsg{SessionID: sessionID, Err: err}
		}
		return ChatResponseMsg{SessionID: sessionID, Resp: resp}
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"

	"github.com/fintra-ai/fintra-tui/internal/model"
)

// TextExporter renders a session as plain text.
type TextExporter struct{}

// Export renders the session.
func (e *TextExporter) Export(s *model.Session) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString("Fintra Assistant - Chat History\n")
	sb.WriteString("Session: " + s.Title + "\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, msg := range s.Messages {
		sb.WriteString("[" + msg.Timestamp.Format(messageTimestamp) + "] ")
		sb.WriteString(msg.Sender.Label() + ":\n")
		sb.WriteString(msg.Text + "\n\n")
	}

	return []byte(sb.String()), nil
}

// FileExtension returns ".txt".
func (e *TextExporter) FileExtension() string { return ".txt" }

// MimeType returns the plain-text MIME type.
func (e *TextExporter) MimeType() string { return "text/plain" }

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"

	"github.com/fintra-ai/fintra-tui/internal/model"
)

// HTMLExporter renders a session as a standalone styled HTML document.
type HTMLExporter struct{}

const htmlHeader = `<!DOCTYPE html>
<html lang="tr">
<head>
<meta charset="utf-8">
<title>Fintra Assistant - Chat History</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 2em auto; color: #1f2937; }
.message { padding: 0.75em 1em; border-radius: 8px; margin-bottom: 1em; }
.user { background: #e0e7ff; }
.bot { background: #f3f4f6; }
.meta { font-size: 0.8em; color: #6b7280; margin-bottom: 0.4em; }
</style>
</head>
<body>
`

// Export renders the session.
func (e *HTMLExporter) Export(s *model.Session) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString(htmlHeader)
	sb.WriteString("<h1>" + escapeHTML(s.Title) + "</h1>\n")

	for _, msg := range s.Messages {
		class := "bot"
		if msg.Sender == model.SenderUser {
			class = "user"
		}
		sb.WriteString(`<div class="message ` + class + "\">\n")
		sb.WriteString(`<div class="meta">` + escapeHTML(msg.Sender.Label()) +
			" · " + msg.Timestamp.Format(messageTimestamp) + "</div>\n")
		sb.WriteString("<div>" + escapeHTML(msg.Text) + "</div>\n")
		sb.WriteString("</div>\n")
	}

	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// FileExtension returns ".html".
func (e *HTMLExporter) FileExtension() string { return ".html" }

// MimeType returns the HTML MIME type.
func (e *HTMLExporter) MimeType() string { return "text/html" }

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/fintra-ai/fintra-tui/internal/model"
)

// JSONExporter renders a session as pretty-printed JSON in the stored wire
// shape, so an export can be re-imported unchanged.
type JSONExporter struct{}

// Export renders the session.
func (e *JSONExporter) Export(s *model.Session) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// FileExtension returns ".json".
func (e *JSONExporter) FileExtension() string { return ".json" }

// MimeType returns the JSON MIME type.
func (e *JSONExporter) MimeType() string { return "application/json" }

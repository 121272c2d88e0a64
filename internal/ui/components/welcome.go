// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/fintra-ai/fintra-tui/internal/ui/styles"
)

// WelcomeText is the fixed greeting shown when the active session has no
// messages. It is a rendering artifact only and is never persisted.
const WelcomeText = "Merhaba! Ben Fintra, finansal asistanınız. Hisse tahminleri, portföy takibi ve piyasa analizleri için buradayım."

// welcomeHints are the starter suggestions listed under the greeting.
var welcomeHints = []string{
	"KCHOL için tahmin yap",
	"Portföyümü göster",
	"Bu hafta hangi bilançolar açıklanacak?",
}

// RenderWelcome renders the welcome box for an empty session.
func RenderWelcome(theme *styles.Theme, width int) string {
	var sb strings.Builder
	sb.WriteString(theme.HeaderTitle.Render("Fintra Assistant"))
	sb.WriteString("\n\n")
	sb.WriteString(theme.WelcomeInfo.Render(WelcomeText))
	sb.WriteString("\n\n")
	for _, hint := range welcomeHints {
		sb.WriteString(theme.ShortcutDesc.Render("› " + hint))
		sb.WriteString("\n")
	}

	box := theme.WelcomeBox
	if width > 0 {
		box = box.MaxWidth(width)
	}
	return box.Render(strings.TrimRight(sb.String(), "\n"))
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fintra-ai/fintra-tui/internal/model"
	"github.com/fintra-ai/fintra-tui/internal/ui/components"
)

// chromeHeight is the vertical space taken by header, input, and status bar.
const chromeHeight = 7

// View renders the complete chat screen.
func (m *Model) View() string {
	if !m.ready {
		return "Yükleniyor..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	body := m.viewport.View()
	if m.sessionPaneOpen {
		sidebar := m.sessionList.Render(m.store.Sessions(), m.store.ActiveID(), timeNow())
		if m.confirmDelete >= 0 {
			sidebar += "\n" + m.theme.WarningStyle.Render("Sohbet silinsin mi? (y/n)")
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, body)
	}
	sections = append(sections, body)

	if m.searchOpen {
		sections = append(sections, m.renderSearch())
	}
	sections = append(sections, m.renderInput())
	sections = append(sections, m.renderStatusBar())

	out := strings.Join(sections, "\n")

	if toasts := m.toasts.GetToasts(); len(toasts) > 0 {
		out += "\n" + components.RenderToastStack(toasts, m.width, 0)
	}
	return out
}

// =============================================================================
// SECTIONS
// =============================================================================

func (m *Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("Fintra Assistant")
	subtitle := m.theme.HeaderSubtitle.Render("Finansal asistanınız")
	return m.theme.Header.Width(m.width - 2).Render(title + "  " + subtitle)
}

func (m *Model) renderInput() string {
	prompt := m.theme.InputPrompt.Render("❯ ")
	line := prompt + m.input.View()
	if m.loading {
		line += "  " + m.spinner.View() + m.theme.ThinkingText.Render(" düşünüyor...")
	}
	return m.theme.InputContainer.Width(m.width - 2).Render(line)
}

func (m *Model) renderStatusBar() string {
	shortcuts := []struct{ key, desc string }{
		{"ctrl+n", "yeni sohbet"},
		{"ctrl+s", "sohbetler"},
		{"ctrl+f", "ara"},
		{"ctrl+e", "dışa aktar"},
		{"ctrl+l", "temizle"},
		{"ctrl+c", "çıkış"},
	}
	parts := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		parts = append(parts, m.theme.ShortcutKey.Render(s.key)+" "+m.theme.ShortcutDesc.Render(s.desc))
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m *Model) renderSearch() string {
	var sb strings.Builder
	sb.WriteString(m.theme.InputPrompt.Render("🔍 "))
	sb.WriteString(m.searchInput.View())

	if len(m.searchResults) > 0 {
		sb.WriteString("\n")
		for i, res := range m.searchResults {
			style := m.theme.SearchResult
			if i == m.searchSelected {
				style = m.theme.SearchResultSel
			}
			preview := res.Preview()
			if q := m.searchInput.Value(); strings.TrimSpace(q) != "" {
				preview = highlightMatches(preview, findMatches(preview, q), m.theme.SearchMatch)
			}
			row := res.Sender.Label() + " · " + res.Timestamp.Format("15:04") + ": " + preview
			sb.WriteString(style.Render(row))
			if i < len(m.searchResults)-1 {
				sb.WriteString("\n")
			}
		}
	} else if strings.TrimSpace(m.searchInput.Value()) != "" {
		sb.WriteString("\n")
		sb.WriteString(m.theme.SessionMeta.Render("Sonuç yok"))
	}

	return m.theme.SearchBar.Width(m.width - 2).Render(sb.String())
}

// =============================================================================
// MESSAGE PANE
// =============================================================================

// rebuildViewport re-renders the active session into the viewport and
// refreshes the message line index used for scroll targeting.
func (m *Model) rebuildViewport() {
	if !m.ready {
		return
	}

	active := m.store.Active()
	if active == nil || len(active.Messages) == 0 {
		m.messageLines = nil
		m.viewContent = ""
		m.viewport.SetContent(components.RenderWelcome(m.theme, m.viewportWidth()))
		return
	}

	var sb strings.Builder
	m.messageLines = make([]int, len(active.Messages))
	line := 0
	for i, msg := range active.Messages {
		m.messageLines[i] = line
		rendered := m.renderMessage(i, msg)
		sb.WriteString(rendered)
		sb.WriteString("\n")
		line += strings.Count(rendered, "\n") + 2
		sb.WriteString("\n")
	}

	m.viewContent = sb.String()
	m.viewport.SetContent(m.viewContent)
}

// appendMessageView projects one newly appended message into the viewport
// without re-rendering the messages before it. Falls back to a full rebuild
// when the line index is out of step with the session (first message after
// the welcome screen, search open, reload).
func (m *Model) appendMessageView(msg model.Message) {
	if !m.ready {
		return
	}
	active := m.store.Active()
	if active == nil {
		return
	}

	index := len(active.Messages) - 1
	if index <= 0 || m.searchOpen || len(m.messageLines) != index {
		m.rebuildViewport()
		return
	}

	rendered := m.renderMessage(index, msg)
	m.messageLines = append(m.messageLines, strings.Count(m.viewContent, "\n"))
	m.viewContent += rendered + "\n\n"
	m.viewport.SetContent(m.viewContent)
}

// renderMessage renders one message bubble with its sender label and time.
func (m *Model) renderMessage(index int, msg model.Message) string {
	text := msg.Text

	// Overlay search match highlighting on the raw text. Matched ai_response
	// messages skip markdown rendering so the rune offsets stay exact.
	highlighted := false
	if m.searchOpen {
		for _, res := range m.searchResults {
			if res.MessageIndex == index {
				text = highlightMatches(text, res.Matches, m.theme.SearchMatch)
				highlighted = true
				break
			}
		}
	}

	// ai_response payloads are markdown; everything else is plain text.
	if !highlighted && msg.Kind == model.KindAIResponse && m.markdown != nil {
		if out, err := m.markdown.Render(text); err == nil {
			text = strings.TrimRight(out, "\n")
		}
	}

	bubble := m.theme.AssistantBubble
	switch {
	case msg.Kind == model.KindError:
		bubble = m.theme.ErrorBubble
	case msg.Sender == model.SenderUser:
		bubble = m.theme.UserBubble
	}
	if index == m.flashIndex {
		bubble = m.theme.SearchFlash.Inherit(bubble)
	}

	width := m.viewportWidth() - 8
	if width < 16 {
		width = 16
	}

	label := m.theme.MessageSender.Render(msg.Sender.Label())
	stamp := m.theme.MessageTime.Render(msg.Timestamp.Format("15:04"))

	body := bubble.MaxWidth(width).Render(text)
	block := label + " " + stamp + "\n" + body
	if msg.Sender == model.SenderUser {
		return lipgloss.NewStyle().Width(m.viewportWidth()).Align(lipgloss.Right).Render(block)
	}
	return block
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fintra-ai/fintra-tui/internal/api"
	"github.com/fintra-ai/fintra-tui/internal/export"
	"github.com/fintra-ai/fintra-tui/internal/model"
	"github.com/fintra-ai/fintra-tui/internal/storage"
	"github.com/fintra-ai/fintra-tui/internal/ui/components"
)

// Update is the single message handler for the chat screen.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ChatResponseMsg:
		return m.handleChatResponse(msg)

	case ChatErrorMsg:
		return m.handleChatError(msg)

	case HistoryReloadedMsg:
		m.sessionList.Clamp(m.store.Count())
		m.rebuildViewport()
		return m, nil

	case SearchDebounceMsg:
		// Only the newest keystroke's timer is honored.
		if m.searchOpen && msg.Seq == m.searchSeq {
			m.runSearch()
		}
		return m, nil

	case HighlightClearMsg:
		if msg.Seq == m.flashSeq {
			m.flashIndex = -1
			m.rebuildViewport()
		}
		return m, nil

	case components.ToastTickMsg:
		m.toasts.TickToasts()
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// =============================================================================
// RESIZE
// =============================================================================

func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	vpHeight := msg.Height - chromeHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	if !m.ready {
		m.viewport = viewport.New(m.viewportWidth(), vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.viewportWidth()
		m.viewport.Height = vpHeight
	}

	m.initMarkdown()
	m.rebuildViewport()
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.searchOpen {
		return m.handleSearchKey(msg)
	}
	if m.sessionPaneOpen {
		return m.handleSessionKey(msg)
	}

	switch msg.String() {
	case "ctrl+f":
		m.searchOpen = true
		m.input.Blur()
		m.searchInput.Focus()
		return m, nil

	case "ctrl+s":
		m.sessionPaneOpen = true
		m.input.Blur()
		m.sessionList.Clamp(m.store.Count())
		return m, nil

	case "ctrl+n":
		if _, err := m.store.CreateSession(); err != nil {
			m.reportStoreError(err)
		}
		m.rebuildViewport()
		return m, nil

	case "ctrl+l":
		if err := m.store.ClearAll(); err != nil {
			m.reportStoreError(err)
		} else {
			m.toasts.AddStatus("Sohbet geçmişi temizlendi")
		}
		m.sessionList.Clamp(m.store.Count())
		m.rebuildViewport()
		return m, nil

	case "ctrl+e":
		m.exportActiveSession()
		return m, nil

	case "enter":
		return m.handleSend()

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeSearch()
		m.rebuildViewport()
		return m, nil

	case "up":
		if m.searchSelected > 0 {
			m.searchSelected--
		}
		return m, nil

	case "down":
		if m.searchSelected < len(m.searchResults)-1 {
			m.searchSelected++
		}
		return m, nil

	case "enter":
		return m, m.selectResult()
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() != before {
		if strings.TrimSpace(m.searchInput.Value()) == "" {
			// Clearing the query drops results without waiting for the timer.
			m.searchSeq++
			m.searchResults = nil
			m.searchSelected = 0
			return m, cmd
		}
		return m, tea.Batch(cmd, m.queueSearch())
	}
	return m, cmd
}

func (m *Model) handleSessionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A pending delete must be answered before anything else; any key other
	// than yes cancels it.
	if m.confirmDelete >= 0 {
		if msg.String() == "y" {
			sessions := m.store.Sessions()
			if m.confirmDelete < len(sessions) {
				if err := m.store.DeleteSession(sessions[m.confirmDelete].ID); err != nil {
					m.reportStoreError(err)
				}
			}
			m.sessionList.Clamp(m.store.Count())
			m.rebuildViewport()
		}
		m.confirmDelete = -1
		return m, nil
	}

	switch msg.String() {
	case "esc", "ctrl+s":
		m.sessionPaneOpen = false
		m.input.Focus()
		return m, nil

	case "up", "k":
		m.sessionList.MoveUp()
		return m, nil

	case "down", "j":
		m.sessionList.MoveDown(m.store.Count())
		return m, nil

	case "enter":
		sessions := m.store.Sessions()
		if m.sessionList.Selected < len(sessions) {
			if _, err := m.store.SwitchActive(sessions[m.sessionList.Selected].ID); err != nil {
				m.reportStoreError(err)
			}
		}
		m.sessionPaneOpen = false
		m.input.Focus()
		m.rebuildViewport()
		return m, nil

	case "d":
		if m.sessionList.Selected < m.store.Count() {
			m.confirmDelete = m.sessionList.Selected
		}
		return m, nil
	}

	return m, nil
}

// =============================================================================
// SEND FLOW
// =============================================================================

func (m *Model) handleSend() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.SetValue("")

	sessionID := m.store.ActiveID()
	userMsg := model.NewMessage(text, model.SenderUser, model.KindNormal, nil)
	if err := m.store.AppendMessage(sessionID, userMsg); err != nil {
		m.reportStoreError(err)
	}
	m.appendMessageView(userMsg)
	m.viewport.GotoBottom()

	m.loading = true
	return m, tea.Batch(
		m.spinner.Tick,
		sendChatCmd(m.client, sessionID, text),
	)
}

func (m *Model) handleChatResponse(msg ChatResponseMsg) (tea.Model, tea.Cmd) {
	m.loading = false

	botMsg := model.NewMessage(msg.Resp.Response, model.SenderBot, model.Kind(msg.Resp.Type), msg.Resp.Data)
	if err := m.store.AppendMessage(msg.SessionID, botMsg); err != nil {
		m.reportStoreError(err)
		return m, nil
	}

	if msg.SessionID == m.store.ActiveID() {
		m.appendMessageView(botMsg)
		if m.settings.AutoScroll {
			m.viewport.GotoBottom()
		}
	}
	return m, nil
}

func (m *Model) handleChatError(msg ChatErrorMsg) (tea.Model, tea.Cmd) {
	m.loading = false

	errMsg := model.NewMessage(
		"Üzgünüm, bir hata oluştu. Lütfen tekrar deneyin.",
		model.SenderBot, model.KindError, nil,
	)
	if err := m.store.AppendMessage(msg.SessionID, errMsg); err != nil {
		m.reportStoreError(err)
	}

	if errors.Is(msg.Err, api.ErrCollaborator) {
		m.toasts.AddError("Asistan sunucusuna ulaşılamadı")
	} else {
		m.toasts.AddError(msg.Err.Error())
	}

	if msg.SessionID == m.store.ActiveID() {
		m.appendMessageView(errMsg)
	}
	return m, nil
}

// exportActiveSession writes the active session to disk in the format the
// user's settings select.
func (m *Model) exportActiveSession() {
	active := m.store.Active()
	if active == nil {
		return
	}

	exporter, err := export.ForFormat(m.settings.Format)
	if err != nil {
		exporter = &export.TextExporter{}
	}

	path, err := export.ExportToFile(active, exporter, nil)
	if err != nil {
		m.toasts.AddError("Dışa aktarma başarısız: " + err.Error())
		return
	}
	m.toasts.AddSuccess("Sohbet kaydedildi: " + path)
}

// reportStoreError surfaces store failures as toasts. Persistence failures
// get a distinct message since history may be stale on disk.
func (m *Model) reportStoreError(err error) {
	var perr *storage.PersistenceError
	switch {
	case errors.As(err, &perr):
		m.toasts.AddError("Geçmiş kaydedilemedi: " + perr.Err.Error())
	case errors.Is(err, storage.ErrSessionNotFound):
		m.toasts.AddWarning("Sohbet bulunamadı")
	default:
		m.toasts.AddError(err.Error())
	}
}

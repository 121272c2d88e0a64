// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the Bubble Tea model for the fintra chat screen.
//
// All application state lives on the Model: session history, the collaborator
// client, search state, and transient UI state like toasts and the loading
// spinner. There is no global mutable state.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/fintra-ai/fintra-tui/internal/api"
	"github.com/fintra-ai/fintra-tui/internal/storage"
	"github.com/fintra-ai/fintra-tui/internal/ui/components"
	"github.com/fintra-ai/fintra-tui/internal/ui/styles"
)

// inputCharLimit caps a single outgoing message.
const inputCharLimit = 4000

// timeNow is stubbed in tests.
var timeNow = time.Now

// Model is the top-level Bubble Tea model for the chat screen.
type Model struct {
	store    *storage.HistoryStore
	client   *api.Client
	theme    *styles.Theme
	settings storage.Settings
	language string

	// Layout
	width  int
	height int
	ready  bool

	// Components
	viewport    viewport.Model
	input       textinput.Model
	spinner     spinner.Model
	toasts      *components.ToastManager
	sessionList *components.SessionList

	// Assistant round-trip state. There is deliberately no in-flight guard:
	// a second send while one is pending issues a second request, matching
	// the backend's stateless contract.
	loading bool

	// Markdown renderer for ai_response messages.
	markdown *glamour.TermRenderer

	// Search state
	searchOpen     bool
	searchInput    textinput.Model
	searchSeq      int
	searchResults  []SearchResult
	searchSelected int

	// Transient highlight after selecting a search result. flashIndex is the
	// message index, -1 when inactive.
	flashIndex int
	flashSeq   int

	// messageLines maps message index to its first viewport line so search
	// selection can scroll precisely. viewContent mirrors the viewport's
	// content; appends extend both without re-rendering prior messages.
	messageLines []int
	viewContent  string

	// sessionPaneOpen shows the session sidebar. confirmDelete holds the
	// session-list index awaiting delete confirmation, -1 when none.
	sessionPaneOpen bool
	confirmDelete   int
}

// NewModel creates the chat model. The store must already be initialized.
func NewModel(store *storage.HistoryStore, client *api.Client, theme *styles.Theme, settings storage.Settings, language string) *Model {
	input := textinput.New()
	input.Placeholder = "Mesajınızı yazın..."
	input.CharLimit = inputCharLimit
	input.Focus()

	searchInput := textinput.New()
	searchInput.Placeholder = "Sohbette ara..."
	searchInput.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return &Model{
		store:         store,
		client:        client,
		theme:         theme,
		settings:      settings,
		language:      language,
		input:         input,
		searchInput:   searchInput,
		spinner:       sp,
		toasts:        components.NewToastManager(),
		sessionList:   components.NewSessionList(theme, language),
		flashIndex:    -1,
		confirmDelete: -1,
	}
}

// Init starts the cursor blink and the toast ticker.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, components.ToastTickCmd())
}

// initMarkdown builds the glamour renderer for the current width.
func (m *Model) initMarkdown() {
	wrap := m.viewportWidth() - 4
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		m.markdown = renderer
	}
}

// viewportWidth is the width available to the message pane.
func (m *Model) viewportWidth() int {
	w := m.width
	if m.sessionPaneOpen {
		w -= m.sessionList.Width + 2
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/fintra-ai/fintra-tui/internal/model"
	"github.com/fintra-ai/fintra-tui/internal/ui/styles"
	"github.com/fintra-ai/fintra-tui/internal/util"
)

// SessionList renders the session sidebar. Sessions arrive newest-first from
// the store and are shown in that order.
type SessionList struct {
	theme    *styles.Theme
	language string

	// Selected is the index of the cursor row, not the active session.
	Selected int

	// Width is the column budget for each row.
	Width int
}

// NewSessionList creates a session list component.
func NewSessionList(theme *styles.Theme, language string) *SessionList {
	return &SessionList{
		theme:    theme,
		language: language,
		Width:    32,
	}
}

// MoveUp moves the cursor up one row.
func (l *SessionList) MoveUp() {
	if l.Selected > 0 {
		l.Selected--
	}
}

// MoveDown moves the cursor down one row, clamped to the session count.
func (l *SessionList) MoveDown(count int) {
	if l.Selected < count-1 {
		l.Selected++
	}
}

// Clamp keeps the cursor in range after sessions are added or removed.
func (l *SessionList) Clamp(count int) {
	if count == 0 {
		l.Selected = 0
		return
	}
	if l.Selected >= count {
		l.Selected = count - 1
	}
}

// Render renders the session list. The active session is marked; the cursor
// row is highlighted.
func (l *SessionList) Render(sessions []*model.Session, activeID string, now time.Time) string {
	if len(sessions) == 0 {
		return l.theme.SessionList.Render(l.theme.SessionMeta.Render("No chats"))
	}

	rows := make([]string, 0, len(sessions))
	for i, s := range sessions {
		rows = append(rows, l.renderRow(i, s, activeID, now))
	}

	return l.theme.SessionList.Render(strings.Join(rows, "\n"))
}

func (l *SessionList) renderRow(i int, s *model.Session, activeID string, now time.Time) string {
	marker := "  "
	if s.ID == activeID {
		marker = "• "
	}

	age := util.TimeAgo(s.Timestamp, now, l.language)
	ageWidth := runewidth.StringWidth(age)

	titleBudget := l.Width - runewidth.StringWidth(marker) - ageWidth - 1
	if titleBudget < 8 {
		titleBudget = 8
	}
	title := runewidth.FillRight(util.TruncateRunes(s.Title, titleBudget), titleBudget)

	row := marker + title + " " + age
	preview := l.theme.SessionMeta.Render("  " + util.TruncateRunes(s.Preview, l.Width-2))

	style := l.theme.SessionItem
	if i == l.Selected {
		style = l.theme.SessionItemSelected
	}
	return style.Render(row) + "\n" + preview
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fintra-ai/fintra-tui/internal/model"
	"github.com/fintra-ai/fintra-tui/internal/util"
)

// SearchDebounce is how long after the last keystroke a search runs.
const SearchDebounce = 500 * time.Millisecond

// FlashDuration is how long a selected match stays highlighted.
const FlashDuration = 2 * time.Second

// searchResultPreviewRunes caps the preview text shown per result row.
const searchResultPreviewRunes = 60

// SearchResult is one matching message in the active session, in document
// order.
type SearchResult struct {
	// MessageIndex is the position of the message within the session.
	MessageIndex int
	// Sender labels the result row.
	Sender model.Sender
	// Matches holds rune-offset [start, end) pairs into the message text.
	Matches [][2]int
	// Text is the full message text the offsets index into.
	Text string
	// Timestamp is when the message was rendered.
	Timestamp time.Time
}

// Preview returns a single-line window around the first match, so the
// matched text stays visible inside long messages.
func (r SearchResult) Preview() string {
	line := strings.ReplaceAll(r.Text, "\n", " ")
	if len(r.Matches) == 0 {
		return util.TruncateRunes(line, searchResultPreviewRunes)
	}

	runes := []rune(line)
	start := 0
	if r.Matches[0][0] > searchResultPreviewRunes/2 {
		start = r.Matches[0][0] - searchResultPreviewRunes/4
	}
	end := start + searchResultPreviewRunes
	if end > len(runes) {
		end = len(runes)
	}

	out := string(runes[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(runes) {
		out += "..."
	}
	return out
}

// =============================================================================
// MATCHING
// =============================================================================

// findMatches returns the rune offsets of every case-insensitive occurrence
// of query in text. Matching is per-rune so multi-byte text (Turkish tickers,
// currency symbols) offsets stay exact.
func findMatches(text, query string) [][2]int {
	q := []rune(query)
	if len(q) == 0 {
		return nil
	}
	t := []rune(text)
	for i := range q {
		q[i] = unicode.ToLower(q[i])
	}

	var matches [][2]int
	for i := 0; i+len(q) <= len(t); i++ {
		hit := true
		for j := range q {
			if unicode.ToLower(t[i+j]) != q[j] {
				hit = false
				break
			}
		}
		if hit {
			matches = append(matches, [2]int{i, i + len(q)})
			i += len(q) - 1
		}
	}
	return matches
}

// searchMessages scans the messages of a single session and returns results
// in document order. Only the rendered text is searched; structured payloads
// are not.
func searchMessages(msgs []model.Message, query string) []SearchResult {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	var results []SearchResult
	for i, msg := range msgs {
		matches := findMatches(msg.Text, query)
		if len(matches) == 0 {
			continue
		}
		results = append(results, SearchResult{
			MessageIndex: i,
			Sender:       msg.Sender,
			Matches:      matches,
			Text:         msg.Text,
			Timestamp:    msg.Timestamp,
		})
	}
	return results
}

// highlightMatches wraps each matched span with the given style, leaving the
// rest of the text untouched.
func highlightMatches(text string, matches [][2]int, style lipgloss.Style) string {
	if len(matches) == 0 {
		return text
	}

	runes := []rune(text)
	var sb strings.Builder
	prev := 0
	for _, m := range matches {
		if m[0] > prev {
			sb.WriteString(string(runes[prev:m[0]]))
		}
		sb.WriteString(style.Render(string(runes[m[0]:m[1]])))
		prev = m[1]
	}
	if prev < len(runes) {
		sb.WriteString(string(runes[prev:]))
	}
	return sb.String()
}

// =============================================================================
// MODEL SEARCH STATE
// =============================================================================

// queueSearch arms the debounce timer for the current query. Each call
// invalidates earlier timers via the sequence token.
func (m *Model) queueSearch() tea.Cmd {
	m.searchSeq++
	seq := m.searchSeq
	return tea.Tick(SearchDebounce, func(time.Time) tea.Msg {
		return SearchDebounceMsg{Seq: seq}
	})
}

// runSearch executes the query against the active session immediately.
func (m *Model) runSearch() {
	active := m.store.Active()
	if active == nil {
		m.searchResults = nil
		m.searchSelected = 0
		return
	}
	m.searchResults = searchMessages(active.Messages, m.searchInput.Value())
	if m.searchSelected >= len(m.searchResults) {
		m.searchSelected = 0
	}
}

// selectResult scrolls the viewport to the chosen match and starts the
// transient highlight.
func (m *Model) selectResult() tea.Cmd {
	if m.searchSelected >= len(m.searchResults) {
		return nil
	}
	res := m.searchResults[m.searchSelected]

	m.flashIndex = res.MessageIndex
	m.flashSeq++
	seq := m.flashSeq

	m.rebuildViewport()
	if res.MessageIndex < len(m.messageLines) {
		m.viewport.SetYOffset(m.messageLines[res.MessageIndex])
	}

	return tea.Tick(FlashDuration, func(time.Time) tea.Msg {
		return HighlightClearMsg{Seq: seq}
	})
}

// closeSearch clears all search state. Pending debounce timers become no-ops
// because the sequence token moves on.
func (m *Model) closeSearch() {
	m.searchOpen = false
	m.searchSeq++
	m.searchInput.SetValue("")
	m.searchInput.Blur()
	m.searchResults = nil
	m.searchSelected = 0
	m.input.Focus()
}

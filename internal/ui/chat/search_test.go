// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	"github.com/fintra-ai/fintra-tui/internal/model"
)

func TestPreviewWindowsAroundLateMatch(t *testing.T) {
	long := strings.Repeat("a", 100) + " KCHOL hedefi"
	msg := model.NewMessage(long, model.SenderBot, model.KindNormal, nil)

	results := searchMessages([]model.Message{msg}, "kchol")
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}

	p := results[0].Preview()
	if !strings.Contains(p, "KCHOL") {
		t.Errorf("preview %q does not show the matched text", p)
	}
	if !strings.HasPrefix(p, "...") {
		t.Errorf("preview %q should mark the skipped prefix", p)
	}
}

func TestPreviewKeepsShortTextWhole(t *testing.T) {
	msg := model.NewMessage("KCHOL raporu hazır", model.SenderBot, model.KindNormal, nil)

	results := searchMessages([]model.Message{msg}, "kchol")
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if p := results[0].Preview(); p != "KCHOL raporu hazır" {
		t.Errorf("preview = %q, want the full text", p)
	}
}

func TestFindMatchesCaseInsensitive(t *testing.T) {
	matches := findMatches("KCHOL.IS yükseldi, kchol hedefi aştı", "kchol")
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if matches[0] != [2]int{0, 5} {
		t.Errorf("first match = %v, want [0 5]", matches[0])
	}
	// Offsets are rune offsets: "yükseldi, " contains a multi-byte rune
	// before the second occurrence.
	if matches[1][0] != 19 {
		t.Errorf("second match starts at %d, want 19", matches[1][0])
	}
}

func TestFindMatchesNoOverlap(t *testing.T) {
	matches := findMatches("aaaa", "aa")
	if len(matches) != 2 {
		t.Errorf("matches = %d, want 2 non-overlapping", len(matches))
	}
}

func TestFindMatchesEmptyQuery(t *testing.T) {
	if m := findMatches("anything", ""); m != nil {
		t.Errorf("empty query returned %v", m)
	}
}

func TestSearchMessagesDocumentOrder(t *testing.T) {
	msgs := []model.Message{
		model.NewMessage("THYAO analizi", model.SenderUser, model.KindNormal, nil),
		model.NewMessage("KCHOL.IS yükseldi", model.SenderBot, model.KindPrediction, nil),
		model.NewMessage("kchol hedef fiyatı nedir?", model.SenderUser, model.KindNormal, nil),
	}

	results := searchMessages(msgs, "KCHOL")
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].MessageIndex != 1 || results[1].MessageIndex != 2 {
		t.Errorf("result order = [%d %d], want [1 2]",
			results[0].MessageIndex, results[1].MessageIndex)
	}
	if results[0].Sender != model.SenderBot {
		t.Errorf("sender = %q, want bot", results[0].Sender)
	}
}

func TestSearchMessagesBlankQuery(t *testing.T) {
	msgs := []model.Message{
		model.NewMessage("hello", model.SenderUser, model.KindNormal, nil),
	}
	if res := searchMessages(msgs, "   "); res != nil {
		t.Errorf("blank query returned %v", res)
	}
}

func TestHighlightMatchesPreservesText(t *testing.T) {
	theme := newTestModel(t).theme
	text := "KCHOL.IS yükseldi"
	out := highlightMatches(text, findMatches(text, "kchol"), theme.SearchMatch)

	// Styled output must still contain the full original text in order.
	if len(out) < len(text) {
		t.Errorf("highlighted output shorter than input: %q", out)
	}
}

func TestDebounceSequenceGuardsStaleTimers(t *testing.T) {
	m := newTestModel(t)
	seedMessages(t, m, "KCHOL.IS yükseldi")

	m.searchOpen = true
	m.searchInput.SetValue("kchol")

	m.queueSearch() // seq 1, stale after the next call
	stale := m.searchSeq
	m.queueSearch() // seq 2, current

	m.Update(SearchDebounceMsg{Seq: stale})
	if m.searchResults != nil {
		t.Error("stale debounce timer ran the search")
	}

	m.Update(SearchDebounceMsg{Seq: m.searchSeq})
	if len(m.searchResults) != 1 {
		t.Errorf("results = %d, want 1", len(m.searchResults))
	}
}

func TestCloseSearchClearsState(t *testing.T) {
	m := newTestModel(t)
	seedMessages(t, m, "KCHOL.IS yükseldi")

	m.searchOpen = true
	m.searchInput.SetValue("kchol")
	m.runSearch()
	if len(m.searchResults) == 0 {
		t.Fatal("expected results before close")
	}

	pending := m.searchSeq
	m.closeSearch()

	if m.searchOpen || m.searchResults != nil || m.searchInput.Value() != "" {
		t.Error("closeSearch left state behind")
	}
	// A timer armed before closing must be a no-op.
	m.Update(SearchDebounceMsg{Seq: pending})
	if m.searchResults != nil {
		t.Error("pending debounce ran after close")
	}
}

func TestSearchOnlyActiveSession(t *testing.T) {
	m := newTestModel(t)
	seedMessages(t, m, "KCHOL.IS yükseldi")

	// New active session without the term.
	if _, err := m.store.CreateSession(); err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}

	m.searchOpen = true
	m.searchInput.SetValue("kchol")
	m.runSearch()

	if len(m.searchResults) != 0 {
		t.Errorf("search crossed session boundary: %d results", len(m.searchResults))
	}
}

func TestHighlightClearIgnoresStaleSeq(t *testing.T) {
	m := newTestModel(t)
	m.flashIndex = 3
	m.flashSeq = 2

	m.Update(HighlightClearMsg{Seq: 1})
	if m.flashIndex != 3 {
		t.Error("stale clear message reset the flash")
	}

	m.Update(HighlightClearMsg{Seq: 2})
	if m.flashIndex != -1 {
		t.Error("current clear message did not reset the flash")
	}
}

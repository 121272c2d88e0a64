// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// TRUNCATION TESTS
// =============================================================================

func TestTruncateEllipsis(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		want     string
	}{
		{"short string unchanged", "hello", 30, "hello"},
		{"exact length unchanged", strings.Repeat("a", 30), 30, strings.Repeat("a", 30)},
		{"one over truncates", strings.Repeat("a", 31), 30, strings.Repeat("a", 30) + "..."},
		{"empty string", "", 30, ""},
		{"zero max", "hello", 0, ""},
		{"unicode kept whole", "şeker ğüzel İstanbul görünümü x", 30, "şeker ğüzel İstanbul görünümü " + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateEllipsis(tt.input, tt.maxRunes)
			if got != tt.want {
				t.Errorf("TruncateEllipsis(%q, %d) = %q, want %q", tt.input, tt.maxRunes, got, tt.want)
			}
		})
	}
}

func TestTruncateEllipsisKeepsExactRuneCount(t *testing.T) {
	input := "Hello there, this message is intentionally longer than thirty characters"
	got := TruncateEllipsis(input, 30)

	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	kept := strings.TrimSuffix(got, "...")
	if RuneLen(kept) != 30 {
		t.Errorf("kept portion = %d runes, want 30", RuneLen(kept))
	}
	if got != "Hello there, this message is i..." {
		t.Errorf("got %q", got)
	}
}

func TestSafeSubstring(t *testing.T) {
	s := "KCHOL.IS yükseldi"

	if got := SafeSubstring(s, 0, 5); got != "KCHOL" {
		t.Errorf("SafeSubstring start = %q", got)
	}
	if got := SafeSubstring(s, 9, 17); got != "yükseldi" {
		t.Errorf("SafeSubstring unicode = %q", got)
	}
	if got := SafeSubstring(s, 5, 2); got != "" {
		t.Errorf("inverted range should be empty, got %q", got)
	}
	if got := SafeSubstring(s, 0, 999); got != s {
		t.Errorf("clamped end should return whole string, got %q", got)
	}
}

// =============================================================================
// TIME AGO TESTS
// =============================================================================

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"under a minute", now.Add(-30 * time.Second), "now"},
		{"minutes", now.Add(-5 * time.Minute), "5 min"},
		{"fifty nine minutes", now.Add(-59 * time.Minute), "59 min"},
		{"hours", now.Add(-3 * time.Hour), "3 h"},
		{"days", now.Add(-2 * 24 * time.Hour), "2 d"},
		{"six days", now.Add(-6 * 24 * time.Hour), "6 d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeAgo(tt.t, now, "tr"); got != tt.want {
				t.Errorf("TimeAgo = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimeAgoDateFallback(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	old := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

	if got := TimeAgo(old, now, "tr"); got != "02.01.2025" {
		t.Errorf("Turkish date = %q, want 02.01.2025", got)
	}
	if got := TimeAgo(old, now, "en"); got != "2025-01-02" {
		t.Errorf("English date = %q, want 2025-01-02", got)
	}
	// Unknown tags fall back to the Turkish layout.
	if got := TimeAgo(old, now, "zz-whatever"); got != "02.01.2025" {
		t.Errorf("fallback date = %q, want 02.01.2025", got)
	}
}

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")

	if err := AtomicWriteFile(path, []byte("first"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("content = %q, want %q", data, "first")
	}

	// Overwrite replaces the content in full.
	if err := AtomicWriteFile(path, []byte("second"), 0644); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("content after overwrite = %q, want %q", data, "second")
	}

	// No temp files left behind.
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestAtomicWriteFileCreatesParent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "data.json")

	if err := AtomicWriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not created: %v", err)
	}
}

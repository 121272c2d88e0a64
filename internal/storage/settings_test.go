// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"strings"
	"testing"
)

func TestSettingsRoundTrip(t *testing.T) {
	kv, _ := NewFileKV(t.TempDir())

	s, err := LoadSettings(kv)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if !s.AutoSave || s.Language != "tr" {
		t.Errorf("unexpected defaults: %+v", s)
	}

	s.Voice = true
	s.Language = "en"
	if err := SaveSettings(kv, s); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	loaded, err := LoadSettings(kv)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !loaded.Voice || loaded.Language != "en" {
		t.Errorf("settings did not round-trip: %+v", loaded)
	}
}

func TestThemePersistence(t *testing.T) {
	kv, _ := NewFileKV(t.TempDir())

	if got := LoadTheme(kv); got != "auto" {
		t.Errorf("default theme = %q, want auto", got)
	}
	SaveTheme(kv, "dark")
	if got := LoadTheme(kv); got != "dark" {
		t.Errorf("theme = %q, want dark", got)
	}

	// Unknown stored values fall back to auto.
	kv.Set(KeyTheme, []byte("neon"))
	if got := LoadTheme(kv); got != "auto" {
		t.Errorf("invalid theme should fall back to auto, got %q", got)
	}
}

func TestClientSessionIDStable(t *testing.T) {
	kv, _ := NewFileKV(t.TempDir())

	first, err := ClientSessionID(kv)
	if err != nil {
		t.Fatalf("ClientSessionID failed: %v", err)
	}
	if !strings.HasPrefix(first, "session_") {
		t.Errorf("id = %q, want session_ prefix", first)
	}

	second, _ := ClientSessionID(kv)
	if first != second {
		t.Errorf("id changed between calls: %q vs %q", first, second)
	}
}

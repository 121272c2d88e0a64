// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings is the flat user-preferences object stored under the settings
// key. Field names match the browser client's stored shape.
type Settings struct {
	AutoSave        bool   `json:"autoSave"`
	AutoScroll      bool   `json:"autoScroll"`
	ShowSuggestions bool   `json:"showSuggestions"`
	Voice           bool   `json:"voice"`
	Language        string `json:"language"`
	Quality         string `json:"quality"`
	Format          string `json:"format"`
}

// DefaultSettings returns the settings used before the user changes any.
func DefaultSettings() Settings {
	return Settings{
		AutoSave:        true,
		AutoScroll:      true,
		ShowSuggestions: true,
		Voice:           false,
		Language:        "tr",
		Quality:         "high",
		Format:          "txt",
	}
}

// LoadSettings reads the stored settings, falling back to defaults when
// nothing is stored yet.
func LoadSettings(kv KV) (Settings, error) {
	data, err := kv.Get(KeySettings)
	if errors.Is(err, ErrKeyNotFound) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return DefaultSettings(), fmt.Errorf("load settings: %w", err)
	}

	s := DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// SaveSettings durably stores the settings object.
func SaveSettings(kv KV, s Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return &PersistenceError{Err: err}
	}
	if err := kv.Set(KeySettings, data); err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}

// =============================================================================
// THEME
// =============================================================================

// LoadTheme returns the stored theme name ("light", "dark" or "auto").
func LoadTheme(kv KV) string {
	data, err := kv.Get(KeyTheme)
	if err != nil {
		return "auto"
	}
	name := string(data)
	switch name {
	case "light", "dark", "auto":
		return name
	}
	return "auto"
}

// SaveTheme durably stores the active theme name.
func SaveTheme(kv KV, name string) error {
	if err := kv.Set(KeyTheme, []byte(name)); err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}

// =============================================================================
// CLIENT SESSION ID
// =============================================================================

// ClientSessionID returns the identifier sent with every backend request,
// generating and storing one on first use.
func ClientSessionID(kv KV) (string, error) {
	data, err := kv.Get(KeySessionID)
	if err == nil && len(data) > 0 {
		return string(data), nil
	}
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return "", fmt.Errorf("load session id: %w", err)
	}

	id := "session_" + uuid.NewString()
	if err := kv.Set(KeySessionID, []byte(id)); err != nil {
		return "", &PersistenceError{Err: err}
	}
	return id, nil
}

// fintra TUI - A terminal interface for the Fintra financial assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fintra-ai/fintra-tui/internal/api"
	"github.com/fintra-ai/fintra-tui/internal/config"
	"github.com/fintra-ai/fintra-tui/internal/storage"
	"github.com/fintra-ai/fintra-tui/internal/ui/chat"
	"github.com/fintra-ai/fintra-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.fintra/config.toml)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("fintra %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	kv, fileKV, err := openKV(cfg, dataDir)
	if err != nil {
		return err
	}
	defer kv.Close()

	store := storage.NewHistoryStore(kv)
	if err := store.Initialize(); err != nil {
		return fmt.Errorf("load chat history: %w", err)
	}

	settings, err := storage.LoadSettings(kv)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// Stored theme wins over the config file; the config seeds first run.
	themeName := storage.LoadTheme(kv)
	if themeName == "auto" && cfg.UI.Theme != "auto" {
		themeName = cfg.UI.Theme
	}
	theme := styles.NewTheme(themeName)

	clientID, err := storage.ClientSessionID(kv)
	if err != nil {
		return fmt.Errorf("client session id: %w", err)
	}

	client := api.NewClient(cfg.API.BaseURL, clientID).
		WithTimeout(time.Duration(cfg.API.TimeoutSecs) * time.Second).
		WithRetries(cfg.API.MaxRetries)

	m := chat.NewModel(store, client, theme, settings, cfg.UI.Language)
	program := tea.NewProgram(m, tea.WithAltScreen())

	// The file backend can change under us (another fintra process, manual
	// edits). Reload and repaint when it does. SQLite owns its file
	// exclusively, so no watcher there.
	if fileKV != nil {
		watcher, werr := storage.NewWatcher(fileKV, storage.DefaultWatchDebounce, func() {
			if rerr := store.Reload(); rerr == nil {
				program.Send(chat.HistoryReloadedMsg{})
			}
		})
		if werr == nil {
			watcher.SetSelfWriteFilter(func() bool {
				return store.WroteWithin(2 * storage.DefaultWatchDebounce)
			})
			if werr = watcher.Watch(); werr == nil {
				defer watcher.Close()
			}
		}
		if werr != nil {
			fmt.Fprintf(os.Stderr, "Warning: history watcher disabled: %v\n", werr)
		}
	}

	_, err = program.Run()
	return err
}

// openKV opens the configured key-value backend. The second return value is
// non-nil only for the file backend, which supports watching.
func openKV(cfg *config.Config, dataDir string) (storage.KV, *storage.FileKV, error) {
	switch cfg.Storage.Backend {
	case "file":
		kv, err := storage.NewFileKV(filepath.Join(dataDir, "state"))
		if err != nil {
			return nil, nil, fmt.Errorf("open file store: %w", err)
		}
		return kv, kv, nil
	default:
		kv, err := storage.NewSQLiteKV(filepath.Join(dataDir, "fintra.db"))
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return kv, nil, nil
	}
}

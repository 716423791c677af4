// Package config manages the state files of the application.
//
// State lives in a small set of files inside one configuration directory,
// each written in the scaffold YAML subset by package serializer:
//
//	<dir>/ui.yml      window, panels and layout
//	<dir>/theme.yml   colors and fonts
//	<dir>/input.yml   key bindings and input preferences
//
// A Manager serializes access to each file, reports saves and external
// edits to subscribers, and can watch the directory for live reload.
//
// # Settings
//
// The tool's own settings are layered, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← SCAFFOLD_*, then .env files
//	├─────────────────────────────┤
//	│  2. Settings File           │  ← <dir>/settings.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// # Sub-packages
//
//   - loader: TOML, state file and environment loading
//   - watcher: fsnotify based file watching with debouncing
//
// # Basic Usage
//
//	m := config.New(config.WithDir(dir))
//	if err := m.Init(ctx); err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	err := m.Serialize(config.FileUI, "window", serializer.LoadFromFile, state.Serialize)
package config

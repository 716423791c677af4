package app

import (
	"errors"
	"maps"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/dshills/scaffold/internal/config"
	"github.com/dshills/scaffold/internal/geom"
	"github.com/dshills/scaffold/internal/serializer"
)

// State is everything the shell persists between sessions.
type State struct {
	Window  Window
	Layout  Layout
	Session Session
	Theme   Theme
	// Keys maps action names to key names, e.g. "quit": "ctrl+q".
	Keys map[string]string
}

// Window is the placement of the main window.
type Window struct {
	Pos       geom.IVec2
	Size      geom.IVec2
	Maximized bool
}

// Layout is the set of panels and which one has focus.
type Layout struct {
	Focus  int
	Panels []Panel
}

// Panel is one dockable panel.
type Panel struct {
	ID      uuid.UUID
	Title   string
	Visible bool
	Tags    []string
	Pos     geom.IVec2
	Size    geom.IVec2
}

// Session holds per-user preferences that are not about layout.
type Session struct {
	RecentFiles []string
	ShowFPS     bool
}

// Theme holds the colors of the shell.
type Theme struct {
	Name       string
	Accent     geom.Vec4
	Foreground geom.Vec4
	Background geom.Vec4
}

// Actions bound in the input file.
const (
	ActionQuit        = "quit"
	ActionSave        = "save"
	ActionReload      = "reload"
	ActionToggleFPS   = "toggle_fps"
	ActionNextPanel   = "next_panel"
	ActionTogglePanel = "toggle_panel"
)

var panelNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("scaffold:panel"))

// PanelID returns the stable ID of the default panel called title.
func PanelID(title string) uuid.UUID {
	return uuid.NewSHA1(panelNamespace, []byte(title))
}

// DefaultState returns the state used when nothing has been saved yet.
func DefaultState(theme string) State {
	return State{
		Window: Window{Size: geom.IVec2{X: 80, Y: 24}},
		Layout: Layout{
			Panels: []Panel{
				{ID: PanelID("Explorer"), Title: "Explorer", Visible: true, Tags: []string{"files"}, Size: geom.IVec2{X: 24, Y: 20}},
				{ID: PanelID("Viewport"), Title: "Viewport", Visible: true, Tags: []string{"main"}, Pos: geom.IVec2{X: 24}, Size: geom.IVec2{X: 56, Y: 20}},
				{ID: PanelID("Log"), Title: "Log", Visible: false, Tags: []string{"debug", "output"}, Pos: geom.IVec2{Y: 20}, Size: geom.IVec2{X: 80, Y: 4}},
			},
		},
		Theme: Theme{
			Name:       theme,
			Accent:     geom.Vec4{X: 0.2, Y: 0.4, Z: 0.8, W: 1},
			Foreground: geom.Vec4{X: 0.9, Y: 0.9, Z: 0.9, W: 1},
		},
		Keys: DefaultKeys(),
	}
}

// DefaultKeys returns the built-in key bindings.
func DefaultKeys() map[string]string {
	return map[string]string{
		ActionQuit:        "ctrl+q",
		ActionSave:        "ctrl+s",
		ActionReload:      "ctrl+r",
		ActionToggleFPS:   "f",
		ActionNextPanel:   "tab",
		ActionTogglePanel: "enter",
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Layout.Panels = make([]Panel, len(s.Layout.Panels))
	for i, p := range s.Layout.Panels {
		p.Tags = append([]string(nil), p.Tags...)
		out.Layout.Panels[i] = p
	}
	out.Session.RecentFiles = append([]string(nil), s.Session.RecentFiles...)
	if s.Keys != nil {
		out.Keys = make(map[string]string, len(s.Keys))
		for k, v := range s.Keys {
			out.Keys[k] = v
		}
	}
	return out
}

// Serialize describes the window section.
func (w *Window) Serialize(d *serializer.Document) {
	d.Entry("pos", &w.Pos).
		Entry("size", &w.Size).
		Entry("maximized", &w.Maximized)
}

// Serialize describes the layout section.
func (l *Layout) Serialize(d *serializer.Document) {
	d.Entry("focus", &l.Focus)
	d.List("panels", &l.Panels, func(rec *serializer.Document, i int) {
		l.Panels[i].Serialize(rec)
	})
}

// Serialize describes one panel record.
func (p *Panel) Serialize(d *serializer.Document) {
	d.Entry("id", &p.ID).
		Entry("title", &p.Title).
		Entry("visible", &p.Visible).
		Entry("tags", &p.Tags).
		Subsection("rect", func(r *serializer.Document) {
			r.Entry("pos", &p.Pos).Entry("size", &p.Size)
		})
}

// Serialize describes the session section.
func (s *Session) Serialize(d *serializer.Document) {
	d.Entry("recent_files", &s.RecentFiles).
		Entry("show_fps", &s.ShowFPS)
}

// Serialize describes the theme section.
func (t *Theme) Serialize(d *serializer.Document) {
	d.Entry("name", &t.Name).
		Subsection("colors", func(c *serializer.Document) {
			c.Entry("accent", &t.Accent).
				Entry("foreground", &t.Foreground).
				Entry("background", &t.Background)
		})
}

type stateSection struct {
	file config.File
	name string
	fn   func(*serializer.Document)
}

func (s *State) sections() []stateSection {
	return []stateSection{
		{config.FileUI, "window", s.Window.Serialize},
		{config.FileUI, "layout", s.Layout.Serialize},
		{config.FileUI, "session", s.Session.Serialize},
		{config.FileTheme, "theme", s.Theme.Serialize},
		{config.FileInput, "keys", s.serializeKeys},
	}
}

// serializeKeys loads the stored bindings over DefaultKeys, so actions
// missing from an older input file keep their default binding.
func (s *State) serializeKeys(d *serializer.Document) {
	if d.Saving() {
		d.Entry("bindings", &s.Keys)
		return
	}
	var loaded map[string]string
	d.Entry("bindings", &loaded)
	if loaded == nil {
		return
	}
	keys := DefaultKeys()
	maps.Copy(keys, loaded)
	s.Keys = keys
}

// Save writes every section of s through m.
func (s *State) Save(m *config.Manager) error {
	var errs ErrorList
	for _, sec := range s.sections() {
		if err := m.Save(sec.file, sec.name, sec.fn); err != nil {
			errs.Add(NewOperationError("save", sec.file.String()+"/"+sec.name, err))
		}
	}
	return errs.AsError()
}

// Load reads every section of s through m. Missing files are skipped and
// leave the corresponding fields unchanged.
func (s *State) Load(m *config.Manager) error {
	var errs ErrorList
	for _, f := range config.Files() {
		if err := s.LoadFile(m, f); err != nil {
			errs.Add(err)
		}
	}
	return errs.AsError()
}

// LoadFile reads the sections of s stored in file f.
func (s *State) LoadFile(m *config.Manager, f config.File) error {
	var errs ErrorList
	for _, sec := range s.sections() {
		if sec.file != f {
			continue
		}
		err := m.Load(sec.file, sec.name, sec.fn)
		if errors.Is(err, config.ErrFileNotFound) {
			return nil
		}
		if err != nil {
			errs.Add(NewOperationError("load", f.String()+"/"+sec.name, err))
		}
	}
	s.normalize()
	return errs.AsError()
}

// normalize repairs values a hand-edited file may have left out of range.
func (s *State) normalize() {
	if n := len(s.Layout.Panels); n == 0 {
		s.Layout.Focus = 0
	} else if s.Layout.Focus < 0 || s.Layout.Focus >= n {
		s.Layout.Focus = 0
	}
	s.Theme.Accent = s.Theme.Accent.Clamp(0, 1)
	s.Theme.Foreground = s.Theme.Foreground.Clamp(0, 1)
	s.Theme.Background = s.Theme.Background.Clamp(0, 1)
}

// AddRecentFile moves path to the front of the recent files, keeping at
// most limit entries.
func (s *Session) AddRecentFile(path string, limit int) {
	files := []string{path}
	for _, f := range s.RecentFiles {
		if f != path {
			files = append(files, f)
		}
	}
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	s.RecentFiles = files
}

// ActionFor returns the action bound to key, or "" if none is.
func (s *State) ActionFor(key string) string {
	if key == "" {
		return ""
	}
	actions := make([]string, 0, len(s.Keys))
	for action := range s.Keys {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	for _, action := range actions {
		if strings.EqualFold(strings.TrimSpace(s.Keys[action]), key) {
			return action
		}
	}
	return ""
}

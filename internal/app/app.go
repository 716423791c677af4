// Package app provides the interactive shell: a terminal application with
// an Init, Update, Draw and Shutdown lifecycle whose window, layout, theme
// and key bindings are persisted in the state files.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/scaffold/internal/config"
	"github.com/dshills/scaffold/internal/logging"
)

// DefaultFrameRate is the redraw rate used when Options.FrameRate is unset.
const DefaultFrameRate = 30

// Options configures the application.
type Options struct {
	// Config gives access to the state files. Required.
	Config *config.Manager

	// Backend draws the shell and delivers input. Required.
	Backend Backend

	// Logger receives lifecycle messages. Defaults to logging.Default.
	Logger *logging.Logger

	// FrameRate is the number of Update/Draw cycles per second.
	FrameRate int

	// Theme names the theme used until the theme file says otherwise.
	Theme string
}

// Application is the shell.
type Application struct {
	mu sync.Mutex

	cfg     *config.Manager
	backend Backend
	logger  *logging.Logger
	metrics *Metrics

	frameRate int
	state     State
	status    string

	sub     *config.Subscription
	reloads chan config.File

	initialized bool
	shutdown    bool
	running     atomic.Bool
	done        chan struct{}
	quitOnce    sync.Once
}

// New creates an Application. Nothing is read or drawn until Init.
func New(opts Options) (*Application, error) {
	if opts.Config == nil {
		return nil, &InitError{Component: "config", Err: errors.New("no config manager")}
	}
	if opts.Backend == nil {
		return nil, &InitError{Component: "backend", Err: errors.New("no backend")}
	}

	logger := logging.OrDefault(opts.Logger).WithComponent("app")
	frameRate := opts.FrameRate
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	theme := opts.Theme
	if theme == "" {
		theme = "dark"
	}

	return &Application{
		cfg:       opts.Config,
		backend:   opts.Backend,
		logger:    logger,
		metrics:   NewMetrics(),
		frameRate: frameRate,
		state:     DefaultState(theme),
		reloads:   make(chan config.File, 8),
		done:      make(chan struct{}),
	}, nil
}

// Init creates missing state files, loads the saved state, initializes the
// backend and starts watching for external edits. A state file that cannot
// be parsed is logged and its defaults are kept.
func (app *Application) Init(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.shutdown {
		return ErrShutdown
	}
	if app.initialized {
		return nil
	}

	if err := app.cfg.Init(ctx); err != nil {
		return &InitError{Component: "config", Err: err}
	}

	loaded := app.state.Clone()
	if err := loaded.Load(app.cfg); err != nil {
		app.logger.Warn("using defaults for unreadable state: %v", err)
		app.status = "some state could not be read"
	}
	app.state = loaded

	if err := app.backend.Init(); err != nil {
		return &InitError{Component: "backend", Err: err}
	}
	w, h := app.backend.Size()
	app.state.Window.Size.X, app.state.Window.Size.Y = w, h

	app.sub = app.cfg.Subscribe(app.onConfigChange)
	if err := app.cfg.Start(); err != nil {
		app.logger.Warn("live reload disabled: %v", err)
	}

	app.initialized = true
	app.logger.Info("initialized %dx%d, theme %s", w, h, app.state.Theme.Name)
	return nil
}

// Run drives the main loop until the quit action, Quit or ctx ends it.
// Input is handled as it arrives; Update and Draw run once per frame.
func (app *Application) Run(ctx context.Context) (err error) {
	app.mu.Lock()
	ready := app.initialized && !app.shutdown
	app.mu.Unlock()
	if !ready {
		return ErrNotInitialized
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	defer func() {
		if r := recover(); r != nil {
			app.logger.Error("panic in main loop: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("panic in main loop: %v", r)
		}
	}()

	stop := make(chan struct{})
	events := app.pumpEvents(stop)
	defer func() {
		close(stop)
		_ = app.backend.PostEvent(Event{Type: EventInterrupt})
	}()

	frameTime := time.Second / time.Duration(app.frameRate)
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	last := time.Now()
	app.Draw(0)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-app.done:
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := app.HandleEvent(ev); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				app.logger.Warn("event: %v", err)
			}

		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			app.metrics.RecordFrame(dt)
			app.Update(dt)
			app.Draw(dt)
		}
	}
}

// pumpEvents forwards backend events until stop is closed or the backend
// shuts down.
func (app *Application) pumpEvents(stop <-chan struct{}) <-chan Event {
	events := make(chan Event, 64)
	go func() {
		defer close(events)
		for {
			ev := app.backend.PollEvent()
			if ev.Type == EventClosed {
				return
			}
			select {
			case <-stop:
				return
			default:
			}
			if ev.Type == EventInterrupt || ev.Type == EventNone {
				continue
			}
			select {
			case events <- ev:
			case <-stop:
				return
			}
		}
	}()
	return events
}

// Update advances the shell by one frame. State files changed on disk are
// reloaded here so the loop owns every state mutation.
func (app *Application) Update(dt time.Duration) {
	for {
		select {
		case f := <-app.reloads:
			app.reload(f)
		default:
			return
		}
	}
}

func (app *Application) reload(f config.File) {
	app.mu.Lock()
	defer app.mu.Unlock()

	next := app.state.Clone()
	if err := next.LoadFile(app.cfg, f); err != nil {
		app.logger.Warn("reload %s: %v", f, err)
		app.status = fmt.Sprintf("%s has errors, keeping previous state", f.FileName())
		return
	}
	// The window follows the terminal, not the file.
	next.Window.Size = app.state.Window.Size
	app.state = next
	app.metrics.RecordReload()
	app.status = fmt.Sprintf("reloaded %s", f.FileName())
	app.logger.Info("reloaded %s", f)
}

// onConfigChange runs on the watcher goroutine.
func (app *Application) onConfigChange(c config.Change) {
	switch c.Type {
	case config.ChangeReloaded:
		select {
		case app.reloads <- c.File:
		default:
			app.logger.Debug("reload queue full, dropping %s", c.File)
		}
	case config.ChangeRemoved:
		app.mu.Lock()
		app.status = fmt.Sprintf("%s was removed", c.File.FileName())
		app.mu.Unlock()
	}
}

// HandleEvent applies one backend event. It returns ErrQuit when the quit
// action is triggered.
func (app *Application) HandleEvent(ev Event) error {
	app.metrics.RecordEvent()

	switch ev.Type {
	case EventResize:
		app.mu.Lock()
		app.state.Window.Size.X, app.state.Window.Size.Y = ev.Width, ev.Height
		app.mu.Unlock()
		return nil
	case EventKey:
		return app.handleKey(ev)
	default:
		return nil
	}
}

func (app *Application) handleKey(ev Event) error {
	app.mu.Lock()
	action := app.state.ActionFor(KeyName(ev))
	app.mu.Unlock()

	switch action {
	case ActionQuit:
		app.Quit()
		return ErrQuit
	case ActionSave:
		err := app.SaveState()
		app.setStatus(err, "state saved")
		return err
	case ActionReload:
		for _, f := range config.Files() {
			app.reload(f)
		}
		return nil
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	layout := &app.state.Layout
	switch action {
	case ActionToggleFPS:
		app.state.Session.ShowFPS = !app.state.Session.ShowFPS
	case ActionNextPanel:
		if n := len(layout.Panels); n > 0 {
			layout.Focus = (layout.Focus + 1) % n
		}
	case ActionTogglePanel:
		if layout.Focus < len(layout.Panels) {
			p := &layout.Panels[layout.Focus]
			p.Visible = !p.Visible
		}
	}
	return nil
}

func (app *Application) setStatus(err error, ok string) {
	app.mu.Lock()
	defer app.mu.Unlock()
	if err != nil {
		app.status = err.Error()
		return
	}
	app.status = ok
}

// SaveState writes the current state to the state files.
func (app *Application) SaveState() error {
	app.mu.Lock()
	snapshot := app.state.Clone()
	app.mu.Unlock()

	if err := snapshot.Save(app.cfg); err != nil {
		app.logger.Error("saving state: %v", err)
		return err
	}
	app.logger.Debug("state saved")
	return nil
}

// Quit asks Run to return. It is safe to call more than once.
func (app *Application) Quit() {
	app.quitOnce.Do(func() {
		close(app.done)
	})
}

// Shutdown saves the state, stops watching, releases the backend and closes
// the config manager. It is safe to call more than once.
func (app *Application) Shutdown() error {
	app.mu.Lock()
	if app.shutdown {
		app.mu.Unlock()
		return nil
	}
	app.shutdown = true
	initialized := app.initialized
	app.mu.Unlock()

	app.Quit()

	var errs ErrorList
	if initialized {
		errs.Add(app.SaveState())
		app.sub.Unsubscribe()
		app.backend.Shutdown()
	}
	errs.Add(app.cfg.Close())

	app.logger.Info("shut down")
	return errs.AsError()
}

// State returns a copy of the current state.
func (app *Application) State() State {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.state.Clone()
}

// Status returns the message shown in the status line.
func (app *Application) Status() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.status
}

// Metrics returns the frame metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// IsRunning reports whether Run is executing.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// KeyName returns the name bindings use for a key event: "ctrl+q", "esc",
// "enter", "tab", or the character itself.
func KeyName(ev Event) string {
	switch ev.Key {
	case KeyRune:
		if ev.Rune == 0 {
			return ""
		}
		return string(ev.Rune)
	case KeyEscape:
		return "esc"
	case KeyEnter:
		return "enter"
	case KeyTab:
		return "tab"
	case KeyCtrlQ:
		return "ctrl+q"
	case KeyCtrlS:
		return "ctrl+s"
	case KeyCtrlR:
		return "ctrl+r"
	default:
		return ""
	}
}

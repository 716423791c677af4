package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/scaffold/internal/config"
	"github.com/dshills/scaffold/internal/logging"
	"github.com/dshills/scaffold/internal/serializer"
)

// fakeBackend records drawn rows and delivers posted events.
type fakeBackend struct {
	mu      sync.Mutex
	width   int
	height  int
	rows    map[int]string
	shows   int
	events  chan Event
	initErr error
	inited  bool
	closed  bool
}

func newFakeBackend(w, h int) *fakeBackend {
	return &fakeBackend{width: w, height: h, rows: make(map[int]string), events: make(chan Event, 16)}
}

func (b *fakeBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inited = true
	return b.initErr
}

func (b *fakeBackend) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
}

func (b *fakeBackend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *fakeBackend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows = make(map[int]string)
}

func (b *fakeBackend) DrawText(x, y int, text string, _ Style) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows[y] = strings.Repeat(" ", x) + text
}

func (b *fakeBackend) Show() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shows++
}

func (b *fakeBackend) PollEvent() Event {
	ev, ok := <-b.events
	if !ok {
		return Event{Type: EventClosed}
	}
	return ev
}

func (b *fakeBackend) PostEvent(ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("closed")
	}
	select {
	case b.events <- ev:
		return nil
	default:
		return errors.New("queue full")
	}
}

func (b *fakeBackend) row(y int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimRight(b.rows[y], " ")
}

func key(k Key) Event {
	return Event{Type: EventKey, Key: k}
}

func runeKey(r rune) Event {
	return Event{Type: EventKey, Key: KeyRune, Rune: r}
}

type testApp struct {
	*Application
	mem     *serializer.MemStorage
	backend *fakeBackend
}

func newTestApp(t *testing.T, mem *serializer.MemStorage) *testApp {
	t.Helper()
	if mem == nil {
		mem = serializer.NewMemStorage()
	}
	cfg := config.New(config.WithDir("/cfg"), config.WithStorage(mem), config.WithLogger(logging.Nop()))
	b := newFakeBackend(100, 30)

	a, err := New(Options{Config: cfg, Backend: b, Logger: logging.Nop(), FrameRate: 200})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })
	return &testApp{Application: a, mem: mem, backend: b}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{Backend: newFakeBackend(1, 1)})
	assert.ErrorIs(t, err, ErrInitialization)

	_, err = New(Options{Config: config.New(config.WithLogger(logging.Nop()))})
	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "backend", initErr.Component)
}

func TestApplication_InitCreatesState(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.Init(context.Background()))
	require.NoError(t, a.Init(context.Background()))

	assert.True(t, a.backend.inited)
	s := a.State()
	assert.Equal(t, 100, s.Window.Size.X)
	assert.Equal(t, 30, s.Window.Size.Y)
	assert.Equal(t, "dark", s.Theme.Name)

	for _, name := range []string{"ui.yml", "theme.yml", "input.yml"} {
		_, err := a.mem.ReadFile("/cfg/" + name)
		assert.NoError(t, err, name)
	}
}

func TestApplication_InitLoadsSavedState(t *testing.T) {
	mem := serializer.NewMemStorage()
	require.NoError(t, mem.WriteFile("/cfg/theme.yml", []byte("theme:\n  name: solarized\n")))
	require.NoError(t, mem.WriteFile("/cfg/input.yml", []byte("keys:\n  bindings:\n    quit: x\n")))
	require.NoError(t, mem.WriteFile("/cfg/ui.yml", []byte("session:\n  show_fps: true\n")))

	a := newTestApp(t, mem)
	require.NoError(t, a.Init(context.Background()))

	s := a.State()
	assert.Equal(t, "solarized", s.Theme.Name)
	assert.True(t, s.Session.ShowFPS)
	assert.Equal(t, "x", s.Keys[ActionQuit])
	assert.Equal(t, "ctrl+s", s.Keys[ActionSave], "unsaved actions keep their default")

	assert.NoError(t, a.HandleEvent(key(KeyCtrlQ)), "ctrl+q is no longer bound")
	assert.ErrorIs(t, a.HandleEvent(runeKey('x')), ErrQuit)
}

func TestApplication_InitKeepsDefaultsOnBadFile(t *testing.T) {
	mem := serializer.NewMemStorage()
	require.NoError(t, mem.WriteFile("/cfg/theme.yml", []byte("theme:\n\tname: broken\n")))

	a := newTestApp(t, mem)
	require.NoError(t, a.Init(context.Background()))

	assert.Equal(t, "dark", a.State().Theme.Name)
	assert.Equal(t, "some state could not be read", a.Status())
}

func TestApplication_InitBackendError(t *testing.T) {
	a := newTestApp(t, nil)
	a.backend.initErr = errors.New("no tty")

	err := a.Init(context.Background())
	assert.ErrorIs(t, err, ErrInitialization)
	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "backend", initErr.Component)
}

func TestApplication_Keys(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.Init(context.Background()))

	require.NoError(t, a.HandleEvent(key(KeyTab)))
	assert.Equal(t, 1, a.State().Layout.Focus)

	require.NoError(t, a.HandleEvent(key(KeyEnter)))
	assert.False(t, a.State().Layout.Panels[1].Visible)

	require.NoError(t, a.HandleEvent(runeKey('f')))
	assert.True(t, a.State().Session.ShowFPS)

	for i := 0; i < 2; i++ {
		require.NoError(t, a.HandleEvent(key(KeyTab)))
	}
	assert.Equal(t, 0, a.State().Layout.Focus, "focus wraps around")

	require.NoError(t, a.HandleEvent(runeKey('z')))
	require.NoError(t, a.HandleEvent(Event{Type: EventResize, Width: 120, Height: 50}))
	assert.Equal(t, 120, a.State().Window.Size.X)
	assert.Equal(t, 50, a.State().Window.Size.Y)
	assert.Equal(t, uint64(7), a.Metrics().Snapshot().EventCount)
}

func TestApplication_SaveKey(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.Init(context.Background()))

	require.NoError(t, a.HandleEvent(key(KeyTab)))
	require.NoError(t, a.HandleEvent(key(KeyCtrlS)))
	assert.Equal(t, "state saved", a.Status())

	ui, err := a.mem.ReadFile("/cfg/ui.yml")
	require.NoError(t, err)
	assert.Contains(t, string(ui), "  focus: 1\n")
	assert.Contains(t, string(ui), "  size: 100 30\n")
}

func TestApplication_Reload(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.Init(context.Background()))

	require.NoError(t, a.mem.WriteFile("/cfg/theme.yml", []byte("theme:\n  name: light\n")))
	a.onConfigChange(config.Change{File: config.FileTheme, Type: config.ChangeReloaded})
	assert.Equal(t, "dark", a.State().Theme.Name, "reloads apply on the next frame")

	a.Update(0)
	assert.Equal(t, "light", a.State().Theme.Name)
	assert.Equal(t, "reloaded theme.yml", a.Status())
	assert.Equal(t, uint64(1), a.Metrics().Snapshot().Reloads)

	require.NoError(t, a.mem.WriteFile("/cfg/theme.yml", []byte("theme:\n   name: odd\n")))
	a.onConfigChange(config.Change{File: config.FileTheme, Type: config.ChangeReloaded})
	a.Update(0)
	assert.Equal(t, "light", a.State().Theme.Name, "a broken file keeps the previous state")
	assert.Equal(t, "theme.yml has errors, keeping previous state", a.Status())

	a.onConfigChange(config.Change{File: config.FileInput, Type: config.ChangeRemoved})
	assert.Equal(t, "input.yml was removed", a.Status())

	a.onConfigChange(config.Change{File: config.FileUI, Type: config.ChangeSaved})
	a.Update(0)
	assert.Equal(t, uint64(1), a.Metrics().Snapshot().Reloads)
}

func TestApplication_ReloadKeepsWindowSize(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.Init(context.Background()))

	require.NoError(t, a.mem.WriteFile("/cfg/ui.yml", []byte("window:\n  size: 10 10\n  maximized: true\n")))
	require.NoError(t, a.HandleEvent(key(KeyCtrlR)))

	s := a.State()
	assert.True(t, s.Window.Maximized)
	assert.Equal(t, 100, s.Window.Size.X)
}

func TestApplication_Draw(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.Init(context.Background()))
	require.NoError(t, a.HandleEvent(runeKey('f')))

	a.Draw(0)

	assert.Equal(t, " scaffold  100x30  theme: dark", a.backend.row(0))
	assert.Equal(t, "> [x] Explorer (files)", a.backend.row(2))
	assert.Equal(t, "  [x] Viewport (main)", a.backend.row(3))
	assert.Equal(t, "  [ ] Log (debug, output)", a.backend.row(4))
	assert.Equal(t, "   fps 0.0", a.backend.row(29))
	assert.Equal(t, 1, a.backend.shows)
}

func TestApplication_Run(t *testing.T) {
	a := newTestApp(t, nil)
	assert.ErrorIs(t, a.Run(context.Background()), ErrNotInitialized)
	require.NoError(t, a.Init(context.Background()))

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		return a.Metrics().Snapshot().FrameCount >= 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, a.IsRunning())
	assert.ErrorIs(t, a.Run(context.Background()), ErrAlreadyRunning)

	require.NoError(t, a.backend.PostEvent(key(KeyTab)))
	require.NoError(t, a.backend.PostEvent(key(KeyCtrlQ)))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after quit")
	}
	assert.False(t, a.IsRunning())
	assert.Equal(t, 1, a.State().Layout.Focus)
}

func TestApplication_RunCanceled(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.Init(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApplication_Shutdown(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.Init(context.Background()))
	require.NoError(t, a.HandleEvent(runeKey('f')))

	require.NoError(t, a.Shutdown())
	require.NoError(t, a.Shutdown())
	assert.True(t, a.backend.closed)
	assert.ErrorIs(t, a.Init(context.Background()), ErrShutdown)
	assert.ErrorIs(t, a.Run(context.Background()), ErrNotInitialized)

	ui, err := a.mem.ReadFile("/cfg/ui.yml")
	require.NoError(t, err)
	assert.Contains(t, string(ui), "  show_fps: true\n")
}

func TestApplication_ShutdownWithoutInit(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.Shutdown())
	assert.False(t, a.backend.closed)

	_, err := a.mem.ReadFile("/cfg/ui.yml")
	assert.Error(t, err, "nothing is saved before Init")
}

func TestKeyName(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{runeKey('a'), "a"},
		{key(KeyCtrlQ), "ctrl+q"},
		{key(KeyCtrlS), "ctrl+s"},
		{key(KeyCtrlR), "ctrl+r"},
		{key(KeyEscape), "esc"},
		{key(KeyEnter), "enter"},
		{key(KeyTab), "tab"},
		{key(KeyNone), ""},
		{Event{Type: EventKey, Key: KeyRune}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KeyName(tt.ev))
	}
}

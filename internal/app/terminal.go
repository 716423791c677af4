package app

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/scaffold/internal/geom"
)

// Terminal implements Backend using tcell for terminal output.
type Terminal struct {
	screen tcell.Screen
	mu     sync.Mutex
}

// NewTerminal creates a terminal backend on the controlling terminal.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

// NewTerminalWithScreen creates a terminal backend on an existing screen,
// such as a tcell.SimulationScreen.
func NewTerminalWithScreen(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen}
}

func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.HideCursor()
	return nil
}

func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Fini()
}

func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Size()
}

func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()
}

func (t *Terminal) DrawText(x, y int, text string, style Style) {
	t.mu.Lock()
	defer t.mu.Unlock()

	width, height := t.screen.Size()
	if y < 0 || y >= height {
		return
	}
	ts := convertStyle(style)
	for _, r := range text {
		if x >= width {
			break
		}
		if x >= 0 {
			t.screen.SetContent(x, y, r, nil, ts)
		}
		x++
	}
}

func (t *Terminal) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Show()
}

func (t *Terminal) PollEvent() Event {
	ev := t.screen.PollEvent()
	if ev == nil {
		return Event{Type: EventClosed}
	}
	return convertEvent(ev)
}

func (t *Terminal) PostEvent(ev Event) error {
	switch ev.Type {
	case EventKey:
		k, r := convertToTcellKey(ev.Key, ev.Rune)
		return t.screen.PostEvent(tcell.NewEventKey(k, r, tcell.ModNone))
	case EventInterrupt:
		return t.screen.PostEvent(tcell.NewEventInterrupt(nil))
	default:
		return nil
	}
}

// convertStyle converts our Style to tcell.Style.
func convertStyle(s Style) tcell.Style {
	style := tcell.StyleDefault
	if c, ok := convertColor(s.Foreground); ok {
		style = style.Foreground(c)
	}
	if c, ok := convertColor(s.Background); ok {
		style = style.Background(c)
	}
	if s.Bold {
		style = style.Bold(true)
	}
	if s.Reverse {
		style = style.Reverse(true)
	}
	return style
}

func convertColor(v geom.Vec4) (tcell.Color, bool) {
	if v.W <= 0 {
		return tcell.ColorDefault, false
	}
	v = v.Clamp(0, 1)
	return tcell.NewRGBColor(int32(v.X*255+0.5), int32(v.Y*255+0.5), int32(v.Z*255+0.5)), true
}

// convertEvent converts tcell events to our Event type.
func convertEvent(ev tcell.Event) Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return Event{Type: EventKey, Key: convertKey(e.Key()), Rune: e.Rune()}
	case *tcell.EventResize:
		w, h := e.Size()
		return Event{Type: EventResize, Width: w, Height: h}
	case *tcell.EventInterrupt:
		return Event{Type: EventInterrupt}
	default:
		return Event{Type: EventNone}
	}
}

// convertKey converts tcell key to our Key type.
func convertKey(k tcell.Key) Key {
	switch k {
	case tcell.KeyRune:
		return KeyRune
	case tcell.KeyEscape:
		return KeyEscape
	case tcell.KeyEnter:
		return KeyEnter
	case tcell.KeyTab:
		return KeyTab
	case tcell.KeyCtrlQ:
		return KeyCtrlQ
	case tcell.KeyCtrlS:
		return KeyCtrlS
	case tcell.KeyCtrlR:
		return KeyCtrlR
	default:
		return KeyNone
	}
}

// convertToTcellKey converts our Key to a tcell key.
func convertToTcellKey(k Key, r rune) (tcell.Key, rune) {
	switch k {
	case KeyRune:
		return tcell.KeyRune, r
	case KeyEscape:
		return tcell.KeyEscape, 0
	case KeyEnter:
		return tcell.KeyEnter, 0
	case KeyTab:
		return tcell.KeyTab, 0
	case KeyCtrlQ:
		return tcell.KeyCtrlQ, 0
	case KeyCtrlS:
		return tcell.KeyCtrlS, 0
	case KeyCtrlR:
		return tcell.KeyCtrlR, 0
	default:
		return tcell.KeyNUL, 0
	}
}

package app

import (
	"github.com/dshills/scaffold/internal/geom"
)

// Backend is the drawing surface and input source of the shell.
type Backend interface {
	// Init prepares the backend for drawing.
	Init() error
	// Shutdown releases the backend. PollEvent returns EventClosed afterwards.
	Shutdown()
	// Size returns the surface size in cells.
	Size() (width, height int)
	// Clear blanks the surface.
	Clear()
	// DrawText writes text starting at x, y, clipped to the surface width.
	DrawText(x, y int, text string, style Style)
	// Show makes everything drawn since the last Show visible.
	Show()
	// PollEvent blocks until the next event.
	PollEvent() Event
	// PostEvent queues an event for PollEvent.
	PostEvent(ev Event) error
}

// Style is the color of drawn text. Colors are RGBA in [0, 1]; a zero
// alpha selects the terminal default.
type Style struct {
	Foreground geom.Vec4
	Background geom.Vec4
	Bold       bool
	Reverse    bool
}

// EventType identifies the type of backend event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventResize
	EventInterrupt
	EventClosed
)

// Key represents a keyboard key.
type Key int

// Key constants for the keys the shell reacts to.
const (
	KeyNone Key = iota
	KeyRune     // Regular character (use Rune field)
	KeyEscape
	KeyEnter
	KeyTab
	KeyCtrlQ
	KeyCtrlS
	KeyCtrlR
)

// Event represents a backend event.
type Event struct {
	Type EventType

	// Key event fields
	Key  Key
	Rune rune

	// Resize event fields
	Width, Height int
}

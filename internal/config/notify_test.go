package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifier_Order(t *testing.T) {
	n := newNotifier()

	var got []string
	n.subscribe(subscriber{all: true, observer: func(Change) { got = append(got, "a") }})
	n.subscribe(subscriber{file: FileTheme, observer: func(Change) { got = append(got, "theme") }})
	n.subscribe(subscriber{all: true, observer: func(Change) { got = append(got, "b") }})

	n.notify(Change{File: FileUI})
	assert.Equal(t, []string{"a", "b"}, got)

	got = nil
	n.notify(Change{File: FileTheme})
	assert.Equal(t, []string{"a", "theme", "b"}, got)
}

func TestNotifier_Unsubscribe(t *testing.T) {
	n := newNotifier()

	calls := 0
	sub := n.subscribe(subscriber{all: true, observer: func(Change) { calls++ }})
	n.subscribe(subscriber{all: true, observer: func(Change) {}})
	assert.Equal(t, 2, n.count())

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 1, n.count())

	n.notify(Change{})
	assert.Equal(t, 0, calls)

	var nilSub *Subscription
	assert.NotPanics(t, nilSub.Unsubscribe)
}

func TestNotifier_PanicRecovery(t *testing.T) {
	n := newNotifier()

	called := false
	n.subscribe(subscriber{all: true, observer: func(Change) { panic("boom") }})
	n.subscribe(subscriber{all: true, observer: func(Change) { called = true }})

	assert.NotPanics(t, func() { n.notify(Change{}) })
	assert.True(t, called)
}

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "saved", ChangeSaved.String())
	assert.Equal(t, "reloaded", ChangeReloaded.String())
	assert.Equal(t, "removed", ChangeRemoved.String())
	assert.Equal(t, "unknown", ChangeType(9).String())
}

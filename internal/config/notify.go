package config

import (
	"sync"
)

// ChangeType represents the type of state file change.
type ChangeType int

const (
	// ChangeSaved indicates a section was saved through the manager.
	ChangeSaved ChangeType = iota

	// ChangeReloaded indicates the file was changed by someone else.
	ChangeReloaded

	// ChangeRemoved indicates the file was deleted.
	ChangeRemoved
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSaved:
		return "saved"
	case ChangeReloaded:
		return "reloaded"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Change describes a change to a state file.
type Change struct {
	// File is the state file that changed.
	File File

	// Path is the file path on disk.
	Path string

	// Type is the type of change.
	Type ChangeType

	// Section is the saved section. Empty unless Type is ChangeSaved.
	Section string
}

// Observer is called when a state file changes.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *notifier
}

// Unsubscribe removes this subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

type subscriber struct {
	observer Observer
	file     File
	all      bool
}

// notifier delivers changes synchronously in subscription order.
type notifier struct {
	mu     sync.RWMutex
	subs   map[uint64]subscriber
	order  []uint64
	nextID uint64
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[uint64]subscriber)}
}

func (n *notifier) subscribe(s subscriber) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.subs[id] = s
	n.order = append(n.order, id)
	return &Subscription{id: id, notifier: n}
}

func (n *notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.subs[id]; !ok {
		return
	}
	delete(n.subs, id)
	for i, v := range n.order {
		if v == id {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
}

func (n *notifier) notify(change Change) {
	n.mu.RLock()
	observers := make([]Observer, 0, len(n.order))
	for _, id := range n.order {
		s := n.subs[id]
		if s.all || s.file == change.File {
			observers = append(observers, s.observer)
		}
	}
	n.mu.RUnlock()

	for _, obs := range observers {
		safeNotify(obs, change)
	}
}

// safeNotify calls an observer, recovering from panics.
func safeNotify(obs Observer, change Change) {
	defer func() { _ = recover() }()
	obs(change)
}

func (n *notifier) count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

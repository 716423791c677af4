package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dshills/scaffold/internal/config/watcher"
	"github.com/dshills/scaffold/internal/logging"
	"github.com/dshills/scaffold/internal/serializer"
)

// Manager provides access to the state files in one configuration
// directory. Access to each file is serialized; different files may be used
// concurrently.
type Manager struct {
	mu sync.RWMutex

	dir     string
	storage serializer.Storage
	logger  *logging.Logger
	lenient bool

	// File watcher for live reload
	enableWatcher bool
	debounce      time.Duration
	watcher       *watcher.Watcher

	// Per-file locks
	locks [fileCount]sync.Mutex

	// Content last written by this manager, used to tell our own saves
	// apart from external edits.
	written [fileCount][]byte

	notifier *notifier
	closed   bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithDir sets the configuration directory.
func WithDir(dir string) Option {
	return func(m *Manager) {
		m.dir = dir
	}
}

// WithStorage sets the storage state files are read from and written to.
func WithStorage(s serializer.Storage) Option {
	return func(m *Manager) {
		if s != nil {
			m.storage = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithWatcher enables file watching for live reload once Start is called.
func WithWatcher(enable bool) Option {
	return func(m *Manager) {
		m.enableWatcher = enable
	}
}

// WithDebounce sets the quiet period the watcher waits before reporting a
// change.
func WithDebounce(d time.Duration) Option {
	return func(m *Manager) {
		m.debounce = d
	}
}

// WithLenient makes loads skip malformed lines instead of failing.
func WithLenient(enable bool) Option {
	return func(m *Manager) {
		m.lenient = enable
	}
}

// New creates a Manager. Without WithDir the directory is DefaultDir.
func New(opts ...Option) *Manager {
	m := &Manager{
		storage:  serializer.DefaultStorage(),
		debounce: 100 * time.Millisecond,
		notifier: newNotifier(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.dir == "" {
		m.dir = DefaultDir()
	}
	if m.logger == nil {
		m.logger = logging.Default()
	}
	m.logger = m.logger.WithComponent("config")

	return m
}

// Dir returns the configuration directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the path of a state file.
func (m *Manager) Path(f File) string {
	return filepath.Join(m.dir, f.FileName())
}

// Init creates every state file that does not exist yet. Existing files are
// left alone.
func (m *Manager) Init(ctx context.Context) error {
	for _, f := range Files() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.initFile(f); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) initFile(f File) error {
	m.locks[f].Lock()
	defer m.locks[f].Unlock()

	path := m.Path(f)
	_, err := m.storage.ReadFile(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	content := []byte(fmt.Sprintf("# %s state\n", f))
	if err := m.storage.WriteFile(path, content); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	m.remember(f, content)
	m.logger.WithField("file", f).Info("created %s", path)
	return nil
}

// Serialize opens section of file f in the given direction, runs fn on it,
// and closes it. Loading a file that does not exist returns an error
// matching ErrFileNotFound.
func (m *Manager) Serialize(f File, section string, option serializer.Option, fn func(*serializer.Document)) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownFile, f)
	}
	if m.isClosed() {
		return ErrClosed
	}

	m.locks[f].Lock()
	defer m.locks[f].Unlock()

	return m.serializeLocked(f, section, option, fn)
}

func (m *Manager) serializeLocked(f File, section string, option serializer.Option, fn func(*serializer.Document)) error {
	path := m.Path(f)
	log := m.logger.WithFields(map[string]any{"file": f, "section": section})

	var warnings []string
	err := serializer.Serialize(path, section, option, func(d *serializer.Document) {
		if fn != nil {
			fn(d)
		}
		warnings = d.Warnings()
	}, m.docOptions()...)

	for _, w := range warnings {
		log.Warn("skipped: %s", w)
	}
	if err != nil {
		if option == serializer.LoadFromFile && errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %w", ErrFileNotFound, err)
		}
		log.Error("%s failed: %v", option, err)
		return err
	}
	log.Debug("%s %s", option, path)

	if option == serializer.SaveToFile {
		if data, err := m.storage.ReadFile(path); err == nil {
			m.remember(f, data)
		}
		m.notifier.notify(Change{File: f, Path: path, Type: ChangeSaved, Section: section})
	}
	return nil
}

// Save writes section of file f as described by fn.
func (m *Manager) Save(f File, section string, fn func(*serializer.Document)) error {
	return m.Serialize(f, section, serializer.SaveToFile, fn)
}

// Load fills the data described by fn from section of file f.
func (m *Manager) Load(f File, section string, fn func(*serializer.Document)) error {
	return m.Serialize(f, section, serializer.LoadFromFile, fn)
}

// Read returns the raw content of file f.
func (m *Manager) Read(f File) ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFile, f)
	}
	m.locks[f].Lock()
	defer m.locks[f].Unlock()
	return m.read(f)
}

func (m *Manager) read(f File) ([]byte, error) {
	data, err := m.storage.ReadFile(m.Path(f))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrFileNotFound, err)
		}
		return nil, err
	}
	return data, nil
}

// Decode returns the whole content of file f as untyped values.
func (m *Manager) Decode(f File) (map[string]any, error) {
	data, err := m.Read(f)
	if err != nil {
		return nil, err
	}
	return serializer.Decode(m.Path(f), data, m.docOptions()...)
}

// Sections returns the section names of file f in file order.
func (m *Manager) Sections(f File) ([]string, error) {
	data, err := m.Read(f)
	if err != nil {
		return nil, err
	}
	return serializer.SectionNames(m.Path(f), data, m.docOptions()...)
}

// Subscribe registers an observer for changes to every file.
func (m *Manager) Subscribe(observer Observer) *Subscription {
	return m.notifier.subscribe(subscriber{observer: observer, all: true})
}

// SubscribeFile registers an observer for changes to one file.
func (m *Manager) SubscribeFile(f File, observer Observer) *Subscription {
	return m.notifier.subscribe(subscriber{observer: observer, file: f})
}

// Start begins watching the state files when the watcher is enabled.
// The directory is created if needed.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if !m.enableWatcher || m.watcher != nil {
		return nil
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", m.dir, err)
	}
	w, err := watcher.New(watcher.WithDebounce(m.debounce))
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	for _, f := range Files() {
		if err := w.Watch(m.Path(f)); err != nil {
			_ = w.Close()
			return fmt.Errorf("watching %s: %w", m.Path(f), err)
		}
	}
	w.OnChange(m.handleFileChange)
	w.OnError(func(err error) {
		m.logger.Warn("watcher: %v", err)
	})
	w.Start()
	m.watcher = w

	m.logger.Debug("watching %s", m.dir)
	return nil
}

// Close stops the watcher. Further calls to Serialize fail with ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	w := m.watcher
	m.watcher = nil
	m.closed = true
	m.mu.Unlock()

	if w != nil {
		return w.Close()
	}
	return nil
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// handleFileChange turns watcher events into notifications. Events caused
// by the manager's own saves are dropped.
func (m *Manager) handleFileChange(event watcher.Event) {
	f, ok := m.fileForPath(event.Path)
	if !ok {
		return
	}
	change := Change{File: f, Path: event.Path}

	if event.Op == watcher.OpRemove || event.Op == watcher.OpRename {
		m.mu.Lock()
		m.written[f] = nil
		m.mu.Unlock()

		change.Type = ChangeRemoved
		m.logger.WithField("file", f).Info("removed externally")
		m.notifier.notify(change)
		return
	}

	data, err := m.storage.ReadFile(m.Path(f))
	if err != nil {
		return
	}
	if m.isOwnWrite(f, data) {
		return
	}
	m.remember(f, data)

	change.Type = ChangeReloaded
	m.logger.WithField("file", f).Info("changed externally")
	m.notifier.notify(change)
}

func (m *Manager) fileForPath(path string) (File, bool) {
	clean := filepath.Clean(path)
	if abs, err := filepath.Abs(clean); err == nil {
		clean = abs
	}
	for _, f := range Files() {
		p := m.Path(f)
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if p == clean {
			return f, true
		}
	}
	return 0, false
}

func (m *Manager) remember(f File, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written[f] = append([]byte(nil), data...)
}

func (m *Manager) isOwnWrite(f File, data []byte) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.written[f] != nil && bytes.Equal(m.written[f], data)
}

func (m *Manager) docOptions() []serializer.DocOption {
	opts := []serializer.DocOption{serializer.WithStorage(m.storage)}
	if m.lenient {
		opts = append(opts, serializer.WithLenient())
	}
	return opts
}

// DefaultDir returns the default configuration directory.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "scaffold")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scaffold"
	}
	return filepath.Join(home, ".config", "scaffold")
}

package media

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

type EventType int

const (
	Inserted EventType = iota + 1
	Removed
)

func (t EventType) String() string {
	switch t {
	case Inserted:
		return "inserted"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Event reports a drive change. KeyFile is set for inserted drives that
// hold a private key, and for removed drives that held the current key.
type Event struct {
	Type    EventType
	Drive   string
	KeyFile string
}

type Options struct {
	Roots       []string
	KeyFileName string
	Logger      *slog.Logger
}

// Monitor watches the mount roots and publishes drive changes on Events.
type Monitor struct {
	roots   []string
	keyName string
	log     *slog.Logger
	events  chan Event

	mu       sync.Mutex
	drives   map[string]string
	keyFile  string
	keyDrive string
}

func NewMonitor(opts Options) *Monitor {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	name := opts.KeyFileName
	if name == "" {
		name = DefaultKeyFileName
	}

	return &Monitor{
		roots:   opts.Roots,
		keyName: name,
		log:     log,
		events:  make(chan Event, 16),
		drives:  make(map[string]string),
	}
}

// Events returns the channel drive changes are published on. It is closed
// when Run returns.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// KeyFile returns the most recently detected private key and its drive.
func (m *Monitor) KeyFile() (path, drive string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keyFile, m.keyDrive, m.keyFile != ""
}

// Run scans the drives that are already attached, then watches the roots
// until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.events)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for _, root := range m.roots {
		if err := watcher.Add(root); err != nil {
			m.log.Debug("not watching mount root", slog.String("root", root), slog.Any("error", err))
			continue
		}
		watched++
	}
	if watched == 0 {
		m.log.Warn("no mount root can be watched", slog.Any("roots", m.roots))
	}

	if err := m.initialScan(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			m.handle(ctx, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.log.Warn("watcher error", slog.Any("error", err))
		}
	}
}

func (m *Monitor) initialScan(ctx context.Context) error {
	drives, err := Drives(m.roots)
	if err != nil {
		return err
	}
	found, err := Scan(ctx, drives, m.keyName, m.log)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	for _, d := range found {
		m.inserted(ctx, d)
	}
	return nil
}

func (m *Monitor) handle(ctx context.Context, ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)

	switch {
	case ev.Has(fsnotify.Create):
		if !isDir(path) {
			return
		}
		key, err := FindKeyFile(ctx, path, m.keyName)
		if err != nil {
			m.log.Warn("failed to search drive", slog.String("drive", path), slog.Any("error", err))
		}
		m.inserted(ctx, Drive{Path: path, KeyFile: key})
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		m.removed(ctx, path)
	}
}

func (m *Monitor) inserted(ctx context.Context, d Drive) {
	m.mu.Lock()
	if _, known := m.drives[d.Path]; known {
		m.mu.Unlock()
		return
	}
	m.drives[d.Path] = d.KeyFile
	if d.HasKey() {
		m.keyFile, m.keyDrive = d.KeyFile, d.Path
	}
	m.mu.Unlock()

	if d.HasKey() {
		m.log.Info("private key found", slog.String("drive", d.Path), slog.String("key", d.KeyFile))
	} else {
		m.log.Info("drive attached without private key", slog.String("drive", d.Path))
	}
	m.publish(ctx, Event{Type: Inserted, Drive: d.Path, KeyFile: d.KeyFile})
}

func (m *Monitor) removed(ctx context.Context, path string) {
	m.mu.Lock()
	if _, known := m.drives[path]; !known {
		m.mu.Unlock()
		return
	}
	delete(m.drives, path)

	var key string
	if m.keyDrive == path {
		key = m.keyFile
		m.keyFile, m.keyDrive = "", ""
	}
	m.mu.Unlock()

	m.log.Info("drive removed", slog.String("drive", path))
	m.publish(ctx, Event{Type: Removed, Drive: path, KeyFile: key})
}

func (m *Monitor) publish(ctx context.Context, ev Event) {
	select {
	case m.events <- ev:
	case <-ctx.Done():
	}
}

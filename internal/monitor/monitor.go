// Package monitor runs debounced re-scans of project paths on file system
// changes. Each monitored path owns one watch session; sessions are
// registered by cleaned absolute path so concurrent starts cannot create
// two live watches over the same tree.
package monitor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"triage/internal/config"
	"triage/internal/engine"
	"triage/internal/errors"
)

// Event carries the result of one debounced re-scan.
type Event struct {
	Handle  string             `json:"handle"`
	Result  *engine.ScanResult `json:"result"`
	Trigger []string           `json:"trigger,omitempty"`
	At      time.Time          `json:"at"`
}

// Tracker receives scan results for trend tracking. Failures are logged
// and never interrupt monitoring.
type Tracker interface {
	TrackScan(ctx context.Context, result *engine.ScanResult) error
}

// Monitor owns the active-session registry and the shared event stream.
type Monitor struct {
	engine  *engine.Engine
	cfg     *config.Config
	logger  *slog.Logger
	tracker Tracker

	mu       sync.RWMutex
	byPath   map[string]*Session // live sessions keyed by cleaned path
	byHandle map[string]*Session // every session ever started
	events   chan Event
}

// New creates a monitor driving re-scans through the given engine.
func New(eng *engine.Engine, cfg *config.Config, logger *slog.Logger) *Monitor {
	buffer := cfg.Monitor.EventBuffer
	if buffer <= 0 {
		buffer = 16
	}
	return &Monitor{
		engine:   eng,
		cfg:      cfg,
		logger:   logger,
		byPath:   make(map[string]*Session),
		byHandle: make(map[string]*Session),
		events:   make(chan Event, buffer),
	}
}

// SetTracker wires an optional metrics sink for re-scan results.
func (m *Monitor) SetTracker(t Tracker) {
	m.tracker = t
}

// Events returns the stream of debounced re-scan results. Slow consumers
// never block the watcher; overflowing events are dropped with a warning.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Start begins monitoring path. If a live session already covers the same
// cleaned path, the existing session is returned with a true flag and no
// error; callers that must treat that as a conflict can test the flag.
func (m *Monitor) Start(ctx context.Context, path string) (*Session, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false, errors.NewValidationFailed("invalid path " + path)
	}
	abs = filepath.Clean(abs)
	info, err := os.Stat(abs)
	if err != nil {
		return nil, false, errors.NewPathNotFound(path)
	}

	m.mu.Lock()
	if existing, ok := m.byPath[abs]; ok && existing.State() != StateStopped {
		m.mu.Unlock()
		return existing, true, nil
	}

	debounce := time.Duration(m.cfg.Monitor.DebounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	sessCtx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		handle:    uuid.NewString(),
		path:      abs,
		startedAt: time.Now().UTC(),
		debounce:  newDebouncer(debounce),
		ctx:       sessCtx,
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     StateStarting,
	}
	m.byPath[abs] = sess
	m.byHandle[sess.handle] = sess
	m.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.discard(sess)
		return nil, false, errors.Wrap(errors.InternalError, "failed to create file watcher", err)
	}
	sess.watcher = watcher

	if err := m.watchTree(watcher, abs, info.IsDir()); err != nil {
		watcher.Close()
		m.discard(sess)
		return nil, false, err
	}

	sess.setState(StateWatching)
	go m.run(sess)

	m.logger.Info("monitoring started",
		"handle", sess.handle,
		"path", abs,
		"debounce", debounce)
	return sess, false, nil
}

// discard rolls back a session that never reached watching.
func (m *Monitor) discard(sess *Session) {
	sess.markStopped()
	sess.cancel()
	m.mu.Lock()
	if cur, ok := m.byPath[sess.path]; ok && cur == sess {
		delete(m.byPath, sess.path)
	}
	delete(m.byHandle, sess.handle)
	m.mu.Unlock()
}

// watchTree adds the root and, for directories, every non-ignored
// subdirectory to the watch set.
func (m *Monitor) watchTree(watcher *fsnotify.Watcher, root string, isDir bool) error {
	if !isDir {
		if err := watcher.Add(root); err != nil {
			return errors.Wrap(errors.InternalError, "failed to watch "+root, err)
		}
		return nil
	}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil //nolint:nilerr
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && m.ignored(root, path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			m.logger.Debug("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.InternalError, "failed to watch "+root, err)
	}
	return nil
}

// ignored matches the effective monitor ignore patterns against the path's
// base name and its slash-separated path relative to the session root.
func (m *Monitor) ignored(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)
	for _, pattern := range m.cfg.MonitorIgnorePatterns() {
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// run consumes watcher events until the session stops or the watcher
// reports a fatal error.
func (m *Monitor) run(sess *Session) {
	defer close(sess.done)
	for {
		select {
		case <-sess.ctx.Done():
			return
		case ev, ok := <-sess.watcher.Events:
			if !ok {
				return
			}
			m.handleEvent(sess, ev)
		case err, ok := <-sess.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("watcher failed, stopping session",
				"handle", sess.handle,
				"path", sess.path,
				"error", err)
			m.teardown(sess)
			return
		}
	}
}

func (m *Monitor) handleEvent(sess *Session, ev fsnotify.Event) {
	// Chmod-only events carry no content change.
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if m.ignored(sess.path, ev.Name) {
		return
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := sess.watcher.Add(ev.Name); err != nil {
				m.logger.Debug("failed to watch new directory", "path", ev.Name, "error", err)
			}
		}
	}

	sess.addTrigger(relTrigger(sess.path, ev.Name))
	sess.debounce.trigger(func() { m.rescan(sess) })
}

func relTrigger(root, name string) string {
	rel, err := filepath.Rel(root, name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Base(name)
	}
	return filepath.ToSlash(rel)
}

// rescan runs the engine once for a debounce window's worth of changes.
// A session that stopped while the scan was pending or in flight keeps its
// stopped state and the result is discarded.
func (m *Monitor) rescan(sess *Session) {
	trigger := sess.takeTrigger()
	if sess.State() != StateWatching {
		return
	}

	result, err := m.engine.Scan(sess.ctx, sess.path)
	if err != nil {
		if sess.ctx.Err() == nil {
			m.logger.Warn("rescan failed", "handle", sess.handle, "path", sess.path, "error", err)
		}
		return
	}
	if sess.State() != StateWatching {
		return
	}
	sess.recordResult(result)

	if m.tracker != nil {
		if err := m.tracker.TrackScan(sess.ctx, result); err != nil {
			m.logger.Warn("failed to track rescan", "handle", sess.handle, "error", err)
		}
	}

	event := Event{
		Handle:  sess.handle,
		Result:  result,
		Trigger: trigger,
		At:      time.Now().UTC(),
	}
	select {
	case m.events <- event:
	default:
		m.logger.Warn("event stream full, dropping rescan result", "handle", sess.handle)
	}
}

// Stop ends the session with the given handle. Stopping an already
// stopped session is a no-op; an unknown handle is an error.
func (m *Monitor) Stop(handle string) error {
	m.mu.RLock()
	sess, ok := m.byHandle[handle]
	m.mu.RUnlock()
	if !ok {
		return errors.NewMonitorNotFound(handle)
	}
	m.teardown(sess)
	return nil
}

// teardown is idempotent; the first caller wins the stop transition.
func (m *Monitor) teardown(sess *Session) {
	if !sess.markStopped() {
		return
	}
	sess.debounce.cancel()
	sess.cancel()
	if sess.watcher != nil {
		sess.watcher.Close()
	}

	m.mu.Lock()
	if cur, ok := m.byPath[sess.path]; ok && cur == sess {
		delete(m.byPath, sess.path)
	}
	m.mu.Unlock()

	m.logger.Info("monitoring stopped", "handle", sess.handle, "path", sess.path)
}

// Sessions returns a snapshot of every session, stopped ones included,
// ordered by start time then path.
func (m *Monitor) Sessions() []SessionInfo {
	m.mu.RLock()
	infos := make([]SessionInfo, 0, len(m.byHandle))
	for _, sess := range m.byHandle {
		infos = append(infos, sess.info())
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].StartedAt.Equal(infos[j].StartedAt) {
			return infos[i].StartedAt.Before(infos[j].StartedAt)
		}
		return infos[i].Path < infos[j].Path
	})
	return infos
}

// Shutdown stops every live session and waits for their watch loops to
// exit.
func (m *Monitor) Shutdown() {
	m.mu.RLock()
	live := make([]*Session, 0, len(m.byPath))
	for _, sess := range m.byPath {
		live = append(live, sess)
	}
	m.mu.RUnlock()

	for _, sess := range live {
		m.teardown(sess)
	}
	for _, sess := range live {
		<-sess.done
	}
}

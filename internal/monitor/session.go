package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"triage/internal/engine"
)

// State is the lifecycle phase of a monitoring session. Stopped is
// terminal; a stopped session never starts watching again.
type State string

const (
	StateStarting State = "starting"
	StateWatching State = "watching"
	StateStopped  State = "stopped"
)

// SessionInfo is a point-in-time snapshot of a session for status output.
type SessionInfo struct {
	Handle    string    `json:"handle"`
	Path      string    `json:"path"`
	State     State     `json:"state"`
	StartedAt time.Time `json:"startedAt"`
	Scans     int64     `json:"scans"`
}

// Session is one live watch over a project path. Values are created by
// Monitor.Start and owned by the monitor.
type Session struct {
	handle    string
	path      string
	startedAt time.Time

	watcher   *fsnotify.Watcher
	debounce  *debouncer
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}

	mu         sync.Mutex
	state      State
	scans      int64
	trigger    map[string]struct{}
	lastResult *engine.ScanResult
}

// Handle returns the opaque session identifier.
func (s *Session) Handle() string { return s.handle }

// Path returns the cleaned absolute path the session watches.
func (s *Session) Path() string { return s.path }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// markStopped transitions to stopped and reports whether this call made
// the transition.
func (s *Session) markStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return false
	}
	s.state = StateStopped
	return true
}

func (s *Session) addTrigger(rel string) {
	s.mu.Lock()
	if s.trigger == nil {
		s.trigger = make(map[string]struct{})
	}
	s.trigger[rel] = struct{}{}
	s.mu.Unlock()
}

// takeTrigger drains the accumulated trigger paths, sorted.
func (s *Session) takeTrigger() []string {
	s.mu.Lock()
	paths := make([]string, 0, len(s.trigger))
	for p := range s.trigger {
		paths = append(paths, p)
	}
	s.trigger = nil
	s.mu.Unlock()
	sort.Strings(paths)
	return paths
}

// recordResult stores the outcome of a completed debounced scan.
func (s *Session) recordResult(result *engine.ScanResult) {
	s.mu.Lock()
	s.scans++
	s.lastResult = result
	s.mu.Unlock()
}

// LastResult returns the most recent debounced scan result. The boolean is
// false until the first change-triggered scan completes.
func (s *Session) LastResult() (*engine.ScanResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult, s.lastResult != nil
}

func (s *Session) info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		Handle:    s.handle,
		Path:      s.path,
		State:     s.state,
		StartedAt: s.startedAt,
		Scans:     s.scans,
	}
}

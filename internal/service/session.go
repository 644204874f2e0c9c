package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joeblew999/geophoto/internal/gallery"
)

var (
	// ErrNotReady is returned while the collection is still loading.
	ErrNotReady = errors.New("image collection is still loading")
	// ErrLoadFailed is returned once the collection failed to load.
	ErrLoadFailed = errors.New(gallery.LoadErrorMessage)
	// ErrNoSession is returned for an unknown or expired session ID.
	ErrNoSession = errors.New("session not found")
)

// Session is one viewer's layer and lightbox state. Its mutex serializes the
// viewer's toggle and click events.
type Session struct {
	ID string

	mu      sync.Mutex
	syncer  *gallery.Synchronizer
	touched time.Time
}

// SessionService owns the viewer sessions over the loaded collection.
type SessionService struct {
	loader *gallery.Loader
	bus    *EventBus
	logger *slog.Logger
	wrap   bool
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionService creates a session service over loader.
func NewSessionService(loader *gallery.Loader, bus *EventBus, wrap bool, logger *slog.Logger) *SessionService {
	if bus == nil {
		bus = NewEventBus()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		loader:   loader,
		bus:      bus,
		logger:   logger.With("component", "sessions"),
		wrap:     wrap,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Bus returns the event bus session changes are published on.
func (s *SessionService) Bus() *EventBus {
	return s.bus
}

// Loader returns the collection loader.
func (s *SessionService) Loader() *gallery.Loader {
	return s.loader
}

// Status reports the collection state.
func (s *SessionService) Status() CollectionStatus {
	snap := s.loader.Snapshot()
	types := snap.Types
	if types == nil {
		types = []string{}
	}
	return CollectionStatus{
		Status:  snap.Status,
		Images:  len(snap.Images),
		Types:   types,
		Message: snap.Message,
	}
}

// Ready returns the loaded images or why they are unavailable.
func (s *SessionService) Ready() ([]gallery.Image, error) {
	snap := s.loader.Snapshot()
	switch snap.Status {
	case gallery.StatusReady:
		return snap.Images, nil
	case gallery.StatusError:
		return nil, ErrLoadFailed
	default:
		return nil, ErrNotReady
	}
}

// Create starts a session with every layer visible.
func (s *SessionService) Create() (*Session, error) {
	images, err := s.Ready()
	if err != nil {
		return nil, err
	}
	sess := &Session{
		ID:      uuid.NewString(),
		syncer:  gallery.NewSynchronizer(images, gallery.WithWrap(s.wrap)),
		touched: s.now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.logger.Debug("session created", "session", sess.ID)
	return sess, nil
}

// Get returns a session by ID.
func (s *SessionService) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Len returns the number of live sessions.
func (s *SessionService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// do runs fn on the session's synchronizer with the session locked and
// returns the resulting state.
func (s *SessionService) do(id string, fn func(*gallery.Synchronizer) bool, ev Event) (ViewerState, bool, error) {
	sess, ok := s.Get(id)
	if !ok {
		return ViewerState{}, false, fmt.Errorf("%w: %s", ErrNoSession, id)
	}

	sess.mu.Lock()
	changed := fn(sess.syncer)
	sess.touched = s.now()
	state := stateOf(sess)
	sess.mu.Unlock()

	if changed {
		ev.Session = id
		s.bus.Publish(ev)
	}
	return state, changed, nil
}

// State returns the current state of a session.
func (s *SessionService) State(id string) (ViewerState, error) {
	state, _, err := s.do(id, func(*gallery.Synchronizer) bool { return false }, Event{})
	return state, err
}

// Toggle shows or hides a type layer.
func (s *SessionService) Toggle(id, label string, adding bool) (ViewerState, error) {
	state, _, err := s.do(id, func(g *gallery.Synchronizer) bool {
		l := g.Layers()
		if !l.Known(label) || l.Visible(label) == adding {
			return false
		}
		g.ToggleType(label, adding)
		return true
	}, Event{Resource: "layers", Action: "toggled", Label: label})
	return state, err
}

// Open opens the lightbox on src. It reports false, with the state unchanged,
// when src is not in the session's visible slides.
func (s *SessionService) Open(id, src string) (ViewerState, bool, error) {
	return s.do(id, func(g *gallery.Synchronizer) bool {
		return g.OpenLightbox(src)
	}, Event{Resource: "lightbox", Action: "opened"})
}

// Close closes the lightbox.
func (s *SessionService) Close(id string) (ViewerState, error) {
	state, _, err := s.do(id, func(g *gallery.Synchronizer) bool {
		was := g.Lightbox().Open
		g.CloseLightbox()
		return was
	}, Event{Resource: "lightbox", Action: "closed"})
	return state, err
}

// Step moves the lightbox forward (delta > 0) or back.
func (s *SessionService) Step(id string, delta int) (ViewerState, error) {
	state, _, err := s.do(id, func(g *gallery.Synchronizer) bool {
		before := g.Lightbox()
		if !before.Open {
			return false
		}
		if delta > 0 {
			g.Next()
		} else {
			g.Prev()
		}
		return true
	}, Event{Resource: "lightbox", Action: "moved"})
	return state, err
}

// Overlays renders the session's overlays with r.
func (s *SessionService) Overlays(id string, r gallery.MarkerRenderer) error {
	sess, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.syncer.Overlays(r)
	return nil
}

// Present replays the session's lightbox onto v and returns the state it
// replayed, read under the same lock.
func (s *SessionService) Present(id string, v gallery.SlideViewer) (ViewerState, error) {
	sess, ok := s.Get(id)
	if !ok {
		return ViewerState{}, fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.syncer.Present(v)
	return stateOf(sess), nil
}

// Prune drops sessions idle for longer than ttl and returns how many.
func (s *SessionService) Prune(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.touched.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Sweep prunes idle sessions every interval until ctx is done.
func (s *SessionService) Sweep(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Prune(ttl); n > 0 {
				s.logger.Info("pruned idle sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}

func stateOf(sess *Session) ViewerState {
	layers := sess.syncer.Layers()
	counts := map[string]int{}
	for _, img := range sess.syncer.Images() {
		counts[img.Type]++
	}
	infos := make([]TypeInfo, 0, len(layers.Labels()))
	for _, label := range layers.Labels() {
		infos = append(infos, TypeInfo{Label: label, Count: counts[label], Visible: layers.Visible(label)})
	}
	return ViewerState{
		Session:  sess.ID,
		Layers:   infos,
		Lightbox: sess.syncer.Lightbox(),
	}
}

package gallery

import (
	"context"
	"log/slog"
	"sync"
)

// LoadErrorMessage is the only message shown when the collection fails to load.
const LoadErrorMessage = "Failed to fetch images"

// Status is the state of a Loader.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Fetcher reads the whole image collection in one request.
type Fetcher interface {
	FetchImages(ctx context.Context) ([]Image, error)
}

// Snapshot is a point-in-time view of a Loader.
type Snapshot struct {
	Status  Status
	Images  []Image
	Types   []string
	Message string
}

// Loader fetches the collection exactly once. It moves from loading to
// either ready or error and never leaves that state.
type Loader struct {
	fetcher Fetcher
	logger  *slog.Logger

	once sync.Once
	done chan struct{}

	mu   sync.RWMutex
	snap Snapshot
	err  error
}

// NewLoader creates a loader in the loading state.
func NewLoader(f Fetcher, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		fetcher: f,
		logger:  logger.With("component", "loader"),
		done:    make(chan struct{}),
		snap:    Snapshot{Status: StatusLoading},
	}
}

// Start issues the fetch in the background. Calls after the first are no-ops.
func (l *Loader) Start(ctx context.Context) {
	l.once.Do(func() {
		go l.run(ctx)
	})
}

// Load issues the fetch if nobody has yet and waits for the outcome.
func (l *Loader) Load(ctx context.Context) (Snapshot, error) {
	l.once.Do(func() {
		l.run(ctx)
	})
	return l.Wait(ctx)
}

// Wait blocks until the loader settles or ctx is done.
func (l *Loader) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-l.done:
		return l.Snapshot(), nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Done is closed once the loader has settled.
func (l *Loader) Done() <-chan struct{} {
	return l.done
}

// Snapshot returns the current state.
func (l *Loader) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

// Err returns the underlying fetch error once the loader is in the error
// state. It is for logs; viewers only ever see LoadErrorMessage.
func (l *Loader) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

func (l *Loader) run(ctx context.Context) {
	defer close(l.done)

	images, err := l.fetcher.FetchImages(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.err = err
		l.snap = Snapshot{Status: StatusError, Message: LoadErrorMessage}
		l.logger.Error("image collection load failed", "error", err)
		return
	}
	if images == nil {
		images = []Image{}
	}
	l.snap = Snapshot{
		Status: StatusReady,
		Images: images,
		Types:  TypeLabels(images),
	}
	l.logger.Info("image collection loaded", "images", len(images), "types", len(l.snap.Types))
}

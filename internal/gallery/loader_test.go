package gallery

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeFetcher struct {
	images []Image
	err    error
	calls  atomic.Int32
	gate   chan struct{}
}

func (f *fakeFetcher) FetchImages(ctx context.Context) ([]Image, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.images, f.err
}

func TestLoaderReady(t *testing.T) {
	f := &fakeFetcher{images: sample()}
	l := NewLoader(f, nil)

	if got := l.Snapshot().Status; got != StatusLoading {
		t.Fatalf("status=%q, want loading", got)
	}

	snap, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Status != StatusReady {
		t.Fatalf("status=%q, want ready", snap.Status)
	}
	if len(snap.Images) != 3 || len(snap.Types) != 2 {
		t.Fatalf("snapshot=%+v", snap)
	}
	if snap.Message != "" {
		t.Fatalf("message=%q, want empty", snap.Message)
	}
}

func TestLoaderError(t *testing.T) {
	f := &fakeFetcher{err: errors.New("connection refused")}
	l := NewLoader(f, nil)

	snap, err := l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Status != StatusError {
		t.Fatalf("status=%q, want error", snap.Status)
	}
	if snap.Message != LoadErrorMessage {
		t.Fatalf("message=%q", snap.Message)
	}
	if snap.Images != nil || snap.Types != nil {
		t.Fatalf("error snapshot carries data: %+v", snap)
	}
	if l.Err() == nil {
		t.Fatal("Err() = nil")
	}
}

func TestLoaderFetchesOnce(t *testing.T) {
	f := &fakeFetcher{images: sample(), gate: make(chan struct{})}
	l := NewLoader(f, nil)

	ctx := context.Background()
	l.Start(ctx)
	l.Start(ctx)

	select {
	case <-l.Done():
		t.Fatal("settled before the response arrived")
	case <-time.After(10 * time.Millisecond):
	}
	close(f.gate)

	if _, err := l.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if n := f.calls.Load(); n != 1 {
		t.Fatalf("calls=%d, want 1", n)
	}
}

func TestLoaderWaitHonorsContext(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	defer close(f.gate)
	l := NewLoader(f, nil)
	l.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := l.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v, want deadline exceeded", err)
	}
}

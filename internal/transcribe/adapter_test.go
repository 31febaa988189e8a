package transcribe

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeEngine struct {
	snapshots   chan string
	unsupported bool
	startCalls  int32
	stopCalls   int32
	failStarts  int32
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{snapshots: make(chan string, 16)}
}

func (f *fakeEngine) Start(ctx context.Context) error {
	n := atomic.AddInt32(&f.startCalls, 1)
	if n <= atomic.LoadInt32(&f.failStarts) {
		return errors.New("engine refused")
	}
	return nil
}
func (f *fakeEngine) Stop() error {
	atomic.AddInt32(&f.stopCalls, 1)
	return nil
}
func (f *fakeEngine) Snapshots() <-chan string { return f.snapshots }
func (f *fakeEngine) Supported() bool          { return !f.unsupported }

type deniedMic struct{}

func (deniedMic) MicrophoneAllowed(ctx context.Context) bool { return false }

func recv(t *testing.T, ch <-chan string, d time.Duration) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(d):
		t.Fatal("timed out waiting for utterance")
		return ""
	}
}

func TestAdapter_DebouncesAndEmitsNewSuffix(t *testing.T) {
	eng := newFakeEngine()
	a := NewAdapter(eng, nil, WithDebounce(20*time.Millisecond))
	if err := a.StartListening(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = a.StopListening() }()

	// rapid partials within one debounce window collapse to one emission
	eng.snapshots <- "hello"
	eng.snapshots <- "hello there"
	eng.snapshots <- "hello there friend"

	if got := recv(t, a.Utterances(), time.Second); got != "hello there friend" {
		t.Fatalf("expected the full stable transcript, got %q", got)
	}

	// the next snapshot emits only its new suffix
	eng.snapshots <- "hello there friend how are you"
	if got := recv(t, a.Utterances(), time.Second); got != "how are you" {
		t.Fatalf("expected only the new suffix, got %q", got)
	}

	select {
	case extra := <-a.Utterances():
		t.Fatalf("unexpected extra emission %q", extra)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestAdapter_UnchangedSnapshotEmitsNothing(t *testing.T) {
	eng := newFakeEngine()
	a := NewAdapter(eng, nil, WithDebounce(10*time.Millisecond))
	if err := a.StartListening(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = a.StopListening() }()

	eng.snapshots <- "same text"
	recv(t, a.Utterances(), time.Second)

	eng.snapshots <- "same text"
	select {
	case extra := <-a.Utterances():
		t.Fatalf("unexpected emission for unchanged snapshot: %q", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAdapter_RestartResetsSuffixBase(t *testing.T) {
	eng := newFakeEngine()
	a := NewAdapter(eng, nil, WithDebounce(10*time.Millisecond))
	if err := a.StartListening(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	eng.snapshots <- "first utterance"
	recv(t, a.Utterances(), time.Second)

	if err := a.Restart(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer func() { _ = a.StopListening() }()

	// after restart the engine transcript starts over; the whole snapshot
	// is new text again
	eng.snapshots <- "fresh session text"
	if got := recv(t, a.Utterances(), time.Second); got != "fresh session text" {
		t.Fatalf("expected full snapshot after restart, got %q", got)
	}
	if n := atomic.LoadInt32(&eng.stopCalls); n != 1 {
		t.Fatalf("expected one engine stop during restart, got %d", n)
	}
}

func TestAdapter_StartRetriesWithBackoff(t *testing.T) {
	eng := newFakeEngine()
	atomic.StoreInt32(&eng.failStarts, 2)
	a := NewAdapter(eng, nil, WithMaxStartDelay(5*time.Millisecond))
	a.attempts = 4

	start := time.Now()
	if err := a.StartListening(context.Background()); err != nil {
		t.Fatalf("expected start to eventually succeed: %v", err)
	}
	defer func() { _ = a.StopListening() }()

	if n := atomic.LoadInt32(&eng.startCalls); n != 3 {
		t.Fatalf("expected 3 start attempts, got %d", n)
	}
	if time.Since(start) < 2*time.Millisecond {
		t.Fatal("expected delays between attempts")
	}
}

func TestAdapter_UnsupportedEngine(t *testing.T) {
	eng := newFakeEngine()
	eng.unsupported = true
	a := NewAdapter(eng, nil)
	if err := a.StartListening(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestAdapter_MicDeniedReportsUnavailable(t *testing.T) {
	eng := newFakeEngine()
	a := NewAdapter(eng, nil, WithPermissionChecker(deniedMic{}))
	if err := a.StartListening(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if a.Supported() {
		t.Fatal("expected Supported to report false after permission denial")
	}
	if n := atomic.LoadInt32(&eng.startCalls); n != 0 {
		t.Fatalf("engine must not start without permission, got %d starts", n)
	}
}

func TestAdapter_StopListeningIdempotent(t *testing.T) {
	eng := newFakeEngine()
	a := NewAdapter(eng, nil)
	if err := a.StopListening(); err != nil {
		t.Fatalf("stop before start should be a no-op, got %v", err)
	}
	if err := a.StartListening(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := a.StopListening(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := a.StopListening(); err != nil {
		t.Fatalf("second stop should be a no-op, got %v", err)
	}
}

func TestAdapter_StartRetryHonorsBackoffDelayGrowth(t *testing.T) {
	// the retry delay doubles until the cap; with a tiny cap the total wait
	// stays bounded even when every attempt fails
	eng := newFakeEngine()
	atomic.StoreInt32(&eng.failStarts, 99)
	a := NewAdapter(eng, nil, WithMaxStartDelay(2*time.Millisecond))
	a.attempts = 3

	if err := a.StartListening(context.Background()); err == nil {
		t.Fatal("expected start to fail after exhausting attempts")
	}
	if n := atomic.LoadInt32(&eng.startCalls); n != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", n)
	}
}

// Package transcribe implements the speech transcription adapter: a
// debouncing wrapper over a continuous recognition engine that emits only
// the new suffix of the growing transcript, with restart and backoff
// handling for engines that silently die.
package transcribe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrUnsupported means no recognition engine is available in this host.
	ErrUnsupported = errors.New("transcribe: speech recognition not supported")
	// ErrUnavailable means the microphone permission was denied.
	ErrUnavailable = errors.New("transcribe: microphone unavailable")
)

const (
	// DefaultDebounce coalesces rapid partial updates into one stable chunk.
	DefaultDebounce = time.Second
	// DefaultMaxStartDelay caps the exponential backoff between failed
	// engine start attempts.
	DefaultMaxStartDelay = 10 * time.Second

	defaultMaxStartAttempts = 5
	initialStartDelay       = time.Second
)

// Engine is a continuous speech recognition session. Snapshots carries the
// monotonically growing full transcript accumulated since the last Start;
// the channel persists across Start/Stop cycles.
type Engine interface {
	Start(ctx context.Context) error
	Stop() error
	Snapshots() <-chan string
	Supported() bool
}

// PermissionChecker gates listening on microphone access.
type PermissionChecker interface {
	MicrophoneAllowed(ctx context.Context) bool
}

// Adapter wraps an Engine with debouncing and restart behavior.
type Adapter struct {
	engine   Engine
	perm     PermissionChecker
	log      *zap.Logger
	debounce time.Duration
	maxDelay time.Duration
	attempts int

	out chan string

	mu           sync.Mutex
	listening    bool
	micDenied    bool
	lastNotified string
	runCancel    context.CancelFunc
	runDone      chan struct{}
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(a *Adapter) { a.debounce = d }
}

// WithMaxStartDelay overrides the backoff cap for engine start retries.
func WithMaxStartDelay(d time.Duration) Option {
	return func(a *Adapter) { a.maxDelay = d }
}

// WithPermissionChecker gates StartListening on microphone permission.
func WithPermissionChecker(p PermissionChecker) Option {
	return func(a *Adapter) { a.perm = p }
}

// NewAdapter constructs an Adapter over the given engine.
func NewAdapter(engine Engine, log *zap.Logger, opts ...Option) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Adapter{
		engine:   engine,
		log:      log,
		debounce: DefaultDebounce,
		maxDelay: DefaultMaxStartDelay,
		attempts: defaultMaxStartAttempts,
		out:      make(chan string, 16),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Utterances carries the debounced new-suffix text chunks.
func (a *Adapter) Utterances() <-chan string { return a.out }

// Supported reports whether listening can work at all in this host.
func (a *Adapter) Supported() bool {
	a.mu.Lock()
	denied := a.micDenied
	a.mu.Unlock()
	return a.engine.Supported() && !denied
}

// IsListening reports whether a recognition session is open.
func (a *Adapter) IsListening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listening
}

// StartListening opens a recognition session. Engine start failures are
// retried with exponential backoff (1s, 2s, 4s... capped at the max delay)
// up to a bounded number of attempts. Permission denial reports unavailable
// rather than failing the engine.
func (a *Adapter) StartListening(ctx context.Context) error {
	if !a.engine.Supported() {
		return ErrUnsupported
	}
	if a.perm != nil && !a.perm.MicrophoneAllowed(ctx) {
		a.mu.Lock()
		a.micDenied = true
		a.mu.Unlock()
		a.log.Warn("microphone permission denied")
		return ErrUnavailable
	}

	a.mu.Lock()
	if a.listening {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	if err := a.startEngine(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.mu.Lock()
	a.listening = true
	a.lastNotified = ""
	a.runCancel = cancel
	a.runDone = done
	a.mu.Unlock()

	go a.run(runCtx, done)
	return nil
}

func (a *Adapter) startEngine(ctx context.Context) error {
	delay := initialStartDelay
	if delay > a.maxDelay {
		delay = a.maxDelay
	}
	var lastErr error
	for attempt := 0; attempt < a.attempts; attempt++ {
		if err := a.engine.Start(ctx); err == nil {
			return nil
		} else {
			lastErr = err
			a.log.Warn("engine start failed", zap.Int("attempt", attempt+1), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > a.maxDelay {
			delay = a.maxDelay
		}
	}
	return lastErr
}

// StopListening ends the recognition session.
func (a *Adapter) StopListening() error {
	a.mu.Lock()
	if !a.listening {
		a.mu.Unlock()
		return nil
	}
	a.listening = false
	cancel := a.runCancel
	done := a.runDone
	a.mu.Unlock()

	cancel()
	<-done
	return a.engine.Stop()
}

// Restart fully stops and reopens the recognition session. The engine's
// transcript resets with it, so the adapter's suffix base resets too; the
// caller's own processed-text marker is unaffected.
func (a *Adapter) Restart(ctx context.Context) error {
	if err := a.StopListening(); err != nil {
		a.log.Warn("stop during restart failed", zap.Error(err))
	}
	return a.StartListening(ctx)
}

// run debounces engine snapshots and emits new suffixes.
func (a *Adapter) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	snapshots := a.engine.Snapshots()
	var latest string
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			a.flush(ctx, latest)
			return
		case snap, ok := <-snapshots:
			if !ok {
				a.flush(ctx, latest)
				return
			}
			if snap == "" || snap == latest {
				continue
			}
			latest = snap
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(a.debounce)
			timerC = timer.C
		case <-timerC:
			timerC = nil
			a.flush(ctx, latest)
		}
	}
}

// flush computes the suffix of latest beyond the last notification and
// delivers it. Delivery does not drop: every accepted chunk reaches the
// consumer.
func (a *Adapter) flush(ctx context.Context, latest string) {
	a.mu.Lock()
	base := a.lastNotified
	suffix := newSuffix(latest, base)
	if suffix == "" {
		a.mu.Unlock()
		return
	}
	a.lastNotified = latest
	a.mu.Unlock()

	select {
	case a.out <- suffix:
	case <-ctx.Done():
	}
}

// newSuffix returns the portion of latest not yet covered by base.
func newSuffix(latest, base string) string {
	if latest == "" {
		return ""
	}
	if base == "" {
		return strings.TrimSpace(latest)
	}
	if strings.HasPrefix(latest, base) {
		return strings.TrimSpace(latest[len(base):])
	}
	if idx := strings.LastIndex(latest, base); idx >= 0 {
		return strings.TrimSpace(latest[idx+len(base):])
	}
	return strings.TrimSpace(latest)
}

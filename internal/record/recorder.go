// Package record implements the recording adapter: it collects a capture
// stream into fixed time slices and assembles them into a single artifact.
// Persistence is the caller's responsibility.
package record

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrAlreadyRecording = errors.New("record: recording already in progress")
	ErrNotRecording     = errors.New("record: no recording in progress")
	ErrNoData           = errors.New("record: no data recorded")
)

// DefaultSliceInterval matches the observed 1s capture granularity.
const DefaultSliceInterval = time.Second

// ChunkSource yields raw capture bytes. *media.Stream satisfies this.
type ChunkSource interface {
	ReadChunk(ctx context.Context) ([]byte, error)
}

// Sink receives each finalized time slice as it is cut, for real-time
// consumers such as a live transcription feed.
type Sink interface {
	WriteChunk(chunk []byte)
}

// Artifact is the finalized recording. Ownership transfers to the caller
// when Stop returns.
type Artifact struct {
	Data     []byte
	MIMEType string
}

// releaser is implemented by sources whose hardware Cleanup should release.
type releaser interface {
	Release()
}

// Recorder records one session at a time from a chunk source.
type Recorder struct {
	log   *zap.Logger
	slice time.Duration
	mime  string
	sink  Sink

	mu        sync.Mutex
	recording bool
	src       ChunkSource
	chunks    [][]byte
	cancel    context.CancelFunc
	done      chan struct{}
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithSliceInterval overrides the slice cut interval.
func WithSliceInterval(d time.Duration) Option {
	return func(r *Recorder) { r.slice = d }
}

// WithSink attaches a real-time slice consumer.
func WithSink(s Sink) Option {
	return func(r *Recorder) { r.sink = s }
}

// WithMIMEType overrides the artifact MIME type.
func WithMIMEType(m string) Option {
	return func(r *Recorder) { r.mime = m }
}

// NewRecorder constructs a Recorder.
func NewRecorder(log *zap.Logger, opts ...Option) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Recorder{log: log, slice: DefaultSliceInterval, mime: "video/webm"}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Start opens a recording session. It fails with ErrAlreadyRecording while a
// session is open; a second session is never silently started.
func (r *Recorder) Start(ctx context.Context, src ChunkSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return ErrAlreadyRecording
	}
	if src == nil {
		return errors.New("record: nil chunk source")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.recording = true
	r.src = src
	r.chunks = nil
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.collect(runCtx)
	r.log.Debug("recording started", zap.Duration("slice", r.slice))
	return nil
}

// collect accumulates source bytes and cuts a slice every interval.
func (r *Recorder) collect(ctx context.Context) {
	defer close(r.done)

	var pending []byte
	incoming := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			chunk, err := r.src.ReadChunk(ctx)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case incoming <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(r.slice)
	defer ticker.Stop()

	cut := func() {
		if len(pending) == 0 {
			return
		}
		slice := pending
		pending = nil
		r.mu.Lock()
		r.chunks = append(r.chunks, slice)
		r.mu.Unlock()
		if r.sink != nil {
			r.sink.WriteChunk(slice)
		}
	}

	for {
		select {
		case <-ctx.Done():
			cut()
			return
		case err := <-readErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				r.log.Warn("capture read ended", zap.Error(err))
			}
			cut()
			return
		case chunk := <-incoming:
			pending = append(pending, chunk...)
		case <-ticker.C:
			cut()
		}
	}
}

// Stop finalizes the session and returns the concatenated artifact.
func (r *Recorder) Stop(ctx context.Context) (Artifact, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return Artifact{}, ErrNotRecording
	}
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return Artifact{}, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false
	r.src = nil
	if len(r.chunks) == 0 {
		return Artifact{}, ErrNoData
	}
	var total int
	for _, c := range r.chunks {
		total += len(c)
	}
	data := make([]byte, 0, total)
	for _, c := range r.chunks {
		data = append(data, c...)
	}
	r.chunks = nil
	r.log.Debug("recording stopped", zap.Int("bytes", total))
	return Artifact{Data: data, MIMEType: r.mime}, nil
}

// IsRecording reports whether a session is open.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Cleanup forcibly stops any open session, drops buffered data and releases
// the underlying stream when it supports release.
func (r *Recorder) Cleanup() {
	r.mu.Lock()
	cancel := r.cancel
	done := r.done
	src := r.src
	recording := r.recording
	r.recording = false
	r.chunks = nil
	r.src = nil
	r.mu.Unlock()

	if recording && cancel != nil {
		cancel()
		<-done
	}
	if rel, ok := src.(releaser); ok {
		rel.Release()
	}
}

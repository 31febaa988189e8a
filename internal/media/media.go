// Package media models the capture stream shared between the live preview
// and the recording adapter. The host environment supplies the actual
// capture devices; this package owns track lifetime and the mute/release
// distinction: disabling a track suppresses its output without stopping the
// underlying device, and only Release stops hardware.
package media

import (
	"context"
	"errors"
	"sync"
)

// Kind is a capture track kind.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

var (
	ErrPermissionDenied = errors.New("media: permission denied")
	ErrDeviceBusy       = errors.New("media: device busy")
	ErrNoDevice         = errors.New("media: no such device")
	ErrReleased         = errors.New("media: stream released")
)

// Source yields captured chunks for one device. ReadChunk blocks until the
// next chunk is available or the context is canceled.
type Source interface {
	ReadChunk(ctx context.Context) ([]byte, error)
	Close() error
}

// Device opens capture sources. Implementations surface the acquisition
// error taxonomy (ErrPermissionDenied, ErrDeviceBusy, ErrNoDevice) so the
// caller can distinguish "cannot start" conditions.
type Device interface {
	Open(ctx context.Context, kind Kind) (Source, error)
}

// Track is one live capture track.
type Track struct {
	kind    Kind
	source  Source
	mu      sync.Mutex
	enabled bool
	stopped bool
}

// Kind reports the track kind.
func (t *Track) Kind() Kind { return t.kind }

// Enabled reports whether the track output is currently delivered.
func (t *Track) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// SetEnabled toggles output suppression. The device keeps capturing either
// way; a disabled track's chunks are read and discarded.
func (t *Track) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	t.mu.Unlock()
}

func (t *Track) stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()
	_ = t.source.Close()
}

// Stream is a set of live tracks acquired together.
type Stream struct {
	mu       sync.Mutex
	tracks   []*Track
	released bool
}

// Acquire opens one track per requested kind. On any failure the tracks
// opened so far are released and the acquisition error is returned as-is,
// so callers can present permission/busy/absent distinctly.
func Acquire(ctx context.Context, dev Device, kinds ...Kind) (*Stream, error) {
	s := &Stream{}
	for _, k := range kinds {
		src, err := dev.Open(ctx, k)
		if err != nil {
			s.Release()
			return nil, err
		}
		s.tracks = append(s.tracks, &Track{kind: k, source: src, enabled: true})
	}
	return s, nil
}

// Tracks returns the stream's tracks.
func (s *Stream) Tracks() []*Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// SetKindEnabled toggles every track of the given kind.
func (s *Stream) SetKindEnabled(kind Kind, enabled bool) {
	for _, t := range s.Tracks() {
		if t.kind == kind {
			t.SetEnabled(enabled)
		}
	}
}

// ReadChunk returns the next delivered chunk across the stream's tracks.
// Chunks from disabled tracks are consumed and dropped so the device keeps
// running while muted.
func (s *Stream) ReadChunk(ctx context.Context) ([]byte, error) {
	for {
		s.mu.Lock()
		if s.released {
			s.mu.Unlock()
			return nil, ErrReleased
		}
		tracks := make([]*Track, len(s.tracks))
		copy(tracks, s.tracks)
		s.mu.Unlock()

		if len(tracks) == 0 {
			return nil, ErrNoDevice
		}
		for _, t := range tracks {
			chunk, err := t.source.ReadChunk(ctx)
			if err != nil {
				return nil, err
			}
			if !t.Enabled() {
				continue
			}
			return chunk, nil
		}
	}
}

// Release stops every track and marks the stream unusable. This is the only
// operation that releases hardware.
func (s *Stream) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	tracks := s.tracks
	s.mu.Unlock()
	for _, t := range tracks {
		t.stop()
	}
}

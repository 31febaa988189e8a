package record

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

// scriptedSource yields its chunks in order, then blocks until canceled.
type scriptedSource struct {
	mu       sync.Mutex
	chunks   [][]byte
	released bool
}

func (s *scriptedSource) ReadChunk(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	if len(s.chunks) > 0 {
		chunk := s.chunks[0]
		s.chunks = s.chunks[1:]
		s.mu.Unlock()
		return chunk, nil
	}
	s.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *scriptedSource) Release() {
	s.mu.Lock()
	s.released = true
	s.mu.Unlock()
}

type countingSink struct {
	mu     sync.Mutex
	slices [][]byte
}

func (c *countingSink) WriteChunk(chunk []byte) {
	c.mu.Lock()
	c.slices = append(c.slices, chunk)
	c.mu.Unlock()
}

func TestRecorder_SecondStartFails(t *testing.T) {
	r := NewRecorder(nil, WithSliceInterval(10*time.Millisecond))
	src := &scriptedSource{}
	if err := r.Start(context.Background(), src); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer r.Cleanup()

	if err := r.Start(context.Background(), src); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}
}

func TestRecorder_StopConcatenatesSlices(t *testing.T) {
	r := NewRecorder(nil, WithSliceInterval(5*time.Millisecond), WithMIMEType("video/webm"))
	src := &scriptedSource{chunks: [][]byte{[]byte("aaa"), []byte("bbb"), []byte("ccc")}}
	if err := r.Start(context.Background(), src); err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	artifact, err := r.Stop(context.Background())
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !bytes.Equal(artifact.Data, []byte("aaabbbccc")) {
		t.Fatalf("unexpected artifact data %q", artifact.Data)
	}
	if artifact.MIMEType != "video/webm" {
		t.Fatalf("unexpected mime type %q", artifact.MIMEType)
	}
	if r.IsRecording() {
		t.Fatal("expected recording to be closed after stop")
	}
}

func TestRecorder_StopWithoutStart(t *testing.T) {
	r := NewRecorder(nil)
	if _, err := r.Stop(context.Background()); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording, got %v", err)
	}
}

func TestRecorder_StopWithNoData(t *testing.T) {
	r := NewRecorder(nil, WithSliceInterval(5*time.Millisecond))
	src := &scriptedSource{}
	if err := r.Start(context.Background(), src); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := r.Stop(context.Background()); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestRecorder_SinkReceivesSlices(t *testing.T) {
	sink := &countingSink{}
	r := NewRecorder(nil, WithSliceInterval(5*time.Millisecond), WithSink(sink))
	src := &scriptedSource{chunks: [][]byte{[]byte("xy"), []byte("z")}}
	if err := r.Start(context.Background(), src); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := r.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	var total []byte
	for _, s := range sink.slices {
		total = append(total, s...)
	}
	if !bytes.Equal(total, []byte("xyz")) {
		t.Fatalf("sink received %q, want %q", total, "xyz")
	}
}

func TestRecorder_CleanupReleasesSource(t *testing.T) {
	r := NewRecorder(nil, WithSliceInterval(5*time.Millisecond))
	src := &scriptedSource{chunks: [][]byte{[]byte("data")}}
	if err := r.Start(context.Background(), src); err != nil {
		t.Fatalf("start: %v", err)
	}

	r.Cleanup()
	if r.IsRecording() {
		t.Fatal("expected cleanup to close the session")
	}
	src.mu.Lock()
	released := src.released
	src.mu.Unlock()
	if !released {
		t.Fatal("expected cleanup to release the source")
	}
	// buffered data is dropped, not recoverable
	if _, err := r.Stop(context.Background()); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording after cleanup, got %v", err)
	}
}

func TestRecorder_SourceEOFFinalizesPending(t *testing.T) {
	r := NewRecorder(nil, WithSliceInterval(time.Hour))
	src := &eofSource{data: []byte("tail")}
	if err := r.Start(context.Background(), src); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	artifact, err := r.Stop(context.Background())
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !bytes.Equal(artifact.Data, []byte("tail")) {
		t.Fatalf("expected pending bytes cut on EOF, got %q", artifact.Data)
	}
}

type eofSource struct {
	mu   sync.Mutex
	data []byte
}

func (s *eofSource) ReadChunk(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data != nil {
		d := s.data
		s.data = nil
		return d, nil
	}
	return nil, io.EOF
}

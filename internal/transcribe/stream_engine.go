package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Arpan069/new-creation-genesis-flow/internal/record"
)

// recording slices feed the socket directly
var _ record.Sink = (*StreamEngine)(nil)

// wire message types for the streaming transcription socket
const (
	msgBegin       = "begin"
	msgTranscript  = "transcript"
	msgError       = "error"
	msgTermination = "termination"
)

type streamMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
}

// StreamEngine is a recognition Engine backed by the backend's streaming
// transcription websocket. It doubles as a record.Sink: recording slices
// written through WriteChunk are forwarded as binary frames, and the server
// answers with growing full-transcript snapshots.
type StreamEngine struct {
	endpoint string
	token    string
	language string
	log      *zap.Logger

	snapshots chan string
	audio     chan []byte

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	stopCh    chan struct{}
}

// NewStreamEngine constructs a StreamEngine. endpoint is the websocket URL
// (ws:// or wss://); token is the bearer token used for the handshake.
func NewStreamEngine(endpoint, token, language string, log *zap.Logger) *StreamEngine {
	if log == nil {
		log = zap.NewNop()
	}
	if language == "" {
		language = "en-US"
	}
	return &StreamEngine{
		endpoint:  endpoint,
		token:     token,
		language:  language,
		log:       log,
		snapshots: make(chan string, 64),
		audio:     make(chan []byte, 256),
	}
}

// Supported reports whether the engine is configured for this host.
func (e *StreamEngine) Supported() bool {
	return e.endpoint != ""
}

// Snapshots carries growing full-transcript snapshots for the adapter.
func (e *StreamEngine) Snapshots() <-chan string { return e.snapshots }

// Start dials the transcription socket and begins the send/receive loops.
func (e *StreamEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.connected {
		return nil
	}
	if e.endpoint == "" {
		return ErrUnsupported
	}

	u, err := url.Parse(e.endpoint)
	if err != nil {
		return fmt.Errorf("invalid transcription endpoint: %w", err)
	}
	q := u.Query()
	q.Set("language", e.language)
	u.RawQuery = q.Encode()

	headers := map[string][]string{}
	if e.token != "" {
		headers["Authorization"] = []string{"Bearer " + e.token}
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		if resp != nil {
			e.log.Warn("transcription socket rejected", zap.Int("status", resp.StatusCode))
		}
		return fmt.Errorf("failed to connect transcription socket: %w", err)
	}

	e.conn = conn
	e.connected = true
	e.stopCh = make(chan struct{})
	go e.readLoop(e.conn, e.stopCh)
	go e.sendLoop(e.conn, e.stopCh)
	e.log.Info("transcription socket connected", zap.String("language", e.language))
	return nil
}

// Stop terminates the session. The snapshots channel stays open for reuse
// across restart cycles.
func (e *StreamEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.connected {
		return nil
	}
	close(e.stopCh)
	_ = e.conn.WriteJSON(map[string]string{"type": msgTermination})
	_ = e.conn.Close()
	e.conn = nil
	e.connected = false
	e.log.Info("transcription socket closed")
	return nil
}

// WriteChunk queues a recording slice for transmission. Implements
// record.Sink; a full buffer drops the oldest-pending packet rather than
// blocking the recorder.
func (e *StreamEngine) WriteChunk(chunk []byte) {
	e.mu.RLock()
	connected := e.connected
	e.mu.RUnlock()
	if !connected {
		return
	}
	select {
	case e.audio <- chunk:
	default:
		e.log.Debug("audio buffer full, dropping packet")
	}
}

func (e *StreamEngine) sendLoop(conn *websocket.Conn, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case chunk := <-e.audio:
			if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				e.log.Warn("audio send failed", zap.Error(err))
				return
			}
		}
	}
}

func (e *StreamEngine) readLoop(conn *websocket.Conn, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-stop:
			default:
				e.log.Warn("transcription socket read failed", zap.Error(err))
			}
			return
		}
		e.handleMessage(payload, stop)
	}
}

func (e *StreamEngine) handleMessage(payload []byte, stop <-chan struct{}) {
	var msg streamMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		e.log.Warn("unparseable transcription message", zap.Error(err))
		return
	}
	switch msg.Type {
	case msgBegin:
		e.log.Info("transcription session began", zap.String("session_id", msg.SessionID))
	case msgTranscript:
		if msg.Text == "" {
			return
		}
		select {
		case e.snapshots <- msg.Text:
		case <-stop:
		default:
			// consumer is behind; the next snapshot supersedes this one
		}
	case msgError:
		e.log.Warn("transcription error", zap.String("error", msg.Error))
	case msgTermination:
		e.log.Info("transcription session terminated by server")
	default:
		e.log.Debug("unknown transcription message", zap.String("type", msg.Type))
	}
}

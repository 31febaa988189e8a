package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// snapshotInterval bounds how often the accumulated audio is re-transcribed.
const snapshotInterval = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 16,
	WriteBufferSize: 1 << 16,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type streamMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleTranscribeStream is the live transcription socket. Clients send
// binary audio frames; the server answers with growing full-transcript
// snapshots built by re-transcribing the accumulated audio.
func (s *Server) handleTranscribeStream(c echo.Context) error {
	language := c.QueryParam("language")

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	log := s.log.With(zap.String("session_id", sessionID))
	if err := conn.WriteJSON(streamMessage{Type: "begin", SessionID: sessionID}); err != nil {
		return nil
	}
	log.Info("transcription stream opened", zap.String("language", language))

	ctx := c.Request().Context()
	var audio []byte
	var lastText string
	var lastRun time.Time

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			log.Info("transcription stream closed", zap.Error(err))
			return nil
		}

		switch msgType {
		case websocket.BinaryMessage:
			audio = append(audio, payload...)
			if time.Since(lastRun) < snapshotInterval || len(audio) == 0 {
				continue
			}
			lastRun = time.Now()

			text, err := s.deps.Transcriber.Transcribe(ctx, audio, "audio.webm", language, "", 0.2)
			if err != nil {
				log.Warn("stream transcription failed", zap.Error(err))
				_ = conn.WriteJSON(streamMessage{Type: "error", Error: err.Error()})
				continue
			}
			if text == "" || text == lastText {
				continue
			}
			lastText = text
			if err := conn.WriteJSON(streamMessage{Type: "transcript", Text: text}); err != nil {
				return nil
			}

		case websocket.TextMessage:
			var msg streamMessage
			if json.Unmarshal(payload, &msg) != nil {
				continue
			}
			if msg.Type == "termination" {
				_ = conn.WriteJSON(streamMessage{Type: "termination", SessionID: sessionID})
				log.Info("transcription stream terminated by client")
				return nil
			}
		}
	}
}

// Package httpserver exposes the interview backend API over HTTP.
package httpserver

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Arpan069/new-creation-genesis-flow/internal/openai"
	"github.com/Arpan069/new-creation-genesis-flow/internal/record"
	"github.com/Arpan069/new-creation-genesis-flow/internal/repository"
	"github.com/Arpan069/new-creation-genesis-flow/internal/tts"
)

// Transcriber converts recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, language, prompt string, temperature float64) (string, error)
}

// ResponseGenerator produces the interviewer's next reply.
type ResponseGenerator interface {
	InterviewerReply(ctx context.Context, transcript, currentQuestion, systemPrompt string, temperature float64, maxTokens int) (string, error)
}

// AvatarGenerator produces talking-avatar clips.
type AvatarGenerator interface {
	GenerateVideo(ctx context.Context, text string) (string, error)
	Configured() bool
}

// Analyzer scores a finished interview transcript.
type Analyzer interface {
	AnalyzeTranscript(ctx context.Context, transcriptText string) (openai.Analysis, error)
}

// InterviewStore persists and lists interview records.
type InterviewStore interface {
	CreateCompleted(ctx context.Context, iv repository.Interview) (repository.Interview, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]repository.Interview, error)
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	IssueToken(userID, userType string) (string, error)
}

// RecordingStore persists recording artifacts and returns their public URL.
type RecordingStore interface {
	UploadRecording(ctx context.Context, artifact record.Artifact) (string, error)
}

// Deps bundles the collaborators the handlers call. Analyzer and
// Interviews may be nil; the corresponding features degrade.
type Deps struct {
	Transcriber Transcriber
	Responder   ResponseGenerator
	Speech      tts.Provider
	Avatar      AvatarGenerator
	Analyzer    Analyzer
	Interviews  InterviewStore
	Recordings  RecordingStore
	Tokens      TokenIssuer

	// APIKeyConfigured feeds the health report.
	APIKeyConfigured func() bool

	Log *zap.Logger
}

// Server bundles the echo router and its dependencies.
type Server struct {
	echo *echo.Echo
	deps Deps
	log  *zap.Logger
}

// New constructs the Server with all routes registered.
func New(deps Deps, authMW echo.MiddlewareFunc) *Server {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	s := &Server{deps: deps, log: deps.Log}
	s.echo = newRouter(s, authMW)
	return s
}

// Handler returns the root http.Handler, for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves on addr until an error or a shutdown signal, then drains
// in-flight requests.
func (s *Server) Run(addr string) error {
	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", addr))
		serverErrors <- s.echo.Start(addr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case sig := <-sigChan:
		s.log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Warn("graceful shutdown failed", zap.Error(err))
		return s.echo.Close()
	}
	return nil
}

package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/Arpan069/new-creation-genesis-flow/internal/auth"
	"github.com/Arpan069/new-creation-genesis-flow/internal/config"
	"github.com/Arpan069/new-creation-genesis-flow/internal/heygen"
	"github.com/Arpan069/new-creation-genesis-flow/internal/httpserver"
	"github.com/Arpan069/new-creation-genesis-flow/internal/logger"
	"github.com/Arpan069/new-creation-genesis-flow/internal/openai"
	"github.com/Arpan069/new-creation-genesis-flow/internal/repository"
	"github.com/Arpan069/new-creation-genesis-flow/internal/storage"
	"github.com/Arpan069/new-creation-genesis-flow/internal/tts"

	"github.com/labstack/echo/v4"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	oa := openai.NewClient(openai.Config{
		APIKey:       cfg.OpenAI.APIKey,
		ChatModel:    cfg.OpenAI.ChatModel,
		WhisperModel: cfg.OpenAI.WhisperModel,
		SpeechModel:  cfg.OpenAI.SpeechModel,
		SpeechVoice:  cfg.OpenAI.SpeechVoice,
	}, zl.Named("openai"))

	var speech tts.Provider
	switch cfg.TTS.Provider {
	case "elevenlabs":
		speech = tts.NewElevenLabs(cfg.TTS.ElevenLabsKey, cfg.TTS.ElevenLabsVoiceID, zl.Named("tts"))
	default:
		speech = tts.NewOpenAI(oa)
	}

	avatar := heygen.NewClient(cfg.Heygen.APIKey, cfg.Heygen.AvatarID, cfg.Heygen.VoiceID, zl.Named("heygen"))

	tokenTTL, err := time.ParseDuration(cfg.JWT.TokenTTL)
	if err != nil {
		log.Fatalf("invalid JWT_TOKEN_TTL: %v", err)
	}
	authManager := auth.NewManager(cfg.JWT.Secret, tokenTTL)

	var interviews httpserver.InterviewStore
	var authMW echo.MiddlewareFunc
	if cfg.JWT.Secret != "" {
		authMW = auth.Middleware(authManager)
	} else {
		zl.Warn("JWT_SECRET not set, API routes are unauthenticated")
	}

	var recordings httpserver.RecordingStore
	if cfg.Supabase.URL != "" && cfg.Supabase.ServiceRoleKey != "" {
		store, err := storage.New(storage.Config{
			URL:            cfg.Supabase.URL,
			ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
			Bucket:         cfg.Supabase.Bucket,
		}, zl.Named("storage"))
		if err != nil {
			zl.Fatal("storage setup failed", zap.Error(err))
		}
		recordings = store
	} else {
		zl.Warn("SUPABASE_URL not set, recording upload is disabled")
	}

	if cfg.DB.DSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := repository.Connect(ctx, cfg.DB.DSN, zl.Named("db"))
		cancel()
		if err != nil {
			zl.Fatal("database connection failed", zap.Error(err))
		}
		defer pool.Close()

		repo := repository.NewInterviewRepo(pool, zl.Named("repository"))
		if err := repo.EnsureSchema(context.Background()); err != nil {
			zl.Fatal("schema migration failed", zap.Error(err))
		}
		interviews = repo
	} else {
		zl.Warn("DATABASE_URL not set, interview persistence is disabled")
	}

	srv := httpserver.New(httpserver.Deps{
		Transcriber:      oa,
		Responder:        oa,
		Speech:           speech,
		Avatar:           avatar,
		Analyzer:         oa,
		Interviews:       interviews,
		Recordings:       recordings,
		Tokens:           authManager,
		APIKeyConfigured: oa.Configured,
		Log:              zl.Named("http"),
	}, authMW)

	if err := srv.Run(cfg.HTTPAddress); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}

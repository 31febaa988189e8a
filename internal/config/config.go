package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration.
type Config struct {
	Env         string `envconfig:"APP_ENV" default:"development"`
	HTTPAddress string `envconfig:"HTTP_ADDRESS" default:":8080"`

	OpenAI   OpenAIConfig
	TTS      TTSConfig
	Heygen   HeygenConfig
	JWT      JWTConfig
	DB       DBConfig
	Supabase SupabaseConfig
}

// OpenAIConfig configures the OpenAI-backed transcription, chat and analysis calls.
type OpenAIConfig struct {
	APIKey         string  `envconfig:"OPENAI_API_KEY"`
	ChatModel      string  `envconfig:"OPENAI_CHAT_MODEL" default:"gpt-4o-mini"`
	WhisperModel   string  `envconfig:"OPENAI_WHISPER_MODEL" default:"whisper-1"`
	SpeechModel    string  `envconfig:"OPENAI_SPEECH_MODEL" default:"tts-1"`
	SpeechVoice    string  `envconfig:"OPENAI_SPEECH_VOICE" default:"alloy"`
	Temperature    float64 `envconfig:"OPENAI_TEMPERATURE" default:"0.7"`
	MaxReplyTokens int     `envconfig:"OPENAI_MAX_REPLY_TOKENS" default:"250"`
}

// TTSConfig selects the speech synthesis provider.
type TTSConfig struct {
	Provider          string `envconfig:"TTS_PROVIDER" default:"openai"`
	ElevenLabsKey     string `envconfig:"ELEVENLABS_API_KEY"`
	ElevenLabsVoiceID string `envconfig:"ELEVENLABS_VOICE_ID"`
}

// HeygenConfig configures avatar video generation.
type HeygenConfig struct {
	APIKey   string `envconfig:"HEYGEN_API_KEY"`
	AvatarID string `envconfig:"HEYGEN_AVATAR_ID" default:"Daisy-inshirt-2"`
	VoiceID  string `envconfig:"HEYGEN_VOICE_ID" default:"male-en-US-1"`
}

// JWTConfig configures bearer token issuance and verification.
type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET"`
	TokenTTL string `envconfig:"JWT_TOKEN_TTL" default:"24h"`
}

// DBConfig configures the Postgres pool backing interview records.
type DBConfig struct {
	DSN string `envconfig:"DATABASE_URL"`
}

// SupabaseConfig configures recording artifact storage.
type SupabaseConfig struct {
	URL            string `envconfig:"SUPABASE_URL"`
	ServiceRoleKey string `envconfig:"SUPABASE_SERVICE_ROLE_KEY"`
	Bucket         string `envconfig:"SUPABASE_BUCKET" default:"interview-recordings"`
}

// Load reads a .env file when present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.OpenAI.APIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set - transcription, responses and TTS will not work")
	}
	if cfg.Heygen.APIKey == "" {
		log.Println("Warning: HEYGEN_API_KEY not set - avatar video generation is disabled")
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("invalid environment: %s", c.Env)
	}
	if c.HTTPAddress == "" {
		return fmt.Errorf("HTTP_ADDRESS must not be empty")
	}
	switch c.TTS.Provider {
	case "openai", "elevenlabs":
	default:
		return fmt.Errorf("invalid TTS provider: %s", c.TTS.Provider)
	}
	if c.JWT.Secret != "" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	return nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c Config) IsDevelopment() bool { return c.Env == "development" }

// Package storage uploads recording artifacts to Supabase object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"github.com/Arpan069/new-creation-genesis-flow/internal/interview"
	"github.com/Arpan069/new-creation-genesis-flow/internal/record"
)

var _ interview.Uploader = (*Store)(nil)

// Config holds Supabase connection parameters.
type Config struct {
	URL            string
	ServiceRoleKey string
	Bucket         string
}

// Store uploads objects to one Supabase storage bucket.
type Store struct {
	client *supabase.Client
	url    string
	bucket string
	log    *zap.Logger
}

// New constructs a Store.
func New(cfg Config, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.URL == "" || cfg.ServiceRoleKey == "" {
		return nil, fmt.Errorf("storage: missing supabase configuration")
	}
	client, err := supabase.NewClient(cfg.URL, cfg.ServiceRoleKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &Store{
		client: client,
		url:    strings.TrimRight(cfg.URL, "/"),
		bucket: cfg.Bucket,
		log:    log,
	}, nil
}

// Upload stores data under key and returns the public URL.
func (s *Store) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_ = ctx
	if _, err := s.client.Storage.UploadFile(s.bucket, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}
	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.url, s.bucket, key)
	s.log.Info("recording uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return publicURL, nil
}

// UploadRecording stores a finalized recording artifact under a fresh
// object key and returns its public URL. Implements the interview.Uploader
// contract.
func (s *Store) UploadRecording(ctx context.Context, artifact record.Artifact) (string, error) {
	key := fmt.Sprintf("recordings/%s/%s%s",
		time.Now().UTC().Format("2006-01-02"),
		uuid.NewString(),
		extensionFor(artifact.MIMEType),
	)
	return s.Upload(ctx, key, artifact.MIMEType, artifact.Data)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "video/webm", "audio/webm":
		return ".webm"
	case "video/mp4":
		return ".mp4"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

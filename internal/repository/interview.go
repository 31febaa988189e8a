// Package repository persists interview records in Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrNotFound means no record matched the query.
var ErrNotFound = errors.New("repository: not found")

// Interview is a stored interview record.
type Interview struct {
	ID             uuid.UUID
	CandidateID    string
	Title          string
	Status         string
	RecordingURL   string
	TranscriptText string

	LanguageScore            float64
	LanguageJustification    string
	PersonalityScore         float64
	PersonalityJustification string
	AccuracyScore            float64
	AccuracyJustification    string
	OverallSummary           string

	CreatedAt   time.Time
	CompletedAt time.Time
}

// InterviewRepo reads and writes interview records.
type InterviewRepo struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// Connect opens a connection pool for the given DSN.
func Connect(ctx context.Context, dsn string, log *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return pool, nil
}

// NewInterviewRepo constructs an InterviewRepo over an open pool.
func NewInterviewRepo(pool *pgxpool.Pool, log *zap.Logger) *InterviewRepo {
	if log == nil {
		log = zap.NewNop()
	}
	return &InterviewRepo{pool: pool, log: log}
}

const schema = `
CREATE TABLE IF NOT EXISTS interviews (
	id UUID PRIMARY KEY,
	candidate_id TEXT NOT NULL,
	title TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'completed',
	recording_url TEXT NOT NULL DEFAULT '',
	transcript_text TEXT NOT NULL DEFAULT '',
	language_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	language_justification TEXT NOT NULL DEFAULT '',
	personality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	personality_justification TEXT NOT NULL DEFAULT '',
	accuracy_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	accuracy_justification TEXT NOT NULL DEFAULT '',
	overall_summary TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS interviews_candidate_idx ON interviews (candidate_id, completed_at DESC);
`

// EnsureSchema creates the interviews table when missing.
func (r *InterviewRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// CreateCompleted inserts a finished interview and returns it with its
// generated ID and timestamps.
func (r *InterviewRepo) CreateCompleted(ctx context.Context, iv Interview) (Interview, error) {
	iv.ID = uuid.New()
	iv.Status = "completed"
	now := time.Now().UTC()
	iv.CreatedAt = now
	if iv.CompletedAt.IsZero() {
		iv.CompletedAt = now
	}

	const q = `
INSERT INTO interviews (
	id, candidate_id, title, status, recording_url, transcript_text,
	language_score, language_justification,
	personality_score, personality_justification,
	accuracy_score, accuracy_justification,
	overall_summary, created_at, completed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	_, err := r.pool.Exec(ctx, q,
		iv.ID, iv.CandidateID, iv.Title, iv.Status, iv.RecordingURL, iv.TranscriptText,
		iv.LanguageScore, iv.LanguageJustification,
		iv.PersonalityScore, iv.PersonalityJustification,
		iv.AccuracyScore, iv.AccuracyJustification,
		iv.OverallSummary, iv.CreatedAt, iv.CompletedAt,
	)
	if err != nil {
		return Interview{}, fmt.Errorf("failed to insert interview: %w", err)
	}
	r.log.Info("interview stored", zap.String("id", iv.ID.String()), zap.String("candidate_id", iv.CandidateID))
	return iv, nil
}

// GetByID returns one interview.
func (r *InterviewRepo) GetByID(ctx context.Context, id uuid.UUID) (Interview, error) {
	const q = selectColumns + ` WHERE id = $1`
	row := r.pool.QueryRow(ctx, q, id)
	iv, err := scanInterview(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Interview{}, ErrNotFound
	}
	return iv, err
}

// ListByCandidate returns a candidate's interviews, newest first.
func (r *InterviewRepo) ListByCandidate(ctx context.Context, candidateID string) ([]Interview, error) {
	const q = selectColumns + ` WHERE candidate_id = $1 ORDER BY completed_at DESC`
	rows, err := r.pool.Query(ctx, q, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query interviews: %w", err)
	}
	defer rows.Close()

	var out []Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

const selectColumns = `
SELECT id, candidate_id, title, status, recording_url, transcript_text,
	language_score, language_justification,
	personality_score, personality_justification,
	accuracy_score, accuracy_justification,
	overall_summary, created_at, completed_at
FROM interviews`

func scanInterview(row pgx.Row) (Interview, error) {
	var iv Interview
	err := row.Scan(
		&iv.ID, &iv.CandidateID, &iv.Title, &iv.Status, &iv.RecordingURL, &iv.TranscriptText,
		&iv.LanguageScore, &iv.LanguageJustification,
		&iv.PersonalityScore, &iv.PersonalityJustification,
		&iv.AccuracyScore, &iv.AccuracyJustification,
		&iv.OverallSummary, &iv.CreatedAt, &iv.CompletedAt,
	)
	if err != nil {
		return Interview{}, err
	}
	return iv, nil
}

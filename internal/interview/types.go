package interview

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Arpan069/new-creation-genesis-flow/internal/media"
	"github.com/Arpan069/new-creation-genesis-flow/internal/record"
)

// State is the interview lifecycle state. Transitions are owned exclusively
// by the Session; sub-flags (recording, listening, processing) are orthogonal.
type State int

const (
	StateNotStarted State = iota
	StateActive
	StateEnding
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateActive:
		return "active"
	case StateEnding:
		return "ending"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Speaker identifies who produced a transcript entry. The values double as
// the display labels used in the formatted transcript sent at save time.
type Speaker string

const (
	SpeakerCandidate   Speaker = "You"
	SpeakerInterviewer Speaker = "AI Interviewer"
	SpeakerSystem      Speaker = "System"
)

// Entry is one appended transcript line. Entries are never mutated after append.
type Entry struct {
	Speaker   Speaker
	Text      string
	Timestamp time.Time
}

var (
	ErrAlreadyStarted = errors.New("interview: session already started")
	ErrNotStarted     = errors.New("interview: session not started")
)

// Transcriber is the speech transcription adapter. It emits debounced
// new-suffix utterances on Utterances; Restart fully stops and reopens the
// recognition session (engines can silently die).
type Transcriber interface {
	StartListening(ctx context.Context) error
	StopListening() error
	Restart(ctx context.Context) error
	Utterances() <-chan string
	Supported() bool
}

// Responder generates an interviewer reply for the accumulated conversation
// context. Implementations retry transient failures internally; an error here
// means the attempt budget is exhausted and the turn is abandoned.
type Responder interface {
	GenerateResponse(ctx context.Context, contextText, currentQuestion string) (string, error)
}

// Speech renders interviewer speech (avatar clip or synthesized audio).
// The returned channel closes when playback is considered finished. Speech
// failure is non-fatal: callers continue silently.
type Speech interface {
	Speak(ctx context.Context, text string) (done <-chan struct{}, err error)
}

// Recorder owns at most one open recording session.
type Recorder interface {
	Start(ctx context.Context, src record.ChunkSource) error
	Stop(ctx context.Context) (record.Artifact, error)
	Cleanup()
}

// Uploader persists a finalized recording artifact and returns its URL.
type Uploader interface {
	UploadRecording(ctx context.Context, artifact record.Artifact) (string, error)
}

// Saver stores the completed interview (video URL plus formatted transcript)
// with the backend.
type Saver interface {
	SaveCompleted(ctx context.Context, videoURL, transcriptText, title string) error
}

// Deps bundles the collaborators a Session composes. All are required except
// Uploader and Saver, which may be nil when the host persists elsewhere.
type Deps struct {
	Transcriber Transcriber
	Responder   Responder
	Speech      Speech
	Recorder    Recorder
	Uploader    Uploader
	Saver       Saver

	// OnEntry is invoked for every appended transcript entry (display).
	OnEntry func(Entry)
	// OnNotice surfaces user-visible, recoverable failures.
	OnNotice func(string)
}

// Options tune session behavior. Zero values take the observed defaults.
type Options struct {
	Questions        []string
	CodingChallenges []string
	Title            string

	// QuietWindow is how long the recognition session may go without new
	// transcript text before it is stopped and restarted.
	QuietWindow time.Duration
	// IdleWindow prompts the candidate for more input after this long with
	// no utterance following an interviewer turn. Zero disables the nudge.
	IdleWindow time.Duration
	// MinUtteranceTokens is the noise floor: shorter utterances are echoed
	// but never forwarded to the responder.
	MinUtteranceTokens int
	// ContextTurns bounds the rolling conversation context.
	ContextTurns int
}

const (
	defaultQuietWindow   = 10 * time.Second
	defaultMinTokens     = 2
	defaultContextTurns  = 6
	closingStatement     = "Thank you for your time. The interview is now complete."
	idleNudge            = "Take your time. Whenever you're ready, please continue your answer."
	defaultTitleTemplate = "AI Practice Interview - "
)

// DefaultQuestions is the built-in interview script used when the caller
// supplies none.
var DefaultQuestions = []string{
	"Tell me a little about yourself and your background.",
	"What interests you about this position?",
	"What are your greatest strengths that make you suitable for this role?",
	"Can you describe a challenging situation you faced at work and how you handled it?",
	"Where do you see yourself professionally in five years?",
}

// transitionPhrases trigger advancing to the next question when an
// interviewer reply contains one verbatim. The match is an exact,
// case-sensitive substring check applied only to interviewer replies; it is
// a heuristic, not an intent classification.
var transitionPhrases = []string{
	"next question",
	"Let's move on",
}

func containsTransitionPhrase(reply string) bool {
	for _, p := range transitionPhrases {
		if strings.Contains(reply, p) {
			return true
		}
	}
	return false
}

// used by Start to satisfy record.ChunkSource with a *media.Stream
var _ record.ChunkSource = (*media.Stream)(nil)

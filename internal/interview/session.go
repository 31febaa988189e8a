package interview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Arpan069/new-creation-genesis-flow/internal/record"
)

// Session orchestrates a single interview: it is the only component allowed
// to start/stop recording and transcription and to append to the transcript
// log. A Session is single-use; construct a new one for another interview.
type Session struct {
	transcriber Transcriber
	responder   Responder
	speech      Speech
	recorder    Recorder
	uploader    Uploader
	saver       Saver
	onEntry     func(Entry)
	onNotice    func(string)
	log         *zap.Logger
	opts        Options

	mu            sync.Mutex
	state         State
	questionIndex int
	transcript    []Entry
	convCtx       *Context
	aiBusy        bool
	lastProcessed string
	listening     bool
	recording     bool
	quietTimer    *time.Timer
	idleTimer     *time.Timer
	cancel        context.CancelFunc
}

// NewSession constructs a Session from its collaborators.
func NewSession(deps Deps, opts Options, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if len(opts.Questions) == 0 {
		opts.Questions = DefaultQuestions
	}
	if opts.QuietWindow <= 0 {
		opts.QuietWindow = defaultQuietWindow
	}
	if opts.MinUtteranceTokens <= 0 {
		opts.MinUtteranceTokens = defaultMinTokens
	}
	if opts.ContextTurns <= 0 {
		opts.ContextTurns = defaultContextTurns
	}
	return &Session{
		transcriber: deps.Transcriber,
		responder:   deps.Responder,
		speech:      deps.Speech,
		recorder:    deps.Recorder,
		uploader:    deps.Uploader,
		saver:       deps.Saver,
		onEntry:     deps.OnEntry,
		onNotice:    deps.OnNotice,
		log:         log,
		opts:        opts,
		convCtx:     NewContext(opts.ContextTurns),
	}
}

// Start transitions NotStarted -> Active: resets conversation state, opens
// the recording session on the given stream, appends and speaks the first
// question, then begins listening once the speech-done signal fires. A
// recording failure leaves the session in NotStarted.
func (s *Session) Start(ctx context.Context, stream record.ChunkSource) error {
	s.mu.Lock()
	if s.state != StateNotStarted {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.convCtx.Reset()
	s.questionIndex = 0
	s.transcript = nil
	s.lastProcessed = ""
	s.mu.Unlock()

	if err := s.recorder.Start(ctx, stream); err != nil {
		return fmt.Errorf("cannot start interview: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.state = StateActive
	s.recording = true
	s.cancel = cancel
	first := s.opts.Questions[0]
	s.mu.Unlock()

	s.append(SpeakerInterviewer, first)

	go s.loop(runCtx)
	go func() {
		s.waitForSpeech(runCtx, first)
		s.beginListening(runCtx)
	}()

	s.log.Info("interview started", zap.Int("questions", len(s.opts.Questions)))
	return nil
}

// End transitions Active -> Ending -> Ended: stops listening and recording,
// then hands the artifact and formatted transcript to the save pipeline in
// the background. Navigation away never waits on the save outcome. Calling
// End again is a no-op.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateEnded, StateEnding:
		s.mu.Unlock()
		return nil
	case StateNotStarted:
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.state = StateEnding
	cancel := s.cancel
	wasListening := s.listening
	s.listening = false
	s.stopTimersLocked()
	s.mu.Unlock()

	if wasListening {
		if err := s.transcriber.StopListening(); err != nil {
			s.log.Warn("stop listening failed", zap.Error(err))
		}
	}

	artifact, err := s.recorder.Stop(ctx)
	s.mu.Lock()
	s.recording = false
	s.mu.Unlock()

	if err != nil {
		s.log.Error("recording stop failed", zap.Error(err))
		s.notice("Recording could not be finalized; interview details were not saved.")
	} else {
		transcriptText := FormatEntries(s.Transcript())
		title := s.title()
		go s.save(artifact, transcriptText, title)
	}

	if cancel != nil {
		cancel()
	}
	s.mu.Lock()
	s.state = StateEnded
	s.mu.Unlock()
	s.log.Info("interview ended")
	return nil
}

// Close is the unmount path: best-effort stop of recording and listening
// with no save attempt.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateEnded || s.state == StateNotStarted {
		s.state = StateEnded
		s.mu.Unlock()
		return
	}
	s.state = StateEnded
	cancel := s.cancel
	wasListening := s.listening
	s.listening = false
	s.recording = false
	s.stopTimersLocked()
	s.mu.Unlock()

	if wasListening {
		_ = s.transcriber.StopListening()
	}
	s.recorder.Cleanup()
	if cancel != nil {
		cancel()
	}
}

// save uploads the artifact and stores the completed interview. Failures are
// logged and surfaced as notices; the recording is already safe locally.
func (s *Session) save(artifact record.Artifact, transcriptText, title string) {
	if s.uploader == nil || s.saver == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	videoURL, err := s.uploader.UploadRecording(ctx, artifact)
	if err != nil {
		s.log.Error("recording upload failed", zap.Error(err))
		s.notice("Failed to upload the interview recording. It is still available locally.")
		return
	}
	if err := s.saver.SaveCompleted(ctx, videoURL, transcriptText, title); err != nil {
		s.log.Error("saving interview details failed", zap.Error(err))
		s.notice("Failed to save interview details to the server. Recording saved locally.")
		return
	}
	s.log.Info("interview saved", zap.String("video_url", videoURL))
}

// loop consumes debounced utterances until the session context is canceled.
func (s *Session) loop(ctx context.Context) {
	utterances := s.transcriber.Utterances()
	for {
		select {
		case <-ctx.Done():
			return
		case text, ok := <-utterances:
			if !ok {
				return
			}
			s.handleUtterance(ctx, text)
		}
	}
}

// handleUtterance echoes candidate speech to the transcript and forwards
// non-trivial, non-duplicate utterances to the responder. A second utterance
// arriving while a turn is in flight is echoed but dropped.
func (s *Session) handleUtterance(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	s.rearmQuietTimerLocked(ctx)
	s.disarmIdleTimerLocked()
	s.mu.Unlock()

	s.append(SpeakerCandidate, text)

	if len(strings.Fields(text)) < s.opts.MinUtteranceTokens {
		return
	}

	s.mu.Lock()
	if s.aiBusy || text == s.lastProcessed {
		s.mu.Unlock()
		return
	}
	s.aiBusy = true
	s.lastProcessed = text
	question := s.currentQuestionLocked()
	s.mu.Unlock()

	go s.processTurn(ctx, text, question)
}

// processTurn runs one candidate-utterance -> interviewer-reply exchange.
// The busy guard stays held through speech playback so overlapping candidate
// speech cannot trigger a second in-flight request for the same turn.
func (s *Session) processTurn(ctx context.Context, utterance, question string) {
	defer func() {
		s.mu.Lock()
		s.aiBusy = false
		s.rearmIdleTimerLocked(ctx)
		s.mu.Unlock()
	}()

	s.convCtx.Add(string(SpeakerCandidate) + ": " + utterance)
	reply, err := s.responder.GenerateResponse(ctx, s.convCtx.String(), question)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error("response generation failed", zap.Error(err))
		s.notice("Failed to generate AI response. Please continue speaking.")
		return
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return
	}

	s.mu.Lock()
	if s.state != StateActive {
		// The session moved on while the request was in flight; the result
		// is ignored, not appended.
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.convCtx.Add(string(SpeakerInterviewer) + ": " + reply)
	s.append(SpeakerInterviewer, reply)
	s.waitForSpeech(ctx, reply)

	if containsTransitionPhrase(reply) {
		s.advance(ctx)
	}
}

// advance moves to the next question, or emits the closing statement when
// the script is exhausted. The cursor never decreases and never exceeds the
// last question.
func (s *Session) advance(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	if s.questionIndex >= len(s.opts.Questions)-1 {
		s.mu.Unlock()
		s.append(SpeakerInterviewer, closingStatement)
		s.waitForSpeech(ctx, closingStatement)
		return
	}
	s.questionIndex++
	next := s.opts.Questions[s.questionIndex]
	s.mu.Unlock()

	s.append(SpeakerInterviewer, next)
	s.waitForSpeech(ctx, next)
}

// waitForSpeech plays text through the speech collaborator and blocks until
// the done signal. Speech failure is swallowed; the interview continues
// silently.
func (s *Session) waitForSpeech(ctx context.Context, text string) {
	if s.speech == nil {
		return
	}
	done, err := s.speech.Speak(ctx, text)
	if err != nil {
		s.log.Warn("speech playback failed", zap.Error(err))
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// beginListening opens the transcription session. Without recognition
// support the interview degrades to recording only.
func (s *Session) beginListening(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !s.transcriber.Supported() {
		s.log.Warn("speech recognition unsupported; live turn-taking disabled")
		s.notice("Speech recognition is unavailable. Your interview is still being recorded.")
		return
	}
	if err := s.transcriber.StartListening(ctx); err != nil {
		s.log.Error("start listening failed", zap.Error(err))
		s.notice("Could not start speech recognition.")
		return
	}
	s.mu.Lock()
	s.listening = true
	s.rearmQuietTimerLocked(ctx)
	s.mu.Unlock()
	s.log.Info("listening for candidate speech")
}

// restartListening recovers a recognition session that went quiet. The last
// processed marker is deliberately left untouched so already-processed text
// is not fed to the responder again.
func (s *Session) restartListening(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateActive || !s.listening {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.log.Info("recognition quiet; restarting listening session")
	if err := s.transcriber.Restart(ctx); err != nil {
		s.log.Error("listening restart failed", zap.Error(err))
	}
}

func (s *Session) rearmQuietTimerLocked(ctx context.Context) {
	if s.quietTimer != nil {
		s.quietTimer.Stop()
	}
	s.quietTimer = time.AfterFunc(s.opts.QuietWindow, func() {
		s.restartListening(ctx)
	})
}

func (s *Session) rearmIdleTimerLocked(ctx context.Context) {
	if s.opts.IdleWindow <= 0 {
		return
	}
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(s.opts.IdleWindow, func() {
		s.mu.Lock()
		active := s.state == StateActive && !s.aiBusy
		s.mu.Unlock()
		if !active || ctx.Err() != nil {
			return
		}
		s.append(SpeakerSystem, idleNudge)
	})
}

func (s *Session) disarmIdleTimerLocked() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
}

func (s *Session) stopTimersLocked() {
	if s.quietTimer != nil {
		s.quietTimer.Stop()
	}
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
}

func (s *Session) append(speaker Speaker, text string) {
	e := Entry{Speaker: speaker, Text: text, Timestamp: time.Now()}
	s.mu.Lock()
	s.transcript = append(s.transcript, e)
	s.mu.Unlock()
	if s.onEntry != nil {
		s.onEntry(e)
	}
}

func (s *Session) notice(msg string) {
	if s.onNotice != nil {
		s.onNotice(msg)
	}
}

func (s *Session) title() string {
	if s.opts.Title != "" {
		return s.opts.Title
	}
	return defaultTitleTemplate + time.Now().UTC().Format("2006-01-02 15:04")
}

func (s *Session) currentQuestionLocked() string {
	if s.questionIndex < len(s.opts.Questions) {
		return s.opts.Questions[s.questionIndex]
	}
	return ""
}

// State reports the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentQuestion returns the question the interviewer is currently asking.
func (s *Session) CurrentQuestion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentQuestionLocked()
}

// CurrentCodingChallenge returns the coding challenge paired with the
// current question, if the script carries one.
func (s *Session) CurrentCodingChallenge() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.questionIndex < len(s.opts.CodingChallenges) {
		return s.opts.CodingChallenges[s.questionIndex]
	}
	return ""
}

// QuestionIndex reports the current question cursor.
func (s *Session) QuestionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionIndex
}

// Transcript returns a copy of the append-only transcript log.
func (s *Session) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// IsRecording reports whether a recording session is open.
func (s *Session) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// IsListening reports whether a recognition session is open.
func (s *Session) IsListening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

// IsProcessing reports whether a responder request is in flight.
func (s *Session) IsProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aiBusy
}

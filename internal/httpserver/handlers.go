package httpserver

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Arpan069/new-creation-genesis-flow/internal/auth"
	"github.com/Arpan069/new-creation-genesis-flow/internal/record"
	"github.com/Arpan069/new-creation-genesis-flow/internal/repository"
)

func (s *Server) handleHealth(c echo.Context) error {
	configured := false
	if s.deps.APIKeyConfigured != nil {
		configured = s.deps.APIKeyConfigured()
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":             "ok",
		"api_key_configured": configured,
	})
}

func (s *Server) handleIssueToken(c echo.Context) error {
	var req struct {
		UserID   string `json:"user_id"`
		UserType string `json:"user_type"`
	}
	if err := c.Bind(&req); err != nil || req.UserID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing user_id"})
	}
	if req.UserType == "" {
		req.UserType = "candidate"
	}
	token, err := s.deps.Tokens.IssueToken(req.UserID, req.UserType)
	if err != nil {
		s.log.Error("token issue failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleTranscribe(c echo.Context) error {
	var req struct {
		AudioData string `json:"audio_data"`
		MIMEType  string `json:"mime_type"`
		Options   struct {
			Language    string  `json:"language"`
			Prompt      string  `json:"prompt"`
			Temperature float64 `json:"temperature"`
		} `json:"options"`
	}
	if err := c.Bind(&req); err != nil || req.AudioData == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing audio data"})
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioData)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid audio encoding"})
	}

	temperature := req.Options.Temperature
	if temperature == 0 {
		temperature = 0.2
	}
	filename := "audio.webm"
	if req.MIMEType == "video/mp4" {
		filename = "audio.mp4"
	}

	text, err := s.deps.Transcriber.Transcribe(c.Request().Context(), audio, filename, req.Options.Language, req.Options.Prompt, temperature)
	if err != nil {
		s.log.Error("transcription failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"text": text})
}

func (s *Server) handleGenerateResponse(c echo.Context) error {
	var req struct {
		Transcript      string `json:"transcript"`
		CurrentQuestion string `json:"current_question"`
		Options         struct {
			Temperature  float64 `json:"temperature"`
			MaxTokens    int     `json:"max_tokens"`
			SystemPrompt string  `json:"system_prompt"`
		} `json:"options"`
	}
	if err := c.Bind(&req); err != nil || req.Transcript == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing transcript"})
	}

	reply, err := s.deps.Responder.InterviewerReply(
		c.Request().Context(),
		req.Transcript,
		req.CurrentQuestion,
		req.Options.SystemPrompt,
		req.Options.Temperature,
		req.Options.MaxTokens,
	)
	if err != nil {
		s.log.Error("response generation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"response": reply})
}

func (s *Server) handleTextToSpeech(c echo.Context) error {
	var req struct {
		Text    string `json:"text"`
		Options struct {
			Voice string  `json:"voice"`
			Speed float64 `json:"speed"`
		} `json:"options"`
	}
	if err := c.Bind(&req); err != nil || req.Text == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing text"})
	}

	audio, err := s.deps.Speech.Synthesize(c.Request().Context(), req.Text, req.Options.Voice, req.Options.Speed)
	if err != nil {
		s.log.Error("speech synthesis failed", zap.String("provider", s.deps.Speech.Name()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"audio_data": base64.StdEncoding.EncodeToString(audio),
	})
}

func (s *Server) handleAvatarVideo(c echo.Context) error {
	var req struct {
		InputText string `json:"input_text"`
	}
	if err := c.Bind(&req); err != nil || req.InputText == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing input_text"})
	}
	if !s.deps.Avatar.Configured() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "avatar service not configured"})
	}

	url, err := s.deps.Avatar.GenerateVideo(c.Request().Context(), req.InputText)
	if err != nil {
		s.log.Error("avatar generation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"video_url": url})
}

// handleUploadRecording stores a recording artifact for hosts that lack
// direct storage credentials.
func (s *Server) handleUploadRecording(c echo.Context) error {
	var req struct {
		Data     string `json:"data"`
		MIMEType string `json:"mime_type"`
	}
	if err := c.Bind(&req); err != nil || req.Data == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing recording data"})
	}
	if s.deps.Recordings == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "storage not configured"})
	}
	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid recording encoding"})
	}
	if req.MIMEType == "" {
		req.MIMEType = "video/webm"
	}

	url, err := s.deps.Recordings.UploadRecording(c.Request().Context(), record.Artifact{Data: data, MIMEType: req.MIMEType})
	if err != nil {
		s.log.Error("recording upload failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to store recording"})
	}
	return c.JSON(http.StatusCreated, map[string]string{"url": url})
}

// interviewJSON is the wire shape of a stored interview.
type interviewJSON struct {
	ID                       string    `json:"id"`
	Title                    string    `json:"title"`
	Status                   string    `json:"status"`
	RecordingURL             string    `json:"recording_url,omitempty"`
	TranscriptText           string    `json:"transcript_text,omitempty"`
	LanguageScore            float64   `json:"language_score"`
	LanguageJustification    string    `json:"language_justification,omitempty"`
	PersonalityScore         float64   `json:"personality_score"`
	PersonalityJustification string    `json:"personality_justification,omitempty"`
	AccuracyScore            float64   `json:"accuracy_score"`
	AccuracyJustification    string    `json:"accuracy_justification,omitempty"`
	OverallSummary           string    `json:"overall_summary,omitempty"`
	CompletedAt              time.Time `json:"completed_at"`
}

func toInterviewJSON(iv repository.Interview) interviewJSON {
	return interviewJSON{
		ID:                       iv.ID.String(),
		Title:                    iv.Title,
		Status:                   iv.Status,
		RecordingURL:             iv.RecordingURL,
		TranscriptText:           iv.TranscriptText,
		LanguageScore:            iv.LanguageScore,
		LanguageJustification:    iv.LanguageJustification,
		PersonalityScore:         iv.PersonalityScore,
		PersonalityJustification: iv.PersonalityJustification,
		AccuracyScore:            iv.AccuracyScore,
		AccuracyJustification:    iv.AccuracyJustification,
		OverallSummary:           iv.OverallSummary,
		CompletedAt:              iv.CompletedAt,
	}
}

func (s *Server) handleCompleteInterview(c echo.Context) error {
	var req struct {
		VideoURL       string `json:"video_url"`
		TranscriptText string `json:"transcript_text"`
		Title          string `json:"title"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if s.deps.Interviews == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "storage not configured"})
	}

	candidateID := "anonymous"
	if claims, ok := auth.ClaimsFrom(c); ok {
		candidateID = claims.UserID
	}
	title := req.Title
	if title == "" {
		title = fmt.Sprintf("AI Practice Interview - %s", time.Now().Format("2006-01-02 15:04"))
	}

	iv := repository.Interview{
		CandidateID:    candidateID,
		Title:          title,
		RecordingURL:   req.VideoURL,
		TranscriptText: req.TranscriptText,
		CompletedAt:    time.Now().UTC(),
	}

	// Analysis failure does not block saving the record.
	if s.deps.Analyzer != nil && req.TranscriptText != "" {
		analysis, err := s.deps.Analyzer.AnalyzeTranscript(c.Request().Context(), req.TranscriptText)
		if err != nil {
			s.log.Warn("transcript analysis failed", zap.Error(err))
		} else {
			iv.LanguageScore = analysis.LanguageScore.Score
			iv.LanguageJustification = analysis.LanguageScore.Justification
			iv.PersonalityScore = analysis.PersonalityScore.Score
			iv.PersonalityJustification = analysis.PersonalityScore.Justification
			iv.AccuracyScore = analysis.AccuracyScore.Score
			iv.AccuracyJustification = analysis.AccuracyScore.Justification
			iv.OverallSummary = analysis.OverallSummary
		}
	}

	stored, err := s.deps.Interviews.CreateCompleted(c.Request().Context(), iv)
	if err != nil {
		s.log.Error("interview save failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to save interview"})
	}
	return c.JSON(http.StatusCreated, toInterviewJSON(stored))
}

func (s *Server) handleListInterviews(c echo.Context) error {
	if s.deps.Interviews == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "storage not configured"})
	}
	candidateID := "anonymous"
	if claims, ok := auth.ClaimsFrom(c); ok {
		candidateID = claims.UserID
	}

	interviews, err := s.deps.Interviews.ListByCandidate(c.Request().Context(), candidateID)
	if err != nil {
		s.log.Error("interview list failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list interviews"})
	}
	out := make([]interviewJSON, 0, len(interviews))
	for _, iv := range interviews {
		out = append(out, toInterviewJSON(iv))
	}
	return c.JSON(http.StatusOK, map[string]any{"interviews": out})
}

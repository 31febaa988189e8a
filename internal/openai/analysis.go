package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ScoredAspect is one evaluated dimension of a candidate's performance.
type ScoredAspect struct {
	Score         float64 `json:"score"`
	Justification string  `json:"justification"`
}

// Analysis is the structured evaluation of an interview transcript.
type Analysis struct {
	LanguageScore    ScoredAspect `json:"language_score"`
	PersonalityScore ScoredAspect `json:"personality_score"`
	AccuracyScore    ScoredAspect `json:"accuracy_score"`
	OverallSummary   string       `json:"overall_summary"`
}

const analysisPromptTemplate = `You are an expert interview evaluator. Analyze the following interview transcript.
The candidate was asked a series of questions by an AI Interviewer.
Based *only* on the candidate's responses ("You: ...") in the transcript:
1.  **Language Score (out of 10)**: Evaluate clarity, grammar, vocabulary, and fluency.
2.  **Personality Score (out of 10)**: Evaluate confidence, articulation, enthusiasm, and professionalism.
3.  **Accuracy Score (out of 10)**: Evaluate the substance, relevance, and correctness of the answers to the questions asked. If questions are behavioral, assess the quality of examples and STAR method usage if apparent. If technical, assess technical correctness.

Provide a brief justification (1-2 sentences) for each score.

Return the output *only* as a single valid JSON object with the following structure:
{
  "language_score": { "score": <number>, "justification": "<text>" },
  "personality_score": { "score": <number>, "justification": "<text>" },
  "accuracy_score": { "score": <number>, "justification": "<text>" },
  "overall_summary": "<A brief 2-3 sentence summary of the candidate's performance based on these aspects.>"
}

Transcript:
---
%s
---
Ensure the output is a single valid JSON object and nothing else.`

// AnalyzeTranscript scores a finished interview transcript across language,
// personality and accuracy.
func (c *Client) AnalyzeTranscript(ctx context.Context, transcriptText string) (Analysis, error) {
	prompt := fmt.Sprintf(analysisPromptTemplate, transcriptText)
	raw, err := c.chat(ctx, "You are an expert interview evaluator outputting JSON.", prompt, 0.5, 0, true)
	if err != nil {
		return Analysis{}, err
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &analysis); err != nil {
		return Analysis{}, fmt.Errorf("failed to parse analysis response: %w", err)
	}
	return analysis, nil
}

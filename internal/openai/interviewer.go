package openai

import (
	"context"
	"fmt"
)

const interviewerPromptTemplate = `You are an AI interviewer conducting a job interview.
Your name is AI Interviewer. You are currently asking: %q
Respond naturally to the candidate's answer. Keep your response brief (2-3 sentences maximum).
Be conversational but professional. Ask thoughtful follow-up questions when appropriate.
You must respond in complete sentences, even if the candidate's answer is unclear.
If the candidate's answer shows they are done with this topic, end with "Let's move on to the next question."
If the candidate's answer is unclear, ask them to clarify.
IMPORTANT: Don't repeat yourself. Never say "Thank you for sharing" or similar phrases repeatedly.`

// InterviewerReply generates the interviewer's next turn for the given
// conversation transcript and current question. An empty systemPrompt uses
// the built-in interviewer persona.
func (c *Client) InterviewerReply(ctx context.Context, transcript, currentQuestion, systemPrompt string, temperature float64, maxTokens int) (string, error) {
	if systemPrompt == "" {
		systemPrompt = fmt.Sprintf(interviewerPromptTemplate, currentQuestion)
	}
	if temperature == 0 {
		temperature = 0.7
	}
	if maxTokens == 0 {
		maxTokens = 250
	}
	return c.Chat(ctx, systemPrompt, transcript, temperature, maxTokens)
}

package openai

import (
	"fmt"
	"strings"

	"lms-chatbot/internal/domain"
)

const systemPrompt = "You are an LMS assistant. Answer only LMS-related questions (courses, enrollments, " +
	"assignments, deadlines, payments/Stripe, player/lessons, instructor contact). " +
	"Prefer concrete, concise steps based on the provided FAQ context. If the question is " +
	"out of scope, politely refuse and steer back to LMS topics."

// buildMessages assembles the prompt: system instructions, the prior
// turns as-is, then the current question with the FAQ context inlined.
func buildMessages(question string, contextEntries []domain.FaqEntry, history []domain.Turn) []chatMessage {
	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})

	for _, turn := range history {
		messages = append(messages, chatMessage{Role: string(turn.Role), Content: turn.Content})
	}

	messages = append(messages, chatMessage{Role: "user", Content: buildUserPrompt(question, contextEntries)})
	return messages
}

func buildUserPrompt(question string, contextEntries []domain.FaqEntry) string {
	return fmt.Sprintf(
		"FAQ context:\n%s\n\nUser question: %s\n\nAnswer clearly. If multiple possibilities, list 2-3 concise options.",
		contextText(contextEntries),
		question,
	)
}

func contextText(entries []domain.FaqEntry) string {
	if len(entries) == 0 {
		return "No FAQ context."
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("Q: %s\nA: %s", e.Question, e.Answer))
	}
	return strings.Join(lines, "\n\n")
}

// Package conversation decides how much history is sent to the completion
// API. Once an estimated token budget is exceeded, older turns are replaced by
// a stored summary and only the most recent messages are kept verbatim.
//
// The manager holds no per-conversation state: the caller loads the
// conversation's summary and passes it in, and persists whatever Summarize
// produces.
package conversation

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"chatrelay/internal/ai"
	"chatrelay/internal/model"
)

const (
	DefaultMaxTokens = 4000

	// charsPerToken is the rough estimate used instead of a tokenizer.
	charsPerToken = 4
	// summarizeRatio is the share of the budget that triggers summarization.
	summarizeRatio = 0.7
	// keepRecent is how many trailing messages survive next to a summary.
	keepRecent = 4

	summarySystemPrompt = "You are a helpful assistant that creates concise but informative summaries of conversations."
	summaryPromptHeader = "Please provide a concise summary of the following conversation, " +
		"focusing on the most important points and context needed for continuation:\n\n"
	summaryContextPrefix = "Previous conversation summary: "
)

var ErrEmptySummary = errors.New("summarizer returned empty text")

// SummaryResult separates "summarization failed" from "nothing to apply yet".
type SummaryResult struct {
	Summary string
	Err     error
}

func (r SummaryResult) OK() bool {
	return r.Err == nil
}

type Manager struct {
	maxTokens int
	completer ai.Completer
}

func NewManager(maxTokens int, completer ai.Completer) *Manager {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Manager{
		maxTokens: maxTokens,
		completer: completer,
	}
}

func (m *Manager) MaxTokens() int {
	return m.maxTokens
}

// EstimateTokens approximates the token count as characters / 4.
func EstimateTokens(messages []model.ChatMessage) float64 {
	total := 0
	for _, msg := range messages {
		total += utf8.RuneCountInString(msg.Content)
	}
	return float64(total) / charsPerToken
}

// ShouldSummarize reports whether the estimate exceeds 70% of the budget.
func (m *Manager) ShouldSummarize(messages []model.ChatMessage) bool {
	return EstimateTokens(messages) > float64(m.maxTokens)*summarizeRatio
}

// Summarize asks the completion API for a summary of the whole history.
func (m *Manager) Summarize(ctx context.Context, messages []model.ChatMessage) SummaryResult {
	reply, err := m.completer.Complete(ctx, []model.ChatMessage{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: BuildSummaryPrompt(messages)},
	})
	if err != nil {
		return SummaryResult{Err: err}
	}
	if strings.TrimSpace(reply) == "" {
		return SummaryResult{Err: ErrEmptySummary}
	}
	return SummaryResult{Summary: reply}
}

func BuildSummaryPrompt(messages []model.ChatMessage) string {
	var b strings.Builder
	b.WriteString(summaryPromptHeader)
	for _, msg := range messages {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// PrepareMessages returns the history to send upstream. Over budget and with a
// summary available, it is the summary as a system message followed by the
// last four messages; otherwise the input is returned unchanged.
func (m *Manager) PrepareMessages(messages []model.ChatMessage, summary string) []model.ChatMessage {
	if !m.ShouldSummarize(messages) || summary == "" {
		return messages
	}

	recent := messages
	if len(recent) > keepRecent {
		recent = recent[len(recent)-keepRecent:]
	}

	prepared := make([]model.ChatMessage, 0, len(recent)+1)
	prepared = append(prepared, model.ChatMessage{
		Role:    "system",
		Content: summaryContextPrefix + summary,
	})
	return append(prepared, recent...)
}

package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/model"
)

type fakeCompleter struct {
	reply    string
	err      error
	received [][]model.ChatMessage
}

func (f *fakeCompleter) Complete(_ context.Context, messages []model.ChatMessage) (string, error) {
	f.received = append(f.received, messages)
	return f.reply, f.err
}

func historyOfLength(chars ...int) []model.ChatMessage {
	messages := make([]model.ChatMessage, 0, len(chars))
	for i, n := range chars {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		messages = append(messages, model.ChatMessage{Role: role, Content: strings.Repeat("a", n)})
	}
	return messages
}

func TestNewManagerDefaultsBudget(t *testing.T) {
	assert.Equal(t, DefaultMaxTokens, NewManager(0, nil).MaxTokens())
	assert.Equal(t, 100, NewManager(100, nil).MaxTokens())
}

func TestShouldSummarizeThreshold(t *testing.T) {
	m := NewManager(0, nil)

	assert.True(t, m.ShouldSummarize(historyOfLength(11201)))
	assert.True(t, m.ShouldSummarize(historyOfLength(5600, 5601)), "the total across messages counts")
	assert.False(t, m.ShouldSummarize(historyOfLength(11200)), "exactly 70% does not trigger")
	assert.False(t, m.ShouldSummarize(historyOfLength(11199)))
	assert.False(t, m.ShouldSummarize(nil))
}

func TestShouldSummarizeCountsCharactersNotBytes(t *testing.T) {
	m := NewManager(10, nil)

	// 28 runes / 4 = 7 tokens, not above 7.0; the same text is 56 bytes.
	assert.False(t, m.ShouldSummarize([]model.ChatMessage{{Role: "user", Content: strings.Repeat("é", 28)}}))
	assert.True(t, m.ShouldSummarize([]model.ChatMessage{{Role: "user", Content: strings.Repeat("é", 29)}}))
}

func TestPrepareMessagesUnderBudgetIsIdentity(t *testing.T) {
	m := NewManager(0, nil)
	messages := historyOfLength(10, 20, 30, 40, 50, 60)

	assert.Equal(t, messages, m.PrepareMessages(messages, "a stored summary"))
}

func TestPrepareMessagesWithoutSummaryIsIdentity(t *testing.T) {
	m := NewManager(0, nil)
	messages := historyOfLength(6000, 6000)

	require.True(t, m.ShouldSummarize(messages))
	assert.Equal(t, messages, m.PrepareMessages(messages, ""))
}

func TestPrepareMessagesUsesSummaryAndLastFour(t *testing.T) {
	m := NewManager(0, nil)
	messages := historyOfLength(3000, 3000, 3000, 3000, 10, 11)

	prepared := m.PrepareMessages(messages, "they talked about Go")
	require.Len(t, prepared, 5)
	assert.Equal(t, model.ChatMessage{Role: "system", Content: "Previous conversation summary: they talked about Go"}, prepared[0])
	assert.Equal(t, messages[2:], prepared[1:])
}

func TestPrepareMessagesKeepsShortHistory(t *testing.T) {
	m := NewManager(0, nil)
	messages := historyOfLength(12000, 5)

	prepared := m.PrepareMessages(messages, "summary")
	require.Len(t, prepared, 3)
	assert.Equal(t, messages, prepared[1:])
}

func TestSummarizeBuildsPrompt(t *testing.T) {
	completer := &fakeCompleter{reply: "short summary"}
	m := NewManager(0, completer)

	result := m.Summarize(context.Background(), []model.ChatMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	})
	require.True(t, result.OK())
	assert.Equal(t, "short summary", result.Summary)

	require.Len(t, completer.received, 1)
	sent := completer.received[0]
	require.Len(t, sent, 2)
	assert.Equal(t, "system", sent[0].Role)
	assert.Equal(t, summarySystemPrompt, sent[0].Content)
	assert.Equal(t, "user", sent[1].Role)
	assert.True(t, strings.HasPrefix(sent[1].Content, "Please provide a concise summary"))
	assert.True(t, strings.HasSuffix(sent[1].Content, "user: hi\n\nassistant: hello\n\n"))
}

func TestSummarizeFailureIsAResult(t *testing.T) {
	upstream := errors.New("upstream down")
	m := NewManager(0, &fakeCompleter{err: upstream})

	result := m.Summarize(context.Background(), historyOfLength(5))
	assert.False(t, result.OK())
	assert.ErrorIs(t, result.Err, upstream)
	assert.Empty(t, result.Summary)
}

func TestSummarizeEmptyReplyIsAFailure(t *testing.T) {
	m := NewManager(0, &fakeCompleter{reply: "   "})

	result := m.Summarize(context.Background(), historyOfLength(5))
	assert.ErrorIs(t, result.Err, ErrEmptySummary)
}

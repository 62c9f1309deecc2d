package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"chatrelay/internal/cache"
	"chatrelay/internal/platform/database/databasetest"
	"chatrelay/internal/repository"
)

type conversationFixture struct {
	service       *ConversationService
	conversations *repository.ConversationRepository
	messages      *repository.MessageRepository
}

func newConversationFixture(t *testing.T, historyCache HistoryCache) *conversationFixture {
	db := databasetest.New(t)
	f := &conversationFixture{
		conversations: repository.NewConversationRepository(db),
		messages:      repository.NewMessageRepository(db),
	}
	f.service = NewConversationService(f.conversations, f.messages, historyCache, zaptest.NewLogger(t))
	return f
}

func TestRenameRequiresTitle(t *testing.T) {
	f := newConversationFixture(t, nil)
	created, err := f.conversations.Create("original")
	require.NoError(t, err)

	assert.ErrorIs(t, f.service.Rename(created.ID, ""), ErrTitleRequired)

	stored, err := f.conversations.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Title)
}

func TestRenameUnknownConversationIsNoop(t *testing.T) {
	f := newConversationFixture(t, nil)

	assert.NoError(t, f.service.Rename(42, "title"))
	assert.ErrorIs(t, f.service.Rename(0, "title"), ErrInvalidInput)

	stored, err := f.conversations.GetByID(42)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestRenameStoresTitleVerbatim(t *testing.T) {
	f := newConversationFixture(t, nil)
	created, err := f.conversations.Create("original")
	require.NoError(t, err)

	for _, title := range []string{"  renamed  ", "   "} {
		require.NoError(t, f.service.Rename(created.ID, title))

		stored, err := f.conversations.GetByID(created.ID)
		require.NoError(t, err)
		assert.Equal(t, title, stored.Title)
	}
}

func TestDeleteThenGetMessagesIsEmpty(t *testing.T) {
	f := newConversationFixture(t, nil)
	created, err := f.conversations.Create("doomed")
	require.NoError(t, err)
	_, err = f.messages.Create(created.ID, "user", "hi")
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(context.Background(), created.ID))

	messages, err := f.service.GetMessages(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestGetMessagesUsesHistoryCache(t *testing.T) {
	server := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	historyCache := cache.NewHistoryCache(client, time.Minute, time.Second)

	f := newConversationFixture(t, historyCache)
	created, err := f.conversations.Create("cached")
	require.NoError(t, err)
	_, err = f.messages.Create(created.ID, "user", "hi")
	require.NoError(t, err)

	ctx := context.Background()
	first, err := f.service.GetMessages(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	cached, hit, err := historyCache.GetHistory(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "hi", cached[0].Content)

	require.NoError(t, f.service.Delete(ctx, created.ID))
	_, hit, err = historyCache.GetHistory(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, hit, "delete drops the cached history")

	after, err := f.service.GetMessages(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestListConversations(t *testing.T) {
	f := newConversationFixture(t, nil)
	for _, title := range []string{"a", "b", "c"} {
		_, err := f.conversations.Create(title)
		require.NoError(t, err)
	}

	list, err := f.service.List(2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].Title)
}

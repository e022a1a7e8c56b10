package redis_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyendangtritoan/german-note/internal/adapter/redis"
	"github.com/nguyendangtritoan/german-note/internal/domain"
	"github.com/nguyendangtritoan/german-note/internal/testhelper"
)

func setupRedis(t *testing.T) *goredis.Client {
	t.Helper()

	rdb, err := redis.NewClient(context.Background(), testhelper.SetupTestRedis(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestDictCache_FirstWriterWins(t *testing.T) {
	rdb := setupRedis(t)
	cache := redis.NewDictCache(rdb, "test:"+uuid.NewString()[:8]+":")
	ctx := context.Background()

	_, err := cache.Lookup(ctx, "haus")
	require.ErrorIs(t, err, domain.ErrNotFound)

	first := domain.Analysis{Original: "Haus", WordClass: "noun", Translations: map[string]string{"en": "house"}}
	second := domain.Analysis{Original: "Haus", WordClass: "noun", Translations: map[string]string{"en": "building"}}

	created, err := cache.Store(ctx, "haus", domain.CachedAnalysis{Key: "haus", Analysis: first, GeneratedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = cache.Store(ctx, "haus", domain.CachedAnalysis{Key: "haus", Analysis: second, GeneratedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := cache.Lookup(ctx, "haus")
	require.NoError(t, err)
	assert.Equal(t, "house", got.Analysis.Translations["en"])
}

func TestFeed_PublishSubscribe(t *testing.T) {
	rdb := setupRedis(t)
	channel := "test-feed-" + uuid.NewString()[:8]
	logger := slog.New(slog.DiscardHandler)

	publisher := redis.NewFeed(logger, rdb, channel)
	subscriber := redis.NewFeed(logger, rdb, channel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan domain.ChangeEvent, 1)
	require.NoError(t, subscriber.Subscribe(ctx, func(ev domain.ChangeEvent) { received <- ev }))

	ev := domain.ChangeEvent{
		Kind:       domain.ChangeSession,
		IdentityID: uuid.New(),
		Origin:     "a",
		Words:      domain.Session{{ID: uuid.New(), Analysis: domain.Analysis{Original: "Baum"}, Timestamp: time.Now()}},
		At:         time.Now(),
	}
	require.NoError(t, publisher.Publish(ctx, ev))

	select {
	case got := <-received:
		assert.Equal(t, ev.IdentityID, got.IdentityID)
		require.Len(t, got.Words, 1)
		assert.Equal(t, "Baum", got.Words[0].Original)
	case <-time.After(5 * time.Second):
		t.Fatal("event not received")
	}
}

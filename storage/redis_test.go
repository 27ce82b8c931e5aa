package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/genlo/model"
)

func redisURL(t *testing.T) string {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	return url
}

func TestRedisStorage(t *testing.T) {
	url := redisURL(t)
	runConversationStorageTests(t, func(t *testing.T) ConversationStorage {
		s, err := OpenRedis(context.Background(), RedisConfig{URL: url, TTL: time.Minute})
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestRedisStorageRefreshesTTL(t *testing.T) {
	url := redisURL(t)
	ctx := context.Background()
	s, err := OpenRedis(ctx, RedisConfig{URL: url, TTL: time.Minute})
	require.NoError(t, err)
	defer s.Close()

	id := uuid.NewString()
	require.NoError(t, s.Save(ctx, id, []model.Turn{model.UserTurn("hi")}))
	defer s.Delete(ctx, id)

	ttl, err := s.rdb.TTL(ctx, messagesKey(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestSessionFromMetaKey(t *testing.T) {
	id, ok := sessionFromMetaKey(metaKey("abc:def"))
	assert.True(t, ok)
	assert.Equal(t, "abc:def", id)

	_, ok = sessionFromMetaKey(messagesKey("abc"))
	assert.False(t, ok)
}

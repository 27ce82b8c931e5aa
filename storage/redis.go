package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richinex/genlo/internal/errx"
	"github.com/richinex/genlo/internal/logx"
	"github.com/richinex/genlo/model"
)

const redisKeyPrefix = "genlo:conversation:"

// RedisConfig configures the Redis connection. Timeouts are in seconds.
type RedisConfig struct {
	URL          string
	ReadTimeout  int
	WriteTimeout int
	DialTimeout  int
	// TTL is refreshed on every Save; zero keeps sessions forever.
	TTL time.Duration
}

// RedisStorage keeps each session as a Redis list of JSON turns plus a
// meta key that marks existence, both expiring together.
type RedisStorage struct {
	rdb redis.Cmdable
	ttl time.Duration
	// closer is nil when the client is owned by the caller
	closer func() error
}

// NewRedisStorage wraps an existing client.
func NewRedisStorage(rdb redis.Cmdable, ttl time.Duration) *RedisStorage {
	return &RedisStorage{rdb: rdb, ttl: ttl}
}

// OpenRedis dials cfg.URL and verifies the connection with PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*RedisStorage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = time.Duration(cfg.ReadTimeout) * time.Second
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = time.Duration(cfg.WriteTimeout) * time.Second
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = time.Duration(cfg.DialTimeout) * time.Second
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errx.WrapRedis(err)
	}

	s := NewRedisStorage(client, cfg.TTL)
	s.closer = client.Close
	return s, nil
}

// Close releases the client if OpenRedis created it.
func (s *RedisStorage) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func messagesKey(sessionID string) string {
	return redisKeyPrefix + sessionID + ":messages"
}

func metaKey(sessionID string) string {
	return redisKeyPrefix + sessionID + ":meta"
}

func sessionFromMetaKey(key string) (string, bool) {
	if !strings.HasPrefix(key, redisKeyPrefix) || !strings.HasSuffix(key, ":meta") {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(key, redisKeyPrefix), ":meta"), true
}

// Save replaces the session list atomically and refreshes the TTL.
func (s *RedisStorage) Save(ctx context.Context, sessionID string, history []model.Turn) error {
	values := make([]any, 0, len(history))
	for i, turn := range history {
		b, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("marshal turn %d: %w", i, err)
		}
		values = append(values, b)
	}

	key := messagesKey(sessionID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.RPush(ctx, key, values...)
		}
		pipe.Set(ctx, metaKey(sessionID), time.Now().UTC().Format(time.RFC3339), s.ttl)
		if s.ttl > 0 && len(values) > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save conversation to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// Load reads the session list; a missing key yields an empty history.
func (s *RedisStorage) Load(ctx context.Context, sessionID string) ([]model.Turn, error) {
	key := messagesKey(sessionID)
	rows, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []model.Turn{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation from redis")
		return nil, errx.WrapRedis(err)
	}

	turns := make([]model.Turn, 0, len(rows))
	for i, row := range rows {
		var turn model.Turn
		if err := json.Unmarshal([]byte(row), &turn); err != nil {
			return nil, fmt.Errorf("unmarshal turn at index %d: %w", i, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Delete removes both session keys.
func (s *RedisStorage) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, messagesKey(sessionID), metaKey(sessionID)).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

// ListSessions scans for live meta keys.
func (s *RedisStorage) ListSessions(ctx context.Context) ([]string, error) {
	sessions := []string{}
	iter := s.rdb.Scan(ctx, 0, redisKeyPrefix+"*:meta", 100).Iterator()
	for iter.Next(ctx) {
		if id, ok := sessionFromMetaKey(iter.Val()); ok {
			sessions = append(sessions, id)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, errx.WrapRedis(err)
	}
	return sessions, nil
}

// Exists checks if a session exists.
func (s *RedisStorage) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, metaKey(sessionID)).Result()
	if err != nil {
		return false, errx.WrapRedis(err)
	}
	return n > 0, nil
}

var _ ConversationStorage = (*RedisStorage)(nil)

package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/s4mp41xao/orihub/internal/model"
)

// redisKeyPrefix はRedis上のキャッシュキーの接頭辞。
const redisKeyPrefix = "orihub:session:"

// RedisCache はRedisを使用したCache実装。複数のAPIサーバーでキャッシュを共有する場合に使う。
// RedisのTTLに加えて、取得時にも注入されたClockで有効期限を確認する。
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	clock  Clock
	logger *slog.Logger
}

// NewRedisCache はRedisCacheを生成する。
func NewRedisCache(client *redis.Client, ttl time.Duration, clock Clock, logger *slog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		clock:  clock,
		logger: logger,
	}
}

// Get は有効なエントリがあればIdentityを返す。Redisのエラーはミスとして扱う。
func (c *RedisCache) Get(ctx context.Context, token string) (*model.Identity, bool) {
	key := redisKeyPrefix + HashToken(token)

	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("session cache get failed", slog.String("error", err.Error()))
		}
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		c.logger.Warn("session cache entry is corrupted", slog.String("error", err.Error()))
		c.client.Del(ctx, key)
		return nil, false
	}

	if !c.clock.Now().Before(entry.ExpiresAt) {
		c.client.Del(ctx, key)
		return nil, false
	}

	identity := entry.Identity
	return &identity, true
}

// Put はエントリを登録する。
func (c *RedisCache) Put(ctx context.Context, token string, identity *model.Identity) {
	if identity == nil {
		return
	}

	b, err := json.Marshal(cacheEntry{
		Identity:  *identity,
		ExpiresAt: c.clock.Now().Add(c.ttl),
	})
	if err != nil {
		c.logger.Warn("failed to encode session cache entry", slog.String("error", err.Error()))
		return
	}

	if err := c.client.Set(ctx, redisKeyPrefix+HashToken(token), b, c.ttl).Err(); err != nil {
		c.logger.Warn("session cache set failed", slog.String("error", err.Error()))
	}
}

// Delete はエントリを削除する。
func (c *RedisCache) Delete(ctx context.Context, token string) {
	if err := c.client.Del(ctx, redisKeyPrefix+HashToken(token)).Err(); err != nil {
		c.logger.Warn("session cache delete failed", slog.String("error", err.Error()))
	}
}

// compile-time interface check
var _ Cache = (*RedisCache)(nil)

package session

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/s4mp41xao/orihub/internal/model"
)

// DefaultCacheTTL はキャッシュエントリの有効期間。
// 元のセッションの有効期限とは独立に、挿入時点から数える。
const DefaultCacheTTL = 5 * time.Minute

// Cache はトークンから解決済みIdentityへの短期キャッシュ。
// 失敗してもリクエストは下位の解決手段にフォールバックするため、操作はエラーを返さない。
type Cache interface {
	// Get は有効なエントリがあればIdentityを返す。
	Get(ctx context.Context, token string) (*model.Identity, bool)
	// Put はエントリを登録する。有効期限は登録時刻からTTL後。
	Put(ctx context.Context, token string, identity *model.Identity)
	// Delete はエントリを削除する。
	Delete(ctx context.Context, token string)
}

// cacheEntry はキャッシュに格納する値。
type cacheEntry struct {
	Identity  model.Identity `json:"identity"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// MemoryCache はプロセス内メモリのCache実装。
// 有効期限の判定は注入されたClockで行い、go-cacheのjanitorが期限切れエントリを定期的に掃除する。
type MemoryCache struct {
	c     *gocache.Cache
	ttl   time.Duration
	clock Clock
}

// NewMemoryCache はMemoryCacheを生成する。
func NewMemoryCache(ttl time.Duration, clock Clock) *MemoryCache {
	return &MemoryCache{
		c:     gocache.New(ttl, time.Minute),
		ttl:   ttl,
		clock: clock,
	}
}

// Get は有効なエントリがあればIdentityを返す。期限切れのエントリは削除する。
func (m *MemoryCache) Get(_ context.Context, token string) (*model.Identity, bool) {
	key := HashToken(token)

	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	entry, ok := v.(cacheEntry)
	if !ok {
		m.c.Delete(key)
		return nil, false
	}

	if !m.clock.Now().Before(entry.ExpiresAt) {
		m.c.Delete(key)
		return nil, false
	}

	identity := entry.Identity
	return &identity, true
}

// Put はエントリを登録する。
func (m *MemoryCache) Put(_ context.Context, token string, identity *model.Identity) {
	if identity == nil {
		return
	}
	m.c.Set(HashToken(token), cacheEntry{
		Identity:  *identity,
		ExpiresAt: m.clock.Now().Add(m.ttl),
	}, m.ttl)
}

// Delete はエントリを削除する。
func (m *MemoryCache) Delete(_ context.Context, token string) {
	m.c.Delete(HashToken(token))
}

// Len は保持しているエントリ数を返す。テストおよびメトリクス用。
func (m *MemoryCache) Len() int {
	return m.c.ItemCount()
}

// compile-time interface check
var _ Cache = (*MemoryCache)(nil)

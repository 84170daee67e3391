package odds

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache é o cache pass-through de odds por esporte+mercados, com TTL de
// relógio de parede. Injetado nos handlers (nunca estado global) pra poder
// ser trocado por implementação distribuída ou de teste.
type Cache interface {
	Get(ctx context.Context, sportKey, markets string) ([]Game, bool, error)
	Set(ctx context.Context, sportKey, markets string, games []Game) error
	Delete(ctx context.Context, sportKey, markets string) error
}

func cacheKey(sportKey, markets string) string { return "odds:" + sportKey + ":" + markets }

// RedisCache implementa Cache sobre Redis, com expiração delegada ao TTL
// da chave.
type RedisCache struct {
	R   *redis.Client
	TTL time.Duration
}

func NewRedisCache(r *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{R: r, TTL: ttl}
}

func (c *RedisCache) Get(ctx context.Context, sportKey, markets string) ([]Game, bool, error) {
	b, err := c.R.Get(ctx, cacheKey(sportKey, markets)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var games []Game
	if err := json.Unmarshal(b, &games); err != nil {
		return nil, false, err
	}
	return games, true, nil
}

func (c *RedisCache) Set(ctx context.Context, sportKey, markets string, games []Game) error {
	b, err := json.Marshal(games)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, cacheKey(sportKey, markets), b, c.TTL).Err()
}

func (c *RedisCache) Delete(ctx context.Context, sportKey, markets string) error {
	return c.R.Del(ctx, cacheKey(sportKey, markets)).Err()
}

// MemoryCache implementa Cache em memória pra testes e deployments sem Redis.
type MemoryCache struct {
	TTL time.Duration

	// Now permite injetar relógio nos testes; default time.Now.
	Now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	games    []Game
	cachedAt time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{TTL: ttl, Now: time.Now, entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, sportKey, markets string) ([]Game, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey(sportKey, markets)]
	if !ok {
		return nil, false, nil
	}
	if c.Now().Sub(e.cachedAt) >= c.TTL {
		delete(c.entries, cacheKey(sportKey, markets))
		return nil, false, nil
	}
	return e.games, true, nil
}

func (c *MemoryCache) Set(_ context.Context, sportKey, markets string, games []Game) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(sportKey, markets)] = memoryEntry{games: games, cachedAt: c.Now()}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, sportKey, markets string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(sportKey, markets))
	return nil
}

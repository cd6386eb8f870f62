package matrix

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Cache stores table responses so repeated solves over the same stops
// skip the routing service. Implementations are best-effort: a broken
// cache must never fail a solve.
type Cache interface {
	Get(ctx context.Context, key string) (*Matrices, bool)
	Put(ctx context.Context, key string, m *Matrices)
}

// cacheKey hashes profile + the exact coordinate list, so any change in
// stop set or order is a different entry.
func cacheKey(profile string, coords []Point) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|", profile)
	for _, p := range coords {
		fmt.Fprintf(h, "%f,%f;", p.Lng, p.Lat)
	}
	return "matrix:" + hex.EncodeToString(h.Sum(nil))
}

// RedisCache caches serialized Matrices with a TTL.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("matrix: parse redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Matrices, bool) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var m Matrices
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return &m, true
}

func (c *RedisCache) Put(ctx context.Context, key string, m *Matrices) {
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, key, data, c.ttl).Err()
}

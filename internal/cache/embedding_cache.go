// Package cache provides an optional caching decorator for the embed()
// contract (spec §6.3 "implementations may cache"), backed by Redis,
// following the teacher's use of redis/go-redis/v9 as the process-wide
// cache client (spec §5 "Shared resources... are process-wide").
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Tencent/kgsearch/internal/logger"
	"github.com/Tencent/kgsearch/internal/models/embedding"
)

// CachedEmbedder wraps an embedding.Embedder with a Redis-backed cache keyed
// by the SHA-256 of the input text, so identical queries across concurrent
// search calls (spec §5 "Multiple search calls run in parallel") skip the
// network round-trip.
type CachedEmbedder struct {
	inner embedding.Embedder
	rdb   *redis.Client
	ttl   time.Duration
	keyPrefix string
}

// NewCachedEmbedder decorates inner with a Redis cache. ttl <= 0 disables
// expiration.
func NewCachedEmbedder(inner embedding.Embedder, rdb *redis.Client, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, rdb: rdb, ttl: ttl, keyPrefix: "kgsearch:embed:"}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)
	if cached, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		if vec, ok := decodeVector(cached); ok {
			return vec, nil
		}
	} else if err != redis.Nil {
		logger.Warnf(ctx, "embedding cache read failed, falling back to embedder: %v", err)
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.rdb.Set(ctx, key, encodeVector(vec), c.ttl).Err(); err != nil {
		logger.Warnf(ctx, "embedding cache write failed: %v", err)
	}
	return vec, nil
}

func (c *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.keyPrefix + hex.EncodeToString(sum[:])
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, bool) {
	if len(buf)%4 != 0 {
		return nil, false
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, true
}

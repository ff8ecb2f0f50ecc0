package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mezonai/runtime/logx"
	"github.com/redis/go-redis/v9"
)

// RedisProvider implements IterableProvider for Redis. Every key is stored under namespace so
// several runtimes can share one Redis database.
type RedisProvider struct {
	client    *redis.Client
	ctx       context.Context
	namespace string
}

// NewRedisProvider connects to address and pings it before returning
func NewRedisProvider(address string, database int, namespace string) (*RedisProvider, error) {
	client := redis.NewClient(&redis.Options{
		Addr: address,
		DB:   database,
	})

	ctx := context.Background()

	// Test connection
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logx.Info("REDIS", "connected to ", address, " db ", database, " namespace ", namespace)
	return &RedisProvider{
		client:    client,
		ctx:       ctx,
		namespace: namespace,
	}, nil
}

func (p *RedisProvider) redisKey(key []byte) string {
	return p.namespace + string(key)
}

// Get retrieves a value by key
func (p *RedisProvider) Get(key []byte) ([]byte, error) {
	value, err := p.client.Get(p.ctx, p.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

// GetBatch uses MGET, missing keys are left out of the result
func (p *RedisProvider) GetBatch(keys [][]byte) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}
	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKeys[i] = p.redisKey(key)
	}
	values, err := p.client.MGet(p.ctx, redisKeys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if s, ok := v.(string); ok {
			result[string(keys[i])] = []byte(s)
		}
	}
	return result, nil
}

// Put stores a key-value pair
func (p *RedisProvider) Put(key, value []byte) error {
	return p.client.Set(p.ctx, p.redisKey(key), value, 0).Err()
}

// Delete removes a key-value pair
func (p *RedisProvider) Delete(key []byte) error {
	return p.client.Del(p.ctx, p.redisKey(key)).Err()
}

// Has checks if a key exists
func (p *RedisProvider) Has(key []byte) (bool, error) {
	count, err := p.client.Exists(p.ctx, p.redisKey(key)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Close closes the database connection
func (p *RedisProvider) Close() error {
	return p.client.Close()
}

// Batch queues operations in a MULTI/EXEC pipeline so they apply atomically
func (p *RedisProvider) Batch() DatabaseBatch {
	return &RedisBatch{
		provider: p,
		pipe:     p.client.TxPipeline(),
	}
}

// IteratePrefix implements IterableProvider for Redis using SCAN. Keys come back unordered.
// SCAN may return a key more than once, repeats are skipped.
func (p *RedisProvider) IteratePrefix(prefix []byte, fn func(key, value []byte) bool) error {
	pattern := escapeGlob(p.namespace+string(prefix)) + "*"
	seen := make(map[string]struct{})
	var cursor uint64
	for {
		keys, newCursor, err := p.client.Scan(p.ctx, cursor, pattern, 1000).Result()
		if err != nil {
			return err
		}
		cursor = newCursor
		for _, k := range keys {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			val, err := p.client.Get(p.ctx, k).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return err
			}
			if !fn([]byte(strings.TrimPrefix(k, p.namespace)), val) {
				return nil
			}
		}
		if cursor == 0 {
			break
		}
	}
	return nil
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax
func escapeGlob(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// RedisBatch implements DatabaseBatch for Redis
type RedisBatch struct {
	provider *RedisProvider
	pipe     redis.Pipeliner
}

func (b *RedisBatch) Put(key, value []byte) {
	b.pipe.Set(b.provider.ctx, b.provider.redisKey(key), value, 0)
}

func (b *RedisBatch) Delete(key []byte) {
	b.pipe.Del(b.provider.ctx, b.provider.redisKey(key))
}

func (b *RedisBatch) Write() error {
	if b.pipe.Len() == 0 {
		return nil
	}
	_, err := b.pipe.Exec(b.provider.ctx)
	return err
}

func (b *RedisBatch) Reset() {
	b.pipe.Discard()
}

func (b *RedisBatch) Close() error {
	b.pipe.Discard()
	return nil
}

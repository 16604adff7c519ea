package id

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultBlockSize is the number of ids reserved per Redis round trip.
const DefaultBlockSize = 100

// RedisAllocator reserves blocks of ids with INCRBY on a shared counter
// key and hands them out locally. The counter survives restarts; ids left
// unissued in a block when the process dies become gaps, never repeats.
type RedisAllocator struct {
	mu        sync.Mutex
	client    *redis.Client
	key       string
	blockSize int64
	next      int64
	max       int64
	logger    *zap.Logger
}

// NewRedisAllocator creates an allocator on the given counter key.
func NewRedisAllocator(client *redis.Client, key string, blockSize int64, logger *zap.Logger) *RedisAllocator {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RedisAllocator{
		client:    client,
		key:       key,
		blockSize: blockSize,
		next:      1, // forces a reservation on first Next
		logger:    logger,
	}
}

// Next issues the next id, reserving a fresh block from Redis when the
// current one is exhausted.
func (a *RedisAllocator) Next() (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.next > a.max {
		if err := a.reserve(); err != nil {
			return 0, err
		}
	}

	id := a.next
	a.next++
	return id, nil
}

func (a *RedisAllocator) reserve() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	upper, err := a.client.IncrBy(ctx, a.key, a.blockSize).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve id block: %w", err)
	}

	a.max = upper
	a.next = upper - a.blockSize + 1

	a.logger.Debug("reserved id block",
		zap.String("key", a.key),
		zap.Int64("from", a.next),
		zap.Int64("to", a.max),
	)

	return nil
}

// Ensure RedisAllocator implements Allocator
var _ Allocator = (*RedisAllocator)(nil)

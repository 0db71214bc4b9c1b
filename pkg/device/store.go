package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

// ConfigStore persists a simulated running configuration as rendered lines.
type ConfigStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, lines []string) error
}

// MemoryStore keeps the configuration in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	lines []string
}

// NewMemoryStore creates a store seeded with lines.
func NewMemoryStore(lines ...string) *MemoryStore {
	return &MemoryStore{lines: append([]string(nil), lines...)}
}

func (s *MemoryStore) Load(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...), nil
}

func (s *MemoryStore) Save(ctx context.Context, lines []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append([]string(nil), lines...)
	return nil
}

// RedisStore keeps the configuration in a Redis list, one line per
// element, so several processes can share a simulated device.
type RedisStore struct {
	client *redis.Client
	key    string
}

// RedisKey returns the list key used for a simulated device.
func RedisKey(device string) string {
	return fmt.Sprintf("cmdref:running:%s", device)
}

// NewRedisStore creates a store for device on the Redis server at addr.
func NewRedisStore(addr string, db int, device string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
		key: RedisKey(device),
	}
}

// Connect tests the connection.
func (s *RedisStore) Connect(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Load(ctx context.Context) ([]string, error) {
	lines, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load %s: %w", s.key, err)
	}
	return lines, nil
}

// Save replaces the stored list in one transaction.
func (s *RedisStore) Save(ctx context.Context, lines []string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(lines) > 0 {
			vals := make([]interface{}, len(lines))
			for i, l := range lines {
				vals[i] = l
			}
			pipe.RPush(ctx, s.key, vals...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save %s: %w", s.key, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

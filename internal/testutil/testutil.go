//go:build integration

// Package testutil connects integration tests to a throwaway Redis.
//
// Start one with:
//
//	docker run -d --name cmdref-test-redis redis:7
//
// or point CMDREF_TEST_REDIS_ADDR at any server. Tests use database 9 and
// flush it.
package testutil

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// TestDB is the Redis database integration tests own.
const TestDB = 9

const containerName = "cmdref-test-redis"

// Redis is a flushed test database.
type Redis struct {
	Addr   string
	Client *redis.Client
}

// NewRedis connects to the test server and flushes TestDB, skipping the
// test when no server is reachable.
func NewRedis(t *testing.T) *Redis {
	t.Helper()
	addr := redisAddr()
	if addr == "" {
		t.Skipf("test Redis not available: docker run -d --name %s redis:7", containerName)
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: TestDB})
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("test Redis not reachable at %s: %v", addr, err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flushing DB %d: %v", TestDB, err)
	}
	return &Redis{Addr: addr, Client: client}
}

// redisAddr checks CMDREF_TEST_REDIS_ADDR, then the container's IP.
func redisAddr() string {
	if addr := os.Getenv("CMDREF_TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	out, err := exec.Command("docker", "inspect",
		"--format", "{{range .NetworkSettings.Networks}}{{.IPAddress}}{{end}}",
		containerName).Output()
	if err != nil {
		return ""
	}
	ip := strings.TrimSpace(string(out))
	if ip == "" {
		return ""
	}
	return ip + ":6379"
}

// Seed replaces the list at key with lines.
func (r *Redis) Seed(t *testing.T, key string, lines ...string) {
	t.Helper()
	ctx := context.Background()
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		for _, l := range lines {
			pipe.RPush(ctx, key, l)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seeding %s: %v", key, err)
	}
}

// List returns the list stored at key.
func (r *Redis) List(t *testing.T, key string) []string {
	t.Helper()
	vals, err := r.Client.LRange(context.Background(), key, 0, -1).Result()
	if err != nil {
		t.Fatalf("reading %s: %v", key, err)
	}
	return vals
}

// Context returns a context that times out after 30s and is cancelled
// when the test ends.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

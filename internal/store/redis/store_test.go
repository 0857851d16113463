package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testClient connects to STEAMJUMP_TEST_REDIS_ADDR or skips.
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("STEAMJUMP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STEAMJUMP_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestKeys(t *testing.T) {
	if got := DocumentKey(""); got != DefaultDocumentKey {
		t.Errorf("DocumentKey(\"\") = %q", got)
	}
	if got := LockKey("a:b"); got != "a:b:lock" {
		t.Errorf("LockKey() = %q", got)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	client := testClient(t)
	key := "steamjump:test:" + t.Name()
	t.Cleanup(func() { client.Del(context.Background(), key, LockKey(key)) })

	s := NewStore(client, key, time.Second)
	ctx := context.Background()

	data, err := s.Load(ctx)
	if err != nil || data != nil {
		t.Fatalf("Load() on missing key = %q, %v", data, err)
	}
	if err := s.Save(ctx, []byte(`{"version":2}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err = s.Load(ctx)
	if err != nil || string(data) != `{"version":2}` {
		t.Errorf("Load() = %q, %v", data, err)
	}
}

func TestStoreLock(t *testing.T) {
	client := testClient(t)
	key := "steamjump:test:" + t.Name()
	t.Cleanup(func() { client.Del(context.Background(), key, LockKey(key)) })

	s := NewStore(client, key, time.Second)
	ctx := context.Background()

	release, err := s.Lock(ctx)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 80*time.Millisecond)
	defer cancel()
	if _, err := s.Lock(waitCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Lock() error = %v", err)
	}

	if err := release(); err != nil {
		t.Fatalf("release() error = %v", err)
	}
	release, err = s.Lock(ctx)
	if err != nil {
		t.Fatalf("Lock() after release error = %v", err)
	}
	_ = release()
}

package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultLockTTL bounds how long a crashed writer can hold the lock
	DefaultLockTTL = 2 * time.Minute

	lockRetryInterval = 25 * time.Millisecond
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Store persists the cache document in one Redis key
type Store struct {
	client  redis.UniversalClient
	key     string
	lockTTL time.Duration
}

// NewStore creates a new Redis persister
func NewStore(client redis.UniversalClient, key string, lockTTL time.Duration) *Store {
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &Store{
		client:  client,
		key:     DocumentKey(key),
		lockTTL: lockTTL,
	}
}

// Describe returns the document key
func (s *Store) Describe() string {
	return "redis:" + s.key
}

// Load retrieves the document, nil when the key does not exist
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache document: %w", err)
	}
	return data, nil
}

// Save replaces the document. SET is atomic, readers never see a partial value.
func (s *Store) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save cache document: %w", err)
	}
	return nil
}

// Lock acquires the writer lock with SET NX PX and a random token.
// The lock expires on its own if the holder dies.
func (s *Store) Lock(ctx context.Context) (func() error, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	lockKey := LockKey(s.key)

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := s.client.SetNX(ctx, lockKey, token, s.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire cache lock: %w", err)
		}
		if ok {
			return func() error {
				// Release must run even when the caller's context is done.
				rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := releaseScript.Run(rctx, s.client, []string{lockKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
					return fmt.Errorf("failed to release cache lock: %w", err)
				}
				return nil
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func newToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to generate lock token: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the relay slot in Redis so that producer and consumer
// sequences can run in separate processes against the same host console.
type RedisStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect failed: %w", err)
	}

	return &RedisStore{
		client: rdb,
		key:    SlotKey,
		now:    time.Now,
	}, nil
}

// Client returns the underlying Redis client.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Put stores the payload in the slot, replacing any previous one.
//
// No key-level expiry is set: staleness has a single definition
// (Payload.Stale) shared by Get and the Sweeper, rather than a second clock
// inside Redis.
func (s *RedisStore) Put(ctx context.Context, p Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("write relay slot: %w", err)
	}
	return nil
}

// Get returns the stored payload, or nil when the slot is empty or stale.
// A stale payload is purged before returning.
//
// Get and a concurrent Put from another session can race; the design accepts
// this, since a lost payload only produces the silent "no data" path.
func (s *RedisStore) Get(ctx context.Context) (*Payload, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read relay slot: %w", err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		// An unreadable slot is as good as a stale one: purge and move on.
		_ = s.client.Del(ctx, s.key).Err()
		return nil, nil
	}

	if p.Stale(s.now()) {
		if err := s.Delete(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &p, nil
}

// Delete clears the slot.
func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("delete relay slot: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

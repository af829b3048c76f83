package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/redis"
)

// Store persists cart snapshots per session. Update applies fn to the stored
// snapshot atomically; fn may run more than once.
type Store interface {
	Load(ctx context.Context, sessionID string) (Snapshot, bool, error)
	Update(ctx context.Context, sessionID string, fn func(Snapshot) (Snapshot, error)) (Snapshot, error)
	Delete(ctx context.Context, sessionID string) error
}

type redisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Update(ctx context.Context, key string, ttl time.Duration, fn func(current string, exists bool) (string, error)) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// RedisStore keeps snapshots as JSON strings with a sliding TTL.
type RedisStore struct {
	client redisClient
	ttl    time.Duration
}

func NewRedisStore(client redisClient, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if ttl < 0 {
		return nil, errors.New("cart ttl must be non-negative")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (Snapshot, bool, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	snap, ok := decodeSnapshot(raw)
	return snap, ok, nil
}

// Update saves fn's result with the store TTL; an empty result deletes the key.
func (s *RedisStore) Update(ctx context.Context, sessionID string, fn func(Snapshot) (Snapshot, error)) (Snapshot, error) {
	var result Snapshot
	err := s.client.Update(ctx, s.client.CartKey(sessionID), s.ttl, func(current string, exists bool) (string, error) {
		var snap Snapshot
		if exists {
			snap, _ = decodeSnapshot(current)
		}
		next, err := fn(snap)
		if err != nil {
			return "", err
		}
		result = next
		if len(next.Items) == 0 {
			return "", nil
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
		}
		return string(payload), nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return Snapshot{}, err
		}
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart")
	}
	return result, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.client.CartKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}

// decodeSnapshot treats a corrupt payload as an empty cart.
func decodeSnapshot(raw string) (Snapshot, bool) {
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, false
	}
	return snap, true
}

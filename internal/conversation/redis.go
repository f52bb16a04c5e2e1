package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists conversation state as one JSON blob per user, with an
// optional TTL refreshed on every write.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) stateKey(userID string) string {
	return fmt.Sprintf("conversation:%s:state", userID)
}

func (s *RedisStore) Get(ctx context.Context, userID string) (State, error) {
	raw, err := s.rdb.Get(ctx, s.stateKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("load conversation state: %w", err)
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return State{}, fmt.Errorf("unmarshal conversation state: %w", err)
	}
	return state, nil
}

func (s *RedisStore) Put(ctx context.Context, userID string, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal conversation state: %w", err)
	}
	if err := s.rdb.Set(ctx, s.stateKey(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store conversation state: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/CroosRRAF/ChefSync-sub012/internal/entity"
	"github.com/CroosRRAF/ChefSync-sub012/internal/usecase"
)

// RedisCartStore keeps cart sessions in redis as a JSON array of lines.
// The TTL lets abandoned carts expire on their own.
type RedisCartStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCartStore(rdb *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{rdb: rdb, ttl: ttl}
}

func cartKey(cartID string) string { return "cart:lines:" + cartID }

func (s *RedisCartStore) Load(ctx context.Context, cartID string) ([]domain.CartLine, error) {
	raw, err := s.rdb.Get(ctx, cartKey(cartID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", cartID, err)
	}
	var lines []domain.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", cartID, err)
	}
	return lines, nil
}

func (s *RedisCartStore) Save(ctx context.Context, cartID string, lines []domain.CartLine) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", cartID, err)
	}
	return s.rdb.Set(ctx, cartKey(cartID), raw, s.ttl).Err()
}

func (s *RedisCartStore) Clear(ctx context.Context, cartID string) error {
	return s.rdb.Del(ctx, cartKey(cartID)).Err()
}

var _ usecase.CartStore = (*RedisCartStore)(nil)

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
)

// DefaultGiftTTL bounds how long a mirrored gift survives without being rewritten.
const DefaultGiftTTL = 30 * 24 * time.Hour

// Store mirrors parsed gift metadata into Redis so that other instances and
// restarts can skip the page fetch.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		ttl:    DefaultGiftTTL,
	}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SaveGift stores a gift in Redis
func (s *Store) SaveGift(ctx context.Context, gift *domain.Gift) error {
	data, err := json.Marshal(gift)
	if err != nil {
		return fmt.Errorf("failed to marshal gift: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, GiftKey(gift.Slug), data, s.ttl)
	pipe.SAdd(ctx, AllGiftsKey(), gift.Slug)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save gift: %w", err)
	}

	return nil
}

// GetGift retrieves a gift by slug. A missing key is not an error: it
// returns nil, nil.
func (s *Store) GetGift(ctx context.Context, slug string) (*domain.Gift, error) {
	data, err := s.client.Get(ctx, GiftKey(slug)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get gift: %w", err)
	}

	var gift domain.Gift
	if err := json.Unmarshal(data, &gift); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gift %s: %w", slug, err)
	}

	return &gift, nil
}

// GetAllGifts retrieves every mirrored gift. Slugs whose key expired are
// pruned from the set.
func (s *Store) GetAllGifts(ctx context.Context) ([]*domain.Gift, error) {
	slugs, err := s.client.SMembers(ctx, AllGiftsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get gift slugs: %w", err)
	}

	if len(slugs) == 0 {
		return []*domain.Gift{}, nil
	}

	keys := make([]string, len(slugs))
	for i, slug := range slugs {
		keys[i] = GiftKey(slug)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get gifts: %w", err)
	}

	gifts := make([]*domain.Gift, 0, len(values))
	var stale []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, slugs[i])
			continue
		}
		var gift domain.Gift
		if err := json.Unmarshal([]byte(raw), &gift); err != nil {
			// Skip entries that cannot be decoded
			continue
		}
		gifts = append(gifts, &gift)
	}

	if len(stale) > 0 {
		if err := s.client.SRem(ctx, AllGiftsKey(), stale...).Err(); err != nil {
			return gifts, fmt.Errorf("failed to prune expired slugs: %w", err)
		}
	}

	return gifts, nil
}

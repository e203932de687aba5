package index

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
	"github.com/MrSnakeDoc/giftgate/internal/logger"
	"github.com/MrSnakeDoc/giftgate/internal/metrics"
)

// ParseFunc turns page markup into gift metadata for slug.
type ParseFunc func(markup, slug string) (*domain.Gift, error)

// MarkupProvider fetches the markup of a gift page on a cache miss.
type MarkupProvider func() (string, error)

// GiftMirror is an optional secondary store consulted on a memory miss.
type GiftMirror interface {
	GetGift(ctx context.Context, slug string) (*domain.Gift, error) // nil, nil on miss
	SaveGift(ctx context.Context, gift *domain.Gift) error
}

// GiftIndex memoizes parsed gift metadata by slug for the process lifetime.
// The first successful parse for a slug is authoritative: entries are never
// replaced, invalidated or evicted.
type GiftIndex struct {
	mu     sync.RWMutex
	gifts  map[string]*domain.Gift
	flight singleflight.Group

	parse  ParseFunc
	mirror GiftMirror
	logger logger.Logger
}

// NewGiftIndex creates an empty index. mirror may be nil.
func NewGiftIndex(parse ParseFunc, mirror GiftMirror, log logger.Logger) *GiftIndex {
	return &GiftIndex{
		gifts:  make(map[string]*domain.Gift),
		parse:  parse,
		mirror: mirror,
		logger: log,
	}
}

// GetOrCreate returns the metadata for slug. On a hit the provider is not
// invoked. Concurrent misses for the same slug share one fetch and parse and
// all observe the same *Gift. Failures are returned unchanged and not cached.
func (idx *GiftIndex) GetOrCreate(ctx context.Context, slug string, provider MarkupProvider) (*domain.Gift, error) {
	if gift, ok := idx.Lookup(slug); ok {
		metrics.ObserveCacheLookup(metrics.CacheHit)
		return gift, nil
	}

	// The shared work must not be abandoned because one waiting caller went away.
	ctx = context.WithoutCancel(ctx)

	v, err, shared := idx.flight.Do(slug, func() (any, error) {
		// A previous flight may have completed between Lookup and Do.
		if gift, ok := idx.Lookup(slug); ok {
			metrics.ObserveCacheLookup(metrics.CacheHit)
			return gift, nil
		}

		if gift := idx.fromMirror(ctx, slug); gift != nil {
			metrics.ObserveCacheLookup(metrics.CacheMirror)
			return idx.store(gift), nil
		}

		metrics.ObserveCacheLookup(metrics.CacheMiss)
		markup, err := provider()
		if err != nil {
			return nil, err
		}
		gift, err := idx.parse(markup, slug)
		if err != nil {
			return nil, err
		}

		gift = idx.store(gift)
		idx.toMirror(ctx, gift)
		return gift, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		idx.logger.Debug("gift lookup coalesced", logger.String("slug", slug))
	}
	return v.(*domain.Gift), nil
}

// Lookup returns the cached metadata for slug without fetching.
func (idx *GiftIndex) Lookup(slug string) (*domain.Gift, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	gift, ok := idx.gifts[slug]
	return gift, ok
}

// Warm inserts gifts whose slug is not cached yet and returns how many were added.
func (idx *GiftIndex) Warm(gifts []*domain.Gift) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	added := 0
	for _, gift := range gifts {
		if gift == nil || gift.Slug == "" {
			continue
		}
		if _, ok := idx.gifts[gift.Slug]; ok {
			continue
		}
		idx.gifts[gift.Slug] = gift
		added++
	}
	return added
}

// Count returns the number of cached gifts.
func (idx *GiftIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.gifts)
}

// store keeps an existing entry if one appeared meanwhile (e.g. via Warm)
// and returns whichever value is authoritative.
func (idx *GiftIndex) store(gift *domain.Gift) *domain.Gift {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.gifts[gift.Slug]; ok {
		return existing
	}
	idx.gifts[gift.Slug] = gift
	return gift
}

func (idx *GiftIndex) fromMirror(ctx context.Context, slug string) *domain.Gift {
	if idx.mirror == nil {
		return nil
	}
	gift, err := idx.mirror.GetGift(ctx, slug)
	if err != nil {
		idx.logger.Warn("gift mirror read failed", logger.String("slug", slug), logger.Error(err))
		return nil
	}
	if gift == nil || gift.Slug != slug {
		return nil
	}
	return gift
}

func (idx *GiftIndex) toMirror(ctx context.Context, gift *domain.Gift) {
	if idx.mirror == nil {
		return
	}
	if err := idx.mirror.SaveGift(ctx, gift); err != nil {
		idx.logger.Warn("gift mirror write failed", logger.String("slug", gift.Slug), logger.Error(err))
	}
}

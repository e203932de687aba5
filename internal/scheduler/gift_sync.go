package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
	"github.com/MrSnakeDoc/giftgate/internal/index"
	"github.com/MrSnakeDoc/giftgate/internal/logger"
)

// GiftSource lists gifts persisted outside the process.
type GiftSource interface {
	GetAllGifts(ctx context.Context) ([]*domain.Gift, error)
}

// GiftSyncer warms the gift index from the Redis mirror on startup
type GiftSyncer struct {
	source GiftSource
	index  *index.GiftIndex
	logger logger.Logger
}

// NewGiftSyncer creates a new gift syncer
func NewGiftSyncer(source GiftSource, idx *index.GiftIndex, log logger.Logger) *GiftSyncer {
	return &GiftSyncer{
		source: source,
		index:  idx,
		logger: log,
	}
}

// Sync loads mirrored gifts into the memory index. Slugs already cached are
// left untouched. Gifts returned alongside a source error are still loaded.
func (gs *GiftSyncer) Sync(ctx context.Context) error {
	gs.logger.Info("syncing gifts from redis to memory")

	gifts, err := gs.source.GetAllGifts(ctx)
	if len(gifts) == 0 {
		if err == nil {
			gs.logger.Info("no gifts found in redis")
		}
		return err
	}

	added := gs.index.Warm(gifts)

	gs.logger.Info("synced gifts from redis",
		logger.Int("found", len(gifts)),
		logger.Int("added", added))

	return err
}

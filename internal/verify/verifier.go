package verify

import (
	"context"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
	"github.com/MrSnakeDoc/giftgate/internal/index"
	"github.com/MrSnakeDoc/giftgate/internal/logger"
	"github.com/MrSnakeDoc/giftgate/internal/metrics"
)

// Verifier answers "does this account own the gift at this URL".
type Verifier struct {
	gifts        *index.GiftIndex
	fetcher      PageFetcher
	owners       *OwnerResolver
	allowedHosts []string
	logger       logger.Logger
}

// NewVerifier wires the pipeline. allowedHosts restricts which gift page
// hosts are accepted; empty accepts any host.
func NewVerifier(gifts *index.GiftIndex, fetcher PageFetcher, owners *OwnerResolver, allowedHosts []string, log logger.Logger) *Verifier {
	return &Verifier{
		gifts:        gifts,
		fetcher:      fetcher,
		owners:       owners,
		allowedHosts: allowedHosts,
		logger:       log,
	}
}

// Verify returns the gift metadata when the claimed owner is the current
// owner. Errors are *domain.Error values returned unchanged from the step
// that produced them. Once started, a verification runs to completion even
// if ctx is canceled.
func (v *Verifier) Verify(ctx context.Context, claim domain.OwnershipClaim) (*domain.Gift, error) {
	gift, err := v.verify(context.WithoutCancel(ctx), claim)
	v.observe(claim, err)
	return gift, err
}

func (v *Verifier) verify(ctx context.Context, claim domain.OwnershipClaim) (*domain.Gift, error) {
	pageURL := domain.NormalizeURL(claim.URL)
	if !domain.HostAllowed(pageURL, v.allowedHosts) {
		return nil, domain.NewError(domain.KindInvalidURL, "unsupported gift host")
	}

	slug, err := domain.SlugFromURL(pageURL)
	if err != nil {
		return nil, err
	}

	gift, err := v.gifts.GetOrCreate(ctx, slug, func() (string, error) {
		return v.fetcher.Fetch(pageURL)
	})
	if err != nil {
		return nil, err
	}

	handle, err := v.owners.CurrentOwner(pageURL)
	if err != nil {
		return nil, err
	}

	ownerID, err := v.owners.LookupIdentity(ctx, handle)
	if err != nil {
		return nil, err
	}

	// Only a user account can be the claimant; channel and chat ids are negative.
	if ownerID <= 0 || ownerID != claim.ClaimedOwnerID {
		return nil, domain.NewError(domain.KindNotOwner, "you are not the owner")
	}
	return gift, nil
}

func (v *Verifier) observe(claim domain.OwnershipClaim, err error) {
	if err == nil {
		metrics.ObserveVerification("owned")
		v.logger.Info("ownership verified",
			logger.String("url", claim.URL),
			logger.Int64("user_id", claim.ClaimedOwnerID))
		return
	}

	kind, ok := domain.KindOf(err)
	if !ok {
		kind = "error"
	}
	metrics.ObserveVerification(string(kind))
	v.logger.Info("ownership rejected",
		logger.String("url", claim.URL),
		logger.Int64("user_id", claim.ClaimedOwnerID),
		logger.String("kind", string(kind)),
		logger.Error(err))
}

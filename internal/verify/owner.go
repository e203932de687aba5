package verify

import (
	"context"

	"github.com/MrSnakeDoc/giftgate/internal/sources/fragment"
)

// PageFetcher retrieves the markup of a gift page.
type PageFetcher interface {
	Fetch(url string) (string, error)
}

// IdentityLookup maps a public handle to a numeric account id.
type IdentityLookup interface {
	LookupID(ctx context.Context, handle string) (int64, error)
}

// OwnerResolver finds who currently owns a gift. It never caches: ownership
// can change between two calls even though the metadata cannot.
type OwnerResolver struct {
	fetcher  PageFetcher
	identity IdentityLookup
	profile  fragment.Profile
}

func NewOwnerResolver(fetcher PageFetcher, identity IdentityLookup, profile fragment.Profile) *OwnerResolver {
	return &OwnerResolver{
		fetcher:  fetcher,
		identity: identity,
		profile:  profile,
	}
}

// CurrentOwner fetches url and returns the owner handle shown on the page.
func (r *OwnerResolver) CurrentOwner(url string) (string, error) {
	markup, err := r.fetcher.Fetch(url)
	if err != nil {
		return "", err
	}
	return fragment.ParseOwnerHandle(markup, r.profile)
}

// LookupIdentity resolves handle to its numeric account id.
func (r *OwnerResolver) LookupIdentity(ctx context.Context, handle string) (int64, error) {
	return r.identity.LookupID(ctx, handle)
}

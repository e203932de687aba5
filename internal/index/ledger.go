package index

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
)

// Ledger is the in-memory marketplace: an ordered list of active listings
// where insertion order is display order.
type Ledger struct {
	mu       sync.Mutex
	listings []*domain.Listing
	now      func() time.Time
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// Add appends a listing unconditionally, assigning its id and listing time.
// Duplicates, including same seller and slug, are accepted.
func (l *Ledger) Add(gift *domain.Gift, sellerID int64, price float64) *domain.Listing {
	listing := &domain.Listing{
		ID:       uuid.NewString(),
		Gift:     gift,
		SellerID: sellerID,
		Price:    price,
		ListedAt: l.now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.listings = append(l.listings, listing)
	return listing
}

// Remove deletes the first listing matching slug and seller.
func (l *Ledger) Remove(slug string, sellerID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, listing := range l.listings {
		if listing.SellerID != sellerID || listing.Gift == nil || listing.Gift.Slug != slug {
			continue
		}
		l.listings = slices.Delete(l.listings, i, i+1)
		return nil
	}
	return domain.NewError(domain.KindNotFound, "listing not found")
}

// List returns a snapshot of the listings in insertion order.
func (l *Ledger) List() []*domain.Listing {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*domain.Listing, len(l.listings))
	copy(out, l.listings)
	return out
}

// Count returns the number of active listings.
func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.listings)
}

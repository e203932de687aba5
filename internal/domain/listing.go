package domain

import "time"

// Listing is an offer to sell one gift. Gift is shared with the metadata
// index when the slug was already resolved there, never copied.
type Listing struct {
	ID       string    `json:"id"`
	Gift     *Gift     `json:"gift"`
	SellerID int64     `json:"sellerId"`
	Price    float64   `json:"price"`
	ListedAt time.Time `json:"listedAt"`
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
	"github.com/MrSnakeDoc/giftgate/internal/httpserver/deps"
	"github.com/MrSnakeDoc/giftgate/internal/logger"
)

type sellRequest struct {
	Gift     *domain.Gift `json:"gift"`
	SellerID int64        `json:"sellerId"`
	Price    *float64     `json:"price"`
}

type sellRemoveRequest struct {
	Slug     string `json:"slug"`
	SellerID int64  `json:"sellerId"`
}

type sellListResponse struct {
	List []*domain.Listing `json:"list"`
}

// Sell appends a listing. When the slug has already been resolved the cached
// metadata is attached instead of the client supplied copy.
func Sell(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sellRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", errTypeInvalidBody)
			return
		}
		if req.Gift == nil || req.Gift.Slug == "" || req.SellerID == 0 || req.Price == nil {
			writeError(w, http.StatusBadRequest, "Missing fields", errTypeMissingParams)
			return
		}

		gift := req.Gift
		if cached, ok := d.Gifts.Lookup(gift.Slug); ok {
			gift = cached
		}

		listing := d.Ledger.Add(gift, req.SellerID, *req.Price)
		d.Logger.Info("gift listed",
			logger.String("listing_id", listing.ID),
			logger.String("slug", gift.Slug),
			logger.Int64("seller_id", req.SellerID),
			logger.Float64("price", *req.Price))

		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

// SellRemove withdraws the first listing of slug by sellerId.
func SellRemove(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sellRemoveRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", errTypeInvalidBody)
			return
		}
		if req.Slug == "" || req.SellerID == 0 {
			writeError(w, http.StatusBadRequest, "Missing fields", errTypeMissingParams)
			return
		}

		if err := d.Ledger.Remove(req.Slug, req.SellerID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Not found", string(domain.KindNotFound))
				return
			}
			writeDomainError(w, err, d.Logger)
			return
		}

		d.Logger.Info("gift unlisted",
			logger.String("slug", req.Slug),
			logger.Int64("seller_id", req.SellerID))
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

// SellList returns the active listings in insertion order.
func SellList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sellListResponse{List: d.Ledger.List()})
	}
}

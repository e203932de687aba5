package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
	"github.com/MrSnakeDoc/giftgate/internal/httpserver/deps"
)

type checkGiftRequest struct {
	URL    string `json:"url"`
	UserID int64  `json:"userId"`
}

type checkGiftResponse struct {
	Owned bool         `json:"owned"`
	Gift  *domain.Gift `json:"gift"`
}

// CheckGift verifies that userId currently owns the gift at url.
func CheckGift(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkGiftRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", errTypeInvalidBody)
			return
		}

		req.URL = strings.TrimSpace(req.URL)
		if req.URL == "" || req.UserID == 0 {
			writeError(w, http.StatusBadRequest, "Missing url or userId", errTypeMissingParams)
			return
		}

		gift, err := d.Verifier.Verify(r.Context(), domain.OwnershipClaim{
			URL:            req.URL,
			ClaimedOwnerID: req.UserID,
		})
		if err != nil {
			writeDomainError(w, err, d.Logger)
			return
		}

		writeJSON(w, http.StatusOK, checkGiftResponse{Owned: true, Gift: gift})
	}
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/giftgate/internal/httpserver/deps"
	"github.com/MrSnakeDoc/giftgate/internal/logger"
)

type initRequest struct {
	InitData       string `json:"initData"`
	InitDataUnsafe struct {
		User *struct {
			ID int64 `json:"id"`
		} `json:"user"`
	} `json:"initDataUnsafe"`
}

type initResponse struct {
	Balance  int    `json:"balance"`
	UniqueID string `json:"unique_id"`
}

// Init registers a mini-app session. initData is required but not verified
// against the bot token: the user id is taken from initDataUnsafe as sent.
func Init(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req initRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid init payload", errTypeInvalidInit)
			return
		}

		user := req.InitDataUnsafe.User
		if req.InitData == "" || user == nil || user.ID == 0 {
			writeError(w, http.StatusBadRequest, "Invalid init payload", errTypeInvalidInit)
			return
		}

		d.Logger.Info("mini-app init", logger.Int64("user_id", user.ID))
		writeJSON(w, http.StatusOK, initResponse{
			Balance:  0,
			UniqueID: "U" + strconv.FormatInt(user.ID, 10),
		})
	}
}

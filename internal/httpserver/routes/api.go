package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/giftgate/internal/httpserver/deps"
	"github.com/MrSnakeDoc/giftgate/internal/httpserver/handlers"
)

func init() { Register(registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/init", handlers.Init(d))
		r.Post("/check-gift", handlers.CheckGift(d))
		r.Post("/sell", handlers.Sell(d))
		r.Post("/sell-remove", handlers.SellRemove(d))
		r.Get("/sell-list", handlers.SellList(d))
	})
}

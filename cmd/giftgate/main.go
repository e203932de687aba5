package main

import (
	"log"

	"github.com/MrSnakeDoc/giftgate/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ giftgate failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ giftgate stopped with error: %v", err)
	}
}

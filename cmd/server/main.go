package main

import (
	"log"

	"github.com/besservanja-cell/OutreachAI/app"
)

func main() {
	app.MustInitDB()
	app.MustInitGenerator()
	app.MustInitBilling()
	router, err := app.NewRouter()
	if err != nil {
		log.Fatalf("failed to initialize router: %v", err)
	}
	router.Run("0.0.0.0:8080")
}

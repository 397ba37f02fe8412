package main

import (
	"context"
	"log"

	"github.com/lvminh/farmdiary/internal/app"
	"github.com/lvminh/farmdiary/internal/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	a, err := app.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}

package main

import (
	"context"
	"log"
	"os"

	"github.com/memahdii/social-network/internal/server"
	"github.com/memahdii/social-network/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}

	app.Run(ctx)
}

package main

import (
	"log"
	"os"

	"discord-automod/bot"
	"discord-automod/config"
	"discord-automod/handlers"
	"discord-automod/utils/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err := os.MkdirAll("./data", os.ModePerm); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	db, err := database.Init(cfg.DBPath)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	store := database.NewStore(db)
	defer store.Close()

	b, err := bot.New(cfg, store)
	if err != nil {
		log.Fatalf("Error creating bot: %v", err)
	}

	handlers.Register(b)

	b.Run()

	b.Close()
}

package bot

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"discord-automod/utils"
)

func (b *Bot) Run() {
	err := b.Session.Open()
	if err != nil {
		log.Fatalf("Error opening connection: %v", err)
	}

	b.scheduler.Start()

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	if err := utils.LogInfo(b.Session, b.GetConfig().LogChannelID, "System", "Startup", "Auto-moderation bot has started successfully."); err != nil {
		log.Printf("Failed to send startup log: %v", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
}

package handlers

import (
	"log"

	"discord-automod/automod"
	"discord-automod/bot"

	"github.com/bwmarrin/discordgo"
)

// Register attaches the moderation event handlers to the session. discordgo
// dispatches each event on its own goroutine, so message and join handling
// overlap across guilds and users.
func Register(b *bot.Bot) {
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
	})

	b.Session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot || m.GuildID == "" {
			return
		}
		if s.State.User != nil && m.Author.ID == s.State.User.ID {
			return
		}
		b.Moderator.HandleMessage(automod.MessageEvent{
			GuildID:     m.GuildID,
			UserID:      m.Author.ID,
			Username:    m.Author.Username,
			Content:     m.Content,
			Attachments: len(m.Attachments),
			Mentions:    len(m.Mentions),
		})
	})

	b.Session.AddHandler(func(s *discordgo.Session, g *discordgo.GuildMemberAdd) {
		if g.User == nil || g.User.Bot {
			return
		}
		b.Moderator.HandleJoin(automod.JoinEvent{
			GuildID:  g.GuildID,
			UserID:   g.User.ID,
			Username: g.User.Username,
		})
	})
}

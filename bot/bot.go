package bot

import (
	"log"
	"sync/atomic"

	"discord-automod/automod"
	"discord-automod/model"
	"discord-automod/punish"
	"discord-automod/utils"
	"discord-automod/utils/database"

	"github.com/bwmarrin/discordgo"
)

type Bot struct {
	Session   *discordgo.Session
	Store     *database.Store
	Moderator *automod.Moderator
	Punisher  *punish.Scheduler

	config    atomic.Value // *model.Config
	scheduler *Scheduler
}

func (b *Bot) GetConfig() *model.Config {
	return b.config.Load().(*model.Config)
}

// New builds the session, the rule engine and the punishment scheduler.
// Nothing is started until Run.
func New(cfg *model.Config, store *database.Store) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent | discordgo.IntentsGuildMembers
	dg.StateEnabled = false

	transport := NewDiscordTransport(dg)
	reporter := utils.NewChannelReporter(dg, cfg.LogChannelID)
	punisher := punish.NewScheduler(store, store, transport, reporter, cfg.Automod.PollInterval)

	rates := automod.NewRateTracker()
	moderator := automod.NewModerator(
		store,
		automod.NewMatcher(cfg.Automod.RegexTimeout),
		automod.NewSpamEvaluator(store, rates, cfg.Automod.LongMessageLength),
		automod.NewRaidEvaluator(store, rates),
		automod.NewEscalationTracker(),
		punish.NewRoleManager(store),
		punisher,
		store,
		store,
		transport,
		reporter,
	)

	b := &Bot{
		Session:   dg,
		Store:     store,
		Moderator: moderator,
		Punisher:  punisher,
	}
	b.config.Store(cfg)
	b.scheduler = NewScheduler(b)
	return b, nil
}

func (b *Bot) Close() {
	log.Println("Gracefully shutting down.")
	b.scheduler.Stop()
	b.Session.Close()
}

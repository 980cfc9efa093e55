package bot

import (
	"log"
	"time"

	"discord-automod/tasks"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the background work: the punishment reversal loop and
// the cron-driven moderation stats reports.
type Scheduler struct {
	bot  *Bot
	cron *cron.Cron
}

func NewScheduler(bot *Bot) *Scheduler {
	return &Scheduler{
		bot:  bot,
		cron: cron.New(),
	}
}

// Start launches the punishment scheduler and registers the stats jobs.
func (s *Scheduler) Start() {
	s.bot.Punisher.Start()

	cfg := s.bot.GetConfig()
	if cfg.DisableStatsReports || len(cfg.StatsChannels) == 0 {
		log.Println("Moderation stats reports are disabled.")
		return
	}

	if _, err := s.cron.AddFunc(cfg.Automod.StatsRefreshCron, func() {
		s.updateStats(24 * time.Hour)
	}); err != nil {
		log.Printf("Failed to register stats refresh job: %v", err)
	}
	if _, err := s.cron.AddFunc(cfg.Automod.DailyReportCron, func() {
		s.updateStats(7 * 24 * time.Hour)
	}); err != nil {
		log.Printf("Failed to register daily report job: %v", err)
	}
	s.cron.Start()
}

// Stop terminates all scheduled tasks gracefully.
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.bot.Punisher.Stop()
	log.Println("Scheduler stopped.")
}

func (s *Scheduler) updateStats(window time.Duration) {
	for _, channelConfig := range s.bot.GetConfig().StatsChannels {
		go tasks.UpdateModerationStats(s.bot.Session, s.bot.Store, channelConfig, window)
	}
}

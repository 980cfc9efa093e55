package model

import "time"

// Config is the process configuration, loaded from the environment and the
// automod defaults file.
type Config struct {
	BotToken            string
	LogChannelID        string
	DBPath              string
	DisableStatsReports bool
	Automod             AutomodConfig
	StatsChannels       []StatsChannel
}

// AutomodConfig tunes the rule engine and the punishment scheduler.
type AutomodConfig struct {
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	RegexTimeout      time.Duration `mapstructure:"regex_timeout"`
	LongMessageLength int           `mapstructure:"long_message_length"`
	StatsRefreshCron  string        `mapstructure:"stats_refresh_cron"`
	DailyReportCron   string        `mapstructure:"daily_report_cron"`
}

// StatsChannel is a channel that receives periodic moderation stats embeds.
type StatsChannel struct {
	GuildID   string `mapstructure:"guild_id"`
	ChannelID string `mapstructure:"channel_id"`
}

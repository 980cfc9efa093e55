package config

import (
	"errors"
	"log"
	"os"
	"reflect"
	"time"

	"discord-automod/model"
	"discord-automod/utils"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads the configuration from environment variables and the automod
// defaults file (data/automod.yaml).
func Load() (*model.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: .env file not found, relying on environment variables")
	}

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		log.Fatal("Error: BOT_TOKEN environment variable not set")
	}

	logChannelID := os.Getenv("LOG_CHANNEL_ID")
	if logChannelID == "" {
		log.Println("Warning: LOG_CHANNEL_ID not set, failure reports will only go to the process log")
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "data/automod.db"
	}

	cfg := &model.Config{
		BotToken:            token,
		LogChannelID:        logChannelID,
		DBPath:              dbPath,
		DisableStatsReports: os.Getenv("DISABLE_STATS_REPORTS") == "true",
	}

	if err := loadAutomodDefaults(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadAutomodDefaults fills cfg.Automod and cfg.StatsChannels from
// data/automod.yaml, falling back to built-in defaults when the file is
// missing.
func loadAutomodDefaults(cfg *model.Config) error {
	v := viper.New()
	v.SetConfigName("automod")
	v.SetConfigType("yaml")
	v.AddConfigPath("data")

	v.SetDefault("poll_interval", time.Minute)
	v.SetDefault("regex_timeout", 100*time.Millisecond)
	v.SetDefault("long_message_length", 500)
	v.SetDefault("stats_refresh_cron", "0 * * * *")
	v.SetDefault("daily_report_cron", "0 5 * * *")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		log.Println("Warning: data/automod.yaml not found, using built-in automod defaults")
	}

	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		durationHook(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg.Automod, hook); err != nil {
		return err
	}
	if err := v.UnmarshalKey("stats_channels", &cfg.StatsChannels); err != nil {
		return err
	}
	return nil
}

// durationHook decodes duration strings with utils.ParseDuration so config
// values accept the day suffix ("7d") alongside the standard units.
func durationHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		return utils.ParseDuration(data.(string))
	}
}

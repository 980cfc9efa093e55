package tasks

import (
	"fmt"
	"log"
	"runtime"
	"sort"
	"strings"
	"time"

	"discord-automod/model"
	"discord-automod/utils/database"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// GenerateModerationStatsEmbed builds the periodic stats embed: punishments
// applied per kind in the window, plus host health fields.
func GenerateModerationStatsEmbed(store *database.Store, guildID string, window time.Duration) (*discordgo.MessageEmbed, error) {
	since := time.Now().Add(-window)
	counts, err := store.ActionCountsByKind(guildID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get punishment counts for guild %s: %v", guildID, err)
	}

	kinds := make([]model.PunishmentKind, 0, len(counts))
	total := 0
	for kind, n := range counts {
		kinds = append(kinds, kind)
		total += n
	}
	sort.Slice(kinds, func(i, j int) bool {
		return kinds[i].Severity() > kinds[j].Severity()
	})

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("### Punishments in the last %s\n", window.String()))
	builder.WriteString(fmt.Sprintf("**Total: %d**\n\n", total))
	for _, kind := range kinds {
		builder.WriteString(fmt.Sprintf("- %s: %d\n", kind, counts[kind]))
	}

	cpuPercent, _ := cpu.Percent(0, false)
	vm, _ := mem.VirtualMemory()
	hostInfo, _ := host.Info()

	cpuField := "n/a"
	if len(cpuPercent) > 0 {
		cpuField = fmt.Sprintf("%.1f%%", cpuPercent[0])
	}
	memField := "n/a"
	if vm != nil {
		memField = fmt.Sprintf("%.1f%% (%d MB / %d MB)", vm.UsedPercent, vm.Used/1024/1024, vm.Total/1024/1024)
	}
	hostField := "n/a"
	if hostInfo != nil {
		hostField = fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Moderation Stats",
		Description: builder.String(),
		Timestamp:   time.Now().Format(time.RFC3339),
		Color:       0x00ff00,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Host", Value: hostField, Inline: true},
			{Name: "CPU", Value: cpuField, Inline: true},
			{Name: "Memory", Value: memField, Inline: true},
			{Name: "Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
		},
	}
	return embed, nil
}

// UpdateModerationStats sends the stats embed to the channel, or edits the
// previously sent message in place when one is recorded.
func UpdateModerationStats(s *discordgo.Session, store *database.Store, config model.StatsChannel, window time.Duration) {
	embed, err := GenerateModerationStatsEmbed(store, config.GuildID, window)
	if err != nil {
		log.Printf("Failed to generate moderation stats embed: %v", err)
		return
	}

	messageID, err := store.StatsMessageID(config.ChannelID)
	if err != nil {
		log.Printf("Failed to look up stats message for channel %s: %v", config.ChannelID, err)
		return
	}

	if messageID == "" {
		msg, err := s.ChannelMessageSendEmbed(config.ChannelID, embed)
		if err != nil {
			log.Printf("Failed to send moderation stats message to channel %s: %v", config.ChannelID, err)
			return
		}
		if err := store.SetStatsMessageID(config.ChannelID, msg.ID); err != nil {
			log.Printf("Failed to record stats message ID for channel %s: %v", config.ChannelID, err)
		}
	} else {
		if _, err := s.ChannelMessageEditEmbed(config.ChannelID, messageID, embed); err != nil {
			log.Printf("Failed to edit moderation stats message %s in channel %s: %v", messageID, config.ChannelID, err)
		}
	}
}

package utils

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

type LogLevel string

const (
	Info  LogLevel = "INFO"
	Warn  LogLevel = "WARN"
	Error LogLevel = "ERROR"
)

func getColor(level LogLevel) int {
	switch level {
	case Info:
		return 3066993 // Green
	case Warn:
		return 15105570 // Orange
	case Error:
		return 15158332 // Red
	default:
		return 3447003 // Blue
	}
}

// ChannelReporter posts structured failure reports to a Discord log channel
// for operator visibility. Reporting never returns an error into the engine;
// a failed send is only written to the process log.
type ChannelReporter struct {
	session   *discordgo.Session
	channelID string
}

func NewChannelReporter(session *discordgo.Session, channelID string) *ChannelReporter {
	return &ChannelReporter{session: session, channelID: channelID}
}

// ReportFailure implements model.Reporter.
func (r *ChannelReporter) ReportFailure(module, operation, guildID, userID string, err error) {
	log.Printf("[%s] %s failed (guild=%s user=%s): %v", module, operation, guildID, userID, err)

	if r.session == nil || r.channelID == "" {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: string(Error) + " Log",
		Color: getColor(Error),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Module", Value: module, Inline: true},
			{Name: "Operation", Value: operation, Inline: true},
			{Name: "Guild", Value: orDash(guildID), Inline: true},
			{Name: "User", Value: orDash(userID), Inline: true},
			{Name: "Error", Value: fmt.Sprintf("```%v```", err)},
		},
	}
	if _, sendErr := r.session.ChannelMessageSendEmbed(r.channelID, embed); sendErr != nil {
		log.Printf("Failed to send failure report to channel %s: %v", r.channelID, sendErr)
	}
}

// LogInfo sends an informational embed to the log channel.
func LogInfo(s *discordgo.Session, channelID, module, operation, extraInfo string) error {
	if s == nil || channelID == "" {
		return nil
	}
	embed := &discordgo.MessageEmbed{
		Title: string(Info) + " Log",
		Color: getColor(Info),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Module", Value: module, Inline: true},
			{Name: "Operation", Value: operation, Inline: true},
			{Name: "Details", Value: orDash(extraInfo)},
		},
	}
	_, err := s.ChannelMessageSendEmbed(channelID, embed)
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

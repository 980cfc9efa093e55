package bot

import (
	"errors"
	"fmt"
	"net/http"

	"discord-automod/punish"

	"github.com/bwmarrin/discordgo"
)

// DiscordTransport implements model.ChatTransport over a discordgo session.
// Not-found responses are translated to punish.ErrTargetGone so callers can
// tell "nothing to do" apart from transient API failures.
type DiscordTransport struct {
	session *discordgo.Session
}

func NewDiscordTransport(session *discordgo.Session) *DiscordTransport {
	return &DiscordTransport{session: session}
}

func (t *DiscordTransport) Kick(guildID, userID, reason string) error {
	return targetGone(t.session.GuildMemberDeleteWithReason(guildID, userID, reason))
}

func (t *DiscordTransport) Ban(guildID, userID, reason string) error {
	return targetGone(t.session.GuildBanCreateWithReason(guildID, userID, reason, 0))
}

func (t *DiscordTransport) Unban(guildID, userID string) error {
	return targetGone(t.session.GuildBanDelete(guildID, userID))
}

func (t *DiscordTransport) AddRole(guildID, userID, roleID string) error {
	return targetGone(t.session.GuildMemberRoleAdd(guildID, userID, roleID))
}

func (t *DiscordTransport) RemoveRole(guildID, userID, roleID string) error {
	return targetGone(t.session.GuildMemberRoleRemove(guildID, userID, roleID))
}

func (t *DiscordTransport) SetVoiceMute(guildID, userID string, muted bool) error {
	return targetGone(t.session.GuildMemberMute(guildID, userID, muted))
}

func targetGone(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", punish.ErrTargetGone, err)
	}
	return err
}

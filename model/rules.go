package model

import "time"

// PunishmentKind is the action taken when a rule fires.
type PunishmentKind string

const (
	PunishmentNone      PunishmentKind = "none"
	PunishmentVoiceMute PunishmentKind = "voice_mute"
	PunishmentRoleMute  PunishmentKind = "role_mute"
	PunishmentSoftban   PunishmentKind = "softban"
	PunishmentKick      PunishmentKind = "kick"
	PunishmentBan       PunishmentKind = "ban"
)

// Severity orders punishment kinds so the orchestrator can pick the most
// severe action when several rules match the same event.
// ban > kick > softban > role_mute > voice_mute > none.
func (k PunishmentKind) Severity() int {
	switch k {
	case PunishmentBan:
		return 5
	case PunishmentKick:
		return 4
	case PunishmentSoftban:
		return 3
	case PunishmentRoleMute:
		return 2
	case PunishmentVoiceMute:
		return 1
	default:
		return 0
	}
}

// TimeBounded reports whether the kind is reversible and therefore can be
// scheduled for automatic reversal.
func (k PunishmentKind) TimeBounded() bool {
	switch k {
	case PunishmentBan, PunishmentRoleMute, PunishmentVoiceMute:
		return true
	}
	return false
}

// MatchMode selects how a banned phrase is compared against content.
type MatchMode string

const (
	MatchExact MatchMode = "exact" // case-insensitive substring
	MatchRegex MatchMode = "regex"
	MatchName  MatchMode = "name" // case-insensitive username equality, join events only
)

// BannedPhraseRule is a configured phrase/regex/name pattern for a guild.
type BannedPhraseRule struct {
	ID        int64          `db:"id"`
	GuildID   string         `db:"guild_id"`
	Phrase    string         `db:"phrase"`
	Mode      MatchMode      `db:"mode"`
	Kind      PunishmentKind `db:"kind"`
	RoleID    string         `db:"role_id"`   // mute role for role_mute punishments
	Threshold int64          `db:"threshold"` // fire every Nth occurrence
	Duration  time.Duration  `db:"duration"`  // 0 means permanent
}

// SpamCategory is the message attribute a spam rule counts.
type SpamCategory string

const (
	SpamMessages SpamCategory = "messages"
	SpamLong     SpamCategory = "long_messages"
	SpamLinks    SpamCategory = "links"
	SpamImages   SpamCategory = "images"
	SpamMentions SpamCategory = "mentions"
)

// SpamRule is a rate rule over message attributes within a time window.
type SpamRule struct {
	ID        int64          `db:"id"`
	GuildID   string         `db:"guild_id"`
	Category  SpamCategory   `db:"category"`
	Window    time.Duration  `db:"window"`
	Threshold int64          `db:"threshold"`
	Kind      PunishmentKind `db:"kind"`
	RoleID    string         `db:"role_id"`
	Duration  time.Duration  `db:"duration"`
	Enabled   bool           `db:"enabled"`
}

// RaidCategory distinguishes the two join-rate detections.
type RaidCategory string

const (
	RaidSteady RaidCategory = "steady" // sustained join rate over a long window
	RaidBurst  RaidCategory = "burst"  // many joins in a short window
)

// RaidRule is a rate rule over guild join events within a time window.
type RaidRule struct {
	ID        int64          `db:"id"`
	GuildID   string         `db:"guild_id"`
	Category  RaidCategory   `db:"category"`
	Window    time.Duration  `db:"window"`
	Threshold int64          `db:"threshold"`
	Kind      PunishmentKind `db:"kind"`
	RoleID    string         `db:"role_id"`
	Duration  time.Duration  `db:"duration"`
	Enabled   bool           `db:"enabled"`
}

package model

import "time"

// ChatTransport is the slice of the chat platform the moderation core needs.
// All operations are fallible network calls; implementations translate
// target-gone platform errors into punish.ErrTargetGone.
type ChatTransport interface {
	Kick(guildID, userID, reason string) error
	Ban(guildID, userID, reason string) error
	Unban(guildID, userID string) error
	AddRole(guildID, userID, roleID string) error
	RemoveRole(guildID, userID, roleID string) error
	SetVoiceMute(guildID, userID string, muted bool) error
}

// Reporter receives structured failure reports for operator visibility.
// Implementations must not panic or return errors into the caller.
type Reporter interface {
	ReportFailure(module, operation, guildID, userID string, err error)
}

// RuleStore provides read access to the configured moderation rules.
type RuleStore interface {
	BannedPhraseRules(guildID string) ([]BannedPhraseRule, error)
	SpamRules(guildID string) ([]SpamRule, error)
	RaidRules(guildID string) ([]RaidRule, error)
}

// PunishmentStore is the durable store backing the punishment scheduler.
type PunishmentStore interface {
	UpsertPunishment(p TimedPunishment) error
	GetPunishment(guildID, userID string, kind PunishmentKind) (*TimedPunishment, error)
	DuePunishments(now time.Time) ([]TimedPunishment, error)
	AllPunishments() ([]TimedPunishment, error)
	DeletePunishment(guildID, userID string, kind PunishmentKind) error
	RecordAction(a PunishmentAction) error
}

// GrantStore persists roles that must survive a leave/rejoin cycle.
type GrantStore interface {
	AddGrant(g PersistentRoleGrant) error
	RemoveGrant(guildID, userID, roleID string) error
	GrantsFor(guildID, userID string) ([]PersistentRoleGrant, error)
}

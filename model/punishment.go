package model

import "time"

// TimedPunishment is an applied punishment that must be reversed at ExpiresAt.
// At most one row exists per (guild, user, kind); rescheduling the same tuple
// replaces the expiry instead of inserting a second row.
type TimedPunishment struct {
	GuildID   string         `db:"guild_id"`
	UserID    string         `db:"user_id"`
	Kind      PunishmentKind `db:"kind"`
	RoleID    string         `db:"role_id"` // set for role_mute
	ExpiresAt time.Time      `db:"expires_at"`
}

// PersistentRoleGrant records a role that must survive a leave/rejoin cycle.
type PersistentRoleGrant struct {
	GuildID string `db:"guild_id"`
	UserID  string `db:"user_id"`
	RoleID  string `db:"role_id"`
}

// PunishmentAction is an audit row written whenever a rule-triggered
// punishment is applied. The stats task aggregates over these.
type PunishmentAction struct {
	ID        int64          `db:"id"`
	GuildID   string         `db:"guild_id"`
	UserID    string         `db:"user_id"`
	Kind      PunishmentKind `db:"kind"`
	RuleKey   string         `db:"rule_key"`
	Timestamp int64          `db:"timestamp"`
}

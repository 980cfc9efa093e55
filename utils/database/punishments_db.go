package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"discord-automod/model"
)

// UpsertPunishment inserts the punishment row or, when a row for the same
// (guild, user, kind) exists, replaces its expiry and role. Last write wins.
func (s *Store) UpsertPunishment(p model.TimedPunishment) error {
	_, err := s.db.NamedExec(`INSERT INTO timed_punishments (guild_id, user_id, kind, role_id, expires_at)
	        VALUES (:guild_id, :user_id, :kind, :role_id, :expires_at)
	        ON CONFLICT (guild_id, user_id, kind)
	        DO UPDATE SET expires_at = excluded.expires_at, role_id = excluded.role_id`, p)
	if err != nil {
		return fmt.Errorf("failed to upsert punishment for user %s in guild %s: %w", p.UserID, p.GuildID, err)
	}
	return nil
}

// GetPunishment returns the punishment row for the tuple, or nil when none
// exists.
func (s *Store) GetPunishment(guildID, userID string, kind model.PunishmentKind) (*model.TimedPunishment, error) {
	var p model.TimedPunishment
	err := s.db.Get(&p, "SELECT * FROM timed_punishments WHERE guild_id = ? AND user_id = ? AND kind = ?", guildID, userID, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get punishment for user %s in guild %s: %w", userID, guildID, err)
	}
	return &p, nil
}

// DuePunishments returns every punishment whose expiry has passed.
func (s *Store) DuePunishments(now time.Time) ([]model.TimedPunishment, error) {
	var due []model.TimedPunishment
	err := s.db.Select(&due, "SELECT * FROM timed_punishments WHERE expires_at <= ?", now)
	if err != nil {
		return nil, fmt.Errorf("failed to get due punishments: %w", err)
	}
	return due, nil
}

// AllPunishments returns every outstanding punishment row, due or not.
// Used by startup recovery.
func (s *Store) AllPunishments() ([]model.TimedPunishment, error) {
	var all []model.TimedPunishment
	err := s.db.Select(&all, "SELECT * FROM timed_punishments")
	if err != nil {
		return nil, fmt.Errorf("failed to get punishments: %w", err)
	}
	return all, nil
}

// DeletePunishment removes the punishment row for the tuple.
func (s *Store) DeletePunishment(guildID, userID string, kind model.PunishmentKind) error {
	_, err := s.db.Exec("DELETE FROM timed_punishments WHERE guild_id = ? AND user_id = ? AND kind = ?", guildID, userID, kind)
	if err != nil {
		return fmt.Errorf("failed to delete punishment for user %s in guild %s: %w", userID, guildID, err)
	}
	return nil
}

// RecordAction appends an audit row for an applied punishment.
func (s *Store) RecordAction(a model.PunishmentAction) error {
	_, err := s.db.NamedExec(`INSERT INTO punishment_log (guild_id, user_id, kind, rule_key, timestamp)
	        VALUES (:guild_id, :user_id, :kind, :rule_key, :timestamp)`, a)
	if err != nil {
		return fmt.Errorf("failed to record punishment action: %w", err)
	}
	return nil
}

// ActionCountsByKind aggregates applied punishments per kind since the given
// time, for the stats embed.
func (s *Store) ActionCountsByKind(guildID string, since time.Time) (map[model.PunishmentKind]int, error) {
	rows, err := s.db.Query("SELECT kind, COUNT(*) FROM punishment_log WHERE guild_id = ? AND timestamp >= ? GROUP BY kind", guildID, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to get punishment stats for guild %s: %w", guildID, err)
	}
	defer rows.Close()

	counts := make(map[model.PunishmentKind]int)
	for rows.Next() {
		var kind model.PunishmentKind
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan punishment stats row: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// StatsMessageID returns the recorded stats message for a channel, or ""
// when none was sent yet.
func (s *Store) StatsMessageID(channelID string) (string, error) {
	var messageID string
	err := s.db.Get(&messageID, "SELECT message_id FROM stats_messages WHERE channel_id = ?", channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get stats message for channel %s: %w", channelID, err)
	}
	return messageID, nil
}

// SetStatsMessageID records the stats message for a channel so later runs
// edit it in place.
func (s *Store) SetStatsMessageID(channelID, messageID string) error {
	_, err := s.db.Exec(`INSERT INTO stats_messages (channel_id, message_id) VALUES (?, ?)
	        ON CONFLICT (channel_id) DO UPDATE SET message_id = excluded.message_id`, channelID, messageID)
	if err != nil {
		return fmt.Errorf("failed to set stats message for channel %s: %w", channelID, err)
	}
	return nil
}

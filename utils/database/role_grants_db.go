package database

import (
	"fmt"

	"discord-automod/model"
)

// AddGrant records a role that must survive a leave/rejoin cycle. Adding an
// existing grant is a no-op.
func (s *Store) AddGrant(g model.PersistentRoleGrant) error {
	_, err := s.db.NamedExec(`INSERT OR IGNORE INTO role_grants (guild_id, user_id, role_id)
	        VALUES (:guild_id, :user_id, :role_id)`, g)
	if err != nil {
		return fmt.Errorf("failed to add role grant for user %s in guild %s: %w", g.UserID, g.GuildID, err)
	}
	return nil
}

// RemoveGrant deletes a persisted role grant.
func (s *Store) RemoveGrant(guildID, userID, roleID string) error {
	_, err := s.db.Exec("DELETE FROM role_grants WHERE guild_id = ? AND user_id = ? AND role_id = ?", guildID, userID, roleID)
	if err != nil {
		return fmt.Errorf("failed to remove role grant for user %s in guild %s: %w", userID, guildID, err)
	}
	return nil
}

// GrantsFor returns every persisted role grant for a member.
func (s *Store) GrantsFor(guildID, userID string) ([]model.PersistentRoleGrant, error) {
	var grants []model.PersistentRoleGrant
	err := s.db.Select(&grants, "SELECT * FROM role_grants WHERE guild_id = ? AND user_id = ?", guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get role grants for user %s in guild %s: %w", userID, guildID, err)
	}
	return grants, nil
}

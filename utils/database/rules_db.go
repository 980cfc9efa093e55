package database

import (
	"fmt"
	"regexp"

	"discord-automod/model"
)

// BannedPhraseRules returns every banned-phrase rule configured for a guild.
func (s *Store) BannedPhraseRules(guildID string) ([]model.BannedPhraseRule, error) {
	var rules []model.BannedPhraseRule
	err := s.db.Select(&rules, "SELECT * FROM banned_phrases WHERE guild_id = ?", guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get banned phrases for guild %s: %w", guildID, err)
	}
	return rules, nil
}

// SpamRules returns every spam rule configured for a guild.
func (s *Store) SpamRules(guildID string) ([]model.SpamRule, error) {
	var rules []model.SpamRule
	err := s.db.Select(&rules, "SELECT * FROM spam_rules WHERE guild_id = ?", guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get spam rules for guild %s: %w", guildID, err)
	}
	return rules, nil
}

// RaidRules returns every raid rule configured for a guild.
func (s *Store) RaidRules(guildID string) ([]model.RaidRule, error) {
	var rules []model.RaidRule
	err := s.db.Select(&rules, "SELECT * FROM raid_rules WHERE guild_id = ?", guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raid rules for guild %s: %w", guildID, err)
	}
	return rules, nil
}

// AddBannedPhraseRule validates and inserts a phrase rule. The phrase must be
// non-empty and regex-mode patterns must compile.
func (s *Store) AddBannedPhraseRule(rule model.BannedPhraseRule) (int64, error) {
	if rule.Phrase == "" {
		return 0, fmt.Errorf("banned phrase for guild %s is empty", rule.GuildID)
	}
	if rule.Mode == model.MatchRegex {
		if _, err := regexp.Compile(rule.Phrase); err != nil {
			return 0, fmt.Errorf("banned phrase pattern %q does not compile: %w", rule.Phrase, err)
		}
	}

	res, err := s.db.NamedExec(`INSERT INTO banned_phrases (guild_id, phrase, mode, kind, role_id, threshold, duration)
	        VALUES (:guild_id, :phrase, :mode, :kind, :role_id, :threshold, :duration)`, rule)
	if err != nil {
		return 0, fmt.Errorf("failed to insert banned phrase: %w", err)
	}
	return res.LastInsertId()
}

// AddSpamRule inserts a spam rule.
func (s *Store) AddSpamRule(rule model.SpamRule) (int64, error) {
	res, err := s.db.NamedExec(`INSERT INTO spam_rules (guild_id, category, window, threshold, kind, role_id, duration, enabled)
	        VALUES (:guild_id, :category, :window, :threshold, :kind, :role_id, :duration, :enabled)`, rule)
	if err != nil {
		return 0, fmt.Errorf("failed to insert spam rule: %w", err)
	}
	return res.LastInsertId()
}

// AddRaidRule inserts a raid rule.
func (s *Store) AddRaidRule(rule model.RaidRule) (int64, error) {
	res, err := s.db.NamedExec(`INSERT INTO raid_rules (guild_id, category, window, threshold, kind, role_id, duration, enabled)
	        VALUES (:guild_id, :category, :window, :threshold, :kind, :role_id, :duration, :enabled)`, rule)
	if err != nil {
		return 0, fmt.Errorf("failed to insert raid rule: %w", err)
	}
	return res.LastInsertId()
}

// DeleteRule removes a rule row from the given rule table.
func (s *Store) DeleteRule(table string, id int64) error {
	switch table {
	case "banned_phrases", "spam_rules", "raid_rules":
	default:
		return fmt.Errorf("unknown rule table %q", table)
	}
	_, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return fmt.Errorf("failed to delete rule %d from %s: %w", id, table, err)
	}
	return nil
}

package automod

import (
	"fmt"

	"discord-automod/model"
)

// JoinEvent is a user joining a guild.
type JoinEvent struct {
	GuildID  string
	UserID   string
	Username string
}

// raidSubject keys join counts: raids are detected per guild, not per user.
const raidSubject = "guild"

// RaidEvaluator fires rate-based raid rules over join events. Raid windows
// use the tumbling reset policy; there is a single subject per guild so a
// reset spike cannot occur.
type RaidEvaluator struct {
	rules model.RuleStore
	rates *RateTracker
}

func NewRaidEvaluator(rules model.RuleStore, rates *RateTracker) *RaidEvaluator {
	return &RaidEvaluator{rules: rules, rates: rates}
}

// Evaluate records the join against every enabled raid rule for the guild.
// A fired decision targets the joining user.
func (e *RaidEvaluator) Evaluate(ev JoinEvent) ([]Decision, []error) {
	rules, err := e.rules.RaidRules(ev.GuildID)
	if err != nil {
		return nil, []error{fmt.Errorf("loading raid rules for guild %s: %w", ev.GuildID, err)}
	}

	var decisions []Decision
	var errs []error
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if rule.Window <= 0 || rule.Threshold <= 0 {
			errs = append(errs, fmt.Errorf("raid rule %d: bad window %s or threshold %d", rule.ID, rule.Window, rule.Threshold))
			continue
		}

		key := fmt.Sprintf("raid:%s:%d", rule.Category, rule.ID)
		count := e.rates.Record(ev.GuildID, raidSubject, key, 1, Window{Length: rule.Window, Policy: ResetTumbling})
		if count >= rule.Threshold {
			decisions = append(decisions, Decision{
				GuildID:  ev.GuildID,
				UserID:   ev.UserID,
				Kind:     rule.Kind,
				RoleID:   rule.RoleID,
				Duration: rule.Duration,
				RuleKey:  key,
				Reason:   fmt.Sprintf("raid: %s join rate exceeded (%d in %s)", rule.Category, count, rule.Window),
			})
			e.rates.Reset(ev.GuildID, raidSubject, key)
		}
	}
	return decisions, errs
}

package automod

import (
	"fmt"
	"strings"

	"discord-automod/model"
)

// MessageEvent is an inbound chat message as seen by the engine.
type MessageEvent struct {
	GuildID     string
	UserID      string
	Username    string
	Content     string
	Attachments int
	Mentions    int
}

// SpamEvaluator fires rate-based spam rules over message attributes.
// Spam windows use the staggered reset policy: the subjects are individual
// users and a big guild tracks thousands of them.
type SpamEvaluator struct {
	rules      model.RuleStore
	rates      *RateTracker
	longLength int
}

// NewSpamEvaluator creates an evaluator. longLength is the content length at
// which a message counts toward long_messages rules.
func NewSpamEvaluator(rules model.RuleStore, rates *RateTracker, longLength int) *SpamEvaluator {
	if longLength <= 0 {
		longLength = 500
	}
	return &SpamEvaluator{rules: rules, rates: rates, longLength: longLength}
}

// Evaluate records the message against every enabled spam rule for the guild
// and returns a decision for each rule whose threshold was reached. A fired
// rule's counter is reset so the same burst cannot re-trigger on every
// following message.
func (e *SpamEvaluator) Evaluate(ev MessageEvent) ([]Decision, []error) {
	rules, err := e.rules.SpamRules(ev.GuildID)
	if err != nil {
		return nil, []error{fmt.Errorf("loading spam rules for guild %s: %w", ev.GuildID, err)}
	}

	var decisions []Decision
	var errs []error
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if rule.Window <= 0 || rule.Threshold <= 0 {
			errs = append(errs, fmt.Errorf("spam rule %d: bad window %s or threshold %d", rule.ID, rule.Window, rule.Threshold))
			continue
		}
		n := messageWeight(rule.Category, ev, e.longLength)
		if n == 0 {
			continue
		}

		key := fmt.Sprintf("spam:%s:%d", rule.Category, rule.ID)
		count := e.rates.Record(ev.GuildID, ev.UserID, key, n, Window{Length: rule.Window, Policy: ResetStaggered})
		if count >= rule.Threshold {
			decisions = append(decisions, Decision{
				GuildID:  ev.GuildID,
				UserID:   ev.UserID,
				Kind:     rule.Kind,
				RoleID:   rule.RoleID,
				Duration: rule.Duration,
				RuleKey:  key,
				Reason:   fmt.Sprintf("spam: %s rate exceeded (%d in %s)", rule.Category, count, rule.Window),
			})
			e.rates.Reset(ev.GuildID, ev.UserID, key)
		}
	}
	return decisions, errs
}

// messageWeight is how many events the message contributes to a category.
func messageWeight(category model.SpamCategory, ev MessageEvent, longLength int) int64 {
	switch category {
	case model.SpamMessages:
		return 1
	case model.SpamLong:
		if len(ev.Content) >= longLength {
			return 1
		}
	case model.SpamLinks:
		return int64(countLinks(ev.Content))
	case model.SpamImages:
		return int64(ev.Attachments)
	case model.SpamMentions:
		return int64(ev.Mentions)
	}
	return 0
}

func countLinks(content string) int {
	lowered := strings.ToLower(content)
	return strings.Count(lowered, "http://") + strings.Count(lowered, "https://")
}

package automod

import (
	"fmt"
	"sync"
)

// EscalationTracker counts banned-phrase violations per (guild, user, rule).
// A rule fires on every exact multiple of its threshold; the counter keeps
// growing so rule tiers with different thresholds over the same phrase all
// read one monotonic count. Only an explicit Reset clears it.
type EscalationTracker struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewEscalationTracker() *EscalationTracker {
	return &EscalationTracker{counts: make(map[string]int64)}
}

// RecordViolation increments the counter and reports whether the rule should
// fire now. threshold <= 0 never fires.
func (t *EscalationTracker) RecordViolation(guildID, userID string, ruleID, threshold int64) (int64, bool) {
	key := violationKey(guildID, userID, ruleID)

	t.mu.Lock()
	t.counts[key]++
	n := t.counts[key]
	t.mu.Unlock()

	return n, threshold > 0 && n%threshold == 0
}

// Reset clears the counter for one (guild, user, rule) tuple. Used by the
// external reset command path.
func (t *EscalationTracker) Reset(guildID, userID string, ruleID int64) {
	t.mu.Lock()
	delete(t.counts, violationKey(guildID, userID, ruleID))
	t.mu.Unlock()
}

// ResetUser clears every counter for a member in a guild.
func (t *EscalationTracker) ResetUser(guildID, userID string) {
	prefix := fmt.Sprintf("%s|%s|", guildID, userID)

	t.mu.Lock()
	for key := range t.counts {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(t.counts, key)
		}
	}
	t.mu.Unlock()
}

func violationKey(guildID, userID string, ruleID int64) string {
	return fmt.Sprintf("%s|%s|%d", guildID, userID, ruleID)
}

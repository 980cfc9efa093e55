package automod

import (
	"time"

	"discord-automod/model"
)

// Decision is a punishment the engine wants applied to a user.
type Decision struct {
	GuildID  string
	UserID   string
	Kind     model.PunishmentKind
	RoleID   string        // mute role for role_mute
	Duration time.Duration // 0 means permanent
	RuleKey  string        // identifies the rule that fired, for audit rows
	Reason   string
}

// MostSevere picks the decision with the most severe punishment kind.
// Returns nil when the slice is empty or only carries "none" decisions.
func MostSevere(decisions []Decision) *Decision {
	var best *Decision
	for i := range decisions {
		d := &decisions[i]
		if d.Kind.Severity() == 0 {
			continue
		}
		if best == nil || d.Kind.Severity() > best.Kind.Severity() {
			best = d
		}
	}
	return best
}

package automod

import (
	"errors"
	"fmt"
	"log"
	"time"

	"discord-automod/model"
	"discord-automod/punish"
)

// Moderator wires inbound chat events to the rule engine and applies the
// resulting punishments through the transport. All failures are reported per
// event; no failure aborts processing of later events.
type Moderator struct {
	rules      model.RuleStore
	matcher    *Matcher
	spam       *SpamEvaluator
	raids      *RaidEvaluator
	escalation *EscalationTracker
	roles      *punish.RoleManager
	scheduler  *punish.Scheduler
	store      model.PunishmentStore
	grants     model.GrantStore
	transport  model.ChatTransport
	reporter   model.Reporter
	now        func() time.Time
}

// NewModerator assembles the orchestrator from its collaborators.
func NewModerator(
	rules model.RuleStore,
	matcher *Matcher,
	spam *SpamEvaluator,
	raids *RaidEvaluator,
	escalation *EscalationTracker,
	roles *punish.RoleManager,
	scheduler *punish.Scheduler,
	store model.PunishmentStore,
	grants model.GrantStore,
	transport model.ChatTransport,
	reporter model.Reporter,
) *Moderator {
	return &Moderator{
		rules:      rules,
		matcher:    matcher,
		spam:       spam,
		raids:      raids,
		escalation: escalation,
		roles:      roles,
		scheduler:  scheduler,
		store:      store,
		grants:     grants,
		transport:  transport,
		reporter:   reporter,
		now:        time.Now,
	}
}

// HandleMessage classifies a message against phrase and spam rules and
// applies the most severe resulting punishment, if any.
func (m *Moderator) HandleMessage(ev MessageEvent) {
	var decisions []Decision

	phrases, err := m.rules.BannedPhraseRules(ev.GuildID)
	if err != nil {
		m.reporter.ReportFailure("automod", "load phrase rules", ev.GuildID, ev.UserID, err)
	} else {
		matched, errs := m.matcher.Match(ev.Content, phrases)
		for _, e := range errs {
			m.reporter.ReportFailure("automod", "phrase match", ev.GuildID, ev.UserID, e)
		}
		decisions = append(decisions, m.escalate(ev.GuildID, ev.UserID, matched)...)
	}

	spamDecisions, errs := m.spam.Evaluate(ev)
	for _, e := range errs {
		m.reporter.ReportFailure("automod", "spam evaluate", ev.GuildID, ev.UserID, e)
	}
	decisions = append(decisions, spamDecisions...)

	m.act(MostSevere(decisions))
}

// HandleJoin reapplies persisted roles for the member, then classifies the
// join against raid and banned-name rules.
func (m *Moderator) HandleJoin(ev JoinEvent) {
	m.reapplyRoles(ev.GuildID, ev.UserID)

	var decisions []Decision

	raidDecisions, errs := m.raids.Evaluate(ev)
	for _, e := range errs {
		m.reporter.ReportFailure("automod", "raid evaluate", ev.GuildID, ev.UserID, e)
	}
	decisions = append(decisions, raidDecisions...)

	phrases, err := m.rules.BannedPhraseRules(ev.GuildID)
	if err != nil {
		m.reporter.ReportFailure("automod", "load phrase rules", ev.GuildID, ev.UserID, err)
	} else {
		matched := m.matcher.MatchName(ev.Username, phrases)
		decisions = append(decisions, m.escalate(ev.GuildID, ev.UserID, matched)...)
	}

	m.act(MostSevere(decisions))
}

// escalate records each phrase violation and keeps the rules whose
// escalation threshold says to act now.
func (m *Moderator) escalate(guildID, userID string, matched []model.BannedPhraseRule) []Decision {
	var decisions []Decision
	for _, rule := range matched {
		count, fire := m.escalation.RecordViolation(guildID, userID, rule.ID, rule.Threshold)
		if !fire {
			log.Printf("Recorded violation %d/%d of phrase rule %d for user %s in guild %s", count, rule.Threshold, rule.ID, userID, guildID)
			continue
		}
		decisions = append(decisions, Decision{
			GuildID:  guildID,
			UserID:   userID,
			Kind:     rule.Kind,
			RoleID:   rule.RoleID,
			Duration: rule.Duration,
			RuleKey:  fmt.Sprintf("phrase:%d", rule.ID),
			Reason:   fmt.Sprintf("banned phrase rule %d, occurrence %d", rule.ID, count),
		})
	}
	return decisions
}

func (m *Moderator) reapplyRoles(guildID, userID string) {
	roles, err := m.roles.OnUserRejoin(guildID, userID)
	if err != nil {
		m.reporter.ReportFailure("automod", "load rejoin roles", guildID, userID, err)
		return
	}
	for _, roleID := range roles {
		if err := m.transport.AddRole(guildID, userID, roleID); err != nil && !errors.Is(err, punish.ErrTargetGone) {
			m.reporter.ReportFailure("automod", "reapply role "+roleID, guildID, userID, err)
		}
	}
}

// act applies the decision and, when time-bounded, schedules the reversal.
func (m *Moderator) act(d *Decision) {
	if d == nil {
		return
	}

	if err := m.apply(*d); err != nil {
		m.reporter.ReportFailure("automod", "apply "+string(d.Kind), d.GuildID, d.UserID, err)
		return
	}
	log.Printf("Applied %s to user %s in guild %s (%s)", d.Kind, d.UserID, d.GuildID, d.Reason)

	if err := m.store.RecordAction(model.PunishmentAction{
		GuildID:   d.GuildID,
		UserID:    d.UserID,
		Kind:      d.Kind,
		RuleKey:   d.RuleKey,
		Timestamp: m.now().Unix(),
	}); err != nil {
		m.reporter.ReportFailure("automod", "record action", d.GuildID, d.UserID, err)
	}

	if d.Kind.TimeBounded() && d.Duration > 0 {
		p := model.TimedPunishment{
			GuildID:   d.GuildID,
			UserID:    d.UserID,
			Kind:      d.Kind,
			RoleID:    d.RoleID,
			ExpiresAt: m.now().Add(d.Duration),
		}
		if err := m.scheduler.Schedule(p); err != nil {
			m.reporter.ReportFailure("automod", "schedule reversal", d.GuildID, d.UserID, err)
		}
	}
}

func (m *Moderator) apply(d Decision) error {
	switch d.Kind {
	case model.PunishmentBan:
		return m.transport.Ban(d.GuildID, d.UserID, d.Reason)
	case model.PunishmentKick:
		return m.transport.Kick(d.GuildID, d.UserID, d.Reason)
	case model.PunishmentSoftban:
		if err := m.transport.Ban(d.GuildID, d.UserID, d.Reason); err != nil {
			return err
		}
		return m.transport.Unban(d.GuildID, d.UserID)
	case model.PunishmentRoleMute:
		if d.RoleID == "" {
			return fmt.Errorf("role mute decision for user %s in guild %s has no role id", d.UserID, d.GuildID)
		}
		if err := m.transport.AddRole(d.GuildID, d.UserID, d.RoleID); err != nil {
			return err
		}
		// persist the grant so a leave/rejoin during the mute window
		// reinstates the role
		if err := m.grants.AddGrant(model.PersistentRoleGrant{GuildID: d.GuildID, UserID: d.UserID, RoleID: d.RoleID}); err != nil {
			return fmt.Errorf("mute role applied but grant not persisted: %w", err)
		}
		return nil
	case model.PunishmentVoiceMute:
		return m.transport.SetVoiceMute(d.GuildID, d.UserID, true)
	default:
		return nil
	}
}

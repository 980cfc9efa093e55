package automod

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"discord-automod/model"
	"discord-automod/punish"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuleStore struct {
	phrases []model.BannedPhraseRule
	spam    []model.SpamRule
	raids   []model.RaidRule
	err     error
}

func (f *fakeRuleStore) BannedPhraseRules(string) ([]model.BannedPhraseRule, error) {
	return f.phrases, f.err
}
func (f *fakeRuleStore) SpamRules(string) ([]model.SpamRule, error) { return f.spam, f.err }
func (f *fakeRuleStore) RaidRules(string) ([]model.RaidRule, error) { return f.raids, f.err }

type fakePunishStore struct {
	mu      sync.Mutex
	rows    map[string]model.TimedPunishment
	actions []model.PunishmentAction
}

func newFakePunishStore() *fakePunishStore {
	return &fakePunishStore{rows: make(map[string]model.TimedPunishment)}
}

func punishKey(guildID, userID string, kind model.PunishmentKind) string {
	return fmt.Sprintf("%s|%s|%s", guildID, userID, kind)
}

func (f *fakePunishStore) UpsertPunishment(p model.TimedPunishment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[punishKey(p.GuildID, p.UserID, p.Kind)] = p
	return nil
}

func (f *fakePunishStore) GetPunishment(guildID, userID string, kind model.PunishmentKind) (*model.TimedPunishment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[punishKey(guildID, userID, kind)]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakePunishStore) DuePunishments(now time.Time) ([]model.TimedPunishment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []model.TimedPunishment
	for _, p := range f.rows {
		if !p.ExpiresAt.After(now) {
			due = append(due, p)
		}
	}
	return due, nil
}

func (f *fakePunishStore) AllPunishments() ([]model.TimedPunishment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.TimedPunishment
	for _, p := range f.rows {
		all = append(all, p)
	}
	return all, nil
}

func (f *fakePunishStore) DeletePunishment(guildID, userID string, kind model.PunishmentKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, punishKey(guildID, userID, kind))
	return nil
}

func (f *fakePunishStore) RecordAction(a model.PunishmentAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, a)
	return nil
}

type fakeGrantStore struct {
	mu     sync.Mutex
	grants []model.PersistentRoleGrant
	err    error
}

func (f *fakeGrantStore) AddGrant(g model.PersistentRoleGrant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.grants = append(f.grants, g)
	return nil
}

func (f *fakeGrantStore) RemoveGrant(guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.grants[:0]
	for _, g := range f.grants {
		if g.GuildID != guildID || g.UserID != userID || g.RoleID != roleID {
			kept = append(kept, g)
		}
	}
	f.grants = kept
	return nil
}

func (f *fakeGrantStore) GrantsFor(guildID, userID string) ([]model.PersistentRoleGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PersistentRoleGrant
	for _, g := range f.grants {
		if g.GuildID == guildID && g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

type fakeTransport struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{fail: make(map[string]error)}
}

func (f *fakeTransport) record(op string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := op
	for _, a := range args {
		call += ":" + a
	}
	f.calls = append(f.calls, call)
	return f.fail[op]
}

func (f *fakeTransport) Kick(guildID, userID, _ string) error { return f.record("kick", guildID, userID) }
func (f *fakeTransport) Ban(guildID, userID, _ string) error  { return f.record("ban", guildID, userID) }
func (f *fakeTransport) Unban(guildID, userID string) error   { return f.record("unban", guildID, userID) }
func (f *fakeTransport) AddRole(guildID, userID, roleID string) error {
	return f.record("addrole", guildID, userID, roleID)
}
func (f *fakeTransport) RemoveRole(guildID, userID, roleID string) error {
	return f.record("removerole", guildID, userID, roleID)
}
func (f *fakeTransport) SetVoiceMute(guildID, userID string, muted bool) error {
	return f.record("voicemute", guildID, userID, fmt.Sprintf("%t", muted))
}

type fakeReporter struct {
	mu      sync.Mutex
	reports []string
}

func (f *fakeReporter) ReportFailure(module, operation, guildID, userID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, fmt.Sprintf("%s/%s: %v", module, operation, err))
}

type moderatorFixture struct {
	moderator *Moderator
	rules     *fakeRuleStore
	store     *fakePunishStore
	grants    *fakeGrantStore
	transport *fakeTransport
	reporter  *fakeReporter
}

func newModeratorFixture(rules *fakeRuleStore) *moderatorFixture {
	store := newFakePunishStore()
	grants := &fakeGrantStore{}
	transport := newFakeTransport()
	reporter := &fakeReporter{}
	scheduler := punish.NewScheduler(store, grants, transport, reporter, time.Minute)

	rates := NewRateTracker()
	m := NewModerator(
		rules,
		NewMatcher(100*time.Millisecond),
		NewSpamEvaluator(rules, rates, 500),
		NewRaidEvaluator(rules, rates),
		NewEscalationTracker(),
		punish.NewRoleManager(grants),
		scheduler,
		store,
		grants,
		transport,
		reporter,
	)
	return &moderatorFixture{moderator: m, rules: rules, store: store, grants: grants, transport: transport, reporter: reporter}
}

func TestPhraseEscalationFiresOnThirdOccurrence(t *testing.T) {
	f := newModeratorFixture(&fakeRuleStore{phrases: []model.BannedPhraseRule{{
		ID: 1, GuildID: "g", Phrase: "badword", Mode: model.MatchExact,
		Kind: model.PunishmentKick, Threshold: 3,
	}}})

	f.moderator.HandleMessage(msgEvent("badword"))
	f.moderator.HandleMessage(msgEvent("badword again"))
	assert.Empty(t, f.transport.calls)

	f.moderator.HandleMessage(msgEvent("BADWORD third time"))
	assert.Equal(t, []string{"kick:g:u"}, f.transport.calls)
	require.Len(t, f.store.actions, 1)
	assert.Equal(t, model.PunishmentKick, f.store.actions[0].Kind)
}

func TestSpamMuteIsAppliedAndScheduled(t *testing.T) {
	f := newModeratorFixture(&fakeRuleStore{spam: []model.SpamRule{{
		ID: 1, GuildID: "g", Category: model.SpamMessages, Window: 10 * time.Second,
		Threshold: 5, Kind: model.PunishmentRoleMute, RoleID: "muterole", Duration: time.Hour, Enabled: true,
	}}})

	for i := 0; i < 5; i++ {
		f.moderator.HandleMessage(msgEvent("flood"))
	}

	assert.Equal(t, []string{"addrole:g:u:muterole"}, f.transport.calls)

	// the mute role must survive a rejoin
	grants, err := f.grants.GrantsFor("g", "u")
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "muterole", grants[0].RoleID)

	// and its reversal must be scheduled an hour out
	p, err := f.store.GetPunishment("g", "u", model.PunishmentRoleMute)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "muterole", p.RoleID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), p.ExpiresAt, time.Minute)
}

func TestMostSevereKindWinsAcrossMatches(t *testing.T) {
	f := newModeratorFixture(&fakeRuleStore{phrases: []model.BannedPhraseRule{
		{ID: 1, GuildID: "g", Phrase: "bad", Mode: model.MatchExact, Kind: model.PunishmentKick, Threshold: 1},
		{ID: 2, GuildID: "g", Phrase: "worse", Mode: model.MatchExact, Kind: model.PunishmentBan, Threshold: 1},
	}})

	f.moderator.HandleMessage(msgEvent("bad and worse"))

	// one action only, and it is the ban
	assert.Equal(t, []string{"ban:g:u"}, f.transport.calls)
}

func TestTransportFailureIsReportedNotFatal(t *testing.T) {
	f := newModeratorFixture(&fakeRuleStore{phrases: []model.BannedPhraseRule{{
		ID: 1, GuildID: "g", Phrase: "bad", Mode: model.MatchExact, Kind: model.PunishmentKick, Threshold: 1,
	}}})
	f.transport.fail["kick"] = errors.New("missing permission")

	f.moderator.HandleMessage(msgEvent("bad"))
	require.Len(t, f.reporter.reports, 1)
	assert.Contains(t, f.reporter.reports[0], "missing permission")
	// the failed action is not recorded as applied
	assert.Empty(t, f.store.actions)

	// later events still process
	f.transport.fail = map[string]error{}
	f.moderator.HandleMessage(msgEvent("bad"))
	assert.Len(t, f.store.actions, 1)
}

func TestJoinReappliesPersistedRoles(t *testing.T) {
	f := newModeratorFixture(&fakeRuleStore{})
	require.NoError(t, f.grants.AddGrant(model.PersistentRoleGrant{GuildID: "g", UserID: "u", RoleID: "muterole"}))

	f.moderator.HandleJoin(JoinEvent{GuildID: "g", UserID: "u", Username: "someone"})
	assert.Equal(t, []string{"addrole:g:u:muterole"}, f.transport.calls)
}

func TestJoinBannedNameGoesThroughEscalation(t *testing.T) {
	f := newModeratorFixture(&fakeRuleStore{phrases: []model.BannedPhraseRule{{
		ID: 1, GuildID: "g", Phrase: "raider", Mode: model.MatchName, Kind: model.PunishmentBan, Threshold: 1,
	}}})

	f.moderator.HandleJoin(JoinEvent{GuildID: "g", UserID: "u", Username: "Raider"})
	assert.Equal(t, []string{"ban:g:u"}, f.transport.calls)
}

func TestSoftbanBansThenUnbans(t *testing.T) {
	f := newModeratorFixture(&fakeRuleStore{phrases: []model.BannedPhraseRule{{
		ID: 1, GuildID: "g", Phrase: "purge", Mode: model.MatchExact, Kind: model.PunishmentSoftban, Threshold: 1,
	}}})

	f.moderator.HandleMessage(msgEvent("purge me"))
	assert.Equal(t, []string{"ban:g:u", "unban:g:u"}, f.transport.calls)
	// softban is not time-bounded, nothing is scheduled
	all, _ := f.store.AllPunishments()
	assert.Empty(t, all)
}

func TestMostSevere(t *testing.T) {
	assert.Nil(t, MostSevere(nil))
	assert.Nil(t, MostSevere([]Decision{{Kind: model.PunishmentNone}}))

	d := MostSevere([]Decision{
		{Kind: model.PunishmentVoiceMute},
		{Kind: model.PunishmentBan},
		{Kind: model.PunishmentKick},
	})
	require.NotNil(t, d)
	assert.Equal(t, model.PunishmentBan, d.Kind)
}

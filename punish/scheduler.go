package punish

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"discord-automod/model"
)

// ErrTargetGone marks a reversal whose target (guild, user, role or ban) no
// longer exists. The intent of the punishment is already satisfied, so the
// row is deleted instead of retried forever. Transport adapters translate
// platform not-found errors into this sentinel.
var ErrTargetGone = errors.New("punishment target no longer exists")

// Scheduler durably tracks timed punishments and reverses them when they
// expire. Rows live in the store only; the loop re-reads due rows every tick
// so a crash between reversal and delete just retries the same row.
type Scheduler struct {
	store     model.PunishmentStore
	grants    model.GrantStore
	transport model.ChatTransport
	reporter  model.Reporter
	interval  time.Duration
	now       func() time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

// NewScheduler creates a stopped scheduler polling at interval.
func NewScheduler(store model.PunishmentStore, grants model.GrantStore, transport model.ChatTransport, reporter model.Reporter, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		store:     store,
		grants:    grants,
		transport: transport,
		reporter:  reporter,
		interval:  interval,
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// Schedule upserts the punishment row. A second schedule for the same
// (guild, user, kind) replaces the expiry, it never duplicates the row.
func (s *Scheduler) Schedule(p model.TimedPunishment) error {
	if !p.ExpiresAt.After(s.now()) {
		return fmt.Errorf("punishment for user %s in guild %s expires in the past (%s)", p.UserID, p.GuildID, p.ExpiresAt)
	}
	if err := s.store.UpsertPunishment(p); err != nil {
		return fmt.Errorf("failed to schedule %s for user %s in guild %s: %w", p.Kind, p.UserID, p.GuildID, err)
	}
	return nil
}

// Lift removes a punishment before its natural expiry and reverses it
// immediately. Lifting a punishment that was already reversed is a no-op.
func (s *Scheduler) Lift(guildID, userID string, kind model.PunishmentKind) error {
	p, err := s.store.GetPunishment(guildID, userID, kind)
	if err != nil {
		return fmt.Errorf("failed to look up %s for user %s in guild %s: %w", kind, userID, guildID, err)
	}
	if p == nil {
		return nil
	}
	if err := s.undo(*p); err != nil && !errors.Is(err, ErrTargetGone) {
		return err
	}
	s.cleanup(*p)
	return nil
}

// Start recovers outstanding rows and begins the poll loop. Past-due rows
// are processed on the first tick, which runs immediately.
func (s *Scheduler) Start() {
	rows, err := s.store.AllPunishments()
	if err != nil {
		log.Printf("Failed to load outstanding punishments on startup: %v", err)
	} else {
		log.Printf("Punishment scheduler recovered %d outstanding punishment(s)", len(rows))
	}

	s.wg.Add(1)
	go s.run()
}

// Stop cancels the loop. An in-flight tick finishes its current reversal;
// rows not yet reversed stay scheduled and are retried after restart.
func (s *Scheduler) Stop() {
	close(s.done)
	s.wg.Wait()
	log.Println("Punishment scheduler stopped.")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick()
	for {
		select {
		case <-ticker.C:
			s.Tick()
		case <-s.done:
			return
		}
	}
}

// Tick reverses every due punishment. One failing row never aborts the rest.
func (s *Scheduler) Tick() {
	due, err := s.store.DuePunishments(s.now())
	if err != nil {
		log.Printf("Failed to query due punishments: %v", err)
		return
	}

	for _, p := range due {
		select {
		case <-s.done:
			return
		default:
		}
		s.reverse(p)
	}
}

func (s *Scheduler) reverse(p model.TimedPunishment) {
	if err := s.undo(p); err != nil {
		if !errors.Is(err, ErrTargetGone) {
			// transient: leave the row for the next tick
			s.reporter.ReportFailure("punish", "reverse "+string(p.Kind), p.GuildID, p.UserID, err)
			return
		}
	}
	s.cleanup(p)
}

// cleanup deletes the row and any matching role grant. Delete runs after a
// successful reversal so a crash in between retries the reversal, never
// skips it.
func (s *Scheduler) cleanup(p model.TimedPunishment) {
	if err := s.store.DeletePunishment(p.GuildID, p.UserID, p.Kind); err != nil {
		s.reporter.ReportFailure("punish", "delete row", p.GuildID, p.UserID, err)
		return
	}
	if p.RoleID != "" {
		if err := s.grants.RemoveGrant(p.GuildID, p.UserID, p.RoleID); err != nil {
			s.reporter.ReportFailure("punish", "delete role grant", p.GuildID, p.UserID, err)
		}
	}
}

// undo performs the reversal against the transport. Reversals are idempotent
// from our side: reversing an already-reversed punishment surfaces as
// ErrTargetGone from the transport and is treated as success.
func (s *Scheduler) undo(p model.TimedPunishment) error {
	switch p.Kind {
	case model.PunishmentBan:
		return s.transport.Unban(p.GuildID, p.UserID)
	case model.PunishmentRoleMute:
		return s.transport.RemoveRole(p.GuildID, p.UserID, p.RoleID)
	case model.PunishmentVoiceMute:
		return s.transport.SetVoiceMute(p.GuildID, p.UserID, false)
	default:
		// kick and softban have nothing to reverse
		return nil
	}
}

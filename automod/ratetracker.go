package automod

import (
	"hash/fnv"
	"sync"
	"time"
)

// ResetPolicy selects how a rate window's counters are cleared.
type ResetPolicy int

const (
	// ResetTumbling clears every subject in the window at the same fixed
	// wall-clock boundary.
	ResetTumbling ResetPolicy = iota
	// ResetStaggered spreads subject resets across the window minute by
	// minute, bucketed by a hash of the subject id, so a guild with
	// thousands of tracked subjects does not reset them all at once.
	ResetStaggered
)

// Window describes one rate rule's counting window.
type Window struct {
	Length time.Duration
	Policy ResetPolicy
}

// RateTracker keeps sliding counters keyed by guild, rule key and subject.
// Counters are created lazily and increments are linearizable per key.
type RateTracker struct {
	now func() time.Time

	mu     sync.Mutex
	guilds map[string]map[string]*ruleWindow
}

type ruleWindow struct {
	mu     sync.Mutex
	length time.Duration
	policy ResetPolicy
	epoch  time.Time // tumbling: start of the current window
	counts map[string]*subjectCount
}

type subjectCount struct {
	n     int64
	start time.Time // staggered: this subject's window start
}

// NewRateTracker creates an empty tracker.
func NewRateTracker() *RateTracker {
	return &RateTracker{
		now:    time.Now,
		guilds: make(map[string]map[string]*ruleWindow),
	}
}

// Record adds n events for the subject under (guild, key) and returns the
// count accumulated in the current window, after any boundary reset.
func (t *RateTracker) Record(guildID, subject, key string, n int64, w Window) int64 {
	win := t.window(guildID, key, w)

	win.mu.Lock()
	defer win.mu.Unlock()

	now := t.now()
	switch win.policy {
	case ResetTumbling:
		boundary := now.Truncate(win.length)
		if boundary.After(win.epoch) {
			// swap the whole map rather than clearing per key
			win.counts = make(map[string]*subjectCount)
			win.epoch = boundary
		}
	case ResetStaggered:
		boundary := staggeredBoundary(subject, now, win.length)
		if c, ok := win.counts[subject]; ok && c.start.Before(boundary) {
			delete(win.counts, subject)
		}
	}

	c, ok := win.counts[subject]
	if !ok {
		c = &subjectCount{start: now}
		win.counts[subject] = c
	}
	c.n += n
	return c.n
}

// Reset clears the counter for one subject under (guild, key).
func (t *RateTracker) Reset(guildID, subject, key string) {
	t.mu.Lock()
	keys, ok := t.guilds[guildID]
	if !ok {
		t.mu.Unlock()
		return
	}
	win, ok := keys[key]
	t.mu.Unlock()
	if !ok {
		return
	}

	win.mu.Lock()
	delete(win.counts, subject)
	win.mu.Unlock()
}

func (t *RateTracker) window(guildID, key string, w Window) *ruleWindow {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys, ok := t.guilds[guildID]
	if !ok {
		keys = make(map[string]*ruleWindow)
		t.guilds[guildID] = keys
	}
	win, ok := keys[key]
	if !ok {
		win = &ruleWindow{
			length: w.Length,
			policy: w.Policy,
			epoch:  t.now().Truncate(w.Length),
			counts: make(map[string]*subjectCount),
		}
		keys[key] = win
	}
	return win
}

// staggeredBoundary offsets the subject's window boundary by
// (hash(subject) mod window-minutes) minutes, spreading resets across the
// window instead of clustering them at one instant.
func staggeredBoundary(subject string, now time.Time, length time.Duration) time.Time {
	minutes := int64(length / time.Minute)
	if minutes <= 0 {
		return now.Truncate(length)
	}
	h := fnv.New32a()
	h.Write([]byte(subject))
	offset := time.Duration(int64(h.Sum32())%minutes) * time.Minute
	return now.Add(-offset).Truncate(length).Add(offset)
}

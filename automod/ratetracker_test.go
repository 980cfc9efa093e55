package automod

import (
	"fmt"
	"hash/fnv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCountsWithinWindow(t *testing.T) {
	tr := NewRateTracker()
	w := Window{Length: 10 * time.Second, Policy: ResetStaggered}

	for i := int64(1); i <= 5; i++ {
		got := tr.Record("g", "u", "spam:messages:1", 1, w)
		assert.Equal(t, i, got)
	}
}

func TestRecordKeysAreIndependent(t *testing.T) {
	tr := NewRateTracker()
	w := Window{Length: time.Minute, Policy: ResetStaggered}

	assert.Equal(t, int64(1), tr.Record("g1", "u", "k", 1, w))
	assert.Equal(t, int64(1), tr.Record("g2", "u", "k", 1, w))
	assert.Equal(t, int64(1), tr.Record("g1", "v", "k", 1, w))
	assert.Equal(t, int64(1), tr.Record("g1", "u", "other", 1, w))
	assert.Equal(t, int64(2), tr.Record("g1", "u", "k", 1, w))
}

func TestResetClearsOneSubject(t *testing.T) {
	tr := NewRateTracker()
	w := Window{Length: time.Minute, Policy: ResetStaggered}

	tr.Record("g", "u", "k", 3, w)
	tr.Record("g", "v", "k", 2, w)
	tr.Reset("g", "u", "k")

	assert.Equal(t, int64(1), tr.Record("g", "u", "k", 1, w))
	assert.Equal(t, int64(3), tr.Record("g", "v", "k", 1, w))
}

func TestTumblingBoundaryResetsAllSubjects(t *testing.T) {
	tr := NewRateTracker()
	base := time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC)
	tr.now = func() time.Time { return base }
	w := Window{Length: time.Minute, Policy: ResetTumbling}

	tr.Record("g", "u", "k", 4, w)
	tr.Record("g", "v", "k", 4, w)

	// cross the minute boundary
	tr.now = func() time.Time { return base.Add(31 * time.Second) }
	assert.Equal(t, int64(1), tr.Record("g", "u", "k", 1, w))
	assert.Equal(t, int64(1), tr.Record("g", "v", "k", 1, w))
}

func TestTumblingKeepsCountInsideWindow(t *testing.T) {
	tr := NewRateTracker()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return base }
	w := Window{Length: time.Minute, Policy: ResetTumbling}

	tr.Record("g", "u", "k", 1, w)
	tr.now = func() time.Time { return base.Add(59 * time.Second) }
	assert.Equal(t, int64(2), tr.Record("g", "u", "k", 1, w))
}

func TestStaggeredBoundaryResetsPerSubject(t *testing.T) {
	tr := NewRateTracker()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return base }
	w := Window{Length: 5 * time.Minute, Policy: ResetStaggered}

	tr.Record("g", "u", "k", 3, w)

	// a full window later the subject's counter has rolled over regardless
	// of its stagger bucket
	tr.now = func() time.Time { return base.Add(5 * time.Minute) }
	assert.Equal(t, int64(1), tr.Record("g", "u", "k", 1, w))
}

func TestStaggeredSubjectsResetAtDifferentMinutes(t *testing.T) {
	tr := NewRateTracker()
	w := Window{Length: 10 * time.Minute, Policy: ResetStaggered}

	// a subject's reset minute within the window is hash(subject) mod the
	// window's minute count
	offset := func(subject string) time.Duration {
		h := fnv.New32a()
		h.Write([]byte(subject))
		return time.Duration(int64(h.Sum32())%10) * time.Minute
	}

	// find two subjects whose buckets are at least two minutes apart
	var early, late string
	for i := 0; i < 256 && late == ""; i++ {
		s := fmt.Sprintf("user%d", i)
		switch {
		case early == "":
			if offset(s) <= 7*time.Minute {
				early = s
			}
		case offset(s) >= offset(early)+2*time.Minute:
			late = s
		}
	}
	require.NotEmpty(t, late, "no subject pair in distinct buckets")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	start := base.Add(offset(late))
	tr.now = func() time.Time { return start }
	tr.Record("g", early, "k", 1, w)
	tr.Record("g", late, "k", 1, w)

	// one minute past the early subject's boundary, before the late one's
	tr.now = func() time.Time { return base.Add(10*time.Minute + offset(early) + time.Minute) }
	assert.Equal(t, int64(1), tr.Record("g", early, "k", 1, w), "early bucket must have reset")
	assert.Equal(t, int64(2), tr.Record("g", late, "k", 1, w), "late bucket keeps its count")
}

func TestConcurrentRecordsLoseNoIncrement(t *testing.T) {
	tr := NewRateTracker()
	w := Window{Length: time.Hour, Policy: ResetStaggered}

	const goroutines = 16
	const perGoroutine = 200

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				tr.Record("g", "u", "k", 1, w)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines*perGoroutine+1), tr.Record("g", "u", "k", 1, w))
}

package raid

import (
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyGuard/pkg/clock"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/PancyStudios/PancyGuard/pkg/metrics"
	"github.com/puzpuzpuz/xsync/v3"
)

type joinEntry struct {
	timestamps []time.Time
	window     time.Duration
}

// JoinTracker keeps recent join timestamps per guild in memory
type JoinTracker struct {
	guilds   *xsync.MapOf[string, *joinEntry]
	clock    clock.Clock
	stopChan chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
	started  bool
}

// NewJoinTracker creates an empty JoinTracker
func NewJoinTracker(clk clock.Clock) *JoinTracker {
	return &JoinTracker{
		guilds:   xsync.NewMapOf[string, *joinEntry](),
		clock:    clk,
		stopChan: make(chan struct{}),
	}
}

// Record adds a join and returns how many joins fall inside window, this one included
func (j *JoinTracker) Record(guildID string, window time.Duration) int {
	now := j.clock.Now()
	count := 0
	j.guilds.Compute(guildID, func(entry *joinEntry, loaded bool) (*joinEntry, bool) {
		if !loaded {
			entry = &joinEntry{}
		}
		entry.window = window
		entry.timestamps = prune(append(entry.timestamps, now), now, window)
		count = len(entry.timestamps)
		return entry, false
	})
	return count
}

// Recent returns the number of joins inside the last recorded window of a guild
func (j *JoinTracker) Recent(guildID string) int {
	now := j.clock.Now()
	n := 0
	j.guilds.Compute(guildID, func(e *joinEntry, loaded bool) (*joinEntry, bool) {
		if !loaded {
			return e, true
		}
		for _, ts := range e.timestamps {
			if now.Sub(ts) < e.window {
				n++
			}
		}
		return e, false
	})
	return n
}

func prune(timestamps []time.Time, now time.Time, window time.Duration) []time.Time {
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < window {
			kept = append(kept, ts)
		}
	}
	return kept
}

// Sweep drops joins older than twice their window and forgets empty guilds
func (j *JoinTracker) Sweep() int {
	now := j.clock.Now()
	var keys []string
	j.guilds.Range(func(key string, _ *joinEntry) bool {
		keys = append(keys, key)
		return true
	})

	evicted := 0
	for _, key := range keys {
		j.guilds.Compute(key, func(entry *joinEntry, loaded bool) (*joinEntry, bool) {
			if !loaded {
				return entry, true
			}
			entry.timestamps = prune(entry.timestamps, now, 2*entry.window)
			if len(entry.timestamps) == 0 {
				evicted++
				return entry, true
			}
			return entry, false
		})
	}

	metrics.TrackerEntries.WithLabelValues("joins").Set(float64(j.guilds.Size()))
	return evicted
}

// StartSweeper sweeps on a ticker until StopSweeper is called
func (j *JoinTracker) StartSweeper(interval time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started {
		return
	}
	j.started = true

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := j.Sweep(); n > 0 {
					logger.Debug(fmt.Sprintf("Servidores sin uniones recientes liberados: %d", n), "RaidProtection")
				}
			case <-j.stopChan:
				return
			}
		}
	}()
}

// StopSweeper stops the sweep goroutine
func (j *JoinTracker) StopSweeper() {
	j.stopOnce.Do(func() { close(j.stopChan) })
}

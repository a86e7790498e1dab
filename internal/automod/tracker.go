package automod

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/PancyGuard/pkg/clock"
	"github.com/PancyStudios/PancyGuard/pkg/logger"
	"github.com/PancyStudios/PancyGuard/pkg/metrics"
	"github.com/puzpuzpuz/xsync/v3"
)

type rateEntry struct {
	timestamps []time.Time
	contents   map[string]int
	window     time.Duration
}

// Observation is the tracker snapshot taken right after a message was recorded
type Observation struct {
	Recent     int
	Duplicates int
}

// Tracker keeps per guild+user message timestamps and duplicate counters in memory
type Tracker struct {
	entries  *xsync.MapOf[string, *rateEntry]
	clock    clock.Clock
	stopChan chan struct{}
	stopOnce sync.Once
	started  bool
	mu       sync.Mutex
}

// NewTracker creates an empty Tracker
func NewTracker(clk clock.Clock) *Tracker {
	return &Tracker{
		entries:  xsync.NewMapOf[string, *rateEntry](),
		clock:    clk,
		stopChan: make(chan struct{}),
	}
}

// Normalize lowercases, trims and collapses whitespace
func Normalize(content string) string {
	return strings.Join(strings.Fields(strings.ToLower(content)), " ")
}

func trackKey(guildID, userID string) string {
	return guildID + ":" + userID
}

// Observe records a message and returns the number of messages inside window
// (this one included) and how many times its normalized content has been seen.
func (t *Tracker) Observe(guildID, userID, content string, window time.Duration) Observation {
	now := t.clock.Now()
	hash := Normalize(content)
	var obs Observation

	t.entries.Compute(trackKey(guildID, userID), func(entry *rateEntry, loaded bool) (*rateEntry, bool) {
		if !loaded {
			entry = &rateEntry{contents: make(map[string]int)}
		}
		entry.window = window

		entry.timestamps = append(entry.timestamps, now)
		kept := entry.timestamps[:0]
		for _, ts := range entry.timestamps {
			if now.Sub(ts) < window {
				kept = append(kept, ts)
			}
		}
		entry.timestamps = kept

		entry.contents[hash]++
		obs = Observation{Recent: len(entry.timestamps), Duplicates: entry.contents[hash]}
		return entry, false
	})
	return obs
}

// Sweep drops entries that have no timestamp within twice their window
// and returns how many were evicted.
func (t *Tracker) Sweep() int {
	now := t.clock.Now()
	var keys []string
	t.entries.Range(func(key string, _ *rateEntry) bool {
		keys = append(keys, key)
		return true
	})

	evicted := 0
	for _, key := range keys {
		t.entries.Compute(key, func(entry *rateEntry, loaded bool) (*rateEntry, bool) {
			if !loaded {
				return entry, true
			}
			kept := entry.timestamps[:0]
			for _, ts := range entry.timestamps {
				if now.Sub(ts) < 2*entry.window {
					kept = append(kept, ts)
				}
			}
			entry.timestamps = kept
			if len(kept) == 0 {
				evicted++
				return entry, true
			}
			return entry, false
		})
	}

	metrics.TrackerEntries.WithLabelValues("messages").Set(float64(t.entries.Size()))
	return evicted
}

// Size returns the number of tracked guild+user pairs
func (t *Tracker) Size() int {
	return t.entries.Size()
}

// StartSweeper sweeps on a ticker until StopSweeper is called
func (t *Tracker) StartSweeper(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return
	}
	t.started = true

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := t.Sweep(); n > 0 {
					logger.Debug(fmt.Sprintf("Entradas de spam liberadas: %d", n), "AutoMod")
				}
			case <-t.stopChan:
				return
			}
		}
	}()
}

// StopSweeper stops the sweep goroutine
func (t *Tracker) StopSweeper() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}

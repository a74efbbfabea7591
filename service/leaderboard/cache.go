// Package leaderboard maintains a ranked snapshot of every collector's
// score, recomputed on a fixed interval rather than per request. There is
// no original reference implementation for the scoring rule here — it
// sums rarity_score * balance across every token a wallet holds, the rule
// this repository's specification describes directly.
package leaderboard

import (
	"sort"
	"sync"
	"time"
)

// Entry is one ranked leaderboard row.
type Entry struct {
	DisplayName string `json:"display_name"`
	Score       uint64 `json:"score"`
}

type snapshot struct {
	scores     map[string]uint64
	computedAt time.Time
}

// Cache holds the most recently computed snapshot behind a single lock.
// Reads only ever clone the current snapshot; computing a new one is the
// exclusive job of a Refresher.
type Cache struct {
	mu   sync.RWMutex
	snap *snapshot
}

func NewCache() *Cache {
	return &Cache{}
}

// Top returns up to n ranked entries (n <= 0 means every entry), along with
// the time the snapshot was computed. ok is false until the first refresh
// completes.
func (c *Cache) Top(n int) (entries []Entry, computedAt time.Time, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return nil, time.Time{}, false
	}

	entries = make([]Entry, 0, len(c.snap.scores))
	for name, score := range c.snap.scores {
		entries = append(entries, Entry{DisplayName: name, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries, c.snap.computedAt, true
}

// ScoreFor returns one display name's current score. ok is false if the
// name has no score in the current snapshot, or no snapshot exists yet.
func (c *Cache) ScoreFor(displayName string) (score uint64, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return 0, false
	}
	score, ok = c.snap.scores[displayName]
	return score, ok
}

func (c *Cache) set(scores map[string]uint64, computedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = &snapshot{scores: scores, computedAt: computedAt}
}

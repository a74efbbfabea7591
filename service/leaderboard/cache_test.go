package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheTopBeforeFirstRefresh(t *testing.T) {
	assert := assert.New(t)

	cache := NewCache()
	entries, computedAt, ok := cache.Top(0)
	assert.False(ok)
	assert.Nil(entries)
	assert.True(computedAt.IsZero())
}

func TestCacheTopOrdersByScoreThenName(t *testing.T) {
	assert := assert.New(t)

	cache := NewCache()
	now := time.Unix(1700000000, 0)
	cache.set(map[string]uint64{
		"bob":   50,
		"alice": 100,
		"carol": 100,
	}, now)

	entries, computedAt, ok := cache.Top(0)
	assert.True(ok)
	assert.Equal(now, computedAt)
	assert.Equal([]Entry{
		{DisplayName: "alice", Score: 100},
		{DisplayName: "carol", Score: 100},
		{DisplayName: "bob", Score: 50},
	}, entries)
}

func TestCacheTopTruncatesToN(t *testing.T) {
	assert := assert.New(t)

	cache := NewCache()
	cache.set(map[string]uint64{"a": 3, "b": 2, "c": 1}, time.Now())

	entries, _, ok := cache.Top(2)
	assert.True(ok)
	assert.Len(entries, 2)
	assert.Equal("a", entries[0].DisplayName)
	assert.Equal("b", entries[1].DisplayName)
}

func TestCacheScoreFor(t *testing.T) {
	assert := assert.New(t)

	cache := NewCache()
	cache.set(map[string]uint64{"alice": 42}, time.Now())

	score, ok := cache.ScoreFor("alice")
	assert.True(ok)
	assert.Equal(uint64(42), score)

	_, ok = cache.ScoreFor("nobody")
	assert.False(ok)
}

package dedup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/risk"
)

func TestRedisKeyIsStableAndDistinct(t *testing.T) {
	a := contracts.DedupKey{EventType: "Strike", Location: "Bangalore", ProductID: "P1"}
	b := contracts.DedupKey{EventType: "Strike", Location: "Bangalore", ProductID: "P2"}

	assert.Equal(t, RedisKey(a), RedisKey(a))
	assert.NotEqual(t, RedisKey(a), RedisKey(b))
	assert.True(t, strings.HasPrefix(RedisKey(a), keyPrefix))
	assert.Len(t, RedisKey(a), len(keyPrefix)+32)
}

func TestCandidates(t *testing.T) {
	events := []contracts.DisruptionEvent{
		{EventType: "Strike", Location: "Chennai"},
		{EventType: "Strike", Location: "Chennai", Timestamp: "later"},
		{EventType: "Flood", Location: "Chennai"},
	}
	inventory := []contracts.ShipmentRecord{{ProductID: "P1"}, {ProductID: "P2"}}

	keys := Candidates(events, inventory)
	assert.Len(t, keys, 4)
	assert.Equal(t, contracts.DedupKey{EventType: "Strike", Location: "Chennai", ProductID: "P1"}, keys[0])
}

func TestSnapshotSatisfiesHistory(t *testing.T) {
	key := contracts.DedupKey{EventType: "Strike", Location: "Chennai", ProductID: "P1"}
	var h risk.History = Snapshot{key: {}}

	assert.True(t, h.Contains(key))
	assert.False(t, h.Contains(contracts.DedupKey{EventType: "Flood", Location: "Chennai", ProductID: "P1"}))
}

func TestRedisKeySeparatorInsideField(t *testing.T) {
	a := contracts.DedupKey{EventType: "Strike|Port", Location: "X", ProductID: "P1"}
	b := contracts.DedupKey{EventType: "Strike", Location: "Port|X", ProductID: "P1"}

	assert.NotEqual(t, a.String(), b.String())
	assert.NotEqual(t, RedisKey(a), RedisKey(b))
}

package overlay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_reconciler/internal/domain/entity"
)

func TestStorePutGet(t *testing.T) {
	s := NewStore()

	_, ok := s.Get("w1")
	assert.False(t, ok)

	entry := entity.BalanceOverlayEntry{Value: 3.5, AsOf: time.Now(), Source: "solana-rpc"}
	s.Put("w1", entry)

	got, ok := s.Get("w1")
	require.True(t, ok)
	assert.Equal(t, entry, got)
	assert.Equal(t, 1, s.Len())
}

func TestStorePutReplaces(t *testing.T) {
	s := NewStore()
	s.Put("w1", entity.BalanceOverlayEntry{Value: 1})
	s.Put("w1", entity.BalanceOverlayEntry{Value: 2})

	got, ok := s.Get("w1")
	require.True(t, ok)
	assert.InDelta(t, 2, got.Value, 1e-9)
	assert.Equal(t, 1, s.Len())
}

func TestSnapshotIsDetachedCopy(t *testing.T) {
	s := NewStore()
	s.Put("w1", entity.BalanceOverlayEntry{Value: 1})

	snap := s.Snapshot()
	require.Len(t, snap, 1)

	// Mutating the snapshot or the store afterwards must not leak through.
	snap["w2"] = entity.BalanceOverlayEntry{Value: 9}
	_, ok := s.Get("w2")
	assert.False(t, ok)

	s.Put("w3", entity.BalanceOverlayEntry{Value: 3})
	_, inSnap := snap["w3"]
	assert.False(t, inSnap)
}

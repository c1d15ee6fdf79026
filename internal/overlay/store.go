package overlay

import (
	"github.com/patrickmn/go-cache"

	"wallet_reconciler/internal/domain/entity"
)

// Store holds live balance overlay entries keyed by wallet id (address when no
// id exists). Entries never expire and are never deleted on failed refreshes;
// a previously-good value stays visible until a newer fetch replaces it.
type Store struct {
	entries *cache.Cache
}

// NewStore creates an empty overlay store.
func NewStore() *Store {
	return &Store{entries: cache.New(cache.NoExpiration, 0)}
}

// Get returns the entry for a key.
func (s *Store) Get(key string) (entity.BalanceOverlayEntry, bool) {
	v, ok := s.entries.Get(key)
	if !ok {
		return entity.BalanceOverlayEntry{}, false
	}
	return v.(entity.BalanceOverlayEntry), true
}

// Put writes or replaces the entry for a key.
func (s *Store) Put(key string, e entity.BalanceOverlayEntry) {
	s.entries.Set(key, e, cache.NoExpiration)
}

// Snapshot returns a consistent copy of all entries. Aggregation reads the
// snapshot, never the live store, so an in-flight refresh can not expose a
// partially-updated view.
func (s *Store) Snapshot() map[string]entity.BalanceOverlayEntry {
	items := s.entries.Items()
	out := make(map[string]entity.BalanceOverlayEntry, len(items))
	for k, item := range items {
		out[k] = item.Object.(entity.BalanceOverlayEntry)
	}
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return s.entries.ItemCount()
}

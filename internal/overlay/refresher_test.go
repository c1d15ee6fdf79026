package overlay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wallet_reconciler/internal/domain/entity"
)

// fakeSource serves canned balances per address and records its calls.
type fakeSource struct {
	mu       sync.Mutex
	name     string
	balances map[string]float64
	failing  map[string]error
	calls    int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchBalance(_ context.Context, address string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.failing[address]; ok {
		return 0, err
	}
	if v, ok := f.balances[address]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("unknown address %s", address)
}

func solWallet(id, address string, stored float64) entity.CanonicalWallet {
	return entity.CanonicalWallet{
		Provider: entity.ProviderSolana,
		Record: entity.WalletRecord{
			WalletID:      id,
			ProviderType:  entity.ParseRawProvider("SolanaOASIS"),
			WalletAddress: address,
			Balance:       stored,
		},
	}
}

func newTestRefresher(store *Store, src BalanceSource) *Refresher {
	sources := map[entity.ProviderType]BalanceSource{
		entity.ProviderSolana: src,
	}
	return NewRefresher(store, sources, nil, time.Second, zap.NewNop())
}

func TestRefreshWritesEntryOnSuccess(t *testing.T) {
	store := NewStore()
	src := &fakeSource{name: "solana-rpc", balances: map[string]float64{"addr1": 7.5}}
	r := newTestRefresher(store, src)

	r.Refresh(context.Background(), []entity.CanonicalWallet{solWallet("w1", "addr1", 1.0)})

	entry, ok := store.Get("w1")
	require.True(t, ok)
	assert.InDelta(t, 7.5, entry.Value, 1e-9)
	assert.Equal(t, "solana-rpc", entry.Source)
	assert.False(t, entry.AsOf.IsZero())
}

func TestRefreshKeepsPreviousEntryOnFailure(t *testing.T) {
	store := NewStore()
	src := &fakeSource{name: "solana-rpc", failing: map[string]error{"addr1": errors.New("rpc down")}}
	r := newTestRefresher(store, src)

	previous := entity.BalanceOverlayEntry{Value: 7.0, AsOf: time.Now().Add(-time.Minute), Source: "solana-rpc"}
	store.Put("w1", previous)

	r.Refresh(context.Background(), []entity.CanonicalWallet{solWallet("w1", "addr1", 2.0)})

	entry, ok := store.Get("w1")
	require.True(t, ok)
	// Last-known overlay value survives; neither zeroed nor regressed to the
	// stale stored balance.
	assert.InDelta(t, 7.0, entry.Value, 1e-9)
	assert.Equal(t, previous.AsOf, entry.AsOf)
}

func TestRefreshSeedsStoredBalanceWhenNoPriorEntry(t *testing.T) {
	store := NewStore()
	src := &fakeSource{name: "solana-rpc", failing: map[string]error{"addr1": errors.New("rpc down")}}
	r := newTestRefresher(store, src)

	r.Refresh(context.Background(), []entity.CanonicalWallet{solWallet("w1", "addr1", 2.25)})

	entry, ok := store.Get("w1")
	require.True(t, ok)
	assert.InDelta(t, 2.25, entry.Value, 1e-9)
	assert.Equal(t, StoredBalanceSource, entry.Source)
}

func TestRefreshFailuresAreIndependentAcrossWallets(t *testing.T) {
	store := NewStore()
	src := &fakeSource{
		name:     "solana-rpc",
		balances: map[string]float64{"good": 4.0},
		failing:  map[string]error{"bad": errors.New("boom")},
	}
	r := newTestRefresher(store, src)

	r.Refresh(context.Background(), []entity.CanonicalWallet{
		solWallet("w-good", "good", 0),
		solWallet("w-bad", "bad", 1.0),
	})

	good, ok := store.Get("w-good")
	require.True(t, ok)
	assert.InDelta(t, 4.0, good.Value, 1e-9)

	bad, ok := store.Get("w-bad")
	require.True(t, ok)
	assert.Equal(t, StoredBalanceSource, bad.Source)
}

func TestRefreshIdempotentWhenBalanceUnchanged(t *testing.T) {
	store := NewStore()
	src := &fakeSource{name: "solana-rpc", balances: map[string]float64{"addr1": 5.0}}
	r := newTestRefresher(store, src)

	wallets := []entity.CanonicalWallet{solWallet("w1", "addr1", 0)}

	r.Refresh(context.Background(), wallets)
	first, ok := store.Get("w1")
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)
	r.Refresh(context.Background(), wallets)
	second, ok := store.Get("w1")
	require.True(t, ok)

	assert.Equal(t, first.Value, second.Value)
	assert.True(t, second.AsOf.After(first.AsOf), "asOf must advance on refresh")
}

func TestRefreshDiscardsResultForIneligibleWallet(t *testing.T) {
	store := NewStore()
	src := &fakeSource{name: "solana-rpc", balances: map[string]float64{"addr1": 5.0}}
	r := newTestRefresher(store, src)

	// Simulates the wallet leaving the eligible set while its fetch is in
	// flight: the guard rejects the commit.
	r.SetEligibilityGuard(func() map[string]struct{} {
		return map[string]struct{}{}
	})

	r.Refresh(context.Background(), []entity.CanonicalWallet{solWallet("w1", "addr1", 1.0)})

	_, ok := store.Get("w1")
	assert.False(t, ok)
}

func TestEligibleFiltersProvidersAndEmptyAddresses(t *testing.T) {
	r := newTestRefresher(NewStore(), &fakeSource{name: "solana-rpc"})

	wallets := []entity.CanonicalWallet{
		solWallet("w1", "addr1", 0),
		solWallet("w2", "", 0), // no address, nothing to query
		{
			Provider: entity.ProviderEthereum,
			Record:   entity.WalletRecord{WalletID: "w3", WalletAddress: "0xabc"},
		},
	}

	eligible := r.Eligible(wallets)
	require.Len(t, eligible, 1)
	assert.Equal(t, "w1", eligible[0].Record.WalletID)
}

func TestRefreshNoEligibleWalletsDoesNothing(t *testing.T) {
	src := &fakeSource{name: "solana-rpc"}
	r := newTestRefresher(NewStore(), src)

	r.Refresh(context.Background(), nil)
	r.Refresh(context.Background(), []entity.CanonicalWallet{
		{Provider: entity.ProviderEthereum, Record: entity.WalletRecord{WalletID: "w1", WalletAddress: "0xabc"}},
	})

	assert.Zero(t, src.calls)
}

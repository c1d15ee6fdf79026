package overlay

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"wallet_reconciler/internal/domain/entity"
	"wallet_reconciler/pkg/metrics"
)

// StoredBalanceSource marks an overlay entry seeded from the wallet's
// backend-stored balance because no live fetch has ever succeeded for it.
const StoredBalanceSource = "stored"

// BalanceSource fetches the live on-chain balance for one address, in the
// chain's display unit.
type BalanceSource interface {
	Name() string
	FetchBalance(ctx context.Context, address string) (float64, error)
}

// Refresher overlays live balances onto canonical wallets for the providers
// whose backend-stored balances are unreliable. Providers without a registered
// source pass through untouched and keep their stored balance.
type Refresher struct {
	store   *Store
	sources map[entity.ProviderType]BalanceSource
	limiter *rate.Limiter
	timeout time.Duration
	log     *zap.Logger

	// eligibleNow returns the overlay keys currently eligible; a fetch result
	// whose wallet left the eligible set mid-flight is discarded instead of
	// written. Nil disables the guard (tests).
	eligibleNow func() map[string]struct{}
}

// NewRefresher creates a Refresher over the given per-provider sources.
func NewRefresher(
	store *Store,
	sources map[entity.ProviderType]BalanceSource,
	limiter *rate.Limiter,
	timeout time.Duration,
	log *zap.Logger,
) *Refresher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Refresher{
		store:   store,
		sources: sources,
		limiter: limiter,
		timeout: timeout,
		log:     log.Named("OverlayRefresher"),
	}
}

// SetEligibilityGuard installs the current-eligibility check used before
// committing fetch results.
func (r *Refresher) SetEligibilityGuard(f func() map[string]struct{}) {
	r.eligibleNow = f
}

// Eligible returns the wallets from the given set that have a live balance
// source registered for their provider.
func (r *Refresher) Eligible(wallets []entity.CanonicalWallet) []entity.CanonicalWallet {
	eligible := make([]entity.CanonicalWallet, 0, len(wallets))
	for _, w := range wallets {
		if _, ok := r.sources[w.Provider]; ok && w.Record.WalletAddress != "" {
			eligible = append(eligible, w)
		}
	}
	return eligible
}

// Refresh fetches live balances for every eligible wallet in the set. Fetches
// for different wallets run concurrently and fail independently: a failed
// fetch leaves any existing entry untouched, and seeds an entry from the
// wallet's stored balance when none exists so the displayed value is never
// absent. Refresh never returns an error for per-wallet failures.
func (r *Refresher) Refresh(ctx context.Context, wallets []entity.CanonicalWallet) {
	eligible := r.Eligible(wallets)
	if len(eligible) == 0 {
		return
	}

	eg, groupCtx := errgroup.WithContext(ctx)
	for _, wallet := range eligible {
		w := wallet
		eg.Go(func() error {
			r.refreshOne(groupCtx, w)
			return nil
		})
	}
	// Goroutines always return nil; errgroup is used for fan-out and
	// context propagation only.
	_ = eg.Wait()
}

func (r *Refresher) refreshOne(ctx context.Context, w entity.CanonicalWallet) {
	source := r.sources[w.Provider]
	key := w.OverlayKey()

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			r.fallback(w, key, err)
			return
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	value, err := source.FetchBalance(fetchCtx, w.Record.WalletAddress)
	if err != nil {
		metrics.OverlayRefreshFailures.WithLabelValues(string(w.Provider)).Inc()
		r.fallback(w, key, err)
		return
	}

	if !r.stillEligible(key) {
		r.log.Debug("Discarding balance for wallet no longer eligible",
			zap.String("provider", string(w.Provider)),
			zap.String("key", key))
		return
	}

	r.store.Put(key, entity.BalanceOverlayEntry{
		Value:  value,
		AsOf:   time.Now().UTC(),
		Source: source.Name(),
	})
	metrics.OverlayRefreshSuccesses.WithLabelValues(string(w.Provider)).Inc()
}

// fallback applies the cache-preserving failure policy: keep the previous
// entry if one exists, otherwise seed from the stored balance.
func (r *Refresher) fallback(w entity.CanonicalWallet, key string, err error) {
	if _, ok := r.store.Get(key); ok {
		r.log.Warn("Balance refresh failed, keeping previous overlay value",
			zap.String("provider", string(w.Provider)),
			zap.String("key", key),
			zap.Error(err))
		return
	}
	if !r.stillEligible(key) {
		return
	}
	r.log.Warn("Balance refresh failed with no prior value, seeding from stored balance",
		zap.String("provider", string(w.Provider)),
		zap.String("key", key),
		zap.Error(err))
	r.store.Put(key, entity.BalanceOverlayEntry{
		Value:  w.Record.Balance,
		AsOf:   time.Now().UTC(),
		Source: StoredBalanceSource,
	})
}

func (r *Refresher) stillEligible(key string) bool {
	if r.eligibleNow == nil {
		return true
	}
	_, ok := r.eligibleNow()[key]
	return ok
}

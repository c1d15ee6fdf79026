package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wallet_reconciler/internal/client"
	"wallet_reconciler/internal/config"
	"wallet_reconciler/internal/domain/entity"
	"wallet_reconciler/internal/overlay"
	"wallet_reconciler/internal/reconcile"
	"wallet_reconciler/pkg/metrics"
)

// ErrWalletAPIUnavailable is returned when the wallet-list fetch itself fails.
// It is the only failure the reconciliation engine propagates upward; in that
// case the previously-known wallet set is left untouched rather than cleared.
var ErrWalletAPIUnavailable = errors.New("wallet API unavailable")

// WalletView is a canonical wallet prepared for display: the stored record
// plus its overlay-aware effective balance.
type WalletView struct {
	Provider         entity.ProviderType `json:"provider"`
	WalletID         string              `json:"walletId"`
	WalletAddress    string              `json:"walletAddress"`
	StoredBalance    float64             `json:"storedBalance"`
	EffectiveBalance float64             `json:"effectiveBalance"`
	Live             bool                `json:"live"`
	BalanceAsOf      *time.Time          `json:"balanceAsOf,omitempty"`
	BalanceSource    string              `json:"balanceSource,omitempty"`
}

// WalletService orchestrates the reconciliation flow: wallet-list fetch,
// engine pass, overlay snapshot and portfolio aggregation.
type WalletService struct {
	walletAPI client.WalletAPIClient
	engine    *reconcile.Engine
	store     *overlay.Store
	cfg       *config.Config
	logger    *zap.Logger

	// onReconciled is invoked after every successful reconciliation pass
	// (wired to the overlay scheduler's Poke in main).
	onReconciled func()
}

// NewWalletService creates a new WalletService.
func NewWalletService(
	walletAPI client.WalletAPIClient,
	engine *reconcile.Engine,
	store *overlay.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *WalletService {
	return &WalletService{
		walletAPI: walletAPI,
		engine:    engine,
		store:     store,
		cfg:       cfg,
		logger:    logger.Named("WalletService"),
	}
}

// SetReconcileHook installs the callback run after each successful pass.
func (s *WalletService) SetReconcileHook(f func()) {
	s.onReconciled = f
}

// RefreshWallets fetches the stored wallet records and runs a reconciliation
// pass. An empty result is a success (the user simply has no wallets); a
// failed fetch returns ErrWalletAPIUnavailable and leaves the previous
// snapshot standing.
func (s *WalletService) RefreshWallets(ctx context.Context) error {
	raw, err := s.walletAPI.GetWalletsByAvatar(ctx, s.cfg.WalletAPI.AvatarID)
	if err != nil {
		metrics.WalletAPIErrors.Inc()
		s.logger.Error("Wallet list fetch failed, keeping previous snapshot", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrWalletAPIUnavailable, err)
	}

	s.engine.ApplyRecords(raw)
	metrics.ReconcilePasses.Inc()
	metrics.CanonicalWallets.Set(float64(len(s.engine.CanonicalWallets())))

	if s.onReconciled != nil {
		s.onReconciled()
	}
	return nil
}

// Hydrated reports whether at least one reconciliation pass has completed.
func (s *WalletService) Hydrated() bool {
	return s.engine.Hydrated()
}

// Wallets returns the canonical wallets with their effective balances.
func (s *WalletService) Wallets() []WalletView {
	wallets := s.engine.CanonicalWallets()
	snapshot := s.store.Snapshot()

	views := make([]WalletView, 0, len(wallets))
	for _, w := range wallets {
		view := WalletView{
			Provider:         w.Provider,
			WalletID:         w.Record.WalletID,
			WalletAddress:    w.Record.WalletAddress,
			StoredBalance:    w.Record.Balance,
			EffectiveBalance: reconcile.EffectiveBalance(w, snapshot),
		}
		if entry, ok := snapshot[w.OverlayKey()]; ok {
			asOf := entry.AsOf
			view.Live = entry.Source != overlay.StoredBalanceSource
			view.BalanceAsOf = &asOf
			view.BalanceSource = entry.Source
		}
		views = append(views, view)
	}
	return views
}

// Portfolio aggregates the effective balances over the canonical wallet set.
func (s *WalletService) Portfolio() entity.Portfolio {
	portfolio := reconcile.Aggregate(s.engine.CanonicalWallets(), s.store.Snapshot())
	metrics.PortfolioTotal.Set(portfolio.TotalBalance)
	return portfolio
}

// CanonicalWallets exposes the engine's current snapshot (used by the overlay
// scheduler).
func (s *WalletService) CanonicalWallets() []entity.CanonicalWallet {
	return s.engine.CanonicalWallets()
}

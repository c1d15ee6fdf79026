package reconcile

import (
	"math"

	"wallet_reconciler/internal/domain/entity"
)

// Aggregate computes the portfolio over the canonical wallet set. Effective
// balance per wallet is the overlay value when an entry exists for the
// wallet's key, else the stored balance, else 0. An empty input yields a zero
// portfolio; non-finite stored balances count as 0, so the total can never be
// NaN.
func Aggregate(wallets []entity.CanonicalWallet, overlay map[string]entity.BalanceOverlayEntry) entity.Portfolio {
	portfolio := entity.Portfolio{
		PerWallet: make(map[entity.ProviderType]float64, len(wallets)),
	}
	for _, w := range wallets {
		value := EffectiveBalance(w, overlay)
		portfolio.PerWallet[w.Provider] = value
		portfolio.TotalBalance += value
	}
	return portfolio
}

// EffectiveBalance is the overlay-aware balance of a single canonical wallet.
func EffectiveBalance(w entity.CanonicalWallet, overlay map[string]entity.BalanceOverlayEntry) float64 {
	if entry, ok := overlay[w.OverlayKey()]; ok && isFinite(entry.Value) {
		return entry.Value
	}
	if isFinite(w.Record.Balance) {
		return w.Record.Balance
	}
	return 0
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

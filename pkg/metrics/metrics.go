package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ReconcilePasses counts completed reconciliation passes.
	ReconcilePasses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wallet_reconcile_passes_total",
		Help: "Number of completed wallet reconciliation passes.",
	})

	// WalletAPIErrors counts failed wallet-list fetches.
	WalletAPIErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wallet_api_errors_total",
		Help: "Number of failed wallet-list API requests.",
	})

	// OverlayRefreshSuccesses counts successful live balance fetches per provider.
	OverlayRefreshSuccesses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overlay_refresh_successes_total",
		Help: "Number of successful live balance refreshes.",
	}, []string{"provider"})

	// OverlayRefreshFailures counts failed live balance fetches per provider.
	OverlayRefreshFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overlay_refresh_failures_total",
		Help: "Number of failed live balance refreshes.",
	}, []string{"provider"})

	// CanonicalWallets tracks the size of the current canonical wallet set.
	CanonicalWallets = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "canonical_wallets",
		Help: "Number of canonical wallets in the current snapshot.",
	})

	// PortfolioTotal tracks the last aggregated portfolio balance.
	PortfolioTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "portfolio_total_balance",
		Help: "Last aggregated total portfolio balance.",
	})
)

// MustRegisterMetrics registers all collectors with the default registry.
// Panics on duplicate registration, which only happens on programmer error.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		ReconcilePasses,
		WalletAPIErrors,
		OverlayRefreshSuccesses,
		OverlayRefreshFailures,
		CanonicalWallets,
		PortfolioTotal,
	)
}

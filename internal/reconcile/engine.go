package reconcile

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"wallet_reconciler/internal/domain/entity"
)

// Engine owns the reconciliation state: the canonical wallet per provider
// derived from the most recent successful wallet-list load. It is the only
// component allowed to mutate that state; readers get copies of a consistent
// snapshot. Downstream consumers must check Hydrated before trusting derived
// state (an engine that never applied a record set reports an empty portfolio
// that means "unknown", not "zero").
type Engine struct {
	norm     *Normalizer
	filter   *Filter
	selector *Selector
	log      *zap.Logger

	mu        sync.RWMutex
	hydrated  bool
	canonical map[entity.ProviderType]entity.CanonicalWallet
}

// NewEngine creates an Engine with the given selector policy.
func NewEngine(selCfg SelectorConfig, log *zap.Logger) *Engine {
	norm := NewNormalizer(log)
	return &Engine{
		norm:      norm,
		filter:    NewFilter(norm),
		selector:  NewSelector(selCfg),
		log:       log.Named("ReconcileEngine"),
		canonical: make(map[entity.ProviderType]entity.CanonicalWallet),
	}
}

// ApplyRecords runs a full reconciliation pass over a raw wallet-list payload
// and atomically replaces the canonical snapshot. The payload's grouping keys
// are not trusted: every record is filtered and re-grouped by its own
// normalized provider type. Callers must not invoke ApplyRecords for a failed
// load; on failure the previous snapshot stands (see the service layer).
func (e *Engine) ApplyRecords(raw map[string][]entity.WalletRecord) {
	flat := make([]entity.WalletRecord, 0)
	for _, group := range raw {
		flat = append(flat, group...)
	}

	visible := e.filter.Visible(flat)

	byProvider := make(map[entity.ProviderType][]entity.WalletRecord)
	for _, rec := range visible {
		p := e.norm.Normalize(rec.ProviderType)
		byProvider[p] = append(byProvider[p], rec)
	}

	canonical := make(map[entity.ProviderType]entity.CanonicalWallet, len(byProvider))
	for provider, records := range byProvider {
		rec, ok := e.selector.SelectCanonical(provider, records)
		if !ok {
			continue
		}
		canonical[provider] = entity.CanonicalWallet{Provider: provider, Record: rec}
	}

	e.mu.Lock()
	e.canonical = canonical
	e.hydrated = true
	e.mu.Unlock()

	e.log.Debug("Reconciliation pass applied",
		zap.Int("rawRecords", len(flat)),
		zap.Int("visibleRecords", len(visible)),
		zap.Int("canonicalWallets", len(canonical)))
}

// Hydrated reports whether at least one record set has been applied.
func (e *Engine) Hydrated() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hydrated
}

// CanonicalWallets returns the current canonical wallet set, ordered by
// provider for stable output.
func (e *Engine) CanonicalWallets() []entity.CanonicalWallet {
	e.mu.RLock()
	defer e.mu.RUnlock()

	wallets := make([]entity.CanonicalWallet, 0, len(e.canonical))
	for _, w := range e.canonical {
		wallets = append(wallets, w)
	}
	sort.Slice(wallets, func(i, j int) bool {
		return wallets[i].Provider < wallets[j].Provider
	})
	return wallets
}

// CanonicalWallet returns the canonical wallet for one provider.
func (e *Engine) CanonicalWallet(p entity.ProviderType) (entity.CanonicalWallet, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	w, ok := e.canonical[p]
	return w, ok
}

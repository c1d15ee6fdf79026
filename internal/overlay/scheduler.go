package overlay

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"wallet_reconciler/internal/domain/entity"
)

// Fingerprint derives the trigger key of an eligible wallet set: the sorted,
// deduplicated wallet keys and addresses. Deriving the key from identifiers
// only (never the full wallet objects) keeps unrelated record changes, like a
// stored-balance update, from re-triggering an eager refresh.
func Fingerprint(wallets []entity.CanonicalWallet) string {
	seen := make(map[string]struct{}, len(wallets)*2)
	parts := make([]string, 0, len(wallets)*2)
	for _, w := range wallets {
		for _, id := range []string{w.OverlayKey(), w.Record.WalletAddress} {
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			parts = append(parts, id)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// Scheduler runs overlay refreshes on a fixed interval for as long as the
// eligible wallet set is non-empty, plus one eager refresh whenever the set's
// fingerprint changes. It is an explicit, cancellable task: Stop tears it
// down deterministically instead of leaking a ticker.
type Scheduler struct {
	refresher *Refresher
	wallets   func() []entity.CanonicalWallet
	interval  time.Duration
	log       *zap.Logger

	mu          sync.Mutex
	fingerprint string
	cancel      context.CancelFunc
	done        chan struct{}
	poke        chan struct{}
}

// NewScheduler creates a Scheduler. wallets must return the current canonical
// wallet set; the scheduler derives the eligible subset itself.
func NewScheduler(refresher *Refresher, wallets func() []entity.CanonicalWallet, interval time.Duration, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		refresher: refresher,
		wallets:   wallets,
		interval:  interval,
		log:       log.Named("OverlayScheduler"),
		poke:      make(chan struct{}, 1),
	}
}

// Start launches the refresh loop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)
}

// Stop cancels the refresh loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Poke notifies the scheduler that the canonical wallet set may have changed.
// If the eligible-set fingerprint actually changed, one eager refresh runs;
// otherwise the poke is a no-op. Safe to call from any goroutine.
func (s *Scheduler) Poke() {
	select {
	case s.poke <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.poke:
			s.refreshIfChanged(ctx)
		case <-ticker.C:
			s.refreshIfEligible(ctx)
		}
	}
}

func (s *Scheduler) refreshIfChanged(ctx context.Context) {
	wallets := s.wallets()
	eligible := s.refresher.Eligible(wallets)
	fp := Fingerprint(eligible)

	s.mu.Lock()
	changed := fp != s.fingerprint
	s.fingerprint = fp
	s.mu.Unlock()

	if !changed || len(eligible) == 0 {
		return
	}
	s.log.Debug("Eligible wallet set changed, refreshing eagerly",
		zap.Int("eligibleWallets", len(eligible)))
	s.refresher.Refresh(ctx, wallets)
}

func (s *Scheduler) refreshIfEligible(ctx context.Context) {
	wallets := s.wallets()
	if len(s.refresher.Eligible(wallets)) == 0 {
		return
	}
	s.refresher.Refresh(ctx, wallets)
}

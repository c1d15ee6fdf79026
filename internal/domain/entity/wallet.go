package entity

import (
	"strings"
	"time"
)

// SentinelDate is the backend's "no real timestamp was ever set" value.
// Timestamps equal to it (with or without a zone suffix) are treated as absent.
const SentinelDate = "0001-01-01T00:00:00"

// WalletRecord is one stored wallet as returned by the wallet API. WalletID is
// unique within a provider, but a user may own any number of records per
// provider from repeated import/generation flows.
type WalletRecord struct {
	WalletID        string          `json:"walletId"`
	ProviderType    RawProviderType `json:"-"`
	WalletAddress   string          `json:"walletAddress"`
	Balance         float64         `json:"balance"`
	CreatedDate     string          `json:"createdDate"`
	ModifiedDate    string          `json:"modifiedDate"`
	IsDefaultWallet bool            `json:"isDefaultWallet"`
}

// EffectiveDate returns the record's modifiedDate, falling back to
// createdDate. The second return is false when neither holds a real
// timestamp (empty or the zero-date sentinel).
func (r WalletRecord) EffectiveDate() (string, bool) {
	if isRealDate(r.ModifiedDate) {
		return r.ModifiedDate, true
	}
	if isRealDate(r.CreatedDate) {
		return r.CreatedDate, true
	}
	return "", false
}

func isRealDate(s string) bool {
	if s == "" {
		return false
	}
	// The backend emits the sentinel with assorted suffixes (Z, offset,
	// fractional seconds); the date part alone identifies it.
	return !strings.HasPrefix(s, "0001-01-01")
}

// CanonicalWallet is the single record chosen to represent a provider at a
// point in time. Exactly zero or one exists per provider per reconciliation
// pass.
type CanonicalWallet struct {
	Provider ProviderType `json:"provider"`
	Record   WalletRecord `json:"record"`
}

// OverlayKey returns the key a live balance entry is stored under for this
// wallet: walletId, falling back to walletAddress when the id is absent.
func (w CanonicalWallet) OverlayKey() string {
	return OverlayKeyFor(w.Record)
}

// OverlayKeyFor is the single definition of overlay keying; store, refresher
// and aggregator all go through it so they cannot disagree.
func OverlayKeyFor(r WalletRecord) string {
	if r.WalletID != "" {
		return r.WalletID
	}
	return r.WalletAddress
}

// BalanceOverlayEntry is a live-fetched balance overlaid on a canonical
// wallet's stored balance. Entries are written on successful fetches and left
// untouched on failed ones, so a displayed value never regresses to unknown.
type BalanceOverlayEntry struct {
	Value  float64   `json:"value"`
	AsOf   time.Time `json:"asOf"`
	Source string    `json:"source"`
}

// Portfolio is the derived aggregate over all canonical wallets. It has no
// identity or lifecycle of its own; it is recomputed on every poll tick.
type Portfolio struct {
	TotalBalance float64                  `json:"totalBalance"`
	PerWallet    map[ProviderType]float64 `json:"perWallet"`
}

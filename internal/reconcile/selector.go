package reconcile

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"wallet_reconciler/internal/domain/entity"
)

// SelectorConfig carries the tunable parts of the canonical-wallet tie-break
// policy. GoodAddresses is an allow-list of addresses known to be the real
// wallet for their provider; an allow-listed record always wins selection.
// AddressShapes maps a provider to the address prefixes considered
// syntactically plausible for it (used only as a late tie-break between
// records that have addresses but no usable timestamps).
type SelectorConfig struct {
	GoodAddresses []string
	AddressShapes map[entity.ProviderType][]string
}

// DefaultAddressShapes is the built-in plausibility table. EVM providers are
// not listed; their addresses are validated structurally via go-ethereum
// instead of by prefix.
func DefaultAddressShapes() map[entity.ProviderType][]string {
	return map[entity.ProviderType][]string{
		// Transparent address prefixes: t1/t3 mainnet, tm/t2 testnet.
		entity.ProviderZcash:    {"t1", "t3", "tm", "t2"},
		entity.ProviderStarknet: {"0x"},
		entity.ProviderAztec:    {"aztec:"},
		entity.ProviderMiden:    {"mtst", "mm"},
	}
}

var evmProviders = map[entity.ProviderType]struct{}{
	entity.ProviderEthereum: {},
	entity.ProviderPolygon:  {},
	entity.ProviderArbitrum: {},
}

// Selector picks exactly one canonical wallet record per provider using a
// deterministic total order, so repeated runs over the same record set always
// agree regardless of input order.
type Selector struct {
	good   map[string]struct{}
	shapes map[entity.ProviderType][]string
}

// NewSelector creates a Selector. A nil AddressShapes falls back to the
// built-in table.
func NewSelector(cfg SelectorConfig) *Selector {
	good := make(map[string]struct{}, len(cfg.GoodAddresses))
	for _, a := range cfg.GoodAddresses {
		if a != "" {
			good[a] = struct{}{}
		}
	}
	shapes := cfg.AddressShapes
	if shapes == nil {
		shapes = DefaultAddressShapes()
	}
	return &Selector{good: good, shapes: shapes}
}

// SelectCanonical returns the canonical record among all records of one
// provider, or false for an empty input. The order of preference, highest
// first:
//
//  1. address on the known-good allow-list
//  2. has a real timestamp (modifiedDate, else createdDate; the zero-date
//     sentinel counts as no timestamp)
//  3. more recent timestamp (lexical ISO-8601 comparison)
//  4. has a non-empty address
//  5. address shape plausible for the provider
//  6. walletId, descending (arbitrary but stable)
func (s *Selector) SelectCanonical(provider entity.ProviderType, records []entity.WalletRecord) (entity.WalletRecord, bool) {
	if len(records) == 0 {
		return entity.WalletRecord{}, false
	}
	sorted := make([]entity.WalletRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return s.prefer(provider, sorted[i], sorted[j])
	})
	return sorted[0], true
}

// prefer reports whether a should sort before b under the tie-break policy.
func (s *Selector) prefer(provider entity.ProviderType, a, b entity.WalletRecord) bool {
	if aGood, bGood := s.allowListed(a), s.allowListed(b); aGood != bGood {
		return aGood
	}

	aDate, aHas := a.EffectiveDate()
	bDate, bHas := b.EffectiveDate()
	if aHas != bHas {
		return aHas
	}
	if aHas && aDate != bDate {
		// ISO-8601 lexical order equals chronological order; newest first.
		return aDate > bDate
	}

	if !aHas {
		aAddr := a.WalletAddress != ""
		bAddr := b.WalletAddress != ""
		if aAddr != bAddr {
			return aAddr
		}
		if aAddr {
			aShape := s.plausibleAddress(provider, a.WalletAddress)
			bShape := s.plausibleAddress(provider, b.WalletAddress)
			if aShape != bShape {
				return aShape
			}
		}
	}

	return a.WalletID > b.WalletID
}

func (s *Selector) allowListed(r entity.WalletRecord) bool {
	if r.WalletAddress == "" {
		return false
	}
	_, ok := s.good[r.WalletAddress]
	return ok
}

// plausibleAddress reports whether the address looks syntactically valid for
// the provider, as opposed to a placeholder left behind by an aborted import.
func (s *Selector) plausibleAddress(provider entity.ProviderType, addr string) bool {
	if _, evm := evmProviders[provider]; evm {
		return common.IsHexAddress(addr)
	}
	for _, prefix := range s.shapes[provider] {
		if strings.HasPrefix(addr, prefix) {
			return true
		}
	}
	return false
}

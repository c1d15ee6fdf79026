package reconcile

import (
	"wallet_reconciler/internal/domain/entity"
)

// Filter removes wallet records that must never surface as user-facing chain
// wallets: records of internal/storage-only providers and records too
// malformed to display.
type Filter struct {
	norm *Normalizer
}

// NewFilter creates a Filter using the given normalizer.
func NewFilter(norm *Normalizer) *Filter {
	return &Filter{norm: norm}
}

// Visible returns the records that may be shown to the user. Each record's own
// providerType is re-normalized here; the key a record was grouped under in
// the raw payload can disagree with the record's embedded provider type, so
// the embedded one is the authority. Malformed records (no wallet id and no
// address) are excluded rather than failing the pass. Idempotent.
func (f *Filter) Visible(records []entity.WalletRecord) []entity.WalletRecord {
	visible := make([]entity.WalletRecord, 0, len(records))
	for _, rec := range records {
		if rec.WalletID == "" && rec.WalletAddress == "" {
			continue
		}
		if f.norm.Normalize(rec.ProviderType).Hidden() {
			continue
		}
		visible = append(visible, rec)
	}
	return visible
}

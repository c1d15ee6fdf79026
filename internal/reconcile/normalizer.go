package reconcile

import (
	"go.uber.org/zap"

	"wallet_reconciler/internal/domain/entity"
)

// Normalizer maps raw provider identifiers from the wallet API onto canonical
// provider types. Normalization is pure with respect to its return value: the
// same raw input always yields the same canonical type. The logger is only
// used for the non-fatal diagnostic on unrecognized input.
type Normalizer struct {
	log *zap.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(log *zap.Logger) *Normalizer {
	return &Normalizer{log: log.Named("Normalizer")}
}

// Normalize resolves a raw provider identifier to a canonical ProviderType.
// Canonical strings pass through unchanged, legacy positional codes resolve
// via the versioned lookup table, and everything else (including out-of-range
// codes) falls back to ProviderDefault with a warning.
func (n *Normalizer) Normalize(raw entity.RawProviderType) entity.ProviderType {
	switch raw.Kind {
	case entity.RawCanonical:
		return raw.Canonical
	case entity.RawLegacyCode:
		if p, ok := entity.LegacyProviderCode(raw.Code); ok {
			return p
		}
		n.log.Warn("Legacy provider code outside lookup table, falling back to Default",
			zap.Int("code", raw.Code))
		return entity.ProviderDefault
	default:
		n.log.Warn("Unrecognized provider identifier, falling back to Default",
			zap.String("raw", raw.Original))
		return entity.ProviderDefault
	}
}

package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wallet_reconciler/internal/domain/entity"
)

func newTestEngine() *Engine {
	return NewEngine(SelectorConfig{}, zap.NewNop())
}

func TestEngineStartsUnhydrated(t *testing.T) {
	e := newTestEngine()
	assert.False(t, e.Hydrated())
	assert.Empty(t, e.CanonicalWallets())
}

// Two raw records under legacy provider key "32" (Zcash): one with a sentinel
// timestamp, one with a real one. The real date wins and the aggregate equals
// that wallet's stored balance.
func TestEngineZcashSentinelVersusRealDate(t *testing.T) {
	e := newTestEngine()

	e.ApplyRecords(map[string][]entity.WalletRecord{
		"32": {
			{
				WalletID:      "old",
				ProviderType:  entity.ParseRawProvider(32),
				WalletAddress: "abc",
				ModifiedDate:  "0001-01-01T00:00:00",
				Balance:       99,
			},
			{
				WalletID:      "current",
				ProviderType:  entity.ParseRawProvider(32),
				WalletAddress: "tm123",
				ModifiedDate:  "2024-01-01T00:00:00",
				Balance:       12.5,
			},
		},
	})

	require.True(t, e.Hydrated())
	w, ok := e.CanonicalWallet(entity.ProviderZcash)
	require.True(t, ok)
	assert.Equal(t, "current", w.Record.WalletID)

	p := Aggregate(e.CanonicalWallets(), nil)
	assert.InDelta(t, 12.5, p.PerWallet[entity.ProviderZcash], 1e-9)
	assert.InDelta(t, 12.5, p.TotalBalance, 1e-9)
}

// A Default record grouped under key "2" never reaches the selector or the
// aggregate, while the Solana record alongside it does.
func TestEngineDropsDefaultProviderRecords(t *testing.T) {
	e := newTestEngine()

	e.ApplyRecords(map[string][]entity.WalletRecord{
		"2": {
			{
				WalletID:     "internal",
				ProviderType: entity.ParseRawProvider("2"),
				Balance:      1000,
			},
		},
		"SolanaOASIS": {
			{
				WalletID:      "sol",
				ProviderType:  entity.ParseRawProvider("SolanaOASIS"),
				WalletAddress: "So1anaAddr",
				ModifiedDate:  "2024-04-01T00:00:00",
				Balance:       3,
			},
		},
	})

	wallets := e.CanonicalWallets()
	require.Len(t, wallets, 1)
	assert.Equal(t, entity.ProviderSolana, wallets[0].Provider)

	_, ok := e.CanonicalWallet(entity.ProviderDefault)
	assert.False(t, ok)

	p := Aggregate(wallets, nil)
	assert.InDelta(t, 3, p.TotalBalance, 1e-9)
}

// The payload's grouping key and the record's embedded provider type can
// disagree; the embedded type is authoritative.
func TestEngineRegroupsByEmbeddedProviderType(t *testing.T) {
	e := newTestEngine()

	e.ApplyRecords(map[string][]entity.WalletRecord{
		"EthereumOASIS": {
			{
				WalletID:      "zec-mislabeled",
				ProviderType:  entity.ParseRawProvider("ZcashOASIS"),
				WalletAddress: "tm123",
				ModifiedDate:  "2024-01-01T00:00:00",
			},
		},
	})

	_, ethOK := e.CanonicalWallet(entity.ProviderEthereum)
	assert.False(t, ethOK)

	w, zecOK := e.CanonicalWallet(entity.ProviderZcash)
	require.True(t, zecOK)
	assert.Equal(t, "zec-mislabeled", w.Record.WalletID)
}

func TestEngineApplyReplacesSnapshot(t *testing.T) {
	e := newTestEngine()

	e.ApplyRecords(map[string][]entity.WalletRecord{
		"SolanaOASIS": {{
			WalletID:      "sol",
			ProviderType:  entity.ParseRawProvider("SolanaOASIS"),
			WalletAddress: "So1anaAddr",
		}},
	})
	require.Len(t, e.CanonicalWallets(), 1)

	// A later pass with an empty payload yields an empty, still-hydrated set.
	e.ApplyRecords(map[string][]entity.WalletRecord{})
	assert.True(t, e.Hydrated())
	assert.Empty(t, e.CanonicalWallets())
}

func TestEngineCanonicalWalletsSortedByProvider(t *testing.T) {
	e := newTestEngine()

	e.ApplyRecords(map[string][]entity.WalletRecord{
		"ZcashOASIS":  {{WalletID: "z", ProviderType: entity.ParseRawProvider("ZcashOASIS"), WalletAddress: "tm1"}},
		"SolanaOASIS": {{WalletID: "s", ProviderType: entity.ParseRawProvider("SolanaOASIS"), WalletAddress: "So1"}},
		"AztecOASIS":  {{WalletID: "a", ProviderType: entity.ParseRawProvider("AztecOASIS"), WalletAddress: "aztec:0x1"}},
	})

	wallets := e.CanonicalWallets()
	require.Len(t, wallets, 3)
	assert.Equal(t, entity.ProviderAztec, wallets[0].Provider)
	assert.Equal(t, entity.ProviderSolana, wallets[1].Provider)
	assert.Equal(t, entity.ProviderZcash, wallets[2].Provider)
}

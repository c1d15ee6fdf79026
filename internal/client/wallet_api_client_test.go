package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wallet_reconciler/internal/domain/entity"
)

func TestGetWalletsByAvatarDecodesHeterogeneousPayload(t *testing.T) {
	payload := `{
		"32": [
			{"walletId": 123, "providerType": 32, "walletAddress": "tm123", "balance": "4.5", "modifiedDate": "2024-01-01T00:00:00"}
		],
		"SolanaOASIS": [
			{"walletId": "sol-1", "providerType": "SolanaOASIS", "walletAddress": "So1addr", "balance": 2, "isDefaultWallet": true}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/avatar/av-1/wallets", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := NewWalletAPIClient(srv.URL, 2*time.Second, zap.NewNop())
	got, err := c.GetWalletsByAvatar(context.Background(), "av-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	zec := got["32"]
	require.Len(t, zec, 1)
	assert.Equal(t, "123", zec[0].WalletID)
	assert.Equal(t, entity.RawLegacyCode, zec[0].ProviderType.Kind)
	assert.Equal(t, 32, zec[0].ProviderType.Code)
	assert.InDelta(t, 4.5, zec[0].Balance, 1e-9)
	assert.Equal(t, "2024-01-01T00:00:00", zec[0].ModifiedDate)

	sol := got["SolanaOASIS"]
	require.Len(t, sol, 1)
	assert.Equal(t, entity.RawCanonical, sol[0].ProviderType.Kind)
	assert.Equal(t, entity.ProviderSolana, sol[0].ProviderType.Canonical)
	assert.InDelta(t, 2.0, sol[0].Balance, 1e-9)
	assert.True(t, sol[0].IsDefaultWallet)
}

func TestGetWalletsByAvatarDecodesResultEnvelope(t *testing.T) {
	payload := `{"result": {"2": [{"walletId": "internal", "providerType": "2"}]}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := NewWalletAPIClient(srv.URL, 2*time.Second, zap.NewNop())
	got, err := c.GetWalletsByAvatar(context.Background(), "av-1")
	require.NoError(t, err)
	require.Len(t, got["2"], 1)
	assert.Equal(t, entity.RawLegacyCode, got["2"][0].ProviderType.Kind)
	assert.Equal(t, 2, got["2"][0].ProviderType.Code)
}

func TestGetWalletsByAvatarEmptyMapIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewWalletAPIClient(srv.URL, 2*time.Second, zap.NewNop())
	got, err := c.GetWalletsByAvatar(context.Background(), "av-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetWalletsByAvatarNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewWalletAPIClient(srv.URL, 2*time.Second, zap.NewNop())
	_, err := c.GetWalletsByAvatar(context.Background(), "av-1")
	assert.Error(t, err)
}

func TestGetWalletsByAvatarUnreachable(t *testing.T) {
	c := NewWalletAPIClient("http://127.0.0.1:1", 200*time.Millisecond, zap.NewNop())
	_, err := c.GetWalletsByAvatar(context.Background(), "av-1")
	assert.Error(t, err)
}

func TestCoerceHelpers(t *testing.T) {
	assert.Equal(t, "abc", coerceString("abc"))
	assert.Equal(t, "42", coerceString(float64(42)))
	assert.Equal(t, "", coerceString(nil))

	assert.InDelta(t, 1.5, coerceFloat(1.5), 1e-9)
	assert.InDelta(t, 1.5, coerceFloat("1.5"), 1e-9)
	assert.Zero(t, coerceFloat("not a number"))
	assert.Zero(t, coerceFloat(nil))
}

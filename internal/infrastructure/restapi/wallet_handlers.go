package restapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wallet_reconciler/internal/domain/entity"
	"wallet_reconciler/internal/service"
)

// APIWalletsResponse is the response envelope for the wallets endpoint.
type APIWalletsResponse struct {
	Data struct {
		Wallets []service.WalletView `json:"wallets"`
	} `json:"data"`
	StatusMessage string `json:"status_message"`
}

// APIPortfolioResponse is the response envelope for the portfolio endpoint.
type APIPortfolioResponse struct {
	Data struct {
		Portfolio entity.Portfolio `json:"portfolio"`
	} `json:"data"`
	StatusMessage string `json:"status_message"`
}

// WalletHandler handles HTTP requests for the reconciled wallet view.
type WalletHandler struct {
	walletService *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ws *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: ws}
}

// GetWalletsHandler refreshes the wallet set and returns the canonical
// wallets with effective balances. A backend outage is only an error for the
// caller when nothing was ever hydrated; otherwise the last-known snapshot is
// served with an explanatory status message.
func (h *WalletHandler) GetWalletsHandler(c *gin.Context) {
	ctx := c.Request.Context()

	refreshErr := h.walletService.RefreshWallets(ctx)
	if refreshErr != nil && !h.walletService.Hydrated() {
		if errors.Is(refreshErr, service.ErrWalletAPIUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status_message": "Wallet backend unreachable. Check connectivity and walletApi configuration.",
			})
			return
		}
	}

	response := APIWalletsResponse{}
	response.Data.Wallets = h.walletService.Wallets()

	switch {
	case refreshErr != nil:
		response.StatusMessage = "Wallet backend unreachable; showing last-known wallets."
	case len(response.Data.Wallets) == 0:
		response.StatusMessage = "No wallets found for this avatar. Create or import a wallet to get started."
	default:
		response.StatusMessage = "Wallets retrieved successfully."
	}

	c.JSON(http.StatusOK, response)
}

// GetPortfolioHandler returns the aggregated portfolio over the current
// canonical wallet set.
func (h *WalletHandler) GetPortfolioHandler(c *gin.Context) {
	if !h.walletService.Hydrated() {
		// Serve a first load inline rather than an empty total that would
		// read as a zero balance.
		if err := h.walletService.RefreshWallets(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status_message": "Wallet backend unreachable. Check connectivity and walletApi configuration.",
			})
			return
		}
	}

	response := APIPortfolioResponse{}
	response.Data.Portfolio = h.walletService.Portfolio()
	response.StatusMessage = "Portfolio aggregated successfully."

	c.JSON(http.StatusOK, response)
}

package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the wallet endpoints onto the router.
func RegisterRoutes(router *gin.Engine, walletHandler *WalletHandler) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/wallets", walletHandler.GetWalletsHandler)
		v1.GET("/portfolio", walletHandler.GetPortfolioHandler)
	}

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
}

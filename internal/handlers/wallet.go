package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"orangecat/internal/currency"
	"orangecat/internal/models"
	"orangecat/internal/services"
)

type WalletHandler struct {
	wallets   services.IWalletService
	converter *currency.Converter
}

func NewWalletHandler(wallets services.IWalletService, converter *currency.Converter) *WalletHandler {
	return &WalletHandler{wallets: wallets, converter: converter}
}

// Lookup handles GET /api/wallet/:address.
func (h *WalletHandler) Lookup(c *gin.Context) {
	data, err := h.wallets.Lookup(c.Request.Context(), c.Param("address"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

var maxSats = decimal.NewFromInt(currency.MaxSats)

// Convert handles GET /api/currency/convert?amount=&unit=sats|btc|usd|chf.
func (h *WalletHandler) Convert(c *gin.Context) {
	amount, err := decimal.NewFromString(strings.TrimSpace(c.Query("amount")))
	if err != nil || amount.IsNegative() {
		handleError(c, models.Invalid("amount", "Amount must be a non-negative number"))
		return
	}
	tooLarge := models.Invalid("amount", "Amount exceeds the Bitcoin supply")

	switch unit := strings.ToUpper(c.DefaultQuery("unit", "sats")); unit {
	case currency.SATS:
		if !amount.Equal(amount.Truncate(0)) {
			handleError(c, models.Invalid("amount", "Satoshi amounts must be whole numbers"))
			return
		}
		// Bound before IntPart, which wraps outside int64.
		if amount.GreaterThan(maxSats) {
			handleError(c, tooLarge)
			return
		}
		c.JSON(http.StatusOK, h.converter.FromSats(amount.IntPart()))
	case currency.BTC, currency.USD, currency.CHF:
		btc, err := h.converter.Convert(amount, unit, currency.BTC)
		if err != nil {
			handleError(c, models.Invalid("unit", "Unit must be sats, btc, usd or chf"))
			return
		}
		if !currency.ValidBTCAmount(btc) {
			handleError(c, tooLarge)
			return
		}
		c.JSON(http.StatusOK, h.converter.FromBTC(btc))
	default:
		handleError(c, models.Invalid("unit", "Unit must be sats, btc, usd or chf"))
	}
}

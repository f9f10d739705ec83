package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"orangecat/internal/models"
	"orangecat/internal/services"
)

type FundingHandler struct {
	funding services.IFundingService
}

func NewFundingHandler(funding services.IFundingService) *FundingHandler {
	return &FundingHandler{funding: funding}
}

// ListPages handles GET /api/funding?userId=&status=.
func (h *FundingHandler) ListPages(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	pages, err := h.funding.ListPages(c.Request.Context(), token, userID, c.Query("userId"), c.Query("status"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fundingPages": pages})
}

// CreateTransaction handles POST /api/funding. Field checks happen in the
// service so every client gets the same messages.
func (h *FundingHandler) CreateTransaction(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tx, err := h.funding.CreateTransaction(c.Request.Context(), token, userID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Transaction created successfully",
		"transaction": gin.H{
			"id":         tx.ID,
			"amount":     tx.Amount,
			"currency":   tx.Currency,
			"status":     tx.Status,
			"created_at": tx.CreatedAt,
		},
	})
}

// CreatePage handles POST /api/funding/pages.
func (h *FundingHandler) CreatePage(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CreatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.funding.CreatePage(c.Request.Context(), token, userID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"fundingPage": page})
}

// Transactions handles GET /api/funding/pages/:id/transactions.
func (h *FundingHandler) Transactions(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	pageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleError(c, models.Invalid("id", "Invalid funding page id"))
		return
	}

	txs, err := h.funding.ListTransactions(c.Request.Context(), token, userID, pageID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

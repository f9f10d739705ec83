package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orangecat/internal/services"
)

type AnalyticsHandler struct {
	analytics services.IAnalyticsService
}

func NewAnalyticsHandler(analytics services.IAnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Fundraising handles GET /api/analytics/fundraising.
func (h *AnalyticsHandler) Fundraising(c *gin.Context) {
	userID, token, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.analytics.Fundraising(c.Request.Context(), token, userID))
}

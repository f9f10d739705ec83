package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"orangecat/internal/metrics"
	"orangecat/internal/models"
	"orangecat/internal/services"
)

const (
	SignatureHeader = "X-Signature"
	maxWebhookBody  = 64 << 10
)

// WebhookHandler receives signed payment confirmations.
type WebhookHandler struct {
	secret     []byte
	settlement services.ISettlementService
}

func NewWebhookHandler(secret string, settlement services.ISettlementService) *WebhookHandler {
	return &WebhookHandler{secret: []byte(secret), settlement: settlement}
}

// Sign returns the hex HMAC-SHA256 of body, as expected in X-Signature.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (h *WebhookHandler) verify(body []byte, header string) bool {
	sig, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(header), "sha256="))
	if err != nil || len(sig) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	return hmac.Equal(sig, mac.Sum(nil))
}

// Payment handles POST /api/webhook/payment.
func (h *WebhookHandler) Payment(c *gin.Context) {
	if len(h.secret) == 0 {
		respondError(c, http.StatusServiceUnavailable, TypeUnavailable, "Payment webhook is not configured", nil)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(c, models.ErrFileTooLarge)
			return
		}
		respondError(c, http.StatusBadRequest, TypeBadRequest, "Invalid request body", nil)
		return
	}
	if !h.verify(body, c.GetHeader(SignatureHeader)) {
		metrics.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		handleError(c, models.ErrBadSignature)
		return
	}

	var event models.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondError(c, http.StatusBadRequest, TypeBadRequest, "Invalid request body", nil)
		return
	}
	if err := binding.Validator.ValidateStruct(&event); err != nil {
		bindError(c, err)
		return
	}

	status, err := h.settlement.Apply(c.Request.Context(), event)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

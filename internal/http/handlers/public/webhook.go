package public

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unitv-next/internal/constants"
	"github.com/unitv-next/internal/logger"
)

const signatureHeader = "X-Signature"

// PaymentWebhook handles POST /webhook. The gateway retries on non-2xx,
// so every recognisable situation answers 200 with a status tag; only
// infrastructure failures return 500 to request a retry.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "failed to read body"})
		return
	}

	if !h.verifySignature(c, body) {
		logger.Warnw("webhook_signature_rejected",
			"client_ip", c.ClientIP(),
		)
		c.JSON(http.StatusOK, gin.H{"status": constants.FulfillTagReceived})
		return
	}

	event, err := h.Gateway.ResolveWebhook(c.Request.Context(), body)
	if err != nil {
		logger.Warnw("webhook_resolve_failed",
			"provider", h.Gateway.Name(),
			"error", err,
		)
		c.JSON(http.StatusOK, gin.H{"status": constants.FulfillTagReceived})
		return
	}
	if !event.Paid {
		logger.Infow("webhook_event_ignored",
			"event_type", event.EventType,
			"provider_tx_id", event.TransactionID,
		)
		c.JSON(http.StatusOK, gin.H{"status": constants.FulfillTagReceived})
		return
	}

	result, err := h.FulfillmentService.FulfillByProviderTx(c.Request.Context(), event.TransactionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "fulfillment failed"})
		return
	}

	tag := result.Outcome
	if tag == constants.FulfillTagUnknownPayment {
		tag = constants.FulfillTagReceived
	}
	c.JSON(http.StatusOK, gin.H{"status": tag})
}

// verifySignature checks the HMAC-SHA256 body signature when a secret
// is configured. No secret means no verification.
func (h *Handler) verifySignature(c *gin.Context, body []byte) bool {
	secret := strings.TrimSpace(h.Config.Webhook.SignatureSecret)
	if secret == "" {
		return true
	}
	provided := strings.TrimSpace(c.GetHeader(signatureHeader))
	if provided == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(provided)))
}

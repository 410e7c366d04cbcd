package admin

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unitv-next/internal/http/response"
	"github.com/unitv-next/internal/service"
)

// AddCodesRequest is the bulk import body.
type AddCodesRequest struct {
	Password string `json:"password"`
	Codes    string `json:"codes"`
}

// AddCodes handles POST /admin/add-codes: newline-separated bulk
// import, duplicates skipped.
func (h *Handler) AddCodes(c *gin.Context) {
	var req AddCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	inserted, skipped, err := h.InventoryService.AddCodes(req.Codes)
	if err != nil {
		if errors.Is(err, service.ErrCodesInvalid) {
			response.BadRequest(c, "code list is empty")
			return
		}
		response.InternalError(c, "failed to store codes")
		return
	}
	response.OK(c, gin.H{
		"inserted": inserted,
		"skipped":  skipped,
		"message":  fmt.Sprintf("%d codes added", inserted),
	})
}

// Status handles GET /admin/status.
func (h *Handler) Status(c *gin.Context) {
	status, err := h.InventoryService.Status()
	if err != nil {
		response.InternalError(c, "failed to load inventory status")
		return
	}
	response.OK(c, gin.H{
		"codes":             status.Codes,
		"approved_payments": status.ApprovedPayments,
		"pending_payments":  status.PendingPayments,
		"payment_provider":  h.Gateway.Name(),
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})
}

// Payments handles GET /admin/payments: the latest records, newest
// first.
func (h *Handler) Payments(c *gin.Context) {
	payments, err := h.InventoryService.ListPayments(50)
	if err != nil {
		response.InternalError(c, "failed to list payments")
		return
	}
	response.OK(c, gin.H{
		"total":            len(payments),
		"payments":         payments,
		"payment_provider": h.Gateway.Name(),
	})
}

// Reset handles GET /admin/reset: sold codes return to stock and all
// payment records are purged.
func (h *Handler) Reset(c *gin.Context) {
	result, err := h.InventoryService.Reset(c.Request.Context())
	if err != nil {
		response.InternalError(c, "reset failed")
		return
	}
	response.OK(c, gin.H{
		"codes_reset":      result.CodesReset,
		"payments_deleted": result.PaymentsDeleted,
	})
}

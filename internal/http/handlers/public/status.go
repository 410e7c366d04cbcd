package public

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/unitv-next/internal/constants"
	"github.com/unitv-next/internal/http/response"
	"github.com/unitv-next/internal/service"
)

// CheckPaymentRequest is the status poll body.
type CheckPaymentRequest struct {
	PaymentID string `json:"paymentId"`
}

// CheckPayment handles POST /api/verificar-pagamento. An unknown id is
// a soft failure so the storefront can keep polling.
func (h *Handler) CheckPayment(c *gin.Context) {
	var req CheckPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.StatusService.Check(c.Request.Context(), req.PaymentID)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			response.OK(c, gin.H{"success": false, "error": "payment not found"})
			return
		}
		response.InternalError(c, "failed to check payment")
		return
	}

	if result.Status == constants.PaymentStatusApproved && result.Payment.DeliveredCode != nil {
		response.OK(c, gin.H{
			"status": result.Status,
			"code":   *result.Payment.DeliveredCode,
			"name":   result.Payment.BuyerName,
			"plan":   result.Payment.Plan,
		})
		return
	}
	response.OK(c, gin.H{"status": result.Status})
}

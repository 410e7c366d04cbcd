package public

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/unitv-next/internal/http/response"
	"github.com/unitv-next/internal/models"
	"github.com/unitv-next/internal/service"
)

// CreateChargeRequest is the charge creation body.
type CreateChargeRequest struct {
	Name    string       `json:"name"`
	Email   string       `json:"email"`
	Contact string       `json:"contact"`
	Plan    string       `json:"plan"`
	Amount  models.Money `json:"amount"`
}

// CreateCharge handles POST /api/gerar-pagamento.
func (h *Handler) CreateCharge(c *gin.Context) {
	var req CreateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.ChargeService.CreateCharge(c.Request.Context(), service.CreateChargeInput{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Contact,
		Plan:   req.Plan,
		Amount: req.Amount,
	})
	if err != nil {
		if errors.Is(err, service.ErrChargeInvalid) {
			response.BadRequest(c, "name, plan, a positive amount and an email or contact are required")
			return
		}
		response.InternalError(c, "failed to create charge")
		return
	}

	paymentID := result.Payment.ExternalReference
	if result.Payment.ProviderTxID != nil {
		paymentID = *result.Payment.ProviderTxID
	}
	response.OK(c, gin.H{
		"paymentId":     paymentID,
		"qrImageBase64": result.QRImageBase64,
		"qrText":        result.QRText,
	})
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unitv-next/internal/constants"
	"github.com/unitv-next/internal/logger"
	"github.com/unitv-next/internal/models"
	"github.com/unitv-next/internal/payment"
	"github.com/unitv-next/internal/qr"
	"github.com/unitv-next/internal/repository"
)

// ChargeService mints PIX charges and records the pending payment.
type ChargeService struct {
	paymentRepo repository.PaymentRepository
	gateway     payment.Gateway
}

// NewChargeService creates the charge service.
func NewChargeService(paymentRepo repository.PaymentRepository, gateway payment.Gateway) *ChargeService {
	return &ChargeService{
		paymentRepo: paymentRepo,
		gateway:     gateway,
	}
}

// CreateChargeInput is the buyer-facing charge request.
type CreateChargeInput struct {
	Name   string
	Email  string
	Phone  string
	Plan   string
	Amount models.Money
}

// ChargeResult carries everything the buyer needs to pay.
type ChargeResult struct {
	Payment       *models.Payment
	QRText        string
	QRImageBase64 string
}

// CreateCharge validates the request, mints a charge at the gateway and
// stores the pending payment. Validation happens before any gateway
// call so bad input never reaches the provider.
func (s *ChargeService) CreateCharge(ctx context.Context, input CreateChargeInput) (*ChargeResult, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	phone := strings.TrimSpace(input.Phone)
	plan := strings.TrimSpace(input.Plan)
	amount := input.Amount.Round2()

	if name == "" || plan == "" {
		return nil, ErrChargeInvalid
	}
	if email == "" && phone == "" {
		return nil, ErrChargeInvalid
	}
	if !amount.IsPositive() {
		return nil, ErrChargeInvalid
	}

	externalRef := newExternalReference()
	charge, err := s.gateway.CreateCharge(ctx, payment.CreateChargeInput{
		ExternalReference: externalRef,
		AmountCents:       amount.Cents(),
		Description:       fmt.Sprintf("UniTV - %s", plan),
		BuyerName:         name,
		BuyerEmail:        email,
		BuyerPhone:        phone,
	})
	if err != nil {
		logger.Errorw("charge_gateway_create_failed",
			"external_reference", externalRef,
			"provider", s.gateway.Name(),
			"error", err,
		)
		return nil, ErrGatewayFailed
	}

	p := &models.Payment{
		ExternalReference: externalRef,
		BuyerName:         name,
		BuyerEmail:        email,
		BuyerPhone:        phone,
		Plan:              plan,
		Amount:            amount,
		Status:            constants.PaymentStatusPending,
	}
	if charge.TransactionID != "" {
		txID := charge.TransactionID
		p.ProviderTxID = &txID
	}
	if err := s.paymentRepo.Create(p); err != nil {
		logger.Errorw("charge_payment_create_failed",
			"external_reference", externalRef,
			"error", err,
		)
		return nil, ErrPaymentCreateFailed
	}

	qrImage := charge.QRImageBase64
	if qrImage == "" && charge.QRText != "" {
		encoded, encodeErr := qr.EncodeBase64(charge.QRText)
		if encodeErr != nil {
			logger.Warnw("charge_qr_encode_failed",
				"external_reference", externalRef,
				"error", encodeErr,
			)
		} else {
			qrImage = encoded
		}
	}

	logger.Infow("charge_created",
		"payment_id", p.ID,
		"external_reference", externalRef,
		"provider", s.gateway.Name(),
		"plan", plan,
		"amount", amount.String(),
	)
	return &ChargeResult{
		Payment:       p,
		QRText:        charge.QRText,
		QRImageBase64: qrImage,
	}, nil
}

func newExternalReference() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("unitv_%d_%s", time.Now().UnixMilli(), token)
}

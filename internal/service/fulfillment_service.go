package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/unitv-next/internal/constants"
	"github.com/unitv-next/internal/logger"
	"github.com/unitv-next/internal/models"
	"github.com/unitv-next/internal/queue"
	"github.com/unitv-next/internal/repository"
)

// FulfillmentService allocates activation codes to paid charges. The
// allocation runs inside one transaction so a payment never receives
// two codes and a code is never handed to two payments.
type FulfillmentService struct {
	paymentRepo repository.PaymentRepository
	codeRepo    repository.CodeRepository
	queueClient *queue.Client
	delivery    *DeliveryService
}

// NewFulfillmentService creates the fulfillment service. delivery may
// be nil when no notification channel is configured.
func NewFulfillmentService(paymentRepo repository.PaymentRepository, codeRepo repository.CodeRepository, queueClient *queue.Client, delivery *DeliveryService) *FulfillmentService {
	return &FulfillmentService{
		paymentRepo: paymentRepo,
		codeRepo:    codeRepo,
		queueClient: queueClient,
		delivery:    delivery,
	}
}

// FulfillResult reports the allocation outcome. Payment is set for
// success and already_processed.
type FulfillResult struct {
	Outcome string
	Payment *models.Payment
}

// FulfillByProviderTx resolves the gateway transaction id and runs the
// allocation. An unknown id is a normal outcome, not an error: the
// gateway may notify about charges this instance never created.
func (s *FulfillmentService) FulfillByProviderTx(ctx context.Context, providerTxID string) (*FulfillResult, error) {
	p, err := s.paymentRepo.GetByProviderTxID(providerTxID)
	if err != nil {
		return nil, ErrPaymentFetchFailed
	}
	if p == nil {
		logger.Warnw("fulfill_unknown_provider_tx",
			"provider_tx_id", providerTxID,
		)
		return &FulfillResult{Outcome: constants.FulfillTagUnknownPayment}, nil
	}
	return s.FulfillPayment(ctx, p.ID)
}

// FulfillPayment approves the payment and binds exactly one available
// code to it. Replays of an already approved payment come back as
// already_processed without touching inventory.
func (s *FulfillmentService) FulfillPayment(ctx context.Context, paymentID uint) (*FulfillResult, error) {
	if paymentID == 0 {
		return &FulfillResult{Outcome: constants.FulfillTagUnknownPayment}, nil
	}

	result := &FulfillResult{}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		payRepo := s.paymentRepo.WithTx(tx)
		codeRepo := s.codeRepo.WithTx(tx)

		locked, err := payRepo.GetForUpdate(paymentID)
		if err != nil {
			return err
		}
		if locked == nil {
			result.Outcome = constants.FulfillTagUnknownPayment
			return nil
		}
		if locked.Status == constants.PaymentStatusApproved {
			result.Outcome = constants.FulfillTagAlreadyProcessed
			result.Payment = locked
			return nil
		}

		code, err := codeRepo.PickAvailableForUpdate()
		if err != nil {
			return err
		}
		if code == nil {
			result.Outcome = constants.FulfillTagNoStock
			result.Payment = locked
			return nil
		}

		now := time.Now()
		affected, err := codeRepo.MarkSold(code.ID, locked.ID, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrPaymentUpdateFailed
		}
		affected, err = payRepo.Approve(locked.ID, code.Code, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrPaymentUpdateFailed
		}

		locked.Status = constants.PaymentStatusApproved
		locked.DeliveredCode = &code.Code
		locked.PaidAt = &now
		result.Outcome = constants.FulfillTagSuccess
		result.Payment = locked
		return nil
	})
	if err != nil {
		logger.Errorw("fulfill_transaction_failed",
			"payment_id", paymentID,
			"error", err,
		)
		return nil, ErrPaymentUpdateFailed
	}

	switch result.Outcome {
	case constants.FulfillTagSuccess:
		logger.Infow("fulfill_code_allocated",
			"payment_id", result.Payment.ID,
			"external_reference", result.Payment.ExternalReference,
			"plan", result.Payment.Plan,
		)
		s.dispatchDelivery(result.Payment)
	case constants.FulfillTagNoStock:
		logger.Errorw("fulfill_no_stock",
			"payment_id", paymentID,
		)
	case constants.FulfillTagAlreadyProcessed:
		logger.Infow("fulfill_already_processed",
			"payment_id", paymentID,
		)
	}
	return result, nil
}

// dispatchDelivery hands the approved payment to the notification
// pipeline after the allocation transaction has committed. Delivery is
// best effort; the approval stands even if every channel fails.
func (s *FulfillmentService) dispatchDelivery(p *models.Payment) {
	if p == nil || p.BuyerPhone == "" {
		return
	}
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueDeliverCode(queue.DeliverCodePayload{PaymentID: p.ID})
		if err == nil {
			return
		}
		logger.Warnw("fulfill_enqueue_delivery_failed",
			"payment_id", p.ID,
			"error", err,
		)
	}
	if s.delivery == nil {
		return
	}
	paymentID := p.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.delivery.Deliver(ctx, paymentID); err != nil {
			logger.Warnw("fulfill_inline_delivery_failed",
				"payment_id", paymentID,
				"error", err,
			)
		}
	}()
}

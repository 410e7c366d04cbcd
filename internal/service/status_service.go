package service

import (
	"context"
	"strings"
	"time"

	"github.com/unitv-next/internal/cache"
	"github.com/unitv-next/internal/constants"
	"github.com/unitv-next/internal/logger"
	"github.com/unitv-next/internal/models"
	"github.com/unitv-next/internal/payment"
	"github.com/unitv-next/internal/repository"
)

// StatusService answers buyer polling and reconciles pending payments
// against the gateway. Polling is the safety net for lost webhooks.
type StatusService struct {
	paymentRepo repository.PaymentRepository
	gateway     payment.Gateway
	fulfillment *FulfillmentService
}

// NewStatusService creates the status service.
func NewStatusService(paymentRepo repository.PaymentRepository, gateway payment.Gateway, fulfillment *FulfillmentService) *StatusService {
	return &StatusService{
		paymentRepo: paymentRepo,
		gateway:     gateway,
		fulfillment: fulfillment,
	}
}

// StatusResult is the buyer-facing payment view.
type StatusResult struct {
	Status  string
	Payment *models.Payment
}

// Check resolves the payment by gateway transaction id or external
// reference and returns its current status. A pending payment triggers
// a gateway pull; when the gateway reports paid, allocation runs right
// here so a buyer who polls never waits on a lost webhook.
func (s *StatusService) Check(ctx context.Context, paymentRef string) (*StatusResult, error) {
	ref := strings.TrimSpace(paymentRef)
	if ref == "" {
		return nil, ErrPaymentNotFound
	}

	// An approved payment never changes again, so a cache hit skips
	// the database entirely on repeat polls.
	var cached models.Payment
	if hit, err := cache.GetJSON(ctx, statusCacheKey(ref), &cached); err == nil && hit {
		if cached.Status == constants.PaymentStatusApproved && cached.DeliveredCode != nil {
			return &StatusResult{Status: cached.Status, Payment: &cached}, nil
		}
	}

	p, err := s.paymentRepo.GetByProviderTxID(ref)
	if err != nil {
		return nil, ErrPaymentFetchFailed
	}
	if p == nil {
		p, err = s.paymentRepo.GetByExternalReference(ref)
		if err != nil {
			return nil, ErrPaymentFetchFailed
		}
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}

	if p.Status == constants.PaymentStatusApproved && p.DeliveredCode != nil {
		s.cacheApproved(ctx, ref, p)
		return &StatusResult{Status: p.Status, Payment: p}, nil
	}

	if p.Status == constants.PaymentStatusPending {
		if reconciled := s.reconcile(ctx, p); reconciled != nil {
			if reconciled.Status == constants.PaymentStatusApproved {
				s.cacheApproved(ctx, ref, reconciled.Payment)
			}
			return reconciled, nil
		}
	}

	return &StatusResult{Status: p.Status, Payment: p}, nil
}

// statusCachePrefix namespaces the approved-status entries; the admin
// reset flushes everything under it.
const statusCachePrefix = "payment_status:"

func statusCacheKey(ref string) string {
	return statusCachePrefix + ref
}

func (s *StatusService) cacheApproved(ctx context.Context, ref string, p *models.Payment) {
	if p == nil {
		return
	}
	if err := cache.SetJSON(ctx, statusCacheKey(ref), p, 10*time.Minute); err != nil {
		logger.Warnw("status_cache_write_failed",
			"payment_id", p.ID,
			"error", err,
		)
	}
}

// reconcile pulls the gateway state for a pending payment. Gateway
// failures fall back to the local status; nil means nothing changed.
func (s *StatusService) reconcile(ctx context.Context, p *models.Payment) *StatusResult {
	charge, err := s.gateway.GetChargeByExternalReference(ctx, p.ExternalReference)
	if err != nil {
		logger.Warnw("status_gateway_pull_failed",
			"payment_id", p.ID,
			"external_reference", p.ExternalReference,
			"error", err,
		)
		return nil
	}
	if charge == nil || !charge.Paid {
		return nil
	}

	logger.Infow("status_gateway_reports_paid",
		"payment_id", p.ID,
		"external_reference", p.ExternalReference,
	)
	result, err := s.fulfillment.FulfillPayment(ctx, p.ID)
	if err != nil {
		return nil
	}
	switch result.Outcome {
	case constants.FulfillTagSuccess, constants.FulfillTagAlreadyProcessed:
		return &StatusResult{Status: constants.PaymentStatusApproved, Payment: result.Payment}
	case constants.FulfillTagNoStock:
		// The buyer keeps seeing pending; operators get the error log.
		return &StatusResult{Status: constants.PaymentStatusPending, Payment: p}
	default:
		return nil
	}
}

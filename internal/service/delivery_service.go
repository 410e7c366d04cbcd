package service

import (
	"context"

	"github.com/unitv-next/internal/constants"
	"github.com/unitv-next/internal/logger"
	"github.com/unitv-next/internal/notify/whatsapp"
	"github.com/unitv-next/internal/repository"
)

// TextSender is the outbound WhatsApp channel.
type TextSender interface {
	SendText(ctx context.Context, phone, text string) error
}

// DeliveryService sends the allocated code to the buyer and keeps the
// notification bookkeeping. It is driven by the queue worker, with an
// inline fallback when the queue is disabled.
type DeliveryService struct {
	paymentRepo repository.PaymentRepository
	sender      TextSender
}

// NewDeliveryService creates the delivery service. sender may be nil
// when WhatsApp is not configured; delivery then leaves the
// notification flag untouched.
func NewDeliveryService(paymentRepo repository.PaymentRepository, sender TextSender) *DeliveryService {
	return &DeliveryService{
		paymentRepo: paymentRepo,
		sender:      sender,
	}
}

// Deliver sends the activation code for an approved payment. Replays
// are no-ops once the notification is recorded as sent; the flag is
// only set after a message actually went out.
func (s *DeliveryService) Deliver(ctx context.Context, paymentID uint) error {
	p, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return ErrPaymentFetchFailed
	}
	if p == nil {
		return ErrPaymentNotFound
	}
	if p.NotificationSent {
		return nil
	}
	if p.Status != constants.PaymentStatusApproved || p.DeliveredCode == nil {
		logger.Warnw("delivery_payment_not_ready",
			"payment_id", p.ID,
			"status", p.Status,
		)
		return nil
	}
	if p.BuyerPhone == "" || s.sender == nil {
		logger.Warnw("delivery_no_channel",
			"payment_id", p.ID,
		)
		return nil
	}

	message := whatsapp.CodeDeliveryMessage(p.BuyerName, *p.DeliveredCode, p.Plan)
	if err := s.sender.SendText(ctx, p.BuyerPhone, message); err != nil {
		logger.Errorw("delivery_whatsapp_send_failed",
			"payment_id", p.ID,
			"error", err,
		)
		return err
	}
	logger.Infow("delivery_whatsapp_sent",
		"payment_id", p.ID,
		"plan", p.Plan,
	)

	if err := s.paymentRepo.MarkNotificationSent(p.ID); err != nil {
		logger.Warnw("delivery_mark_sent_failed",
			"payment_id", p.ID,
			"error", err,
		)
	}
	return nil
}

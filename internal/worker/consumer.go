package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"

	"github.com/unitv-next/internal/logger"
	"github.com/unitv-next/internal/provider"
	"github.com/unitv-next/internal/queue"
	"github.com/unitv-next/internal/service"
)

// Consumer handles queued delivery tasks.
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the consumer.
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register binds the task handlers.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskDeliverCode, c.handleDeliverCode)
}

func (c *Consumer) handleDeliverCode(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_deliver_code_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.DeliverCodePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_deliver_code_unmarshal_failed", "error", err)
		return err
	}
	if payload.PaymentID == 0 {
		logger.Debugw("worker_deliver_code_skip_invalid_payload", "payment_id", payload.PaymentID)
		return nil
	}
	if c.DeliveryService == nil {
		logger.Warnw("worker_deliver_code_skip_delivery_service_nil", "payment_id", payload.PaymentID)
		return nil
	}
	if err := c.DeliveryService.Deliver(ctx, payload.PaymentID); err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			logger.Debugw("worker_deliver_code_skip_payment_not_found", "payment_id", payload.PaymentID)
			return nil
		default:
			logger.Warnw("worker_deliver_code_failed", "payment_id", payload.PaymentID, "error", err)
			return err
		}
	}
	return nil
}

package payment

import (
	"context"
	"errors"
)

var (
	// ErrProviderNotSupported signals an unknown gateway.provider value.
	ErrProviderNotSupported = errors.New("payment provider not supported")
)

// Charge is the provider-neutral view of a PIX charge.
type Charge struct {
	TransactionID     string
	ExternalReference string
	Paid              bool
	RawStatus         string
	QRText            string
	QRImageBase64     string
}

// CreateChargeInput carries everything a provider needs to mint a charge.
type CreateChargeInput struct {
	ExternalReference string
	AmountCents       int64
	Description       string
	BuyerName         string
	BuyerEmail        string
	BuyerPhone        string
}

// WebhookEvent is the provider-neutral view of an inbound webhook.
type WebhookEvent struct {
	EventType     string
	TransactionID string
	Paid          bool
}

// Gateway abstracts the external PIX payment provider.
type Gateway interface {
	Name() string
	CreateCharge(ctx context.Context, input CreateChargeInput) (*Charge, error)
	GetChargeByExternalReference(ctx context.Context, externalReference string) (*Charge, error)
	// ResolveWebhook parses an inbound webhook body into a neutral event.
	// Providers whose webhooks carry no status perform a status pull here.
	ResolveWebhook(ctx context.Context, body []byte) (*WebhookEvent, error)
}

package constants

// Code inventory status.
const (
	CodeStatusAvailable = "available"
	CodeStatusSold      = "sold"
)

// Payment lifecycle status. The happy path is pending -> approved;
// cancelled exists for provider completeness but nothing drives it.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusApproved  = "approved"
	PaymentStatusCancelled = "cancelled"
)

// Fulfillment outcome tags returned on the webhook surface.
const (
	FulfillTagSuccess          = "success"
	FulfillTagNoStock          = "no_stock"
	FulfillTagAlreadyProcessed = "already_processed"
	FulfillTagUnknownPayment   = "unknown_payment"
	FulfillTagReceived         = "received"
)

// Queue names and task types.
const (
	QueueDefault    = "default"
	QueueCritical   = "critical"
	TaskDeliverCode = "unitv:deliver_code"
)

// Gateway provider identifiers.
const (
	GatewayProviderBuckPay     = "buckpay"
	GatewayProviderMercadoPago = "mercadopago"
)

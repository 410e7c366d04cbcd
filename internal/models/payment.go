package models

import (
	"time"
)

// Payment records one PIX charge attempt and its fulfillment outcome.
// Invariant: Status == approved exactly when DeliveredCode is non-nil;
// both change together inside the allocation transaction.
type Payment struct {
	ID                uint       `gorm:"primarykey" json:"id"`
	ExternalReference string     `gorm:"uniqueIndex;not null" json:"external_reference"` // locally minted idempotency token
	ProviderTxID      *string    `gorm:"uniqueIndex" json:"provider_tx_id,omitempty"`    // gateway charge id, nil until the gateway answers
	BuyerName         string     `gorm:"not null" json:"buyer_name"`
	BuyerEmail        string     `json:"buyer_email"`
	BuyerPhone        string     `json:"buyer_phone"`
	Plan              string     `gorm:"not null" json:"plan"`
	Amount            Money      `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status            string     `gorm:"index;not null;default:pending" json:"status"` // pending / approved / cancelled
	DeliveredCode     *string    `json:"delivered_code,omitempty"`
	NotificationSent  bool       `gorm:"not null;default:false" json:"notification_sent"`
	PaidAt            *time.Time `gorm:"index" json:"paid_at,omitempty"`
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"index" json:"updated_at"`
}

// TableName overrides the table name.
func (Payment) TableName() string {
	return "payments"
}

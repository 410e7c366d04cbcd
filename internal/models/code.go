package models

import (
	"time"
)

// Code is one activation code in inventory. A code is sold at most once;
// only the administrative bulk reset ever returns it to available.
type Code struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	Code      string     `gorm:"uniqueIndex;not null" json:"code"`
	Status    string     `gorm:"index;not null;default:available" json:"status"` // available / sold
	PaymentID *uint      `gorm:"index" json:"payment_id,omitempty"`              // set together with status=sold
	SoldAt    *time.Time `gorm:"index" json:"sold_at,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"index" json:"updated_at"`
}

// TableName overrides the table name.
func (Code) TableName() string {
	return "codes"
}

package repository

import (
	"errors"
	"time"

	"github.com/unitv-next/internal/constants"
	"github.com/unitv-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository is the payment record data access interface.
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByProviderTxID(providerTxID string) (*models.Payment, error)
	GetByExternalReference(externalReference string) (*models.Payment, error)
	GetForUpdate(id uint) (*models.Payment, error)
	Approve(id uint, deliveredCode string, paidAt time.Time) (int64, error)
	MarkNotificationSent(id uint) error
	ListRecent(limit int) ([]models.Payment, error)
	CountByStatus(status string) (int64, error)
	PurgeAll() (int64, error)
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository is the GORM implementation.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a payment repository.
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create inserts a new payment row.
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	if payment == nil {
		return errors.New("payment is nil")
	}
	return r.db.Create(payment).Error
}

// GetByID fetches a payment by primary key.
func (r *GormPaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetByProviderTxID fetches a payment by the gateway charge id.
func (r *GormPaymentRepository) GetByProviderTxID(providerTxID string) (*models.Payment, error) {
	if providerTxID == "" {
		return nil, nil
	}
	var payment models.Payment
	if err := r.db.Where("provider_tx_id = ?", providerTxID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetByExternalReference fetches a payment by the local idempotency token.
func (r *GormPaymentRepository) GetByExternalReference(externalReference string) (*models.Payment, error) {
	if externalReference == "" {
		return nil, nil
	}
	var payment models.Payment
	if err := r.db.Where("external_reference = ?", externalReference).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetForUpdate fetches a payment under an exclusive row lock. Must be called
// inside a transaction.
func (r *GormPaymentRepository) GetForUpdate(id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// Approve transitions a pending payment to approved and records the delivered
// code. The status guard makes the transition exactly-once.
func (r *GormPaymentRepository) Approve(id uint, deliveredCode string, paidAt time.Time) (int64, error) {
	if id == 0 || deliveredCode == "" {
		return 0, nil
	}
	result := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, constants.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":         constants.PaymentStatusApproved,
			"delivered_code": deliveredCode,
			"paid_at":        paidAt,
			"updated_at":     paidAt,
		})
	return result.RowsAffected, result.Error
}

// MarkNotificationSent flags delivery bookkeeping outside the allocation
// transaction; failure here never affects the approval.
func (r *GormPaymentRepository) MarkNotificationSent(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"notification_sent": true,
			"updated_at":        time.Now(),
		}).Error
}

// ListRecent returns the latest payments, newest first.
func (r *GormPaymentRepository) ListRecent(limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	var payments []models.Payment
	if err := r.db.Order("created_at desc").Limit(limit).Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// CountByStatus counts payments in the given status.
func (r *GormPaymentRepository) CountByStatus(status string) (int64, error) {
	var count int64
	query := r.db.Model(&models.Payment{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// PurgeAll deletes every payment row. Administrative reset only.
func (r *GormPaymentRepository) PurgeAll() (int64, error) {
	result := r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Payment{})
	return result.RowsAffected, result.Error
}

package repository

import (
	"errors"
	"time"

	"github.com/unitv-next/internal/constants"
	"github.com/unitv-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CodeRepository is the activation-code inventory data access interface.
type CodeRepository interface {
	BulkInsert(codes []string) (int64, error)
	GetByCode(code string) (*models.Code, error)
	PickAvailableForUpdate() (*models.Code, error)
	MarkSold(id, paymentID uint, soldAt time.Time) (int64, error)
	CountByStatus() (map[string]int64, error)
	CountAvailable() (int64, error)
	ResetSold() (int64, error)
	WithTx(tx *gorm.DB) *GormCodeRepository
}

// GormCodeRepository is the GORM implementation.
type GormCodeRepository struct {
	db *gorm.DB
}

// NewCodeRepository creates a code repository.
func NewCodeRepository(db *gorm.DB) *GormCodeRepository {
	return &GormCodeRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormCodeRepository) WithTx(tx *gorm.DB) *GormCodeRepository {
	if tx == nil {
		return r
	}
	return &GormCodeRepository{db: tx}
}

// BulkInsert inserts codes, silently skipping values already present.
// Returns the number of rows actually inserted.
func (r *GormCodeRepository) BulkInsert(codes []string) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	now := time.Now()
	rows := make([]models.Code, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, models.Code{
			Code:      code,
			Status:    constants.CodeStatusAvailable,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&rows)
	return result.RowsAffected, result.Error
}

// GetByCode fetches a code row by its voucher value.
func (r *GormCodeRepository) GetByCode(code string) (*models.Code, error) {
	var row models.Code
	if err := r.db.Where("code = ?", code).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// PickAvailableForUpdate selects one available code under an exclusive row
// lock, skipping rows a concurrent transaction already claimed so two paid
// payments never contend on the same lowest id. Must be called inside a
// transaction; returns nil when stock is empty.
func (r *GormCodeRepository) PickAvailableForUpdate() (*models.Code, error) {
	var row models.Code
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", constants.CodeStatusAvailable).
		Order("id asc").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// MarkSold transitions an available code to sold and binds the payment.
// The status guard keeps a concurrently claimed row from being sold twice.
func (r *GormCodeRepository) MarkSold(id, paymentID uint, soldAt time.Time) (int64, error) {
	if id == 0 || paymentID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Code{}).
		Where("id = ? AND status = ?", id, constants.CodeStatusAvailable).
		Updates(map[string]interface{}{
			"status":     constants.CodeStatusSold,
			"payment_id": paymentID,
			"sold_at":    soldAt,
			"updated_at": soldAt,
		})
	return result.RowsAffected, result.Error
}

// CountByStatus returns inventory counts grouped by status.
func (r *GormCodeRepository) CountByStatus() (map[string]int64, error) {
	type countRow struct {
		Status string
		Total  int64
	}
	var rows []countRow
	if err := r.db.Model(&models.Code{}).
		Select("status, COUNT(*) as total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Status] = row.Total
	}
	return result, nil
}

// CountAvailable returns the number of unsold codes.
func (r *GormCodeRepository) CountAvailable() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Code{}).
		Where("status = ?", constants.CodeStatusAvailable).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ResetSold returns all sold codes to available and clears their payment
// binding. Administrative maintenance only.
func (r *GormCodeRepository) ResetSold() (int64, error) {
	now := time.Now()
	result := r.db.Model(&models.Code{}).
		Where("status = ?", constants.CodeStatusSold).
		Updates(map[string]interface{}{
			"status":     constants.CodeStatusAvailable,
			"payment_id": nil,
			"sold_at":    nil,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

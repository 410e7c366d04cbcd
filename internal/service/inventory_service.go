package service

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/unitv-next/internal/cache"
	"github.com/unitv-next/internal/constants"
	"github.com/unitv-next/internal/logger"
	"github.com/unitv-next/internal/models"
	"github.com/unitv-next/internal/repository"
)

// InventoryService backs the administrative inventory operations.
type InventoryService struct {
	codeRepo    repository.CodeRepository
	paymentRepo repository.PaymentRepository
}

// NewInventoryService creates the inventory service.
func NewInventoryService(codeRepo repository.CodeRepository, paymentRepo repository.PaymentRepository) *InventoryService {
	return &InventoryService{
		codeRepo:    codeRepo,
		paymentRepo: paymentRepo,
	}
}

// AddCodes parses a newline-separated code list and inserts the new
// values. Duplicates inside the list and against the table are skipped;
// skipped reports how many submitted codes already existed.
func (s *InventoryService) AddCodes(raw string) (inserted, skipped int64, err error) {
	seen := make(map[string]struct{})
	var codes []string
	for _, line := range strings.Split(raw, "\n") {
		code := strings.TrimSpace(line)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return 0, 0, ErrCodesInvalid
	}

	inserted, err = s.codeRepo.BulkInsert(codes)
	if err != nil {
		logger.Errorw("inventory_bulk_insert_failed",
			"submitted", len(codes),
			"error", err,
		)
		return 0, 0, err
	}
	skipped = int64(len(codes)) - inserted
	logger.Infow("inventory_codes_added",
		"submitted", len(codes),
		"inserted", inserted,
		"skipped", skipped,
	)
	return inserted, skipped, nil
}

// InventoryStatus is the admin stock overview.
type InventoryStatus struct {
	Codes            map[string]int64
	ApprovedPayments int64
	PendingPayments  int64
}

// Status reports inventory counts and payment totals.
func (s *InventoryService) Status() (*InventoryStatus, error) {
	codes, err := s.codeRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	approved, err := s.paymentRepo.CountByStatus(constants.PaymentStatusApproved)
	if err != nil {
		return nil, err
	}
	pending, err := s.paymentRepo.CountByStatus(constants.PaymentStatusPending)
	if err != nil {
		return nil, err
	}
	return &InventoryStatus{
		Codes:            codes,
		ApprovedPayments: approved,
		PendingPayments:  pending,
	}, nil
}

// ListPayments returns the most recent payments for the admin view.
func (s *InventoryService) ListPayments(limit int) ([]models.Payment, error) {
	return s.paymentRepo.ListRecent(limit)
}

// ResetResult reports what the bulk reset touched.
type ResetResult struct {
	CodesReset      int64
	PaymentsDeleted int64
}

// Reset returns every sold code to available and purges all payment
// records, atomically. This is destructive maintenance for test cycles.
// Cached status entries are flushed so a poll cannot see a purged code.
func (s *InventoryService) Reset(ctx context.Context) (*ResetResult, error) {
	result := &ResetResult{}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		codesReset, err := s.codeRepo.WithTx(tx).ResetSold()
		if err != nil {
			return err
		}
		paymentsDeleted, err := s.paymentRepo.WithTx(tx).PurgeAll()
		if err != nil {
			return err
		}
		result.CodesReset = codesReset
		result.PaymentsDeleted = paymentsDeleted
		return nil
	})
	if err != nil {
		logger.Errorw("inventory_reset_failed", "error", err)
		return nil, err
	}
	if err := cache.DelByPrefix(ctx, statusCachePrefix); err != nil {
		logger.Warnw("inventory_reset_cache_flush_failed", "error", err)
	}
	logger.Infow("inventory_reset_done",
		"codes_reset", result.CodesReset,
		"payments_deleted", result.PaymentsDeleted,
	)
	return result, nil
}

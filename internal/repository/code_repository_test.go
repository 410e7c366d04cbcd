package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/unitv-next/internal/constants"
	"github.com/unitv-next/internal/models"
)

func setupCodeRepositoryTest(t *testing.T) (*GormCodeRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:code_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Code{}, &models.Payment{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewCodeRepository(db), db
}

func TestCodeRepositoryBulkInsertSkipsDuplicates(t *testing.T) {
	repo, _ := setupCodeRepositoryTest(t)

	inserted, err := repo.BulkInsert([]string{"ABC123", "DEF456"})
	if err != nil {
		t.Fatalf("bulk insert failed: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("inserted = %d, want 2", inserted)
	}

	inserted, err = repo.BulkInsert([]string{"DEF456", "GHI789"})
	if err != nil {
		t.Fatalf("second bulk insert failed: %v", err)
	}
	if inserted != 1 {
		t.Fatalf("inserted = %d, want 1", inserted)
	}

	available, err := repo.CountAvailable()
	if err != nil {
		t.Fatalf("count available failed: %v", err)
	}
	if available != 3 {
		t.Fatalf("available = %d, want 3", available)
	}
}

func TestCodeRepositoryPickAvailableOrdersByID(t *testing.T) {
	repo, db := setupCodeRepositoryTest(t)

	if _, err := repo.BulkInsert([]string{"FIRST", "SECOND"}); err != nil {
		t.Fatalf("bulk insert failed: %v", err)
	}

	var picked *models.Code
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		picked, err = repo.WithTx(tx).PickAvailableForUpdate()
		return err
	})
	if err != nil {
		t.Fatalf("pick failed: %v", err)
	}
	if picked == nil || picked.Code != "FIRST" {
		t.Fatalf("picked = %+v, want FIRST", picked)
	}
}

func TestCodeRepositoryMarkSoldGuardsStatus(t *testing.T) {
	repo, _ := setupCodeRepositoryTest(t)

	if _, err := repo.BulkInsert([]string{"ABC123"}); err != nil {
		t.Fatalf("bulk insert failed: %v", err)
	}
	row, err := repo.GetByCode("ABC123")
	if err != nil || row == nil {
		t.Fatalf("get by code failed: %v", err)
	}

	now := time.Now()
	affected, err := repo.MarkSold(row.ID, 7, now)
	if err != nil {
		t.Fatalf("mark sold failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected = %d, want 1", affected)
	}

	// A second claim must not touch the already sold row.
	affected, err = repo.MarkSold(row.ID, 8, now)
	if err != nil {
		t.Fatalf("second mark sold failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("affected = %d, want 0", affected)
	}

	row, err = repo.GetByCode("ABC123")
	if err != nil || row == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if row.Status != constants.CodeStatusSold {
		t.Fatalf("status = %q, want sold", row.Status)
	}
	if row.PaymentID == nil || *row.PaymentID != 7 {
		t.Fatalf("payment_id = %v, want 7", row.PaymentID)
	}
	if row.SoldAt == nil {
		t.Fatal("sold_at is nil")
	}
}

func TestCodeRepositoryResetSold(t *testing.T) {
	repo, _ := setupCodeRepositoryTest(t)

	if _, err := repo.BulkInsert([]string{"ABC123", "DEF456"}); err != nil {
		t.Fatalf("bulk insert failed: %v", err)
	}
	row, _ := repo.GetByCode("ABC123")
	if _, err := repo.MarkSold(row.ID, 1, time.Now()); err != nil {
		t.Fatalf("mark sold failed: %v", err)
	}

	reset, err := repo.ResetSold()
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if reset != 1 {
		t.Fatalf("reset = %d, want 1", reset)
	}

	row, _ = repo.GetByCode("ABC123")
	if row.Status != constants.CodeStatusAvailable {
		t.Fatalf("status = %q, want available", row.Status)
	}
	if row.PaymentID != nil || row.SoldAt != nil {
		t.Fatalf("binding not cleared: payment_id=%v sold_at=%v", row.PaymentID, row.SoldAt)
	}

	counts, err := repo.CountByStatus()
	if err != nil {
		t.Fatalf("count by status failed: %v", err)
	}
	if counts[constants.CodeStatusAvailable] != 2 {
		t.Fatalf("available = %d, want 2", counts[constants.CodeStatusAvailable])
	}
}

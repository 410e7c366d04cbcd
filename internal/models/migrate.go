package models

import (
	"errors"
	"time"

	"github.com/unitv-next/internal/logger"

	"gorm.io/gorm"
)

// SchemaMigration marks an applied migration step.
type SchemaMigration struct {
	Version   string    `gorm:"primarykey"`
	AppliedAt time.Time `gorm:"not null"`
}

// TableName overrides the table name.
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

type migration struct {
	Version string
	Run     func(tx *gorm.DB) error
}

// Ordered migration list. Steps run at most once, tracked by version marker,
// so schema intent never has to be re-derived from current column presence.
var migrations = []migration{
	{
		Version: "0001_create_codes_and_payments",
		Run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&Code{}, &Payment{})
		},
	},
	{
		Version: "0002_add_delivery_bookkeeping",
		Run: func(tx *gorm.DB) error {
			// notification_sent and paid_at arrived after the first
			// deployments; AutoMigrate adds them on old databases and is a
			// no-op on fresh ones.
			return tx.AutoMigrate(&Payment{})
		},
	},
	{
		Version: "0003_add_code_sold_at",
		Run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&Code{})
		},
	},
}

// Migrate applies all pending migration steps in order.
func Migrate() error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	if err := DB.AutoMigrate(&SchemaMigration{}); err != nil {
		return err
	}

	for _, step := range migrations {
		var count int64
		if err := DB.Model(&SchemaMigration{}).Where("version = ?", step.Version).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		err := DB.Transaction(func(tx *gorm.DB) error {
			if err := step.Run(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{Version: step.Version, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			logger.Errorw("migration_step_failed", "version", step.Version, "error", err)
			return err
		}
		logger.Infow("migration_step_applied", "version", step.Version)
	}
	return nil
}

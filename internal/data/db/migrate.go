package db

import (
	types "github.com/unexbilletera/unex-api/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Ledger
		&types.Account{},
		&types.Operation{},

		// COELSA integration
		&types.WebhookEvent{},
	)
}

package repos

import (
	"gorm.io/gorm"

	"github.com/unexbilletera/unex-api/internal/data/repos/payments"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

type OperationRepo = payments.OperationRepo
type AccountRepo = payments.AccountRepo
type WebhookEventRepo = payments.WebhookEventRepo

type StatusUpdate = payments.StatusUpdate

var OperationSort = payments.OperationSort

func NewOperationRepo(db *gorm.DB, baseLog *logger.Logger) OperationRepo {
	return payments.NewOperationRepo(db, baseLog)
}
func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	return payments.NewAccountRepo(db, baseLog)
}
func NewWebhookEventRepo(db *gorm.DB, baseLog *logger.Logger) WebhookEventRepo {
	return payments.NewWebhookEventRepo(db, baseLog)
}

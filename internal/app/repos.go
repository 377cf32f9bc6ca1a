package app

import (
	"gorm.io/gorm"

	"github.com/unexbilletera/unex-api/internal/data/repos"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

type Repos struct {
	Operation    repos.OperationRepo
	Account      repos.AccountRepo
	WebhookEvent repos.WebhookEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Operation:    repos.NewOperationRepo(db, log),
		Account:      repos.NewAccountRepo(db, log),
		WebhookEvent: repos.NewWebhookEventRepo(db, log),
	}
}

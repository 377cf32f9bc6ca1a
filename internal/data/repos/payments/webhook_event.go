package payments

import (
	"gorm.io/gorm"

	"github.com/unexbilletera/unex-api/internal/data/dberr"
	types "github.com/unexbilletera/unex-api/internal/domain"
	"github.com/unexbilletera/unex-api/internal/pkg/dbctx"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

type WebhookEventRepo interface {
	Create(dbc dbctx.Context, ev *types.WebhookEvent) error
}

type webhookEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWebhookEventRepo(db *gorm.DB, baseLog *logger.Logger) WebhookEventRepo {
	return &webhookEventRepo{db: db, log: baseLog.With("repo", "WebhookEventRepo")}
}

func (r *webhookEventRepo) Create(dbc dbctx.Context, ev *types.WebhookEvent) error {
	if ev == nil {
		return nil
	}
	if err := dbc.Conn(r.db).Create(ev).Error; err != nil {
		return dberr.Map("create webhook event", err)
	}
	return nil
}

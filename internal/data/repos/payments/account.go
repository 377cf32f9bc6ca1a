package payments

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/unexbilletera/unex-api/internal/data/dberr"
	types "github.com/unexbilletera/unex-api/internal/domain"
	"github.com/unexbilletera/unex-api/internal/pkg/dbctx"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

type AccountRepo interface {
	Create(dbc dbctx.Context, accounts []*types.Account) ([]*types.Account, error)
	CountByType(dbc dbctx.Context, accountType string) (int64, error)
	CountByTypeAndStatus(dbc dbctx.Context, accountType, status string) (int64, error)
	SumBalanceByType(dbc dbctx.Context, accountType string) (decimal.Decimal, error)
}

type accountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	repoLog := baseLog.With("repo", "AccountRepo")
	return &accountRepo{db: db, log: repoLog}
}

func (r *accountRepo) Create(dbc dbctx.Context, accounts []*types.Account) ([]*types.Account, error) {
	if len(accounts) == 0 {
		return []*types.Account{}, nil
	}
	if err := dbc.Conn(r.db).Create(&accounts).Error; err != nil {
		return nil, dberr.Map("create accounts", err)
	}
	return accounts, nil
}

func (r *accountRepo) CountByType(dbc dbctx.Context, accountType string) (int64, error) {
	var n int64
	if err := dbc.Conn(r.db).
		Model(&types.Account{}).
		Where("type = ?", accountType).
		Count(&n).Error; err != nil {
		return 0, dberr.Map("count accounts", err)
	}
	return n, nil
}

func (r *accountRepo) CountByTypeAndStatus(dbc dbctx.Context, accountType, status string) (int64, error) {
	var n int64
	if err := dbc.Conn(r.db).
		Model(&types.Account{}).
		Where("type = ? AND status = ?", accountType, status).
		Count(&n).Error; err != nil {
		return 0, dberr.Map("count accounts by status", err)
	}
	return n, nil
}

// SumBalanceByType scans through database/sql so decimal.Decimal's Scanner is used.
func (r *accountRepo) SumBalanceByType(dbc dbctx.Context, accountType string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	row := dbc.Conn(r.db).
		Model(&types.Account{}).
		Select("SUM(balance)").
		Where("type = ?", accountType).
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, dberr.Map("sum account balances", err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	types "github.com/unexbilletera/unex-api/internal/domain"
)

func SeedOperation(tb testing.TB, ctx context.Context, tx *gorm.DB, externalID string, status types.OperationStatus, opType string, createdAt time.Time) *types.Operation {
	tb.Helper()
	op := &types.Operation{
		Status:    status,
		Amount:    decimal.RequireFromString("100.50"),
		Type:      opType,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if externalID != "" {
		op.ExternalID = PtrString(externalID)
	}
	if err := tx.WithContext(ctx).Create(op).Error; err != nil {
		tb.Fatalf("seed operation: %v", err)
	}
	return op
}

func SeedAccount(tb testing.TB, ctx context.Context, tx *gorm.DB, accountType, status, balance string) *types.Account {
	tb.Helper()
	a := &types.Account{
		Type:    accountType,
		Status:  status,
		Balance: decimal.RequireFromString(balance),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed account: %v", err)
	}
	return a
}

func PtrString(v string) *string { return &v }

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unexbilletera/unex-api/internal/data/pagination"
	"github.com/unexbilletera/unex-api/internal/data/query"
	"github.com/unexbilletera/unex-api/internal/data/repos/testutil"
	types "github.com/unexbilletera/unex-api/internal/domain"
	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
)

func strPtr(v string) *string { return &v }

func TestOperationFilterEmptyMatchesEverything(t *testing.T) {
	cond, err := OperationFilter{Status: strPtr(""), Type: strPtr("  ")}.Condition()
	if err != nil {
		t.Fatalf("Condition: %v", err)
	}
	if !query.IsEmpty(cond) {
		t.Fatalf("blank filter should be empty, got %#v", cond)
	}
}

func TestOperationFilterValidation(t *testing.T) {
	cases := map[string]OperationFilter{
		"bad status":    {Status: strPtr("settled")},
		"bad exclusion": {ExcludeStatus: "pending,settled"},
		"bad amount":    {MinAmount: strPtr("ten")},
		"inverted":      {MinAmount: strPtr("10"), MaxAmount: strPtr("1")},
	}
	for name, f := range cases {
		if _, err := f.Condition(); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
			t.Fatalf("%s: want ErrInvalidArgument got %v", name, err)
		}
	}
}

func TestListOperationsAppliesFilters(t *testing.T) {
	f := newCoelsaFixture(t)
	ctx := context.Background()
	testutil.SeedOperation(t, ctx, f.db, "ALPHA-1", types.OperationStatusPending, "cashin_cvu", seededAt)
	testutil.SeedOperation(t, ctx, f.db, "ALPHA-2", types.OperationStatusConfirmed, "cashin_cvu", seededAt.Add(time.Minute))
	testutil.SeedOperation(t, ctx, f.db, "BETA-1", types.OperationStatusError, "cashout_cvu", seededAt.Add(2*time.Minute))
	testutil.SeedOperation(t, ctx, f.db, "BETA-2", types.OperationStatusReversed, "cashout_cvu", seededAt.Add(3*time.Minute))

	page, err := f.svc.ListOperations(ctx, OperationFilter{Search: "alpha"}, pagination.Params{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(page.Data) != 2 || *page.Data[0].ExternalID != "ALPHA-2" {
		t.Fatalf("search alpha: got %d rows", len(page.Data))
	}

	page, err = f.svc.ListOperations(ctx, OperationFilter{Type: strPtr("cashout_cvu"), ExcludeStatus: "reversed"}, pagination.Params{})
	if err != nil {
		t.Fatalf("type+exclude: %v", err)
	}
	if len(page.Data) != 1 || *page.Data[0].ExternalID != "BETA-1" {
		t.Fatalf("type+exclude: got %d rows", len(page.Data))
	}

	page, err = f.svc.ListOperations(ctx, OperationFilter{Status: strPtr("PENDING"), MinAmount: strPtr("100"), MaxAmount: strPtr("101")}, pagination.Params{})
	if err != nil {
		t.Fatalf("status+range: %v", err)
	}
	if len(page.Data) != 1 || *page.Data[0].ExternalID != "ALPHA-1" {
		t.Fatalf("status+range: got %d rows", len(page.Data))
	}

	page, err = f.svc.ListOperations(ctx, OperationFilter{MinAmount: strPtr("200")}, pagination.Params{})
	if err != nil || len(page.Data) != 0 {
		t.Fatalf("range excludes all: err=%v rows=%d", err, len(page.Data))
	}

	page, err = f.svc.ListOperations(ctx, OperationFilter{}, pagination.Params{Take: 3, SortBy: "createdAt", SortOrder: pagination.SortAsc})
	if err != nil {
		t.Fatalf("paged: %v", err)
	}
	if len(page.Data) != 3 || !page.HasMore || *page.Data[0].ExternalID != "ALPHA-1" || page.HasPrevious {
		t.Fatalf("paged asc: rows=%d hasMore=%v", len(page.Data), page.HasMore)
	}
}

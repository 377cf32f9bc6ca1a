package pagination

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/unexbilletera/unex-api/internal/pkg/dbctx"
	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
)

type item struct {
	ID        string `gorm:"primaryKey"`
	Seq       int
	CreatedAt time.Time
}

func (i *item) CursorKey() string { return i.ID }

var itemSort = SortColumns{Default: "created_at", Fields: map[string]string{"createdAt": "created_at", "seq": "seq"}}

func seedItems(t *testing.T, n int) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&item{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		it := &item{ID: fmt.Sprintf("id-%02d", i), Seq: i, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := db.Create(it).Error; err != nil {
			t.Fatalf("seed item %d: %v", i, err)
		}
	}
	return db
}

func keys(rows []*item) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestBuildPageOverFetch(t *testing.T) {
	rows := make([]*item, 0, 11)
	for i := 1; i <= 11; i++ {
		rows = append(rows, &item{ID: fmt.Sprintf("k%d", i)})
	}
	page := BuildPage(rows, 10)
	if len(page.Data) != 10 {
		t.Fatalf("data len: want=10 got=%d", len(page.Data))
	}
	if !page.HasMore {
		t.Fatal("HasMore: want=true")
	}
	if page.NextCursor == nil || *page.NextCursor != "k10" {
		t.Fatalf("NextCursor: want=k10 got=%v", page.NextCursor)
	}
	if page.PreviousCursor == nil || *page.PreviousCursor != "k1" {
		t.Fatalf("PreviousCursor: want=k1 got=%v", page.PreviousCursor)
	}
	if page.HasPrevious {
		t.Fatal("HasPrevious must always be false")
	}
}

func TestBuildPageExactTake(t *testing.T) {
	rows := make([]*item, 0, 10)
	for i := 1; i <= 10; i++ {
		rows = append(rows, &item{ID: fmt.Sprintf("k%d", i)})
	}
	page := BuildPage(rows, 10)
	if page.HasMore {
		t.Fatal("HasMore: want=false")
	}
	if page.NextCursor != nil {
		t.Fatalf("NextCursor: want=nil got=%q", *page.NextCursor)
	}
}

func TestBuildPageEmpty(t *testing.T) {
	page := BuildPage[*item](nil, 10)
	if page.Data == nil || len(page.Data) != 0 {
		t.Fatalf("Data: want empty non-nil slice got %#v", page.Data)
	}
	if page.PreviousCursor != nil || page.NextCursor != nil {
		t.Fatal("cursors must be nil on an empty page")
	}
}

func TestParamsNormalize(t *testing.T) {
	p, err := Params{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if p.Take != DefaultTake || p.SortOrder != SortDesc {
		t.Fatalf("defaults: got %+v", p)
	}
	if p, _ := (Params{Take: 5000}).Normalize(); p.Take != MaxTake {
		t.Fatalf("cap: want=%d got=%d", MaxTake, p.Take)
	}
	if _, err := (Params{Take: -1}).Normalize(); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("negative take: want ErrInvalidArgument got %v", err)
	}
	if _, err := (Params{SortOrder: "sideways"}).Normalize(); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("bad order: want ErrInvalidArgument got %v", err)
	}
}

func TestPaginateWalksForwardWithExclusiveCursor(t *testing.T) {
	db := seedItems(t, 11)
	dbc := dbctx.New(context.Background())

	first, err := Paginate[*item](dbc, db.Model(&item{}), Params{Take: 10}, itemSort)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Data) != 10 || !first.HasMore {
		t.Fatalf("first page: len=%d hasMore=%v", len(first.Data), first.HasMore)
	}
	if first.Data[0].ID != "id-11" {
		t.Fatalf("default order is newest first: got %s", first.Data[0].ID)
	}
	if first.NextCursor == nil || *first.NextCursor != first.Data[9].ID {
		t.Fatalf("NextCursor: want=%s got=%v", first.Data[9].ID, first.NextCursor)
	}

	second, err := Paginate[*item](dbc, db.Model(&item{}), Params{Take: 10, Cursor: *first.NextCursor}, itemSort)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if got := keys(second.Data); len(got) != 1 || got[0] != "id-01" {
		t.Fatalf("second page: want [id-01] got %v", got)
	}
	if second.HasMore || second.NextCursor != nil {
		t.Fatalf("second page should be the last one: %+v", second)
	}
}

func TestPaginateAscendingBySortField(t *testing.T) {
	db := seedItems(t, 5)
	dbc := dbctx.New(context.Background())

	page, err := Paginate[*item](dbc, db.Model(&item{}), Params{Take: 2, SortBy: "seq", SortOrder: SortAsc, Cursor: "id-02"}, itemSort)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if got := keys(page.Data); len(got) != 2 || got[0] != "id-03" || got[1] != "id-04" {
		t.Fatalf("want [id-03 id-04] got %v", got)
	}
	if !page.HasMore {
		t.Fatal("HasMore: want=true")
	}
}

func TestPaginateUnknownCursorYieldsEmptyPage(t *testing.T) {
	db := seedItems(t, 3)
	page, err := Paginate[*item](dbctx.New(context.Background()), db.Model(&item{}), Params{Cursor: "missing"}, itemSort)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(page.Data) != 0 || page.HasMore {
		t.Fatalf("want empty page got %+v", page)
	}
}

func TestPaginateScreenedCursorSkipsQuery(t *testing.T) {
	db := seedItems(t, 3)
	cols := itemSort
	cols.ValidCursor = func(cursor string) bool { return cursor != "malformed" }

	// Dropping the table proves the screened cursor never reaches the database.
	if err := db.Migrator().DropTable(&item{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	page, err := Paginate[*item](dbctx.New(context.Background()), db.Model(&item{}), Params{Cursor: "malformed"}, cols)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(page.Data) != 0 || page.HasMore || page.NextCursor != nil {
		t.Fatalf("want empty page got %+v", page)
	}

	_, err = Paginate[*item](dbctx.New(context.Background()), db.Model(&item{}), Params{Cursor: "malformed", SortBy: "password"}, cols)
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("sort validation still applies: want ErrInvalidArgument got %v", err)
	}
}

func TestPaginateRejectsUnknownSortField(t *testing.T) {
	db := seedItems(t, 1)
	_, err := Paginate[*item](dbctx.New(context.Background()), db.Model(&item{}), Params{SortBy: "password"}, itemSort)
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument got %v", err)
	}
}

// Package pagination implements forward cursor pagination over GORM queries.
// Backward traversal is not supported: HasPrevious is always false and
// PreviousCursor is informational only.
package pagination

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/unexbilletera/unex-api/internal/pkg/dbctx"
	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
)

const (
	DefaultTake = 20
	MaxTake     = 100
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Keyed is implemented by every paginated entity. The key must be unique.
type Keyed interface {
	CursorKey() string
}

type Params struct {
	Cursor    string    `form:"cursor" json:"cursor,omitempty"`
	Take      int       `form:"take" json:"take,omitempty"`
	SortBy    string    `form:"sortBy" json:"sortBy,omitempty"`
	SortOrder SortOrder `form:"sortOrder" json:"sortOrder,omitempty"`
}

// SortColumns whitelists API sort fields and maps them to columns.
type SortColumns struct {
	Default string
	Fields  map[string]string
	// ValidCursor, when set, screens cursors before they reach the database.
	// A cursor it rejects cannot name a row, so the page is empty.
	ValidCursor func(cursor string) bool
}

type Page[T any] struct {
	Data           []T     `json:"data"`
	NextCursor     *string `json:"nextCursor,omitempty"`
	PreviousCursor *string `json:"previousCursor,omitempty"`
	HasMore        bool    `json:"hasMore"`
	HasPrevious    bool    `json:"hasPrevious"`
}

// Normalize fills defaults and rejects values that cannot be served.
func (p Params) Normalize() (Params, error) {
	p.Cursor = strings.TrimSpace(p.Cursor)
	switch {
	case p.Take < 0:
		return p, fmt.Errorf("%w: take must be positive", pkgerrors.ErrInvalidArgument)
	case p.Take == 0:
		p.Take = DefaultTake
	case p.Take > MaxTake:
		p.Take = MaxTake
	}
	p.SortOrder = SortOrder(strings.ToLower(strings.TrimSpace(string(p.SortOrder))))
	switch p.SortOrder {
	case "":
		p.SortOrder = SortDesc
	case SortAsc, SortDesc:
	default:
		return p, fmt.Errorf("%w: sortOrder must be asc or desc", pkgerrors.ErrInvalidArgument)
	}
	p.SortBy = strings.TrimSpace(p.SortBy)
	return p, nil
}

func (s SortColumns) resolve(sortBy string) (string, error) {
	if sortBy == "" {
		return s.Default, nil
	}
	col, ok := s.Fields[sortBy]
	if !ok {
		return "", fmt.Errorf("%w: cannot sort by %q", pkgerrors.ErrInvalidArgument, sortBy)
	}
	return col, nil
}

// BuildPage trims an over-fetched slice of up to take+1 rows into a page.
func BuildPage[T Keyed](rows []T, take int) Page[T] {
	hasMore := len(rows) > take
	if hasMore {
		rows = rows[:take]
	}
	if rows == nil {
		rows = []T{}
	}
	page := Page[T]{Data: rows, HasMore: hasMore}
	if len(rows) > 0 {
		first := rows[0].CursorKey()
		page.PreviousCursor = &first
	}
	if hasMore {
		last := rows[len(rows)-1].CursorKey()
		page.NextCursor = &last
	}
	return page
}

// Paginate runs q ordered by (sort column, id), fetching take+1 rows that start
// strictly after the cursor row. q must already carry its filters; T must map
// to a table with an "id" column holding the cursor key.
func Paginate[T Keyed](dbc dbctx.Context, q *gorm.DB, p Params, cols SortColumns) (Page[T], error) {
	p, err := p.Normalize()
	if err != nil {
		return Page[T]{}, err
	}
	col, err := cols.resolve(p.SortBy)
	if err != nil {
		return Page[T]{}, err
	}
	desc := p.SortOrder == SortDesc
	if p.Cursor != "" && cols.ValidCursor != nil && !cols.ValidCursor(p.Cursor) {
		return BuildPage[T](nil, p.Take), nil
	}

	tx := q
	if dbc.Ctx != nil {
		tx = q.WithContext(dbc.Ctx)
	}
	if p.Cursor != "" {
		stmt := &gorm.Statement{DB: q}
		if err := stmt.Parse(new(T)); err != nil {
			return Page[T]{}, fmt.Errorf("parse paginated model: %w", err)
		}
		tx = tx.Where(afterCursor(stmt.Schema.Table, col, p.Cursor, desc))
	}

	var rows []T
	err = tx.
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: col}, Desc: desc},
			{Column: clause.Column{Name: "id"}, Desc: desc},
		}}).
		Limit(p.Take + 1).
		Find(&rows).Error
	if err != nil {
		return Page[T]{}, err
	}
	return BuildPage(rows, p.Take), nil
}

// afterCursor is the keyset predicate for rows that sort strictly after the
// cursor row. An unknown cursor makes the subquery NULL and matches nothing.
func afterCursor(table, col, cursor string, desc bool) clause.Expression {
	op := ">"
	if desc {
		op = "<"
	}
	sub := clause.Expr{
		SQL:  "(SELECT ? FROM ? WHERE ? = ?)",
		Vars: []any{clause.Column{Name: col}, clause.Table{Name: table}, clause.Column{Name: "id"}, cursor},
	}
	return clause.Or(
		clause.Expr{SQL: "? " + op + " ?", Vars: []any{clause.Column{Name: col}, sub}},
		clause.And(
			clause.Expr{SQL: "? = ?", Vars: []any{clause.Column{Name: col}, sub}},
			clause.Expr{SQL: "? " + op + " ?", Vars: []any{clause.Column{Name: "id"}, cursor}},
		),
	)
}

package payments

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/unexbilletera/unex-api/internal/data/dberr"
	"github.com/unexbilletera/unex-api/internal/data/pagination"
	"github.com/unexbilletera/unex-api/internal/data/query"
	types "github.com/unexbilletera/unex-api/internal/domain"
	"github.com/unexbilletera/unex-api/internal/pkg/dbctx"
	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

// OperationSort whitelists the sortable operation fields.
var OperationSort = pagination.SortColumns{
	Default: "created_at",
	Fields: map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
		"amount":    "amount",
	},
	ValidCursor: func(cursor string) bool {
		_, err := uuid.Parse(cursor)
		return err == nil
	},
}

// HistoryColumns is the fixed projection used by the compliance history extract.
var HistoryColumns = []string{"id", "external_id", "type", "status", "amount", "currency", "reverse_external_id", "created_at"}

type StatusUpdate struct {
	Status            types.OperationStatus
	ReverseExternalID *string
	At                time.Time
}

type OperationRepo interface {
	Create(dbc dbctx.Context, ops []*types.Operation) ([]*types.Operation, error)
	GetByExternalIDs(dbc dbctx.Context, externalIDs []string) ([]*types.Operation, error)
	FindByIdentifier(dbc dbctx.Context, identifier string) (*types.Operation, error)
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, upd StatusUpdate) error
	List(dbc dbctx.Context, cond clause.Expression, p pagination.Params) (pagination.Page[*types.Operation], error)
	RecentByTypes(dbc dbctx.Context, opTypes []string, limit int) ([]*types.Operation, error)
}

type operationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOperationRepo(db *gorm.DB, baseLog *logger.Logger) OperationRepo {
	repoLog := baseLog.With("repo", "OperationRepo")
	return &operationRepo{db: db, log: repoLog}
}

func (r *operationRepo) Create(dbc dbctx.Context, ops []*types.Operation) ([]*types.Operation, error) {
	if len(ops) == 0 {
		return []*types.Operation{}, nil
	}
	if err := dbc.Conn(r.db).Create(&ops).Error; err != nil {
		return nil, dberr.Map("create operations", err)
	}
	return ops, nil
}

func (r *operationRepo) GetByExternalIDs(dbc dbctx.Context, externalIDs []string) ([]*types.Operation, error) {
	var results []*types.Operation
	if len(externalIDs) == 0 {
		return results, nil
	}
	if err := dbc.Conn(r.db).
		Where("external_id IN ?", externalIDs).
		Find(&results).Error; err != nil {
		return nil, dberr.Map("get operations by external id", err)
	}
	return results, nil
}

// FindByIdentifier matches external_id or id; the id arm is only added when the
// identifier is a UUID. It returns nil, nil when nothing matches.
func (r *operationRepo) FindByIdentifier(dbc dbctx.Context, identifier string) (*types.Operation, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil
	}
	q := dbc.Conn(r.db)
	if id, err := uuid.Parse(identifier); err == nil {
		q = q.Where("external_id = ? OR id = ?", identifier, id)
	} else {
		q = q.Where("external_id = ?", identifier)
	}
	var results []*types.Operation
	if err := q.Order("created_at ASC").Limit(1).Find(&results).Error; err != nil {
		return nil, dberr.Map("find operation", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// UpdateStatus writes by id only; concurrent deliveries race and the last write wins.
func (r *operationRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, upd StatusUpdate) error {
	at := upd.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	updates := map[string]interface{}{
		"status":     upd.Status,
		"updated_at": at,
	}
	if upd.ReverseExternalID != nil {
		updates["reverse_external_id"] = *upd.ReverseExternalID
	}
	res := dbc.Conn(r.db).
		Model(&types.Operation{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return dberr.Map("update operation status", res.Error)
	}
	if res.RowsAffected == 0 {
		return dberr.Map("update operation status", pkgerrors.ErrNotFound)
	}
	return nil
}

func (r *operationRepo) List(dbc dbctx.Context, cond clause.Expression, p pagination.Params) (pagination.Page[*types.Operation], error) {
	q := query.Apply(r.db.Model(&types.Operation{}), cond)
	if dbc.Tx != nil {
		q = query.Apply(dbc.Tx.Model(&types.Operation{}), cond)
	}
	page, err := pagination.Paginate[*types.Operation](dbc, q, p, OperationSort)
	if err != nil {
		return page, dberr.Map("list operations", err)
	}
	return page, nil
}

func (r *operationRepo) RecentByTypes(dbc dbctx.Context, opTypes []string, limit int) ([]*types.Operation, error) {
	var results []*types.Operation
	in := query.BuildIn(opTypes)
	if in == nil || limit <= 0 {
		return results, nil
	}
	if err := dbc.Conn(r.db).
		Select(HistoryColumns).
		Where(query.Where{"type": in}).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, dberr.Map("recent operations by type", err)
	}
	return results, nil
}

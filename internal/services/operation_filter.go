package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"

	"github.com/unexbilletera/unex-api/internal/data/query"
	types "github.com/unexbilletera/unex-api/internal/domain"
	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
)

// operationSearchColumns are matched by the free-text search.
var operationSearchColumns = []string{"external_id", "type"}

// OperationFilter holds the optional list filters bound from the query string.
type OperationFilter struct {
	Status        *string `form:"status"`
	Type          *string `form:"type"`
	MinAmount     *string `form:"minAmount"`
	MaxAmount     *string `form:"maxAmount"`
	Search        string  `form:"search"`
	ExcludeStatus string  `form:"excludeStatus"`
}

// Condition converts the filter with the query builder. Unset fields add no constraint.
func (f OperationFilter) Condition() (clause.Expression, error) {
	if f.Status != nil && strings.TrimSpace(*f.Status) != "" {
		if err := validateStatus(*f.Status); err != nil {
			return nil, err
		}
	}
	excluded, err := splitStatuses(f.ExcludeStatus)
	if err != nil {
		return nil, err
	}
	minAmount, err := parseAmount("minAmount", f.MinAmount)
	if err != nil {
		return nil, err
	}
	maxAmount, err := parseAmount("maxAmount", f.MaxAmount)
	if err != nil {
		return nil, err
	}
	if minAmount != nil && maxAmount != nil && minAmount.GreaterThan(*maxAmount) {
		return nil, fmt.Errorf("minAmount exceeds maxAmount: %w", pkgerrors.ErrInvalidArgument)
	}

	where := query.BuildWhere(map[string]any{
		"status": f.Status,
		"type":   f.Type,
	}, map[string]query.FieldMapper{
		"status": query.Transform(lowerTrimmed),
		"type":   query.Transform(trimmed),
	})
	if r := query.BuildRange(minAmount, maxAmount); r != nil {
		where["amount"] = r
	}
	// status may carry both an equality and an exclusion, so the NOT IN is
	// merged as its own condition.
	var exclusion clause.Expression
	if notIn := query.BuildNotIn(excluded); notIn != nil {
		exclusion = query.Where{"status": notIn}.Expression()
	}
	return query.Merge(
		where.Expression(),
		exclusion,
		query.BuildSearch(f.Search, operationSearchColumns),
	), nil
}

func validateStatus(raw string) error {
	s := types.OperationStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return fmt.Errorf("unknown status %q: %w", raw, pkgerrors.ErrInvalidArgument)
	}
	return nil
}

func splitStatuses(raw string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if err := validateStatus(part); err != nil {
			return nil, err
		}
		out = append(out, part)
	}
	return out, nil
}

func parseAmount(field string, raw *string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, fmt.Errorf("%s must be a decimal: %w", field, pkgerrors.ErrInvalidArgument)
	}
	return &d, nil
}

func trimmed(v any) any {
	switch t := v.(type) {
	case *string:
		return strings.TrimSpace(*t)
	case string:
		return strings.TrimSpace(t)
	}
	return v
}

func lowerTrimmed(v any) any {
	if s, ok := trimmed(v).(string); ok {
		return strings.ToLower(s)
	}
	return v
}

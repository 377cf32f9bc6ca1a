// Package query builds filter conditions for list endpoints as GORM clause
// expressions. A nil clause.Expression means "no constraint".
package query

import (
	"reflect"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Where is a flat column -> constraint mapping. A plain value is an equality;
// *Range, *In, *NotIn and Contains render as their own operators.
type Where map[string]any

type Range struct {
	Gte any
	Lte any
}

type In struct{ Values []any }

type NotIn struct{ Values []any }

type Contains struct{ Term string }

// FieldMapper renames a filter key to a column and/or rewrites its value.
type FieldMapper struct {
	Column    string
	Transform func(any) any
}

func Rename(column string) FieldMapper { return FieldMapper{Column: column} }

func Transform(fn func(any) any) FieldMapper { return FieldMapper{Transform: fn} }

// BuildWhere drops blank filter values and applies the optional mapping.
func BuildWhere(filters map[string]any, mapping map[string]FieldMapper) Where {
	out := Where{}
	for key, val := range filters {
		if IsBlank(val) {
			continue
		}
		col := key
		if m, ok := mapping[key]; ok {
			if m.Column != "" {
				col = m.Column
			}
			if m.Transform != nil {
				val = m.Transform(val)
				if IsBlank(val) {
					continue
				}
			}
		}
		out[col] = val
	}
	return out
}

// IsBlank reports nil, nil pointers/maps/slices/interfaces and empty strings.
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return IsBlank(rv.Elem().Interface())
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// BuildRange returns nil when neither bound is present.
func BuildRange(min, max any) *Range {
	minSet, maxSet := !IsBlank(min), !IsBlank(max)
	if !minSet && !maxSet {
		return nil
	}
	r := &Range{}
	if minSet {
		r.Gte = deref(min)
	}
	if maxSet {
		r.Lte = deref(max)
	}
	return r
}

// BuildIn returns nil for an empty list; an empty IN would reject every row.
func BuildIn[T any](values []T) *In {
	if len(values) == 0 {
		return nil
	}
	return &In{Values: toAny(values)}
}

// BuildNotIn returns nil for an empty list; an empty NOT IN would accept every row.
func BuildNotIn[T any](values []T) *NotIn {
	if len(values) == 0 {
		return nil
	}
	return &NotIn{Values: toAny(values)}
}

// BuildSearch ORs a case-insensitive substring match over fields.
func BuildSearch(term string, fields []string) clause.Expression {
	term = strings.TrimSpace(term)
	if term == "" || len(fields) == 0 {
		return nil
	}
	exprs := make([]clause.Expression, 0, len(fields))
	for _, f := range fields {
		exprs = append(exprs, Where{f: Contains{Term: term}}.Expression())
	}
	return clause.Or(exprs...)
}

// Merge ANDs every non-empty condition. With nothing left it returns an empty
// AND, which Apply treats as "match everything".
func Merge(conds ...clause.Expression) clause.Expression {
	kept := make([]clause.Expression, 0, len(conds))
	for _, c := range conds {
		if !IsEmpty(c) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return clause.AndConditions{}
	}
	return clause.AndConditions{Exprs: kept}
}

func IsEmpty(c clause.Expression) bool {
	if IsBlank(c) {
		return true
	}
	switch v := c.(type) {
	case clause.AndConditions:
		return len(v.Exprs) == 0
	case clause.OrConditions:
		return len(v.Exprs) == 0
	case Where:
		return v.Expression() == nil
	}
	return false
}

// Apply adds cond to db unless it is empty.
func Apply(db *gorm.DB, cond clause.Expression) *gorm.DB {
	if IsEmpty(cond) {
		return db
	}
	return db.Where(cond)
}

// Expression renders w as an AND of its constraints, keys in sorted order.
// It returns nil for an empty mapping.
func (w Where) Expression() clause.Expression {
	if len(w) == 0 {
		return nil
	}
	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	exprs := make([]clause.Expression, 0, len(keys))
	for _, k := range keys {
		col := clause.Column{Name: k}
		switch v := w[k].(type) {
		case *Range:
			if v == nil {
				continue
			}
			if v.Gte != nil {
				exprs = append(exprs, clause.Gte{Column: col, Value: v.Gte})
			}
			if v.Lte != nil {
				exprs = append(exprs, clause.Lte{Column: col, Value: v.Lte})
			}
		case *In:
			if v == nil {
				continue
			}
			exprs = append(exprs, clause.IN{Column: col, Values: v.Values})
		case *NotIn:
			if v == nil {
				continue
			}
			exprs = append(exprs, clause.Not(clause.IN{Column: col, Values: v.Values}))
		case Contains:
			if strings.TrimSpace(v.Term) == "" {
				continue
			}
			exprs = append(exprs, containsExpr(k, strings.TrimSpace(v.Term)))
		default:
			exprs = append(exprs, clause.Eq{Column: col, Value: deref(v)})
		}
	}
	if len(exprs) == 0 {
		return nil
	}
	return clause.AndConditions{Exprs: exprs}
}

// Build lets a Where be passed anywhere a clause.Expression is accepted.
func (w Where) Build(builder clause.Builder) {
	if expr := w.Expression(); expr != nil {
		expr.Build(builder)
	}
}

func containsExpr(column, term string) clause.Expression {
	return clause.Expr{
		SQL:  "LOWER(?) LIKE ? ESCAPE '\\'",
		Vars: []any{clause.Column{Name: column}, "%" + escapeLike(strings.ToLower(term)) + "%"},
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return rv.Elem().Interface()
	}
	return v
}

func toAny[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

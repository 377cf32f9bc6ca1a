package query

import (
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"
)

type row struct {
	ID     string
	Status string
	Amount float64
	Type   string
}

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		DryRun: true,
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func renderSQL(t *testing.T, cond clause.Expression) (string, []any) {
	t.Helper()
	stmt := Apply(dryRunDB(t).Table("rows"), cond).Find(&[]row{}).Statement
	return stmt.SQL.String(), stmt.Vars
}

func TestBuildWhereDropsBlankValues(t *testing.T) {
	empty := ""
	var nilPtr *string
	status := "pending"
	w := BuildWhere(map[string]any{
		"status":   &status,
		"type":     "",
		"currency": nil,
		"alias":    nilPtr,
		"cvu":      &empty,
		"amount":   0,
	}, nil)

	for _, k := range []string{"type", "currency", "alias", "cvu"} {
		if _, ok := w[k]; ok {
			t.Fatalf("blank key %q should be dropped: %#v", k, w)
		}
	}
	if len(w) != 2 {
		t.Fatalf("unexpected where size: want=2 got=%d (%#v)", len(w), w)
	}
	if _, ok := w["amount"]; !ok {
		t.Fatalf("zero number is not blank and must be kept")
	}
}

func TestBuildWhereAppliesMapping(t *testing.T) {
	w := BuildWhere(map[string]any{
		"externalId": "abc",
		"status":     "PENDING",
		"type":       "transfer",
	}, map[string]FieldMapper{
		"externalId": Rename("external_id"),
		"status":     Transform(func(v any) any { return strings.ToLower(v.(string)) }),
	})

	if got := w["external_id"]; got != "abc" {
		t.Fatalf("rename: want=%q got=%v", "abc", got)
	}
	if _, ok := w["externalId"]; ok {
		t.Fatalf("original key should be replaced by the mapped column")
	}
	if got := w["status"]; got != "pending" {
		t.Fatalf("transform: want=%q got=%v", "pending", got)
	}
	if got := w["type"]; got != "transfer" {
		t.Fatalf("unmapped: want=%q got=%v", "transfer", got)
	}
}

func TestBuildRange(t *testing.T) {
	if r := BuildRange(nil, nil); r != nil {
		t.Fatalf("no bounds: want nil got %#v", r)
	}
	r := BuildRange(10, nil)
	if r == nil || r.Gte != 10 || r.Lte != nil {
		t.Fatalf("min only: got %#v", r)
	}
	max := 50
	r = BuildRange(nil, &max)
	if r == nil || r.Gte != nil || r.Lte != 50 {
		t.Fatalf("max only: got %#v", r)
	}
}

func TestBuildInAndNotInEmpty(t *testing.T) {
	if c := BuildIn([]string{}); c != nil {
		t.Fatalf("BuildIn(empty): want nil got %#v", c)
	}
	if c := BuildNotIn[string](nil); c != nil {
		t.Fatalf("BuildNotIn(nil): want nil got %#v", c)
	}
	if c := BuildIn([]string{"a", "b"}); c == nil || len(c.Values) != 2 {
		t.Fatalf("BuildIn: got %#v", c)
	}

	// A nil membership constraint is dropped like any other blank value.
	w := BuildWhere(map[string]any{"status": BuildIn([]string{})}, nil)
	if len(w) != 0 {
		t.Fatalf("empty IN should not survive BuildWhere: %#v", w)
	}
}

func TestMergeEmpty(t *testing.T) {
	for _, got := range []clause.Expression{
		Merge(),
		Merge(nil, Where{}.Expression(), BuildSearch("", []string{"type"}), clause.AndConditions{}),
	} {
		and, ok := got.(clause.AndConditions)
		if !ok {
			t.Fatalf("want clause.AndConditions got %T", got)
		}
		if len(and.Exprs) != 0 {
			t.Fatalf("want empty condition got %d exprs", len(and.Exprs))
		}
		if !IsEmpty(got) {
			t.Fatalf("IsEmpty should be true")
		}
	}
}

func TestMergeKeepsNonEmpty(t *testing.T) {
	got := Merge(nil, Where{"status": "pending"}.Expression(), BuildSearch("ab", []string{"type"}))
	and, ok := got.(clause.AndConditions)
	if !ok || len(and.Exprs) != 2 {
		t.Fatalf("want 2 exprs got %#v", got)
	}
}

func TestBuildSearchRendersCaseInsensitiveOr(t *testing.T) {
	sql, vars := renderSQL(t, BuildSearch("AbC%", []string{"external_id", "type"}))
	if !strings.Contains(sql, "LOWER(`external_id`) LIKE ?") || !strings.Contains(sql, " OR ") {
		t.Fatalf("unexpected sql: %s", sql)
	}
	if len(vars) != 2 || vars[0] != `%abc\%%` {
		t.Fatalf("unexpected vars: %#v", vars)
	}
}

func TestWhereContainsRendersEscapedLike(t *testing.T) {
	if (Where{"type": Contains{Term: "  "}}).Expression() != nil {
		t.Fatalf("blank term should add no constraint")
	}
	sql, vars := renderSQL(t, Where{"type": Contains{Term: " Cash_In "}}.Expression())
	if !strings.Contains(sql, "LOWER(`type`) LIKE ?") {
		t.Fatalf("unexpected sql: %s", sql)
	}
	if len(vars) != 1 || vars[0] != `%cash\_in%` {
		t.Fatalf("unexpected vars: %#v", vars)
	}
}

func TestWhereExpressionRendersOperators(t *testing.T) {
	w := Where{
		"amount": BuildRange(10, 20),
		"status": BuildNotIn([]string{"error", "reversed"}),
		"type":   BuildIn([]string{"cashin", "cashout"}),
	}
	sql, vars := renderSQL(t, w.Expression())
	for _, frag := range []string{"`amount` >= ?", "`amount` <= ?", "`status` NOT IN (?,?)", "`type` IN (?,?)"} {
		if !strings.Contains(sql, frag) {
			t.Fatalf("missing %q in %s", frag, sql)
		}
	}
	if len(vars) != 6 {
		t.Fatalf("unexpected vars: %#v", vars)
	}
}

func TestApplySkipsEmptyCondition(t *testing.T) {
	sql, _ := renderSQL(t, Merge())
	if strings.Contains(sql, "WHERE") {
		t.Fatalf("empty condition should not add WHERE: %s", sql)
	}
}

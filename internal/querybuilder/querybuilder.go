// Package querybuilder implements the query builder (C4): it assembles
// final SQL text for a fixed set of operations, invoking the identifier
// firewall, expression validator, and dialect translator for every
// identifier and expression that reaches the template.
package querybuilder

import (
	"fmt"
	"strings"
	"sync/atomic"

	"relquery/internal/cache"
	"relquery/internal/dialectkind"
	"relquery/internal/firewall"
	"relquery/internal/sqlexpr"
	"relquery/internal/translate"
)

// Operation identifies one of the nine SQL shapes the builder can emit.
type Operation string

const (
	OpSimpleSelect           Operation = "simple_select"
	OpSimpleInsert           Operation = "simple_insert"
	OpInsertWithExpressions  Operation = "insert_with_expressions"
	OpSimpleUpdate           Operation = "simple_update"
	OpUpdateWithExpressions  Operation = "update_with_expressions"
	OpUpdateWhereWithExprs   Operation = "update_where_with_expressions"
	OpSimpleDelete           Operation = "simple_delete"
	OpBulkInsert             Operation = "bulk_insert"
	OpCountQuery             Operation = "count_query"
)

// whereOperators is the fixed allowlist for the WHERE operator slot.
var whereOperators = map[string]bool{
	"=": true, "!=": true, "<>": true, "<": true, "<=": true, ">": true,
	">=": true, "LIKE": true, "IN": true, "IS": true,
}

// ExprColumn pairs a column name with its (already C2-eligible) expression
// source, used for *_with_expressions operations.
type ExprColumn struct {
	Column     string
	Expression string
	Context    sqlexpr.Context
}

// Params carries every input the builder needs for one call, with only the
// fields relevant to the chosen Operation populated.
type Params struct {
	Table string

	// simple_select / count_query / simple_delete / simple_update
	ID string // bound :id value placeholder name, not embedded literally

	// simple_select filtering
	WhereColumn   string
	WhereOperator string // defaults to "="

	// simple_select / reporting
	Columns   []string // part of the cache key only; no operation reads it (SELECT always emits *)
	OrderBy   string   // raw clause, e.g. "name desc, id asc"
	Limit     int
	Offset    int
	HasLimit  bool

	// simple_insert / simple_update
	InsertColumns []string // plain bound columns

	// *_with_expressions
	ExprColumns []ExprColumn

	// update operations
	UpdateID    string
	WhereValue  string // column name whose value is bound as :where_value

	// bulk_insert
	RowCount int
}

// Builder assembles SQL and caches the generated text by (dialect,
// operation, serialized params).
type Builder struct {
	fw    *firewall.Firewall
	ev    *sqlexpr.Validator
	tr    *translate.Translator
	cache *cache.Bounded[string]
	hits  int64
	misses int64
}

// New wires a Builder with its own firewall/validator/translator instances
// and a SQL template cache pre-sized to approximate the spec's "drop half
// the oldest" overflow policy via natural one-at-a-time LRU eviction.
func New() *Builder {
	return &Builder{
		fw:    firewall.New(),
		ev:    sqlexpr.New(),
		tr:    translate.New(),
		cache: cache.NewBounded[string](250),
	}
}

// Hits reports the number of cache hits observed so far.
func (b *Builder) Hits() int64 { return atomic.LoadInt64(&b.hits) }

// Misses reports the number of cache misses observed so far.
func (b *Builder) Misses() int64 { return atomic.LoadInt64(&b.misses) }

// Build assembles the SQL text for operation against dialect.
func (b *Builder) Build(operation Operation, params Params, dialect dialectkind.Dialect) (string, error) {
	key := cache.Key(string(dialect), string(operation), serialize(params))
	if cached, ok := b.cache.Get(key); ok {
		atomic.AddInt64(&b.hits, 1)
		return cached, nil
	}
	atomic.AddInt64(&b.misses, 1)

	sql, err := b.build(operation, params, dialect)
	if err != nil {
		return "", err
	}

	b.cache.Put(key, sql)
	return sql, nil
}

func serialize(p Params) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "table=%s;id=%s;where=%s;op=%s;cols=%s;order=%s;limit=%d;offset=%d;haslimit=%t;insertcols=%s;updateid=%s;wherevalue=%s;rows=%d;",
		p.Table, p.ID, p.WhereColumn, p.WhereOperator, strings.Join(p.Columns, ","), p.OrderBy,
		p.Limit, p.Offset, p.HasLimit, strings.Join(p.InsertColumns, ","), p.UpdateID, p.WhereValue, p.RowCount)
	for _, ec := range p.ExprColumns {
		fmt.Fprintf(&sb, "expr(%s,%s,%s);", ec.Column, ec.Expression, ec.Context)
	}
	return sb.String()
}

func (b *Builder) build(operation Operation, p Params, dialect dialectkind.Dialect) (string, error) {
	table, err := b.fw.ValidateAndEscape(p.Table, dialect, firewall.KindTable)
	if err != nil {
		return "", err
	}

	switch operation {
	case OpSimpleSelect:
		return b.buildSimpleSelect(p, table, dialect)
	case OpSimpleInsert:
		return b.buildSimpleInsert(p, table, dialect)
	case OpInsertWithExpressions:
		return b.buildInsertWithExpressions(p, table, dialect)
	case OpSimpleUpdate:
		return b.buildSimpleUpdate(p, table, dialect)
	case OpUpdateWithExpressions:
		return b.buildUpdateWithExpressions(p, table, dialect, false)
	case OpUpdateWhereWithExprs:
		return b.buildUpdateWithExpressions(p, table, dialect, true)
	case OpSimpleDelete:
		return b.buildSimpleDelete(p, table)
	case OpBulkInsert:
		return b.buildBulkInsert(p, table, dialect)
	case OpCountQuery:
		return b.buildCountQuery(p, table, dialect)
	default:
		return "", fmt.Errorf("querybuilder: unknown operation %q", operation)
	}
}

func (b *Builder) buildSimpleSelect(p Params, table string, dialect dialectkind.Dialect) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT * FROM %s", table)

	switch {
	case p.WhereColumn != "":
		col, err := b.fw.ValidateAndEscape(p.WhereColumn, dialect, firewall.KindColumn)
		if err != nil {
			return "", err
		}
		op := p.WhereOperator
		if op == "" {
			op = "="
		}
		if !whereOperators[strings.ToUpper(op)] && !whereOperators[op] {
			return "", fmt.Errorf("querybuilder: operator %q is not in the allowlist", op)
		}
		fmt.Fprintf(&sb, " WHERE %s %s :value", col, op)
	case p.ID != "":
		fmt.Fprintf(&sb, " WHERE id=:id")
	}

	if p.OrderBy != "" {
		escaped, err := b.fw.ValidateOrderBy(p.OrderBy, dialect)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, " ORDER BY %s", escaped)
	}

	if p.HasLimit {
		sb.WriteString(" " + limitClause(dialect, p.Limit, p.Offset))
	}

	return sb.String(), nil
}

func (b *Builder) buildSimpleInsert(p Params, table string, dialect dialectkind.Dialect) (string, error) {
	cols, err := b.fw.ValidateAndEscapeBulk(p.InsertColumns, dialect, firewall.KindColumn)
	if err != nil {
		return "", err
	}
	placeholders := make([]string, len(p.InsertColumns))
	for i, c := range p.InsertColumns {
		placeholders[i] = ":" + c
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ","), strings.Join(placeholders, ",")), nil
}

func (b *Builder) buildInsertWithExpressions(p Params, table string, dialect dialectkind.Dialect) (string, error) {
	cols, vals, err := b.buildSetClauseParts(p, dialect)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ","), strings.Join(vals, ",")), nil
}

// buildSetClauseParts builds the escaped column list and the corresponding
// RHS list (bound placeholders for plain columns, translated expression
// text for expression slots), shared by insert_with_expressions and the
// update *_with_expressions operations.
func (b *Builder) buildSetClauseParts(p Params, dialect dialectkind.Dialect) ([]string, []string, error) {
	cols := make([]string, 0, len(p.InsertColumns)+len(p.ExprColumns))
	vals := make([]string, 0, len(p.InsertColumns)+len(p.ExprColumns))

	plainCols, err := b.fw.ValidateAndEscapeBulk(p.InsertColumns, dialect, firewall.KindColumn)
	if err != nil {
		return nil, nil, err
	}
	for i, c := range plainCols {
		cols = append(cols, c)
		vals = append(vals, ":"+p.InsertColumns[i])
	}

	allowed := append([]string(nil), p.InsertColumns...)
	for _, ec := range p.ExprColumns {
		allowed = append(allowed, ec.Column)
	}

	for _, ec := range p.ExprColumns {
		col, err := b.fw.ValidateAndEscape(ec.Column, dialect, firewall.KindColumn)
		if err != nil {
			return nil, nil, err
		}
		validated, err := b.ev.Validate(ec.Expression, ec.Context, allowed)
		if err != nil {
			return nil, nil, err
		}
		cols = append(cols, col)
		vals = append(vals, b.tr.Translate(validated, dialect))
	}

	return cols, vals, nil
}

func (b *Builder) buildSimpleUpdate(p Params, table string, dialect dialectkind.Dialect) (string, error) {
	cols, err := b.fw.ValidateAndEscapeBulk(p.InsertColumns, dialect, firewall.KindColumn)
	if err != nil {
		return "", err
	}
	sets := make([]string, len(p.InsertColumns))
	for i, c := range p.InsertColumns {
		sets[i] = fmt.Sprintf("%s=:%s", cols[i], c)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id=:update_id", table, strings.Join(sets, ",")), nil
}

func (b *Builder) buildUpdateWithExpressions(p Params, table string, dialect dialectkind.Dialect, whereByColumn bool) (string, error) {
	colsEsc, valsEsc, err := b.buildSetClauseParts(p, dialect)
	if err != nil {
		return "", err
	}
	sets := make([]string, len(colsEsc))
	for i := range colsEsc {
		sets[i] = colsEsc[i] + " = " + valsEsc[i]
	}

	var where string
	if whereByColumn && p.WhereValue != "" {
		col, err := b.fw.ValidateAndEscape(p.WhereValue, dialect, firewall.KindColumn)
		if err != nil {
			return "", err
		}
		where = fmt.Sprintf("%s = :where_value", col)
	} else {
		idCol, err := b.fw.ValidateAndEscape("id", dialect, firewall.KindColumn)
		if err != nil {
			return "", err
		}
		where = fmt.Sprintf("%s = :update_id", idCol)
	}

	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(sets, ", "), where), nil
}

func (b *Builder) buildSimpleDelete(p Params, table string) (string, error) {
	return fmt.Sprintf("DELETE FROM %s WHERE id=:id", table), nil
}

func (b *Builder) buildBulkInsert(p Params, table string, dialect dialectkind.Dialect) (string, error) {
	cols, err := b.fw.ValidateAndEscapeBulk(p.InsertColumns, dialect, firewall.KindColumn)
	if err != nil {
		return "", err
	}
	row := "(" + strings.TrimRight(strings.Repeat("?,", len(cols)), ",") + ")"
	rows := make([]string, p.RowCount)
	for i := range rows {
		rows[i] = row
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(cols, ","), strings.Join(rows, ",")), nil
}

func (b *Builder) buildCountQuery(p Params, table string, dialect dialectkind.Dialect) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT COUNT(*) FROM %s", table)
	if p.WhereColumn != "" {
		col, err := b.fw.ValidateAndEscape(p.WhereColumn, dialect, firewall.KindColumn)
		if err != nil {
			return "", err
		}
		op := p.WhereOperator
		if op == "" {
			op = "="
		}
		if !whereOperators[strings.ToUpper(op)] && !whereOperators[op] {
			return "", fmt.Errorf("querybuilder: operator %q is not in the allowlist", op)
		}
		fmt.Fprintf(&sb, " WHERE %s %s :value", col, op)
	}
	return sb.String(), nil
}

// limitClause renders the dialect-specific LIMIT/OFFSET form.
func limitClause(dialect dialectkind.Dialect, limit, offset int) string {
	switch dialect {
	case dialectkind.MySQL:
		if offset > 0 {
			return fmt.Sprintf("LIMIT %d, %d", offset, limit)
		}
		return fmt.Sprintf("LIMIT %d", limit)
	default: // SQLite, PostgreSQL
		if offset > 0 {
			return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
		}
		return fmt.Sprintf("LIMIT %d", limit)
	}
}

// ConnectionOptimizations returns the statements to run once on a freshly
// opened connection, per the dialect's connection-startup optimizations.
func ConnectionOptimizations(dialect dialectkind.Dialect) []string {
	switch dialect {
	case dialectkind.MySQL:
		return []string{"SET sql_mode='STRICT_TRANS_TABLES'"}
	case dialectkind.SQLite:
		return []string{
			"PRAGMA foreign_keys=ON",
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
			"PRAGMA cache_size=-20000",
			"PRAGMA temp_store=MEMORY",
			"PRAGMA busy_timeout=5000",
		}
	case dialectkind.PostgreSQL:
		return []string{
			"SET statement_timeout=30000",
			"SET lock_timeout=5000",
			"SET synchronous_commit=off",
			"SET effective_cache_size='1GB'",
		}
	default:
		return nil
	}
}

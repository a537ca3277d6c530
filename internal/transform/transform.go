// Package transform implements the schema transformer (C7): it clones a
// table defined for one dialect and rewrites it for another, producing
// warnings for lossy conversions and a list of DDL actions that must run
// after the table's own CREATE TABLE statement.
package transform

import (
	"fmt"
	"strings"

	"relquery/internal/schema"
)

// Warning is a human-readable note about a lossy or approximated rewrite.
type Warning struct {
	Column  string
	Message string
}

// PostAction is a DDL statement (or equivalent instruction) that must run
// after the transformed table's own CREATE TABLE, e.g. a GIN index over a
// generated tsvector column or an FTS5 sync trigger.
type PostAction struct {
	Description string
	SQL         string
}

// Result is what Transform returns: the rewritten table plus the
// bookkeeping the caller needs to finish the migration.
type Result struct {
	Table                *schema.Table
	Warnings             []Warning
	PostActions          []PostAction
	NeedsUpdateTrigger   bool
	UpdateTriggerColumns []string
}

// Platform is the abstract contract every dialect emitter implements. It is
// consulted both for feature-support queries during the rewrite pipeline
// and, downstream, to render final DDL.
type Platform interface {
	Dialect() schema.Dialect

	QuoteIdentifier(name string) string
	QuoteValue(value string) string

	ColumnSQL(col *schema.Column, table *schema.Table) string
	ColumnTypeSQL(col *schema.Column) string
	ConstraintSQL(c *schema.Constraint) string
	ForeignKeySQL(c *schema.Constraint) string
	IndexSQL(idx *schema.Index, table *schema.Table) string
	TypeMapping(col *schema.Column) string

	SupportsEnumTypes() bool
	SupportsForeignKeys() bool
	SupportsFulltext() bool
	SupportsColumnComments() bool
	SupportsUnsigned() bool
	SupportsIndexLength() bool
	SupportsPartialIndexes() bool
	SupportsInlineUnique() bool
}

// Registry maps a dialect to its Platform constructor. Subpackages
// register themselves in init().
var registry = map[schema.Dialect]func() Platform{}

// Register associates dialect with a Platform constructor.
func Register(dialect schema.Dialect, ctor func() Platform) {
	registry[dialect] = ctor
}

// PlatformFor returns a fresh Platform for dialect, or nil if unregistered.
func PlatformFor(dialect schema.Dialect) Platform {
	if ctor, ok := registry[dialect]; ok {
		return ctor()
	}
	return nil
}

// Transform clones table and rewrites it from sourceDialect to
// targetDialect, running the column, index, constraint, and table-option
// pipeline stages in order.
func Transform(table *schema.Table, sourceDialect, targetDialect schema.Dialect) (*Result, error) {
	target := PlatformFor(targetDialect)
	if target == nil {
		return nil, fmt.Errorf("transform: no platform registered for dialect %q", targetDialect)
	}

	cloned := cloneTable(table)
	result := &Result{Table: cloned}

	transformColumns(cloned, target, result)
	transformIndexes(cloned, target, targetDialect, result)
	transformConstraints(cloned, targetDialect, result)
	transformTableOptions(cloned, targetDialect, result)
	finalizePostProcessing(cloned, targetDialect, result)

	return result, nil
}

func cloneTable(t *schema.Table) *schema.Table {
	clone := *t
	clone.Columns = make([]*schema.Column, len(t.Columns))
	for i, c := range t.Columns {
		col := *c
		clone.Columns[i] = &col
	}
	clone.Indexes = make([]*schema.Index, len(t.Indexes))
	for i, idx := range t.Indexes {
		ix := *idx
		ix.Columns = append([]schema.ColumnIndex(nil), idx.Columns...)
		clone.Indexes[i] = &ix
	}
	clone.Constraints = make([]*schema.Constraint, len(t.Constraints))
	for i, c := range t.Constraints {
		con := *c
		clone.Constraints[i] = &con
	}
	return &clone
}

func transformColumns(t *schema.Table, target Platform, result *Result) {
	for _, col := range t.Columns {
		rewriteColumnType(t, col, target, result)
		normalizeDefaultValue(col, target.Dialect())

		if col.Unsigned && !target.SupportsUnsigned() {
			result.Warnings = append(result.Warnings, Warning{
				Column: col.Name, Message: "UNSIGNED is not supported on this target; dropped",
			})
			col.Unsigned = false
		}

		if col.OnUpdate != nil && *col.OnUpdate == "CURRENT_TIMESTAMP" && target.Dialect() != schema.DialectMySQL {
			result.NeedsUpdateTrigger = true
			result.UpdateTriggerColumns = append(result.UpdateTriggerColumns, col.Name)
		}

		rewriteAutoIncrement(col, target.Dialect())
	}
}

func rewriteColumnType(t *schema.Table, col *schema.Column, target Platform, result *Result) {
	switch {
	case col.Type == schema.DataTypeEnum && !col.IsArray:
		if !target.SupportsEnumTypes() {
			col.RawType = "TEXT"
			col.Type = schema.DataTypeString
			if len(col.EnumValues) > 0 {
				t.Constraints = append(t.Constraints, &schema.Constraint{
					Name:            schema.AutoGenerateConstraintName(schema.ConstraintCheck, t.Name, []string{col.Name}, ""),
					Type:            schema.ConstraintCheck,
					Columns:         []string{col.Name},
					CheckExpression: enumCheckExpression(col.Name, col.EnumValues),
				})
				result.Warnings = append(result.Warnings, Warning{
					Column: col.Name, Message: "ENUM rewritten as TEXT with a CHECK constraint",
				})
			}
		}

	case col.IsArray && col.Type == schema.DataTypeEnum:
		// SET-derived column.
		if target.Dialect() == schema.DialectPostgreSQL {
			col.RawType = "TEXT[]"
			col.Type = schema.DataTypeString
		} else {
			col.RawType = "TEXT"
			col.Type = schema.DataTypeString
			col.IsArray = false
			result.Warnings = append(result.Warnings, Warning{
				Column: col.Name, Message: "SET column flattened to TEXT; multi-value semantics are lost",
			})
		}
		if col.DefaultValue != nil {
			trimmed := strings.Trim(*col.DefaultValue, "'\"")
			col.DefaultValue = &trimmed
		}

	case col.IsArray:
		if target.Dialect() == schema.DialectMySQL || target.Dialect() == schema.DialectSQLite {
			col.RawType = "JSON"
			if target.Dialect() == schema.DialectSQLite {
				col.RawType = "TEXT"
			}
			col.IsArray = false
			result.Warnings = append(result.Warnings, Warning{
				Column: col.Name, Message: "array column flattened to JSON/TEXT on this target",
			})
		}
	}
}

// enumCheckExpression renders the allowed-values CHECK predicate that
// replaces a dropped ENUM type, e.g. "status IN ('a','b','c')".
func enumCheckExpression(column string, values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(quoted, ","))
}

func rewriteAutoIncrement(col *schema.Column, target schema.Dialect) {
	if !col.AutoIncrement {
		return
	}

	switch target {
	case schema.DialectSQLite:
		col.RawType = "INTEGER"
		if col.SQLite == nil {
			col.SQLite = &schema.SQLiteColumnOptions{}
		}
		col.SQLite.StrictAutoincrement = true

	case schema.DialectPostgreSQL:
		col.AutoIncrement = false
		switch strings.ToUpper(col.RawType) {
		case "SMALLINT":
			col.RawType = "SMALLSERIAL"
		case "BIGINT":
			col.RawType = "BIGSERIAL"
		default:
			col.RawType = "SERIAL"
		}
	}
}

func normalizeDefaultValue(col *schema.Column, target schema.Dialect) {
	if col.DefaultValue == nil {
		return
	}
	v := strings.TrimSpace(*col.DefaultValue)

	if strings.EqualFold(v, "CURRENT_TIMESTAMP") {
		return
	}

	trimmed := strings.Trim(v, "'\"")

	if col.Type == schema.DataTypeInt || col.Type == schema.DataTypeBoolean {
		switch strings.ToUpper(trimmed) {
		case "TRUE", "1":
			trimmed = "1"
		case "FALSE", "0":
			trimmed = "0"
		}
	}

	if strings.EqualFold(trimmed, "gen_random_uuid()") && target == schema.DialectMySQL {
		trimmed = "UUID()"
	}

	col.DefaultValue = &trimmed
}

func transformIndexes(t *schema.Table, target Platform, targetDialect schema.Dialect, result *Result) {
	original := t.Indexes
	kept := make([]*schema.Index, 0, len(original))

	for _, idx := range original {
		if idx.Type == schema.IndexTypeFullText {
			if degraded := fulltextIndex(idx, t, targetDialect, result); degraded != nil {
				kept = append(kept, degraded)
			}
			continue
		}

		if idx.Where != "" && !target.SupportsPartialIndexes() {
			result.Warnings = append(result.Warnings, Warning{
				Message: fmt.Sprintf("partial index %q dropped its WHERE clause on this target", idx.Name),
			})
			idx.Where = ""
		}

		if idx.Type == schema.IndexTypeSpatial && targetDialect != schema.DialectMySQL {
			result.Warnings = append(result.Warnings, Warning{
				Message: fmt.Sprintf("spatial index %q is not supported on this target and was dropped", idx.Name),
			})
			continue
		}

		kept = append(kept, idx)
	}

	t.Indexes = kept
}

// fulltextIndex rewrites idx for targetDialect's full-text strategy. It
// returns a non-nil *schema.Index only when the index degrades to a
// regular composite index that the caller should keep in the index list.
func fulltextIndex(idx *schema.Index, t *schema.Table, targetDialect schema.Dialect, result *Result) *schema.Index {
	lang := idx.Language
	if lang == "" {
		lang = "english"
	}

	switch {
	case targetDialect == schema.DialectPostgreSQL && len(idx.Columns) == 1:
		col := idx.Columns[0].Name
		idx.Type = schema.IndexTypeGIN
		result.PostActions = append(result.PostActions, PostAction{
			Description: fmt.Sprintf("full-text GIN index on %s.%s", t.Name, col),
			SQL: fmt.Sprintf("CREATE INDEX idx_%s_%s_fts ON %s USING gin(to_tsvector('%s', %s))",
				t.Name, col, t.Name, lang, col),
		})

	case targetDialect == schema.DialectPostgreSQL:
		weights := []string{"A", "B", "C", "D"}
		var parts []string
		for i, c := range idx.Columns {
			w := weights[i%len(weights)]
			parts = append(parts, fmt.Sprintf("setweight(to_tsvector('%s', coalesce(%s,'')), '%s')", lang, c.Name, w))
		}
		tsvectorCol := t.Name + "_search_vector"
		result.PostActions = append(result.PostActions,
			PostAction{
				Description: fmt.Sprintf("add generated tsvector column on %s", t.Name),
				SQL:         fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s tsvector GENERATED ALWAYS AS (%s) STORED", t.Name, tsvectorCol, strings.Join(parts, " || ")),
			},
			PostAction{
				Description: fmt.Sprintf("full-text GIN index over %s", tsvectorCol),
				SQL:         fmt.Sprintf("CREATE INDEX idx_%s_fts ON %s USING gin(%s)", t.Name, t.Name, tsvectorCol),
			},
		)

	case targetDialect == schema.DialectSQLite:
		var cols []string
		for _, c := range idx.Columns {
			cols = append(cols, c.Name)
		}
		ftsTable := t.Name + "_fts"
		result.PostActions = append(result.PostActions,
			PostAction{
				Description: "create FTS5 virtual table",
				SQL:         fmt.Sprintf("CREATE VIRTUAL TABLE %s USING fts5(%s, content='%s')", ftsTable, strings.Join(cols, ","), t.Name),
			},
			PostAction{
				Description: "rebuild FTS5 index from base table",
				SQL:         fmt.Sprintf("INSERT INTO %s(%s) SELECT %s FROM %s", ftsTable, strings.Join(cols, ","), strings.Join(cols, ","), t.Name),
			},
			PostAction{
				Description: "sync trigger: insert",
				SQL: fmt.Sprintf("CREATE TRIGGER %s_ai AFTER INSERT ON %s BEGIN INSERT INTO %s(rowid,%s) VALUES (new.rowid,%s); END",
					t.Name, t.Name, ftsTable, strings.Join(cols, ","), prefixCols("new.", cols)),
			},
			PostAction{
				Description: "sync trigger: update",
				SQL: fmt.Sprintf("CREATE TRIGGER %s_au AFTER UPDATE ON %s BEGIN INSERT INTO %s(%s, rowid, %s) VALUES ('delete', old.rowid, %s); INSERT INTO %s(rowid,%s) VALUES (new.rowid,%s); END",
					t.Name, t.Name, ftsTable, ftsTable, strings.Join(cols, ","), prefixCols("old.", cols), ftsTable, strings.Join(cols, ","), prefixCols("new.", cols)),
			},
			PostAction{
				Description: "sync trigger: delete",
				SQL: fmt.Sprintf("CREATE TRIGGER %s_ad AFTER DELETE ON %s BEGIN INSERT INTO %s(%s, rowid, %s) VALUES ('delete', old.rowid, %s); END",
					t.Name, t.Name, ftsTable, ftsTable, strings.Join(cols, ","), prefixCols("old.", cols)),
			},
		)

	default:
		idx.Type = schema.IndexTypeBTree
		result.Warnings = append(result.Warnings, Warning{
			Message: fmt.Sprintf("full-text index %q degraded to a regular composite index on this target", idx.Name),
		})
		return idx
	}

	return nil
}

func prefixCols(prefix string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + c
	}
	return strings.Join(out, ",")
}

func transformConstraints(t *schema.Table, targetDialect schema.Dialect, result *Result) {
	for _, c := range t.Constraints {
		if c.Type == schema.ConstraintForeignKey {
			if (c.OnDelete == schema.RefActionSetDefault || c.OnUpdate == schema.RefActionSetDefault) && targetDialect == schema.DialectSQLite {
				if c.OnDelete == schema.RefActionSetDefault {
					c.OnDelete = schema.RefActionSetNull
				}
				if c.OnUpdate == schema.RefActionSetDefault {
					c.OnUpdate = schema.RefActionSetNull
				}
				result.Warnings = append(result.Warnings, Warning{
					Column:  strings.Join(c.Columns, ","),
					Message: "SET DEFAULT is not supported by SQLite; rewritten as SET NULL",
				})
			}
		}
	}
}

func transformTableOptions(t *schema.Table, targetDialect schema.Dialect, result *Result) {
	if targetDialect != schema.DialectMySQL {
		if t.Options.MySQL != nil {
			t.Options.MySQL = nil
			result.Warnings = append(result.Warnings, Warning{
				Message: "MySQL engine/charset/collation table options stripped on this target",
			})
		}
	}
}

func finalizePostProcessing(t *schema.Table, targetDialect schema.Dialect, result *Result) {
	// NeedsUpdateTrigger/UpdateTriggerColumns are already populated by
	// transformColumns; nothing further to compute here beyond dedup.
	if len(result.UpdateTriggerColumns) > 1 {
		seen := map[string]bool{}
		deduped := result.UpdateTriggerColumns[:0]
		for _, c := range result.UpdateTriggerColumns {
			if !seen[c] {
				seen[c] = true
				deduped = append(deduped, c)
			}
		}
		result.UpdateTriggerColumns = deduped
	}
}

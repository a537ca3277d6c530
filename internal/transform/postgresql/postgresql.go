// Package postgresql implements the transform.Platform contract for
// PostgreSQL.
package postgresql

import (
	"fmt"
	"strings"

	"relquery/internal/schema"
	"relquery/internal/transform"
)

func init() {
	transform.Register(schema.DialectPostgreSQL, New)
}

type platform struct{}

func New() transform.Platform { return &platform{} }

func (p *platform) Dialect() schema.Dialect { return schema.DialectPostgreSQL }

func (p *platform) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (p *platform) QuoteValue(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (p *platform) TypeMapping(col *schema.Column) string {
	switch col.Type {
	case schema.DataTypeString, schema.DataTypeEnum:
		return "TEXT"
	case schema.DataTypeInt:
		return "INTEGER"
	case schema.DataTypeFloat:
		return "DOUBLE PRECISION"
	case schema.DataTypeBoolean:
		return "BOOLEAN"
	case schema.DataTypeDatetime:
		return "TIMESTAMP"
	case schema.DataTypeJSON:
		return "JSONB"
	case schema.DataTypeUUID:
		return "UUID"
	case schema.DataTypeBinary:
		return "BYTEA"
	default:
		return "TEXT"
	}
}

func (p *platform) ColumnTypeSQL(col *schema.Column) string {
	if col.RawType != "" {
		return col.RawType
	}
	if col.IsArray {
		return p.TypeMapping(col) + "[]"
	}
	return p.TypeMapping(col)
}

func (p *platform) ColumnSQL(col *schema.Column, table *schema.Table) string {
	var sb strings.Builder
	sb.WriteString(p.QuoteIdentifier(col.Name))
	sb.WriteString(" ")
	sb.WriteString(p.ColumnTypeSQL(col))

	if !col.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if col.DefaultValue != nil {
		sb.WriteString(" DEFAULT " + formatDefault(*col.DefaultValue, col.Type))
	}
	if col.IdentityGeneration != "" {
		sb.WriteString(fmt.Sprintf(" GENERATED %s AS IDENTITY", col.IdentityGeneration))
	}

	return sb.String()
}

func formatDefault(value string, dataType schema.DataType) string {
	if strings.EqualFold(value, "CURRENT_TIMESTAMP") {
		return value
	}
	switch dataType {
	case schema.DataTypeInt, schema.DataTypeBoolean, schema.DataTypeFloat:
		return value
	default:
		return "'" + strings.ReplaceAll(value, "'", "''") + "'"
	}
}

func (p *platform) ConstraintSQL(c *schema.Constraint) string {
	switch c.Type {
	case schema.ConstraintPrimaryKey:
		return fmt.Sprintf("PRIMARY KEY (%s)", p.quoteColumns(c.Columns))
	case schema.ConstraintUnique:
		return fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", p.QuoteIdentifier(c.Name), p.quoteColumns(c.Columns))
	case schema.ConstraintCheck:
		return fmt.Sprintf("CONSTRAINT %s CHECK (%s)", p.QuoteIdentifier(c.Name), c.CheckExpression)
	case schema.ConstraintForeignKey:
		return p.ForeignKeySQL(c)
	default:
		return ""
	}
}

func (p *platform) ForeignKeySQL(c *schema.Constraint) string {
	sql := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		p.QuoteIdentifier(c.Name), p.quoteColumns(c.Columns),
		p.QuoteIdentifier(c.ReferencedTable), p.quoteColumns(c.ReferencedColumns))
	if c.OnDelete != "" {
		sql += " ON DELETE " + string(c.OnDelete)
	}
	if c.OnUpdate != "" {
		sql += " ON UPDATE " + string(c.OnUpdate)
	}
	return sql
}

func (p *platform) quoteColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = p.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ",")
}

func (p *platform) IndexSQL(idx *schema.Index, table *schema.Table) string {
	kind := "INDEX"
	if idx.Unique {
		kind = "UNIQUE INDEX"
	}

	method := "btree"
	switch idx.Type {
	case schema.IndexTypeGIN:
		method = "gin"
	case schema.IndexTypeGiST:
		method = "gist"
	case schema.IndexTypeHash:
		method = "hash"
	}

	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = p.QuoteIdentifier(c.Name)
	}

	sql := fmt.Sprintf("CREATE %s %s ON %s USING %s (%s)", kind, p.QuoteIdentifier(idx.Name), p.QuoteIdentifier(table.Name), method, strings.Join(cols, ","))
	if idx.Where != "" {
		sql += " WHERE " + idx.Where
	}
	return sql
}

func (p *platform) SupportsEnumTypes() bool      { return false }
func (p *platform) SupportsForeignKeys() bool    { return true }
func (p *platform) SupportsFulltext() bool       { return true }
func (p *platform) SupportsColumnComments() bool { return true }
func (p *platform) SupportsUnsigned() bool       { return false }
func (p *platform) SupportsIndexLength() bool    { return false }
func (p *platform) SupportsPartialIndexes() bool { return true }
func (p *platform) SupportsInlineUnique() bool   { return true }

// Package sqlite implements the transform.Platform contract for SQLite.
package sqlite

import (
	"fmt"
	"strings"

	"relquery/internal/schema"
	"relquery/internal/transform"
)

func init() {
	transform.Register(schema.DialectSQLite, New)
}

type platform struct{}

func New() transform.Platform { return &platform{} }

func (p *platform) Dialect() schema.Dialect { return schema.DialectSQLite }

func (p *platform) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (p *platform) QuoteValue(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (p *platform) TypeMapping(col *schema.Column) string {
	switch col.Type {
	case schema.DataTypeString, schema.DataTypeUUID, schema.DataTypeEnum:
		return "TEXT"
	case schema.DataTypeInt:
		return "INTEGER"
	case schema.DataTypeFloat:
		return "REAL"
	case schema.DataTypeBoolean:
		return "INTEGER"
	case schema.DataTypeDatetime:
		return "TEXT"
	case schema.DataTypeJSON:
		return "TEXT"
	case schema.DataTypeBinary:
		return "BLOB"
	default:
		return "TEXT"
	}
}

func (p *platform) ColumnTypeSQL(col *schema.Column) string {
	if col.RawType != "" {
		return col.RawType
	}
	return p.TypeMapping(col)
}

func (p *platform) ColumnSQL(col *schema.Column, table *schema.Table) string {
	var sb strings.Builder
	sb.WriteString(p.QuoteIdentifier(col.Name))
	sb.WriteString(" ")
	sb.WriteString(p.ColumnTypeSQL(col))

	if col.PrimaryKey && col.AutoIncrement {
		sb.WriteString(" PRIMARY KEY")
		if col.SQLite != nil && col.SQLite.StrictAutoincrement {
			sb.WriteString(" AUTOINCREMENT")
		}
	}
	if !col.Nullable && !col.PrimaryKey {
		sb.WriteString(" NOT NULL")
	}
	if col.DefaultValue != nil {
		sb.WriteString(" DEFAULT " + formatDefault(*col.DefaultValue))
	}

	return sb.String()
}

func formatDefault(value string) string {
	if strings.EqualFold(value, "CURRENT_TIMESTAMP") {
		return value
	}
	if _, err := fmt.Sscanf(value, "%f", new(float64)); err == nil {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (p *platform) ConstraintSQL(c *schema.Constraint) string {
	switch c.Type {
	case schema.ConstraintPrimaryKey:
		return fmt.Sprintf("PRIMARY KEY (%s)", p.quoteColumns(c.Columns))
	case schema.ConstraintUnique:
		return fmt.Sprintf("UNIQUE (%s)", p.quoteColumns(c.Columns))
	case schema.ConstraintCheck:
		return fmt.Sprintf("CHECK (%s)", c.CheckExpression)
	case schema.ConstraintForeignKey:
		return p.ForeignKeySQL(c)
	default:
		return ""
	}
}

func (p *platform) ForeignKeySQL(c *schema.Constraint) string {
	sql := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
		p.quoteColumns(c.Columns), p.QuoteIdentifier(c.ReferencedTable), p.quoteColumns(c.ReferencedColumns))
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

	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = p.QuoteIdentifier(c.Name)
	}

	sql := fmt.Sprintf("CREATE %s %s ON %s (%s)", kind, p.QuoteIdentifier(idx.Name), p.QuoteIdentifier(table.Name), strings.Join(cols, ","))
	if idx.Where != "" {
		sql += " WHERE " + idx.Where
	}
	return sql
}

func (p *platform) SupportsEnumTypes() bool      { return false }
func (p *platform) SupportsForeignKeys() bool    { return true }
func (p *platform) SupportsFulltext() bool       { return true }
func (p *platform) SupportsColumnComments() bool { return false }
func (p *platform) SupportsUnsigned() bool       { return false }
func (p *platform) SupportsIndexLength() bool    { return false }
func (p *platform) SupportsPartialIndexes() bool { return false }
func (p *platform) SupportsInlineUnique() bool   { return true }

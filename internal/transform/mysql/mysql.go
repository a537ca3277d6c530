// Package mysql implements the transform.Platform contract for MySQL,
// used both as a transformation target and to render final DDL for tables
// already in the MySQL dialect.
package mysql

import (
	"fmt"
	"strings"

	"relquery/internal/schema"
	"relquery/internal/transform"
)

func init() {
	transform.Register(schema.DialectMySQL, New)
}

type platform struct{}

func New() transform.Platform { return &platform{} }

func (p *platform) Dialect() schema.Dialect { return schema.DialectMySQL }

func (p *platform) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (p *platform) QuoteValue(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (p *platform) ColumnTypeSQL(col *schema.Column) string {
	if col.RawType != "" {
		t := col.RawType
		if col.Unsigned {
			t += " UNSIGNED"
		}
		return t
	}
	return p.TypeMapping(col)
}

func (p *platform) TypeMapping(col *schema.Column) string {
	switch col.Type {
	case schema.DataTypeString:
		return "VARCHAR(255)"
	case schema.DataTypeInt:
		return "INT"
	case schema.DataTypeFloat:
		return "DOUBLE"
	case schema.DataTypeBoolean:
		return "TINYINT(1)"
	case schema.DataTypeDatetime:
		return "DATETIME"
	case schema.DataTypeJSON:
		return "JSON"
	case schema.DataTypeUUID:
		return "CHAR(36)"
	case schema.DataTypeBinary:
		return "BLOB"
	case schema.DataTypeEnum:
		return fmt.Sprintf("ENUM(%s)", quoteEnumValues(col.EnumValues))
	default:
		return "TEXT"
	}
}

func quoteEnumValues(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return strings.Join(quoted, ",")
}

func (p *platform) ColumnSQL(col *schema.Column, table *schema.Table) string {
	var sb strings.Builder
	sb.WriteString(p.QuoteIdentifier(col.Name))
	sb.WriteString(" ")
	sb.WriteString(p.ColumnTypeSQL(col))

	if !col.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if col.AutoIncrement {
		sb.WriteString(" AUTO_INCREMENT")
	}
	if col.DefaultValue != nil {
		sb.WriteString(" DEFAULT " + formatDefault(*col.DefaultValue, col.Type))
	}
	if col.OnUpdate != nil {
		sb.WriteString(" ON UPDATE " + *col.OnUpdate)
	}
	if col.Comment != "" {
		sb.WriteString(" COMMENT " + p.QuoteValue(col.Comment))
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
	if idx.Type == schema.IndexTypeFullText {
		kind = "FULLTEXT INDEX"
	}

	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		col := p.QuoteIdentifier(c.Name)
		if c.Length > 0 {
			col = fmt.Sprintf("%s(%d)", col, c.Length)
		}
		cols[i] = col
	}

	return fmt.Sprintf("CREATE %s %s ON %s (%s)", kind, p.QuoteIdentifier(idx.Name), p.QuoteIdentifier(table.Name), strings.Join(cols, ","))
}

func (p *platform) SupportsEnumTypes() bool      { return true }
func (p *platform) SupportsForeignKeys() bool    { return true }
func (p *platform) SupportsFulltext() bool       { return true }
func (p *platform) SupportsColumnComments() bool { return true }
func (p *platform) SupportsUnsigned() bool       { return true }
func (p *platform) SupportsIndexLength() bool    { return true }
func (p *platform) SupportsPartialIndexes() bool { return false }
func (p *platform) SupportsInlineUnique() bool   { return true }

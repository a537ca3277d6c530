package schemaconfig

import (
	"errors"
	"fmt"
	"strings"

	"relquery/internal/schema"
)

func (c *converter) convertTable(tt *tomlTable) (*schema.Table, error) {
	if err := c.validateTableName(tt.Name); err != nil {
		return nil, err
	}

	table := &schema.Table{
		Name:    tt.Name,
		Comment: tt.Comment,
		Options: convertTableOptions(&tt.Options),
	}

	if ts := tt.Timestamps; ts != nil {
		table.Timestamps = &schema.TimestampsConfig{
			Enabled:       ts.Enabled,
			CreatedColumn: ts.CreatedColumn,
			UpdatedColumn: ts.UpdatedColumn,
		}
	}

	if err := c.convertTableColumns(table, tt); err != nil {
		return nil, err
	}

	table.Constraints = make([]*schema.Constraint, 0, len(tt.Constraints))
	for i := range tt.Constraints {
		con := convertTableConstraint(&tt.Constraints[i])
		table.Constraints = append(table.Constraints, con)
	}

	if err := checkPKConflict(table); err != nil {
		return nil, err
	}

	synthesizeConstraints(table)

	table.Indexes = make([]*schema.Index, 0, len(tt.Indexes))
	for i := range tt.Indexes {
		idx, err := convertTableIndex(&tt.Indexes[i])
		if err != nil {
			return nil, fmt.Errorf("index %q: %w", tt.Indexes[i].Name, err)
		}
		table.Indexes = append(table.Indexes, idx)
	}

	if err := validateConstraints(table); err != nil {
		return nil, err
	}
	if err := validateIndexes(table); err != nil {
		return nil, err
	}

	return table, nil
}

// validateTableName checks emptiness, duplicates, length, and pattern - all
// before we spend any time converting columns.
func (c *converter) validateTableName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("table name is empty")
	}

	lower := strings.ToLower(name)
	if c.seenTables[lower] {
		return fmt.Errorf("duplicate table name %q", name)
	}
	c.seenTables[lower] = true

	if c.rules != nil {
		if c.rules.MaxTableNameLength > 0 && len(name) > c.rules.MaxTableNameLength {
			return fmt.Errorf("table %q exceeds maximum length %d", name, c.rules.MaxTableNameLength)
		}
		if c.nameRe != nil && !c.nameRe.MatchString(name) {
			return fmt.Errorf("table %q does not match allowed pattern %q", name, c.nameRe.String())
		}
	}

	return nil
}

func convertTableOptions(to *tomlTableOptions) schema.TableOptions {
	opts := schema.TableOptions{
		Tablespace: to.Tablespace,
	}

	if m := to.MySQL; m != nil {
		opts.MySQL = &schema.MySQLTableOptions{
			Engine:       m.Engine,
			Charset:      m.Charset,
			Collate:      m.Collate,
			RowFormat:    m.RowFormat,
			Compression:  m.Compression,
			Encryption:   m.Encryption,
			KeyBlockSize: m.KeyBlockSize,
		}
	}

	if p := to.PostgreSQL; p != nil {
		opts.PostgreSQL = &schema.PostgreSQLTableOptions{
			Schema:      p.Schema,
			Unlogged:    p.Unlogged,
			Fillfactor:  p.Fillfactor,
			PartitionBy: p.PartitionBy,
			Inherits:    p.Inherits,
		}
	}

	if s := to.SQLite; s != nil {
		opts.SQLite = &schema.SQLiteTableOptions{
			WithoutRowid: s.WithoutRowid,
			Strict:       s.Strict,
		}
	}

	return opts
}

// convertTableColumns populates table.Columns from the TOML column definitions,
// injects timestamp columns when enabled, and ensures the table is non-empty.
func (c *converter) convertTableColumns(table *schema.Table, tt *tomlTable) error {
	table.Columns = make([]*schema.Column, 0, len(tt.Columns))
	seenCols := make(map[string]bool, len(tt.Columns))
	for i := range tt.Columns {
		col, err := c.convertColumn(&tt.Columns[i])
		if err != nil {
			return fmt.Errorf("column %q: %w", tt.Columns[i].Name, err)
		}
		lower := strings.ToLower(col.Name)
		if seenCols[lower] {
			return fmt.Errorf("duplicate column name %q", col.Name)
		}
		seenCols[lower] = true
		table.Columns = append(table.Columns, col)
	}

	if table.Timestamps != nil && table.Timestamps.Enabled {
		if err := injectTimestampColumns(table); err != nil {
			return err
		}
	}

	if len(table.Columns) == 0 {
		return errors.New("table has no columns")
	}
	return nil
}

// injectTimestampColumns resolves the created/updated column names, validates
// they are distinct, and appends the columns when not already present.
func injectTimestampColumns(table *schema.Table) error {
	createdCol := "created_at"
	updatedCol := "updated_at"
	if table.Timestamps.CreatedColumn != "" {
		createdCol = table.Timestamps.CreatedColumn
	}
	if table.Timestamps.UpdatedColumn != "" {
		updatedCol = table.Timestamps.UpdatedColumn
	}

	if strings.EqualFold(createdCol, updatedCol) {
		return fmt.Errorf("timestamps created_column and updated_column resolve to the same name %q", createdCol)
	}

	if table.FindColumn(createdCol) == nil {
		def := "CURRENT_TIMESTAMP"
		table.Columns = append(table.Columns, &schema.Column{
			Name:         createdCol,
			RawType:      "timestamp",
			Type:         schema.DataTypeDatetime,
			DefaultValue: &def,
		})
	}

	if table.FindColumn(updatedCol) == nil {
		def := "CURRENT_TIMESTAMP"
		upd := "CURRENT_TIMESTAMP"
		table.Columns = append(table.Columns, &schema.Column{
			Name:         updatedCol,
			RawType:      "timestamp",
			Type:         schema.DataTypeDatetime,
			DefaultValue: &def,
			OnUpdate:     &upd,
		})
	}

	return nil
}

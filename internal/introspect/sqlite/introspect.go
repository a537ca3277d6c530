// Package sqlite introspects a SQLite database file via PRAGMA statements
// and sqlite_master, building the canonical schema.Database representation.
package sqlite

import (
	"context"
	"database/sql"

	"relquery/internal/introspect"
	"relquery/internal/schema"
)

func init() {
	introspect.Register(schema.DialectSQLite, New)
}

type sqliteIntrospecter struct{}

func New() introspect.Introspecter {
	return &sqliteIntrospecter{}
}

type introspectCtx struct {
	ctx context.Context
	db  *sql.DB
}

func (i *sqliteIntrospecter) Introspect(ctx context.Context, db *sql.DB) (*schema.Database, error) {
	dialect := schema.DialectSQLite
	result := &schema.Database{
		Name:    "main",
		Dialect: &dialect,
	}

	ic := &introspectCtx{ctx: ctx, db: db}
	if err := introspectTables(ic, result); err != nil {
		return nil, err
	}

	return result, nil
}

func introspectTables(ic *introspectCtx, db *schema.Database) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range names {
		t := &schema.Table{Name: name, Options: schema.TableOptions{}}

		if err := introspectColumns(ic, t); err != nil {
			return err
		}
		if err := introspectIndexes(ic, t); err != nil {
			return err
		}

		db.Tables = append(db.Tables, t)
	}

	return nil
}

func introspectColumns(ic *introspectCtx, t *schema.Table) error {
	// table_info's quoted-identifier form does not accept bind parameters,
	// but table names here always come from sqlite_master so this is safe.
	rows, err := ic.db.QueryContext(ic.ctx, `PRAGMA table_info("`+t.Name+`")`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return err
		}

		col := &schema.Column{
			Name:       name,
			RawType:    colType,
			Type:       schema.NormalizeDataType(colType),
			Nullable:   notNull == 0,
			PrimaryKey: pk > 0,
		}
		if dflt.Valid {
			col.DefaultValue = &dflt.String
		}

		t.Columns = append(t.Columns, col)
	}

	return rows.Err()
}

func introspectIndexes(ic *introspectCtx, t *schema.Table) error {
	rows, err := ic.db.QueryContext(ic.ctx, `PRAGMA index_list("`+t.Name+`")`)
	if err != nil {
		return err
	}
	defer rows.Close()

	type indexRef struct {
		name   string
		unique bool
		origin string
	}
	var refs []indexRef
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return err
		}
		refs = append(refs, indexRef{name: name, unique: unique == 1, origin: origin})
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, ref := range refs {
		if ref.origin == "pk" {
			// Implicit PK index; the columns' PrimaryKey flag already captures this.
			continue
		}

		idx := &schema.Index{Name: ref.name, Unique: ref.unique, Type: schema.IndexTypeBTree}

		colRows, err := ic.db.QueryContext(ic.ctx, `PRAGMA index_info("`+ref.name+`")`)
		if err != nil {
			return err
		}
		for colRows.Next() {
			var seqno, cid int
			var colName sql.NullString
			if err := colRows.Scan(&seqno, &cid, &colName); err != nil {
				colRows.Close()
				return err
			}
			idx.Columns = append(idx.Columns, schema.ColumnIndex{Name: colName.String, Order: schema.SortAsc})
		}
		if err := colRows.Err(); err != nil {
			colRows.Close()
			return err
		}
		colRows.Close()

		t.Indexes = append(t.Indexes, idx)
	}

	return nil
}

// Package postgresql introspects a live PostgreSQL database via
// information_schema and pg_catalog queries, building the canonical
// schema.Database representation.
package postgresql

import (
	"context"
	"database/sql"
	"strings"

	"relquery/internal/introspect"
	"relquery/internal/schema"
)

func init() {
	introspect.Register(schema.DialectPostgreSQL, New)
}

type postgresqlIntrospecter struct{}

func New() introspect.Introspecter {
	return &postgresqlIntrospecter{}
}

type introspectCtx struct {
	ctx context.Context
	db  *sql.DB
}

func (i *postgresqlIntrospecter) Introspect(ctx context.Context, db *sql.DB) (*schema.Database, error) {
	dialect := schema.DialectPostgreSQL

	var name string
	if err := db.QueryRowContext(ctx, "SELECT current_database()").Scan(&name); err != nil {
		return nil, err
	}

	result := &schema.Database{
		Name:    name,
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
		SELECT table_name, obj_description(('"' || table_name || '"')::regclass, 'pg_class')
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	type tableRef struct {
		name    string
		comment sql.NullString
	}
	var refs []tableRef
	for rows.Next() {
		var r tableRef
		if err := rows.Scan(&r.name, &r.comment); err != nil {
			return err
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range refs {
		t := &schema.Table{
			Name:    r.name,
			Comment: r.comment.String,
			Options: schema.TableOptions{PostgreSQL: &schema.PostgreSQLTableOptions{Schema: "public"}},
		}

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
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable,
			c.column_default,
			c.identity_generation,
			EXISTS (
				SELECT 1 FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
					AND tc.table_schema = 'public'
					AND tc.table_name = c.table_name
					AND kcu.column_name = c.column_name
			)
		FROM information_schema.columns c
		WHERE c.table_schema = 'public' AND c.table_name = $1
		ORDER BY c.ordinal_position
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, dataType, udtName, nullable string
		var dflt, identityGen sql.NullString
		var isPK bool
		if err := rows.Scan(&name, &dataType, &udtName, &nullable, &dflt, &identityGen, &isPK); err != nil {
			return err
		}

		rawType := dataType
		if strings.HasPrefix(udtName, "_") {
			rawType = strings.TrimPrefix(udtName, "_") + "[]"
		}

		col := &schema.Column{
			Name:       name,
			RawType:    rawType,
			Type:       schema.NormalizeDataType(rawType),
			Nullable:   nullable == "YES",
			PrimaryKey: isPK,
		}
		if dflt.Valid {
			col.DefaultValue = &dflt.String
			if strings.Contains(dflt.String, "nextval(") {
				col.AutoIncrement = true
			}
		}
		if identityGen.Valid && identityGen.String != "" {
			col.AutoIncrement = true
			col.IdentityGeneration = schema.IdentityGeneration(strings.ReplaceAll(identityGen.String, " ", "_"))
		}

		t.Columns = append(t.Columns, col)
	}

	return rows.Err()
}

func introspectIndexes(ic *introspectCtx, t *schema.Table) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT i.relname, ix.indisunique, am.amname, pg_get_expr(ix.indpred, ix.indrelid)
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_am am ON am.oid = i.relam
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = 'public' AND t.relname = $1 AND NOT ix.indisprimary
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	type indexRef struct {
		name    string
		unique  bool
		method  string
		where   sql.NullString
	}
	var refs []indexRef
	for rows.Next() {
		var r indexRef
		if err := rows.Scan(&r.name, &r.unique, &r.method, &r.where); err != nil {
			return err
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range refs {
		idx := &schema.Index{
			Name:   r.name,
			Unique: r.unique,
			Type:   normalizeIndexMethod(r.method),
			Where:  r.where.String,
		}

		colRows, err := ic.db.QueryContext(ic.ctx, `
			SELECT a.attname
			FROM pg_index ix
			JOIN pg_class i ON i.oid = ix.indexrelid
			JOIN unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
			JOIN pg_attribute a ON a.attrelid = ix.indrelid AND a.attnum = k.attnum
			WHERE i.relname = $1
			ORDER BY k.ord
		`, r.name)
		if err != nil {
			return err
		}
		for colRows.Next() {
			var colName string
			if err := colRows.Scan(&colName); err != nil {
				colRows.Close()
				return err
			}
			idx.Columns = append(idx.Columns, schema.ColumnIndex{Name: colName, Order: schema.SortAsc})
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

func normalizeIndexMethod(m string) schema.IndexType {
	switch strings.ToLower(m) {
	case "btree":
		return schema.IndexTypeBTree
	case "hash":
		return schema.IndexTypeHash
	case "gin":
		return schema.IndexTypeGIN
	case "gist":
		return schema.IndexTypeGiST
	default:
		return schema.IndexTypeBTree
	}
}

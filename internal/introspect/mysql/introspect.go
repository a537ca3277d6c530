// Package mysql introspects a live MySQL server (and MySQL-wire-compatible
// forks such as MariaDB and TiDB) via information_schema queries and builds
// the canonical schema.Database representation.
package mysql

import (
	"context"
	"database/sql"

	"relquery/internal/introspect"
	"relquery/internal/schema"
)

func init() {
	introspect.Register(schema.DialectMySQL, New)
}

type introspecter struct{}

func New() introspect.Introspecter {
	return &introspecter{}
}

// introspectCtx threads the connection and context through the table,
// column, and index introspection helpers.
type introspectCtx struct {
	ctx context.Context
	db  *sql.DB
}

func (i *introspecter) Introspect(ctx context.Context, db *sql.DB) (*schema.Database, error) {
	dialect, _, err := detectDialect(ctx, db)
	if err != nil {
		return nil, err
	}

	var name string
	if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&name); err != nil {
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

package profiler

import (
	"context"
	"database/sql"
	"fmt"
)

// MySQLExplain tries EXPLAIN FORMAT=JSON first, falling back to tabular
// EXPLAIN on failure (older MySQL/MariaDB versions, or permission issues).
func MySQLExplain(ctx context.Context, db *sql.DB, sqlText string) (string, error) {
	var jsonPlan string
	err := db.QueryRowContext(ctx, fmt.Sprintf("EXPLAIN FORMAT=JSON %s", sqlText)).Scan(&jsonPlan)
	if err == nil {
		return jsonPlan, nil
	}
	return scanTabular(ctx, db, fmt.Sprintf("EXPLAIN %s", sqlText))
}

// SQLiteExplain runs EXPLAIN QUERY PLAN and concatenates the rows into one
// human-readable plan string.
func SQLiteExplain(ctx context.Context, db *sql.DB, sqlText string) (string, error) {
	return scanTabular(ctx, db, fmt.Sprintf("EXPLAIN QUERY PLAN %s", sqlText))
}

// PostgreSQLExplain tries EXPLAIN (FORMAT JSON, ANALYZE, BUFFERS), falling
// back to plain EXPLAIN on any error from that first attempt. Note that
// ANALYZE executes the statement.
func PostgreSQLExplain(ctx context.Context, db *sql.DB, sqlText string) (string, error) {
	var jsonPlan string
	err := db.QueryRowContext(ctx, fmt.Sprintf("EXPLAIN (FORMAT JSON, ANALYZE, BUFFERS) %s", sqlText)).Scan(&jsonPlan)
	if err == nil {
		return jsonPlan, nil
	}
	return scanTabular(ctx, db, fmt.Sprintf("EXPLAIN %s", sqlText))
}

// scanTabular runs a query expected to return one or more text rows (the
// shape of EXPLAIN QUERY PLAN, tabular EXPLAIN, and EXPLAIN fallback
// output) and concatenates them with newlines.
func scanTabular(ctx context.Context, db *sql.DB, query string) (string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var plan string
	for rows.Next() {
		dest := make([]any, len(cols))
		raw := make([]sql.NullString, len(cols))
		for i := range dest {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return "", err
		}
		for _, r := range raw {
			if r.Valid {
				plan += r.String + " "
			}
		}
		plan += "\n"
	}
	return plan, rows.Err()
}

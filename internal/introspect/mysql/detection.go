package mysql

import (
	"context"
	"database/sql"
	"strings"

	"relquery/internal/schema"
)

// detectDialect checks that the server answers the version_comment query and
// returns DialectMySQL plus the server version string. MariaDB and TiDB speak
// the MySQL wire protocol and are reported as MySQL too; the version is not
// used to vary introspection behavior.
func detectDialect(ctx context.Context, db *sql.DB) (schema.Dialect, string, error) {
	var varName, comment string

	err := db.QueryRowContext(ctx, "SHOW VARIABLES LIKE 'version_comment'").Scan(&varName, &comment)
	if err != nil {
		return "", "", err
	}
	_ = strings.ToLower(comment)

	return schema.DialectMySQL, getVersion(ctx, db), nil
}

func getVersion(ctx context.Context, db *sql.DB) string {
	var version string
	_ = db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version)
	if idx := strings.Index(version, "-"); idx > 0 {
		version = version[:idx]
	}
	return version
}

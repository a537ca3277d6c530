// Package connconfig resolves the connection-configuration inputs accepted
// by relquery (host/port triplets, SQLite file paths, DSN strings, and
// named associative maps) into a single normalized Config, and opens the
// corresponding *sql.DB using the dialect's registered driver.
package connconfig

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"relquery/internal/dialectkind"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Config is the normalized connection configuration for one of the three
// supported dialects. Not every field is meaningful for every dialect: a
// SQLite config only uses Dialect and Path.
type Config struct {
	Dialect  dialectkind.Dialect
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Charset  string

	// Path is the SQLite database file path (or ":memory:"/"file::memory:").
	Path string
}

// Error reports a rejected connection-configuration input.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return "connconfig: " + e.Reason }

func defaultPort(d dialectkind.Dialect) int {
	switch d {
	case dialectkind.MySQL:
		return 3306
	case dialectkind.PostgreSQL:
		return 5432
	default:
		return 0
	}
}

// NewTriplet builds a Config for MySQL or PostgreSQL from discrete fields,
// applying the dialect's documented defaults for Port and Charset.
func NewTriplet(dialect dialectkind.Dialect, host string, port int, user, password, database, charset string) (Config, error) {
	if dialect == dialectkind.SQLite {
		return Config{}, &Error{Reason: "SQLite does not accept a host/port triplet; use NewSQLitePath"}
	}
	if port == 0 {
		port = defaultPort(dialect)
	}
	if dialect == dialectkind.MySQL && charset == "" {
		charset = "utf8mb4"
	}
	return Config{
		Dialect: dialect, Host: host, Port: port, User: user,
		Password: password, Database: database, Charset: charset,
	}, nil
}

// NewSQLitePath builds a Config for SQLite from a single file path, applying
// the SQLite file-path policy (see ValidatePath).
func NewSQLitePath(path string) (Config, error) {
	if err := ValidatePath(path); err != nil {
		return Config{}, err
	}
	return Config{Dialect: dialectkind.SQLite, Path: path}, nil
}

// ParseDSN parses a DSN string of the form "<prefix>:key=value;key=value"
// where prefix is one of "mysql", "sqlite", or "postgresql"/"postgres"/"pgsql".
func ParseDSN(dsn string) (Config, error) {
	prefix, rest, ok := strings.Cut(dsn, ":")
	if !ok {
		return Config{}, &Error{Reason: fmt.Sprintf("malformed DSN %q: missing dialect prefix", dsn)}
	}

	dialect, err := dialectkind.Parse(strings.ToLower(prefix))
	if err != nil {
		return Config{}, &Error{Reason: err.Error()}
	}

	kv := map[string]string{}
	for _, pair := range strings.Split(rest, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			if dialect == dialectkind.SQLite {
				// A bare SQLite path ("sqlite::memory:") has no key=value form.
				continue
			}
			return Config{}, &Error{Reason: fmt.Sprintf("malformed DSN pair %q", pair)}
		}
		kv[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	if dialect == dialectkind.SQLite {
		path := kv["path"]
		if path == "" {
			path = rest
		}
		return NewSQLitePath(path)
	}

	port := 0
	if p, ok := kv["port"]; ok {
		port, err = strconv.Atoi(p)
		if err != nil {
			return Config{}, &Error{Reason: fmt.Sprintf("invalid port %q", p)}
		}
	}

	return NewTriplet(dialect, kv["host"], port, kv["user"], kv["password"], kv["database"], kv["charset"])
}

// FromMap builds a Config from a named associative map keyed on "type",
// e.g. one decoded from a TOML connection block.
func FromMap(m map[string]string) (Config, error) {
	dialect, err := dialectkind.Parse(strings.ToLower(m["type"]))
	if err != nil {
		return Config{}, &Error{Reason: err.Error()}
	}

	if dialect == dialectkind.SQLite {
		return NewSQLitePath(m["path"])
	}

	port := 0
	if p, ok := m["port"]; ok && p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return Config{}, &Error{Reason: fmt.Sprintf("invalid port %q", p)}
		}
	}

	return NewTriplet(dialect, m["host"], port, m["user"], m["password"], m["database"], m["charset"])
}

// DSN renders c as a driver-ready data source name for database/sql.Open.
func (c Config) DSN() (driverName, dsn string, err error) {
	switch c.Dialect {
	case dialectkind.MySQL:
		charset := c.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Database, charset), nil

	case dialectkind.PostgreSQL:
		return "postgres", fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Host, c.Port, c.User, c.Password, c.Database), nil

	case dialectkind.SQLite:
		return "sqlite", c.Path, nil

	default:
		return "", "", &Error{Reason: fmt.Sprintf("unsupported dialect %q", c.Dialect)}
	}
}

// Open resolves c's DSN and opens the *sql.DB via database/sql, using
// whichever driver was imported for c.Dialect.
func Open(c Config) (*sql.DB, error) {
	driverName, dsn, err := c.DSN()
	if err != nil {
		return nil, err
	}
	return sql.Open(driverName, dsn)
}

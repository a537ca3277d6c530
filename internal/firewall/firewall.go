// Package firewall implements the identifier firewall (C1): validation,
// dialect-specific escaping, and ORDER BY clause handling for every table
// and column name that reaches emitted SQL.
package firewall

import (
	"fmt"
	"regexp"
	"strings"

	"relquery/internal/cache"
	"relquery/internal/dialectkind"
)

// Kind classifies what an identifier names, for diagnostics.
type Kind string

const (
	KindTable      Kind = "table"
	KindColumn     Kind = "column"
	KindIdentifier Kind = "identifier"
)

const maxIdentifierLength = 64

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// reserved is the fixed case-insensitive reserved-word set from the spec's
// external-interfaces section.
var reserved = map[string]bool{}

func init() {
	for _, w := range []string{
		"SELECT", "INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER",
		"TABLE", "INDEX", "VIEW", "TRIGGER", "PROCEDURE", "FUNCTION", "FROM",
		"WHERE", "ORDER", "GROUP", "HAVING", "UNION", "JOIN", "LEFT", "RIGHT",
		"INNER", "OUTER", "ON", "AS", "AND", "OR", "NOT", "NULL", "TRUE",
		"FALSE", "EXISTS", "BETWEEN", "LIKE", "IN", "IS", "DISTINCT", "ALL",
		"ANY", "SOME", "LIMIT", "OFFSET",
	} {
		reserved[w] = true
	}
}

// Error is returned for any validation failure; Kind lets callers
// distinguish table/column/order-by failures for diagnostics.
type Error struct {
	Kind Kind
	Name string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("firewall: %s %q: %s", e.Kind, e.Name, e.Msg)
}

// cachedIdentifier is the per-identifier cache record: the validation
// result plus the escaped form for each dialect computed so far.
type cachedIdentifier struct {
	original   string
	validated  bool
	mysql      string
	sqlite     string
	postgresql string
}

// Firewall holds the process-wide identifier cache. Construct it with New;
// the zero value has no cache and its methods panic.
type Firewall struct {
	cache *cache.Bounded[cachedIdentifier]
}

// New returns a Firewall with the identifier cache sized at 75% of the
// spec's 1000-entry cap, so natural LRU eviction approximates "evict oldest
// 25%" on overflow.
func New() *Firewall {
	return &Firewall{cache: cache.NewPreTrimmed[cachedIdentifier](1000)}
}

// Validate checks name against the firewall's rules in order: empty, too
// long, malformed, reserved. kind is only used for the error message.
func Validate(name string, kind Kind) error {
	if name == "" {
		return &Error{Kind: kind, Name: name, Msg: "identifier is empty"}
	}
	if len(name) > maxIdentifierLength {
		return &Error{Kind: kind, Name: name, Msg: fmt.Sprintf("exceeds maximum length %d", maxIdentifierLength)}
	}
	if !identifierRe.MatchString(name) {
		return &Error{Kind: kind, Name: name, Msg: "does not match required pattern"}
	}
	if reserved[strings.ToUpper(name)] {
		return &Error{Kind: kind, Name: name, Msg: "is a reserved word"}
	}
	return nil
}

// Escape quotes name for dialect, doubling any interior quote characters.
// Callers must call Validate first; Escape does not re-validate.
func Escape(name string, dialect dialectkind.Dialect) string {
	switch dialect {
	case dialectkind.PostgreSQL:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	default: // MySQL, SQLite
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
}

// ValidateAndEscape validates name then escapes it for dialect, consulting
// and populating the identifier cache.
func (f *Firewall) ValidateAndEscape(name string, dialect dialectkind.Dialect, kind Kind) (string, error) {
	key := cache.Key(name)

	if entry, ok := f.cache.Get(key); ok {
		if !entry.validated {
			return "", &Error{Kind: kind, Name: name, Msg: "cached as invalid"}
		}
		if esc := f.dialectEscape(entry, dialect); esc != "" {
			return esc, nil
		}
		// Cached but missing this dialect's escaped form; fall through to
		// compute and re-cache it.
	}

	if err := Validate(name, kind); err != nil {
		f.cache.Put(key, cachedIdentifier{original: name, validated: false})
		return "", err
	}

	escaped := Escape(name, dialect)
	entry, _ := f.cache.Get(key)
	entry.original = name
	entry.validated = true
	f.setDialectEscape(&entry, dialect, escaped)
	f.cache.Put(key, entry)

	return escaped, nil
}

func (f *Firewall) dialectEscape(entry cachedIdentifier, dialect dialectkind.Dialect) string {
	switch dialect {
	case dialectkind.MySQL:
		return entry.mysql
	case dialectkind.SQLite:
		return entry.sqlite
	case dialectkind.PostgreSQL:
		return entry.postgresql
	default:
		return ""
	}
}

func (f *Firewall) setDialectEscape(entry *cachedIdentifier, dialect dialectkind.Dialect, escaped string) {
	switch dialect {
	case dialectkind.MySQL:
		entry.mysql = escaped
	case dialectkind.SQLite:
		entry.sqlite = escaped
	case dialectkind.PostgreSQL:
		entry.postgresql = escaped
	}
}

// ValidateAndEscapeBulk applies ValidateAndEscape to every name, returning
// the first error encountered.
func (f *Firewall) ValidateAndEscapeBulk(names []string, dialect dialectkind.Dialect, kind Kind) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, n := range names {
		esc, err := f.ValidateAndEscape(n, dialect, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, esc)
	}
	return out, nil
}

// ValidateOrderBy parses a comma-separated ORDER BY clause ("col1 desc,
// col2") and returns the dialect-escaped form ("`col1` DESC, `col2` ASC").
func (f *Firewall) ValidateOrderBy(clause string, dialect dialectkind.Dialect) (string, error) {
	if strings.TrimSpace(clause) == "" {
		return "", &Error{Kind: KindIdentifier, Name: clause, Msg: "order by clause is empty"}
	}

	parts := strings.Split(clause, ",")
	escaped := make([]string, 0, len(parts))

	for _, part := range parts {
		tokens := strings.Fields(strings.TrimSpace(part))
		if len(tokens) == 0 || len(tokens) > 2 {
			return "", &Error{Kind: KindIdentifier, Name: part, Msg: "malformed order by term"}
		}

		col := tokens[0]
		direction := "ASC"
		if len(tokens) == 2 {
			switch strings.ToUpper(tokens[1]) {
			case "ASC", "DESC":
				direction = strings.ToUpper(tokens[1])
			default:
				return "", &Error{Kind: KindIdentifier, Name: part, Msg: "invalid sort direction"}
			}
		}

		esc, err := f.ValidateAndEscape(col, dialect, KindColumn)
		if err != nil {
			return "", err
		}
		escaped = append(escaped, esc+" "+direction)
	}

	return strings.Join(escaped, ", "), nil
}

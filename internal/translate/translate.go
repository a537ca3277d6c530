// Package translate implements the dialect translator (C3): pure
// string-level rewriting of an already-validated expression into its
// dialect-specific form.
package translate

import (
	"regexp"

	"relquery/internal/cache"
	"relquery/internal/dialectkind"
)

// rule is one longest-match-first, case-insensitive replacement.
type rule struct {
	from string
	to   string
}

// rulesFor returns the replacement table for dialect. Where one rule's text
// is a prefix of another's, the longer rule is listed first, so
// CURRENT_TIMESTAMP is rewritten before CURRENT_TIME can clobber it; rules
// that do not overlap are not ordered by length.
func rulesFor(dialect dialectkind.Dialect) []rule {
	switch dialect {
	case dialectkind.MySQL:
		return []rule{
			{"CURRENT_TIMESTAMP", "NOW()"},
			{"CURRENT_DATE", "CURDATE()"},
			{"CURRENT_TIME", "CURTIME()"},
			{"SUBSTR(", "SUBSTRING("},
			{"RANDOM()", "RAND()"},
		}
	case dialectkind.SQLite:
		return []rule{
			{"CURRENT_TIMESTAMP", "datetime('now')"},
			{"CURRENT_DATE", "date('now')"},
			{"CURRENT_TIME", "time('now')"},
			{"SUBSTRING(", "SUBSTR("},
			{"CURDATE()", "date('now')"},
			{"CURTIME()", "time('now')"},
			{"NOW()", "datetime('now')"},
			{"RAND()", "RANDOM()"},
		}
	case dialectkind.PostgreSQL:
		return []rule{
			{"CURDATE()", "CURRENT_DATE"},
			{"CURTIME()", "CURRENT_TIME"},
			{"SUBSTR(", "SUBSTRING("},
			{"RAND()", "RANDOM()"},
		}
	default:
		return nil
	}
}

// Translator holds the per-(dialect, expression) translation cache.
type Translator struct {
	cache *cache.Bounded[string]
}

// New returns a Translator with its cache pre-sized per the toolkit's
// eviction-approximation convention.
func New() *Translator {
	return &Translator{cache: cache.NewPreTrimmed[string](2000)}
}

// Translate rewrites a validated expression into its dialect-final form.
// Matching is case-insensitive; replacement text is always dialect-canonical.
func (t *Translator) Translate(validatedExpression string, dialect dialectkind.Dialect) string {
	key := cache.Key(string(dialect), validatedExpression)
	if t.cache != nil {
		if cached, ok := t.cache.Get(key); ok {
			return cached
		}
	}

	result := validatedExpression
	for _, r := range rulesFor(dialect) {
		result = replaceCaseInsensitive(result, r.from, r.to)
	}

	if t.cache != nil {
		t.cache.Put(key, result)
	}
	return result
}

func replaceCaseInsensitive(s, from, to string) string {
	if from == "" {
		return s
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(from))
	return re.ReplaceAllStringFunc(s, func(string) string { return to })
}

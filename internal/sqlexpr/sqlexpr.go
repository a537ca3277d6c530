// Package sqlexpr implements the expression validator (C2): it decides
// whether an UPDATE/INSERT value expression is safe to embed literally in
// emitted SQL, rejecting anything that looks like an injection attempt and
// accepting only a fixed grammar of arithmetic, function calls, keyword
// expressions, and CASE forms.
package sqlexpr

import (
	"fmt"
	"regexp"
	"strings"

	"relquery/internal/cache"
	"relquery/internal/firewall"
)

// Context is where the expression is destined to be embedded.
type Context string

const (
	ContextUpdateSet      Context = "update_set"
	ContextInsertValue    Context = "insert_value"
	ContextWhereCondition Context = "where_condition"
)

// whitelistedFunctions is the universal set of function names the
// validator accepts, shared across all three contexts and dialects.
var whitelistedFunctions = map[string]bool{}

func init() {
	for _, fn := range []string{
		"NOW", "COALESCE", "UPPER", "LOWER", "LENGTH", "SUBSTRING", "SUBSTR",
		"CURDATE", "CURTIME", "DATE", "TIME", "DATETIME", "CURRENT_DATE",
		"CURRENT_TIME", "CURRENT_TIMESTAMP", "CONCAT", "TRIM", "LTRIM",
		"RTRIM", "REPLACE", "ABS", "ROUND", "FLOOR", "RAND", "RANDOM",
		"NULLIF", "GREATEST", "LEAST",
	} {
		whitelistedFunctions[fn] = true
	}
}

var bareKeywords = map[string]bool{
	"CURRENT_DATE": true, "CURRENT_TIME": true, "CURRENT_TIMESTAMP": true,
	"CURRENT_USER": true, "SESSION_USER": true,
}

var caseKeywords = map[string]bool{
	"CASE": true, "WHEN": true, "THEN": true, "ELSE": true, "END": true,
	"AND": true, "OR": true,
}

var (
	reLiteralNumber = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	reArithSimple   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)\s*([+\-*/])\s*([A-Za-z_][A-Za-z0-9_-]*|[0-9]+(?:\.[0-9]+)?)$`)
	reArithEnhanced = regexp.MustCompile(`^(.+?)\s*([+\-*/])\s*(.+)$`)
	reFuncCall      = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*\((.*)\)$`)
	reFuncArith     = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*\(([^;]*)\)\s*([+\-*/])\s*(.+)$`)
	reCase          = regexp.MustCompile(`(?is)^CASE\s+WHEN\s+.+\s+THEN\s+.+?(\s+WHEN\s+.+\s+THEN\s+.+?)*\s+ELSE\s+.+\s+END$`)
	reStatementTerm = regexp.MustCompile(`(?i);\s*[A-Za-z_]`)
	reComment       = regexp.MustCompile(`(?s)/\*.*?\*/|--.*$`)
	reDangerousWord = regexp.MustCompile(`(?i)\b(DROP|DELETE|TRUNCATE|ALTER|CREATE|UNION|SELECT|EXEC|LOAD_FILE|INTO\s+OUTFILE)\b`)
	reIdentifier    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
	reBareIdent     = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
)

// Error reports why an expression was rejected.
type Error struct {
	Expression string
	Reason     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("sqlexpr: %q: %s", e.Expression, e.Reason)
}

// Validator holds the expression cache.
type Validator struct {
	cache *cache.Bounded[bool]
}

// New returns a Validator with the expression cache pre-sized per the
// cache-overflow approximation used throughout the toolkit.
func New() *Validator {
	return &Validator{cache: cache.NewPreTrimmed[bool](2000)}
}

// Validate checks expression against the reject-first dangerous patterns
// and then the accept-rule ladder, returning the original string unchanged
// on success. Translation to a specific dialect is the Translator's job.
func (v *Validator) Validate(expression string, context Context, allowedColumns []string) (string, error) {
	expr := strings.TrimSpace(expression)
	if expr == "" {
		return "", &Error{Expression: expression, Reason: "expression is empty"}
	}

	if context == ContextWhereCondition {
		return "", &Error{Expression: expression, Reason: "where_condition must use parameter binding, not literal expressions"}
	}

	key := cache.SortedKey(allowedColumns, expr, string(context))
	if v.cache != nil {
		if _, ok := v.cache.Get(key); ok {
			return expr, nil
		}
	}

	if err := rejectDangerous(expr); err != nil {
		return "", err
	}

	if !accept(expr, allowedColumns) {
		return "", &Error{Expression: expression, Reason: "not in whitelist"}
	}

	if v.cache != nil {
		v.cache.Put(key, true)
	}
	return expr, nil
}

func rejectDangerous(expr string) error {
	if reStatementTerm.MatchString(expr) {
		return &Error{Expression: expr, Reason: "Dangerous pattern"}
	}
	if reComment.MatchString(expr) {
		return &Error{Expression: expr, Reason: "Dangerous pattern"}
	}
	if reDangerousWord.MatchString(expr) {
		return &Error{Expression: expr, Reason: "Dangerous pattern"}
	}
	if hasStringLiteralOutsideCall(expr) {
		return &Error{Expression: expr, Reason: "Dangerous pattern"}
	}
	return nil
}

// hasStringLiteralOutsideCall scans for quote characters and verifies every
// one found lies within a `word(...)` region.
func hasStringLiteralOutsideCall(expr string) bool {
	if !strings.ContainsAny(expr, `'"`) {
		return false
	}
	for _, loc := range regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*\([^()]*\)`).FindAllStringIndex(expr, -1) {
		expr = expr[:loc[0]] + strings.Repeat(" ", loc[1]-loc[0]) + expr[loc[1]:]
	}
	return strings.ContainsAny(expr, `'"`)
}

func accept(expr string, allowedColumns []string) bool {
	if reLiteralNumber.MatchString(expr) {
		return true
	}
	if m := reArithSimple.FindStringSubmatch(expr); m != nil {
		return validColumnOperand(m[1], allowedColumns) && validOperand(m[3], allowedColumns)
	}
	if m := reArithEnhanced.FindStringSubmatch(expr); m != nil {
		return validOperand(strings.TrimSpace(m[1]), allowedColumns) && validOperand(strings.TrimSpace(m[3]), allowedColumns)
	}
	if m := reFuncArith.FindStringSubmatch(expr); m != nil {
		fn := strings.ToUpper(m[1])
		args := m[2]
		right := strings.TrimSpace(m[4])
		if whitelistedFunctions[fn] && !strings.Contains(args, ";") && validOperand(right, allowedColumns) {
			return true
		}
	}
	if m := reFuncCall.FindStringSubmatch(expr); m != nil {
		fn := strings.ToUpper(m[1])
		args := m[2]
		if whitelistedFunctions[fn] && !strings.ContainsAny(args, `'";()`) {
			return true
		}
	}
	if bareKeywords[strings.ToUpper(expr)] {
		return true
	}
	if reCase.MatchString(expr) {
		return validCaseColumns(expr, allowedColumns)
	}
	return false
}

func validColumnOperand(name string, allowedColumns []string) bool {
	if reLiteralNumber.MatchString(name) {
		return true
	}
	if firewall.Validate(name, firewall.KindColumn) != nil {
		return false
	}
	return isAllowedColumn(name, allowedColumns)
}

// validOperand accepts a number, a bare column, or a whitelisted function call.
func validOperand(operand string, allowedColumns []string) bool {
	operand = strings.TrimSpace(operand)
	if reLiteralNumber.MatchString(operand) {
		return true
	}
	if m := reFuncCall.FindStringSubmatch(operand); m != nil {
		fn := strings.ToUpper(m[1])
		return whitelistedFunctions[fn] && !strings.ContainsAny(m[2], `'";()`)
	}
	if reIdentifier.MatchString(operand) {
		return validColumnOperand(operand, allowedColumns)
	}
	return false
}

func isAllowedColumn(name string, allowedColumns []string) bool {
	if len(allowedColumns) == 0 {
		return true
	}
	for _, c := range allowedColumns {
		if c == name {
			return true
		}
	}
	return false
}

func validCaseColumns(expr string, allowedColumns []string) bool {
	for _, ident := range reBareIdent.FindAllString(expr, -1) {
		upper := strings.ToUpper(ident)
		if caseKeywords[upper] || bareKeywords[upper] || whitelistedFunctions[upper] {
			continue
		}
		if reLiteralNumber.MatchString(ident) {
			continue
		}
		if firewall.Validate(ident, firewall.KindColumn) != nil {
			return false
		}
		if !isAllowedColumn(ident, allowedColumns) {
			return false
		}
	}
	return true
}

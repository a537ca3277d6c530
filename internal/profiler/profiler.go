// Package profiler implements the query profiler (C6): it observes
// executed SQL and its timing, parses the statement structurally, fetches
// a dialect EXPLAIN when possible, and produces layered suggestions plus a
// rolling per-session summary.
package profiler

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"relquery/internal/cache"
	"relquery/internal/dialectkind"
)

const (
	slowSeconds         = 0.1
	verySlowSeconds     = 1.0
	largeResultRows     = 1000
	missingLimitRows    = 10000
	maxAnalysisRecords  = 100
	truncatedSQLLength  = 80
	summaryEveryNQuerys = 5
)

// Priority mirrors the optimizer's suggestion priority vocabulary.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Suggestion is one profiler-emitted advisory.
type Suggestion struct {
	Type           string
	Priority       Priority
	QueryID        string
	Table          string
	Message        string
	Explanation    string
	SQL            string
	Recommendation string
}

// Parsed is the structural breakdown of one SQL statement.
type Parsed struct {
	Type          string
	Table         string
	WhereColumns  []string
	WhereOperators []string
	OrderColumns  []string
	HasLimit      bool
	HasSelectStar bool
	JoinTables    []string
}

// Analysis is the result of one analyze() call.
type Analysis struct {
	QueryID         string
	SQL             string
	Table           string
	ExecutionTime   float64
	Slow            bool
	VerySlow        bool
	ComplexityScore int
	ExplainData     string
	Suggestions     []Suggestion
}

// Summary is a rolling per-session aggregate, emitted every 5 queries.
type Summary struct {
	TotalQueries     int
	SuggestionsByType map[string]int
	UniqueIndexDDL   []string
	PerformanceIssues []string
}

var (
	reType    = regexp.MustCompile(`(?i)^\s*(SELECT|INSERT|UPDATE|DELETE)`)
	reFrom    = regexp.MustCompile(`(?i)FROM\s+([` + "`" + `"]?[A-Za-z_][A-Za-z0-9_]*[` + "`" + `"]?)`)
	reWhere   = regexp.MustCompile(`(?i)WHERE\s+([` + "`" + `"]?[A-Za-z_][A-Za-z0-9_]*[` + "`" + `"]?)\s*([=!<>]+|LIKE|IN|IS)`)
	reOrderBy = regexp.MustCompile(`(?i)ORDER\s+BY\s+([^;]+?)(?:LIMIT|$)`)
	reJoin    = regexp.MustCompile(`(?i)JOIN\s+([` + "`" + `"]?[A-Za-z_][A-Za-z0-9_]*[` + "`" + `"]?)`)
	reLimit   = regexp.MustCompile(`(?i)\bLIMIT\b`)
	reSelectStar = regexp.MustCompile(`(?i)^\s*SELECT\s+\*`)
	reSubquery   = regexp.MustCompile(`(?i)\(\s*SELECT\b`)
	reUnion      = regexp.MustCompile(`(?i)\bUNION\b`)
	reGroupBy    = regexp.MustCompile(`(?i)\bGROUP\s+BY\b`)
	reHaving     = regexp.MustCompile(`(?i)\bHAVING\b`)
	reBindName   = regexp.MustCompile(`:[A-Za-z_][A-Za-z0-9_]*`)
)

// ParseSQL extracts the structural shape of sql via case-insensitive regex,
// per the profiler's "no real parser" design.
func ParseSQL(sqlText string) Parsed {
	p := Parsed{}

	if m := reType.FindStringSubmatch(sqlText); m != nil {
		p.Type = strings.ToUpper(m[1])
	}
	if m := reFrom.FindStringSubmatch(sqlText); m != nil {
		p.Table = unquote(m[1])
	}
	for _, m := range reWhere.FindAllStringSubmatch(sqlText, -1) {
		p.WhereColumns = append(p.WhereColumns, unquote(m[1]))
		p.WhereOperators = append(p.WhereOperators, strings.ToUpper(m[2]))
	}
	if m := reOrderBy.FindStringSubmatch(sqlText); m != nil {
		for _, part := range strings.Split(m[1], ",") {
			fields := strings.Fields(strings.TrimSpace(part))
			if len(fields) > 0 {
				p.OrderColumns = append(p.OrderColumns, unquote(fields[0]))
			}
		}
	}
	for _, m := range reJoin.FindAllStringSubmatch(sqlText, -1) {
		p.JoinTables = append(p.JoinTables, unquote(m[1]))
	}
	p.HasLimit = reLimit.MatchString(sqlText)
	p.HasSelectStar = reSelectStar.MatchString(sqlText)

	return p
}

func unquote(s string) string {
	s = strings.Trim(s, "`\"")
	return s
}

// ComplexityScore computes the record complexity score from sqlText,
// capped at 100.
func ComplexityScore(sqlText string) int {
	score := 10
	score += 15 * len(reJoin.FindAllStringIndex(sqlText, -1))
	score += 20 * len(reSubquery.FindAllStringIndex(sqlText, -1))
	if reUnion.MatchString(sqlText) {
		score += 10
	}
	if reGroupBy.MatchString(sqlText) {
		score += 10
	}
	if m := reOrderBy.FindStringSubmatch(sqlText); m != nil && m[1] != "" {
		score += 5
	}
	if reHaving.MatchString(sqlText) {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

// ExplainFn fetches a dialect EXPLAIN plan for sqlText over db. Returning an
// error is expected and non-fatal: the caller falls back to structural
// suggestions only.
type ExplainFn func(ctx context.Context, db *sql.DB, sqlText string) (string, error)

// Profiler holds per-session rolling state plus the bounded analysis cache.
type Profiler struct {
	mu               sync.Mutex
	counter          int64
	analyses         []Analysis
	suggestionCounts map[string]int
	cache            *cache.Bounded[Analysis]
}

// New returns a Profiler with its analysis cache bounded at the spec's
// 100-entry cap (approximated via pre-trimmed natural LRU eviction).
func New() *Profiler {
	return &Profiler{
		suggestionCounts: map[string]int{},
		cache:            cache.NewPreTrimmed[Analysis](maxAnalysisRecords),
	}
}

// Analyze processes one executed statement and returns its Analysis.
func (p *Profiler) Analyze(ctx context.Context, db *sql.DB, dialect dialectkind.Dialect, sqlText string, executionTime float64, explain ExplainFn) Analysis {
	id := fmt.Sprintf("Q%d", atomic.AddInt64(&p.counter, 1))

	normalized := reBindName.ReplaceAllString(sqlText, "?")
	parsed := ParseSQL(sqlText)
	key := cache.Key(normalized, parsed.Table)

	if cached, ok := p.cache.Get(key); ok {
		cached.QueryID = id
		cached.ExecutionTime = executionTime
		cached.Slow = executionTime > slowSeconds
		cached.VerySlow = executionTime > verySlowSeconds
		cached.Suggestions = p.suggestions(id, parsed, sqlText, executionTime, cached.ExplainData)
		p.record(cached)
		return cached
	}

	var explainData string
	if explain != nil && parsed.Type == "SELECT" && db != nil {
		if out, err := explain(ctx, db, sqlText); err == nil {
			explainData = out
		}
	}

	analysis := Analysis{
		QueryID:         id,
		SQL:             truncate(sqlText, truncatedSQLLength),
		Table:           parsed.Table,
		ExecutionTime:   executionTime,
		Slow:            executionTime > slowSeconds,
		VerySlow:        executionTime > verySlowSeconds,
		ComplexityScore: ComplexityScore(sqlText),
		ExplainData:     explainData,
	}
	analysis.Suggestions = p.suggestions(id, parsed, sqlText, executionTime, explainData)

	p.cache.Put(key, analysis)
	p.record(analysis)

	return analysis
}

func (p *Profiler) record(a Analysis) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.analyses = append(p.analyses, a)
	if len(p.analyses) > maxAnalysisRecords {
		p.analyses = p.analyses[len(p.analyses)-maxAnalysisRecords:]
	}
}

// suggestions generates the layered suggestion list: performance-based,
// index recommendations, structural, then dialect-EXPLAIN-based.
func (p *Profiler) suggestions(queryID string, parsed Parsed, sqlText string, executionTime float64, explainData string) []Suggestion {
	var out []Suggestion

	if executionTime > verySlowSeconds {
		out = append(out, p.dedup(parsed.Table, "__perf__", Suggestion{
			Type: "very_slow_query", Priority: PriorityCritical, QueryID: queryID, Table: parsed.Table,
			Message: "query took longer than 1 second",
		}, executionTime)...)
	} else if executionTime > slowSeconds {
		out = append(out, p.dedup(parsed.Table, "__perf__", Suggestion{
			Type: "slow_query", Priority: PriorityHigh, QueryID: queryID, Table: parsed.Table,
			Message: "query took longer than 100ms",
		}, executionTime)...)
	}

	for _, col := range parsed.WhereColumns {
		out = append(out, p.dedup(parsed.Table, col, Suggestion{
			Type: "index_recommendation", Priority: PriorityMedium, QueryID: queryID, Table: parsed.Table,
			Message:        fmt.Sprintf("consider indexing %s.%s", parsed.Table, col),
			Recommendation: fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s (%s)", parsed.Table, col, parsed.Table, col),
		}, executionTime)...)
	}

	if parsed.HasSelectStar {
		out = append(out, Suggestion{
			Type: "select_star", Priority: PriorityLow, QueryID: queryID, Table: parsed.Table,
			Message: "SELECT * retrieves every column; name only what's needed",
		})
	}
	if !parsed.HasLimit && parsed.Type == "SELECT" {
		out = append(out, Suggestion{
			Type: "missing_limit", Priority: PriorityMedium, QueryID: queryID, Table: parsed.Table,
			Message: "SELECT without LIMIT can return unbounded rows",
		})
	}
	if len(parsed.JoinTables) > 0 && reSubquery.MatchString(sqlText) {
		out = append(out, Suggestion{
			Type: "rewrite_subquery", Priority: PriorityMedium, QueryID: queryID, Table: parsed.Table,
			Message: "consider rewriting correlated subqueries as JOINs",
		})
	}

	if explainData != "" {
		out = append(out, explainSuggestions(queryID, parsed.Table, explainData)...)
	}

	return out
}

// dedup applies the spec's suggestion_counts[table.column] dedup rule:
// only the first occurrence emits, except queries slower than slowSeconds
// always emit.
func (p *Profiler) dedup(table, column string, s Suggestion, executionTime float64) []Suggestion {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := table + "." + column
	count := p.suggestionCounts[key]
	p.suggestionCounts[key] = count + 1

	if count == 0 || executionTime > slowSeconds {
		return []Suggestion{s}
	}
	return nil
}

// explainSuggestions maps a recognized EXPLAIN plan fragment to suggestions.
// It operates on text-level markers so it works uniformly across the
// MySQL JSON/tabular, SQLite QUERY PLAN, and PostgreSQL JSON shapes.
func explainSuggestions(queryID, table, explainData string) []Suggestion {
	var out []Suggestion
	lower := strings.ToLower(explainData)

	switch {
	case strings.Contains(lower, "seq scan"), strings.Contains(lower, "scan"):
		out = append(out, Suggestion{
			Type: "sequential_scan", Priority: PriorityHigh, QueryID: queryID, Table: table,
			Message: "plan shows a full/sequential scan",
		})
	}
	if strings.Contains(lower, "using filesort") || strings.Contains(lower, "use temp b-tree") {
		out = append(out, Suggestion{
			Type: "filesort", Priority: PriorityMedium, QueryID: queryID, Table: table,
			Message: "plan shows a sort operation not satisfied by an index",
		})
	}
	if strings.Contains(lower, "covering index") || strings.Contains(lower, "index only scan") {
		out = append(out, Suggestion{
			Type: "covering_index", Priority: PriorityLow, QueryID: queryID, Table: table,
			Message: "query is satisfied by a covering/index-only scan",
		})
	}
	if cost := extractCost(explainData); cost > 10000 {
		out = append(out, Suggestion{
			Type: "high_cost", Priority: PriorityMedium, QueryID: queryID, Table: table,
			Message: "plan total cost exceeds 10000",
		})
	}
	if strings.Contains(lower, "subplan") || strings.Contains(lower, "nested loop") {
		out = append(out, Suggestion{
			Type: "subquery_hint", Priority: PriorityMedium, QueryID: queryID, Table: table,
			Message: "consider rewriting nested subqueries as JOINs",
		})
	}
	return out
}

var reCost = regexp.MustCompile(`cost=\d+\.\d+\.\.(\d+\.\d+)`)

func extractCost(explainData string) float64 {
	m := reCost.FindStringSubmatch(explainData)
	if m == nil {
		return 0
	}
	v, _ := strconv.ParseFloat(m[1], 64)
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// SessionSummary groups the session's suggestions by type and aggregates
// unique CREATE INDEX DDL and performance issues.
func (p *Profiler) SessionSummary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	summary := Summary{
		TotalQueries:      len(p.analyses),
		SuggestionsByType: map[string]int{},
	}

	ddlSeen := map[string]bool{}
	for _, a := range p.analyses {
		for _, s := range a.Suggestions {
			summary.SuggestionsByType[s.Type]++
			if strings.HasPrefix(s.Recommendation, "CREATE INDEX") && !ddlSeen[s.Recommendation] {
				ddlSeen[s.Recommendation] = true
				summary.UniqueIndexDDL = append(summary.UniqueIndexDDL, s.Recommendation)
			}
		}
		if a.Slow || a.VerySlow {
			summary.PerformanceIssues = append(summary.PerformanceIssues,
				fmt.Sprintf("%s on %s took %.3fs", a.QueryID, a.Table, a.ExecutionTime))
		}
	}

	return summary
}

// ShouldEmitSummary reports whether the current query count is a multiple
// of the spec's every-5-queries cadence.
func (p *Profiler) ShouldEmitSummary() bool {
	return atomic.LoadInt64(&p.counter)%summaryEveryNQuerys == 0
}

// ClearSession resets per-session state: the query counter, recorded
// analyses, and suggestion dedup counts. The analysis cache is left intact.
func (p *Profiler) ClearSession() {
	p.mu.Lock()
	defer p.mu.Unlock()
	atomic.StoreInt64(&p.counter, 0)
	p.analyses = nil
	p.suggestionCounts = map[string]int{}
}

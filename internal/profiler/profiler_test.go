package profiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSQLExtractsShape(t *testing.T) {
	p := ParseSQL("SELECT * FROM `users` WHERE `age` > :value ORDER BY name desc LIMIT 10")
	assert.Equal(t, "SELECT", p.Type)
	assert.Equal(t, "users", p.Table)
	assert.Equal(t, []string{"age"}, p.WhereColumns)
	assert.Equal(t, []string{">"}, p.WhereOperators)
	assert.Equal(t, []string{"name"}, p.OrderColumns)
	assert.True(t, p.HasLimit)
	assert.True(t, p.HasSelectStar)
}

func TestComplexityScoreCapsAt100(t *testing.T) {
	sql := "SELECT * FROM a JOIN b JOIN c JOIN d JOIN e JOIN f JOIN g WHERE x IN (SELECT y FROM z) GROUP BY x HAVING COUNT(*) > 1 UNION SELECT * FROM w ORDER BY x"
	score := ComplexityScore(sql)
	assert.LessOrEqual(t, score, 100)
	assert.Greater(t, score, 10)
}

func TestAnalyzeAssignsIncrementingQueryIDs(t *testing.T) {
	p := New()
	a1 := p.Analyze(context.Background(), nil, "mysql", "SELECT * FROM users WHERE id=:id", 0.01, nil)
	a2 := p.Analyze(context.Background(), nil, "mysql", "SELECT * FROM orders WHERE id=:id", 0.01, nil)
	assert.Equal(t, "Q1", a1.QueryID)
	assert.Equal(t, "Q2", a2.QueryID)
}

func TestAnalyzeFlagsSlowAndVerySlow(t *testing.T) {
	p := New()
	slow := p.Analyze(context.Background(), nil, "mysql", "SELECT * FROM users", 0.2, nil)
	assert.True(t, slow.Slow)
	assert.False(t, slow.VerySlow)

	verySlow := p.Analyze(context.Background(), nil, "mysql", "SELECT * FROM users", 2.0, nil)
	assert.True(t, verySlow.Slow)
	assert.True(t, verySlow.VerySlow)
}

func TestAnalyzeDedupIsPerTableColumn(t *testing.T) {
	p := New()
	a1 := p.Analyze(context.Background(), nil, "mysql", "SELECT * FROM users WHERE age=:age", 0.01, nil)
	a2 := p.Analyze(context.Background(), nil, "mysql", "SELECT name FROM other WHERE age = :age2", 0.01, nil)

	count1 := countByType(a1.Suggestions, "index_recommendation")
	count2 := countByType(a2.Suggestions, "index_recommendation")
	assert.Equal(t, 1, count1)
	// Second call touches a different table.column pair (other.age), so it
	// is still a first occurrence and still emits.
	assert.Equal(t, 1, count2)
}

func TestAnalyzeSlowQueriesAlwaysEmitDedup(t *testing.T) {
	p := New()
	p.Analyze(context.Background(), nil, "mysql", "SELECT * FROM users WHERE age=:age", 0.01, nil)
	again := p.Analyze(context.Background(), nil, "mysql", "SELECT * FROM users WHERE age=:age2", 0.5, nil)
	assert.Equal(t, 1, countByType(again.Suggestions, "index_recommendation"))
}

func countByType(suggestions []Suggestion, t string) int {
	n := 0
	for _, s := range suggestions {
		if s.Type == t {
			n++
		}
	}
	return n
}

func TestSessionSummaryAggregates(t *testing.T) {
	p := New()
	p.Analyze(context.Background(), nil, "mysql", "SELECT * FROM users WHERE age=:age", 0.01, nil)
	p.Analyze(context.Background(), nil, "mysql", "SELECT * FROM users WHERE age=:age", 2.0, nil)

	summary := p.SessionSummary()
	assert.Equal(t, 2, summary.TotalQueries)
	assert.NotEmpty(t, summary.PerformanceIssues)
}

func TestClearSessionResetsState(t *testing.T) {
	p := New()
	p.Analyze(context.Background(), nil, "mysql", "SELECT * FROM users", 0.01, nil)
	p.ClearSession()

	a := p.Analyze(context.Background(), nil, "mysql", "SELECT * FROM users", 0.01, nil)
	assert.Equal(t, "Q1", a.QueryID)
	assert.Equal(t, 1, p.SessionSummary().TotalQueries)
}

func TestShouldEmitSummaryEveryFiveQueries(t *testing.T) {
	p := New()
	for i := 0; i < 4; i++ {
		p.Analyze(context.Background(), nil, "mysql", "SELECT * FROM users", 0.01, nil)
		assert.False(t, p.ShouldEmitSummary())
	}
	p.Analyze(context.Background(), nil, "mysql", "SELECT * FROM users", 0.01, nil)
	assert.True(t, p.ShouldEmitSummary())
}

func TestExtractCostParsesPostgresPlan(t *testing.T) {
	plan := "Seq Scan on users  (cost=0.00..12345.67 rows=1000 width=4)"
	assert.Equal(t, 12345.67, extractCost(plan))
}

// Package optimizer builds per-table performance profiles from an
// introspected schema (C5's advisor half) and turns them into
// recommendations and heuristic predictions for a caller about to run an
// insert/select/update/delete.
package optimizer

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"relquery/internal/schema"
)

// Profile holds the derived performance characteristics of one table.
type Profile struct {
	Table              string
	EstimatedRowSize   int
	InsertComplexity   int
	SelectComplexity   int
	UpdateComplexity   int
	OptimalBatchSize   int
	CachePriority      int
	IndexEffectiveness float64
	ForeignKeyOverhead int
	IndexedColumns     map[string]bool
}

var typeSizeRe = struct {
	intLike   *regexp.Regexp
	varchar   *regexp.Regexp
	boolLike  *regexp.Regexp
}{
	intLike:  regexp.MustCompile(`(?i)^INT`),
	varchar:  regexp.MustCompile(`(?i)^VARCHAR\((\d+)\)`),
	boolLike: regexp.MustCompile(`(?i)^BOOL`),
}

// estimateColumnSize maps a dialect-native type string to an estimated
// byte size via string-matching, per the spec's size table.
func estimateColumnSize(rawType string) int {
	t := strings.TrimSpace(rawType)
	switch {
	case typeSizeRe.intLike.MatchString(t):
		return 8
	case typeSizeRe.boolLike.MatchString(t):
		return 1
	case typeSizeRe.varchar.MatchString(t):
		m := typeSizeRe.varchar.FindStringSubmatch(t)
		n := 255
		fmt.Sscanf(m[1], "%d", &n)
		return n
	case strings.HasPrefix(strings.ToUpper(t), "TEXT"):
		return 1000
	case strings.EqualFold(t, "JSON") || strings.HasPrefix(strings.ToUpper(t), "JSON"):
		return 500
	case strings.HasPrefix(strings.ToUpper(t), "TIMESTAMP"):
		return 19
	case strings.HasPrefix(strings.ToUpper(t), "DATETIME"):
		return 19
	case strings.HasPrefix(strings.ToUpper(t), "DATE"):
		return 10
	case strings.HasPrefix(strings.ToUpper(t), "TIME"):
		return 10
	default:
		return 255
	}
}

// BuildProfile derives a Profile for t. fkOut and fkIn are the number of
// foreign keys t declares and the number of other tables' foreign keys
// that reference t, respectively (the relationship_weight inputs).
func BuildProfile(t *schema.Table, fkOut, fkIn int) *Profile {
	rowSize := 0
	for _, c := range t.Columns {
		typ := c.RawType
		if typ == "" {
			typ = string(c.Type)
		}
		rowSize += estimateColumnSize(typ)
	}

	nCols := len(t.Columns)
	nIndexes := len(t.Indexes)
	nFKs := 0
	indexed := map[string]bool{}
	for _, idx := range t.Indexes {
		for _, col := range idx.Columns {
			indexed[col.Name] = true
		}
	}
	for _, c := range t.Constraints {
		if c.Type == schema.ConstraintForeignKey {
			nFKs++
		}
	}

	insertComplexity := nCols + 2*nIndexes + 3*nFKs
	selectComplexity := nCols - 2*nIndexes
	if selectComplexity < 1 {
		selectComplexity = 1
	}
	updateComplexity := int(math.Floor(float64(nCols) + 1.5*float64(nIndexes)))

	batch := int(math.Floor(float64(10*1024*1024) / float64(max(rowSize, 1))))
	batch = clamp(batch, 100, 2000)
	batch = int(math.Floor(float64(batch) / (1 + float64(insertComplexity)/100)))
	if batch < 50 {
		batch = 50
	}

	relationshipWeight := fkOut + fkIn
	cachePriority := relationshipWeight*10 + nCols

	indexEffectiveness := 0.0
	if nCols > 0 {
		indexEffectiveness = float64(len(indexed)) / float64(nCols)
	}

	return &Profile{
		Table:              t.Name,
		EstimatedRowSize:   rowSize,
		InsertComplexity:   insertComplexity,
		SelectComplexity:   selectComplexity,
		UpdateComplexity:   updateComplexity,
		OptimalBatchSize:   batch,
		CachePriority:      cachePriority,
		IndexEffectiveness: indexEffectiveness,
		ForeignKeyOverhead: nFKs,
		IndexedColumns:     indexed,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Priority mirrors the suggestion priority vocabulary shared with the
// profiler (C6).
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Suggestion is a single advisory emitted by Recommend.
type Suggestion struct {
	Type           string
	Priority       Priority
	Table          string
	Message        string
	Recommendation string
	SQL            string
}

// Operation identifies the kind of call being advised on.
type Operation string

const (
	OpBulkInsert Operation = "bulk_insert"
	OpSelect     Operation = "select"
	OpUpdate     Operation = "update"
	OpDelete     Operation = "delete"
)

// Context carries the call-site details recommend needs; only the fields
// relevant to Operation are consulted.
type Context struct {
	RecordCount     int
	WhereColumn     string
	OrderByColumn   string
	Limit           int
	UpdatedColumns  []string
	HasWhere        bool
}

// Recommend emits advisory suggestions for one call against p, per the
// spec's per-operation rule table.
func Recommend(p *Profile, operation Operation, ctx Context) []Suggestion {
	var out []Suggestion

	switch operation {
	case OpBulkInsert:
		if ctx.RecordCount > 0 && p.OptimalBatchSize != ctx.RecordCount {
			out = append(out, Suggestion{
				Type: "batch_size", Priority: PriorityMedium, Table: p.Table,
				Message:        "optimal batch size differs from requested record count",
				Recommendation: fmt.Sprintf("use batch size %d", p.OptimalBatchSize),
			})
		}
		if p.ForeignKeyOverhead > 0 && ctx.RecordCount > 100 {
			out = append(out, Suggestion{
				Type: "foreign_key_overhead", Priority: PriorityHigh, Table: p.Table,
				Message: "bulk insert into a table with foreign keys may be slow at this volume",
			})
		}
		out = append(out, Suggestion{
			Type: "text_compression", Priority: PriorityLow, Table: p.Table,
			Message: "consider compressing large text columns before a bulk load",
		})
		if len(p.IndexedColumns) >= 5 && ctx.RecordCount >= 1000 {
			out = append(out, Suggestion{
				Type: "index_overhead", Priority: PriorityMedium, Table: p.Table,
				Message: "five or more indexed columns will slow this bulk insert",
			})
		}

	case OpSelect:
		if ctx.WhereColumn != "" && !p.IndexedColumns[ctx.WhereColumn] {
			out = append(out, Suggestion{
				Type: "missing_index", Priority: PriorityHigh, Table: p.Table,
				Message:        fmt.Sprintf("where column %q is not indexed", ctx.WhereColumn),
				Recommendation: "add an index on this column",
				SQL:            fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s (%s)", p.Table, ctx.WhereColumn, p.Table, ctx.WhereColumn),
			})
		}
		if ctx.OrderByColumn != "" && !p.IndexedColumns[ctx.OrderByColumn] {
			out = append(out, Suggestion{
				Type: "missing_index", Priority: PriorityMedium, Table: p.Table,
				Message: fmt.Sprintf("order by column %q is not indexed", ctx.OrderByColumn),
			})
		}
		if ctx.Limit > 1000 {
			out = append(out, Suggestion{
				Type: "large_limit", Priority: PriorityLow, Table: p.Table,
				Message: "requesting more than 1000 rows in one call",
			})
		}

	case OpUpdate:
		if ctx.WhereColumn != "" && !p.IndexedColumns[ctx.WhereColumn] {
			out = append(out, Suggestion{
				Type: "missing_index", Priority: PriorityHigh, Table: p.Table,
				Message: fmt.Sprintf("where column %q is not indexed", ctx.WhereColumn),
			})
		}
		indexedUpdated := 0
		for _, c := range ctx.UpdatedColumns {
			if p.IndexedColumns[c] {
				indexedUpdated++
			}
		}
		if indexedUpdated > 3 {
			out = append(out, Suggestion{
				Type: "index_maintenance", Priority: PriorityHigh, Table: p.Table,
				Message: "updating more than three indexed columns in one statement",
			})
		} else {
			out = append(out, Suggestion{
				Type: "index_maintenance", Priority: PriorityLow, Table: p.Table,
				Message: "index maintenance cost for this update is low",
			})
		}
		if ctx.RecordCount > 100 {
			out = append(out, Suggestion{
				Type: "bulk_strategy", Priority: PriorityMedium, Table: p.Table,
				Message: "consider a bulk update strategy for this volume",
			})
		}

	case OpDelete:
		if !ctx.HasWhere {
			out = append(out, Suggestion{
				Type: "unbounded_delete", Priority: PriorityCritical, Table: p.Table,
				Message:        "delete has no WHERE clause",
				Recommendation: "use TRUNCATE if the intent is to clear the whole table",
			})
		}
		if ctx.WhereColumn != "" && !p.IndexedColumns[ctx.WhereColumn] {
			out = append(out, Suggestion{
				Type: "missing_index", Priority: PriorityHigh, Table: p.Table,
				Message: fmt.Sprintf("where column %q is not indexed", ctx.WhereColumn),
			})
		}
		if ctx.RecordCount > 1000 {
			out = append(out, Suggestion{
				Type: "chunked_delete", Priority: PriorityMedium, Table: p.Table,
				Message: "consider deleting in chunks at this volume",
			})
		}
	}

	return out
}

// Prediction is a heuristic cost estimate returned by Predict.
type Prediction struct {
	EstimatedSeconds float64
	EstimatedMemory  int64
}

// Predict computes a heuristic time/memory estimate for operation against
// p, given recordCount rows and ctx.
func Predict(p *Profile, operation Operation, recordCount int, ctx Context) Prediction {
	switch operation {
	case OpBulkInsert:
		seconds := 0.0001 * float64(recordCount) * (1 + float64(p.InsertComplexity)/10) *
			(1 + 0.2*float64(len(p.IndexedColumns)) + 0.1*float64(p.ForeignKeyOverhead))
		memory := int64(3 * recordCount * p.EstimatedRowSize)
		return Prediction{EstimatedSeconds: seconds, EstimatedMemory: memory}

	case OpSelect:
		var seconds float64
		if ctx.WhereColumn != "" && p.IndexedColumns[ctx.WhereColumn] {
			seconds = 0.001
		} else {
			seconds = 0.00001 * float64(max(recordCount, 1))
		}
		limit := ctx.Limit
		if limit <= 0 {
			limit = recordCount
		}
		memory := int64(limit * p.EstimatedRowSize)
		return Prediction{EstimatedSeconds: seconds, EstimatedMemory: memory}

	default:
		return Prediction{}
	}
}

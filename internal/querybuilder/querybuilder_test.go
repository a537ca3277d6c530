package querybuilder

import (
	"testing"

	"relquery/internal/dialectkind"
	"relquery/internal/sqlexpr"

	"github.com/stretchr/testify/assert"
)

func TestBuildSimpleSelectByID(t *testing.T) {
	b := New()
	sql, err := b.Build(OpSimpleSelect, Params{Table: "users", ID: "1"}, dialectkind.MySQL)
	assert.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `users` WHERE id=:id", sql)
}

func TestBuildSimpleSelectWithWhereColumn(t *testing.T) {
	b := New()
	sql, err := b.Build(OpSimpleSelect, Params{Table: "users", WhereColumn: "age", WhereOperator: ">"}, dialectkind.PostgreSQL)
	assert.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" WHERE "age" > :value`, sql)
}

func TestBuildSimpleSelectRejectsBadOperator(t *testing.T) {
	b := New()
	_, err := b.Build(OpSimpleSelect, Params{Table: "users", WhereColumn: "age", WhereOperator: "; DROP"}, dialectkind.MySQL)
	assert.Error(t, err)
}

func TestBuildSimpleSelectWithOrderByAndLimit(t *testing.T) {
	b := New()
	sql, err := b.Build(OpSimpleSelect, Params{
		Table: "users", OrderBy: "name desc", HasLimit: true, Limit: 10, Offset: 20,
	}, dialectkind.MySQL)
	assert.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `users` ORDER BY `name` DESC LIMIT 20, 10", sql)
}

func TestBuildSimpleSelectLimitPostgres(t *testing.T) {
	b := New()
	sql, err := b.Build(OpSimpleSelect, Params{Table: "users", HasLimit: true, Limit: 10, Offset: 20}, dialectkind.PostgreSQL)
	assert.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" LIMIT 10 OFFSET 20`, sql)
}

func TestBuildSimpleInsert(t *testing.T) {
	b := New()
	sql, err := b.Build(OpSimpleInsert, Params{Table: "users", InsertColumns: []string{"name", "age"}}, dialectkind.MySQL)
	assert.NoError(t, err)
	assert.Equal(t, "INSERT INTO `users` (`name`,`age`) VALUES (:name,:age)", sql)
}

func TestBuildInsertWithExpressions(t *testing.T) {
	b := New()
	sql, err := b.Build(OpInsertWithExpressions, Params{
		Table:         "users",
		InsertColumns: []string{"name"},
		ExprColumns:   []ExprColumn{{Column: "created_at", Expression: "CURRENT_TIMESTAMP", Context: sqlexpr.ContextInsertValue}},
	}, dialectkind.MySQL)
	assert.NoError(t, err)
	assert.Equal(t, "INSERT INTO `users` (`name`,`created_at`) VALUES (:name,NOW())", sql)
}

func TestBuildSimpleUpdate(t *testing.T) {
	b := New()
	sql, err := b.Build(OpSimpleUpdate, Params{Table: "users", InsertColumns: []string{"name"}}, dialectkind.MySQL)
	assert.NoError(t, err)
	assert.Equal(t, "UPDATE `users` SET `name`=:name WHERE id=:update_id", sql)
}

func TestBuildUpdateWhereWithExpressions(t *testing.T) {
	b := New()
	sql, err := b.Build(OpUpdateWhereWithExprs, Params{
		Table:       "users",
		ExprColumns: []ExprColumn{{Column: "quantity", Expression: "quantity + 1", Context: sqlexpr.ContextUpdateSet}},
		WhereValue:  "sku",
	}, dialectkind.MySQL)
	assert.NoError(t, err)
	assert.Equal(t, "UPDATE `users` SET `quantity` = quantity + 1 WHERE `sku` = :where_value", sql)
}

func TestBuildUpdateWithExpressionsMatchesPostgresScenario(t *testing.T) {
	b := New()
	sql, err := b.Build(OpUpdateWithExpressions, Params{
		Table:         "accounts",
		InsertColumns: []string{"name"},
		ExprColumns: []ExprColumn{
			{Column: "updated_at", Expression: "CURRENT_TIMESTAMP", Context: sqlexpr.ContextUpdateSet},
			{Column: "balance", Expression: "balance + 10", Context: sqlexpr.ContextUpdateSet},
		},
	}, dialectkind.PostgreSQL)
	assert.NoError(t, err)
	assert.Equal(t, `UPDATE "accounts" SET "name" = :name, "updated_at" = CURRENT_TIMESTAMP, "balance" = balance + 10 WHERE "id" = :update_id`, sql)
}

func TestBuildSimpleDelete(t *testing.T) {
	b := New()
	sql, err := b.Build(OpSimpleDelete, Params{Table: "users"}, dialectkind.SQLite)
	assert.NoError(t, err)
	assert.Equal(t, "DELETE FROM `users` WHERE id=:id", sql)
}

func TestBuildBulkInsert(t *testing.T) {
	b := New()
	sql, err := b.Build(OpBulkInsert, Params{Table: "users", InsertColumns: []string{"name", "age"}, RowCount: 3}, dialectkind.MySQL)
	assert.NoError(t, err)
	assert.Equal(t, "INSERT INTO `users` (`name`,`age`) VALUES (?,?),(?,?),(?,?)", sql)
}

func TestBuildCountQuery(t *testing.T) {
	b := New()
	sql, err := b.Build(OpCountQuery, Params{Table: "users", WhereColumn: "active"}, dialectkind.MySQL)
	assert.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM `users` WHERE `active` = :value", sql)
}

func TestBuildCachesAndReportsHitsMisses(t *testing.T) {
	b := New()
	params := Params{Table: "users", ID: "1"}

	_, err := b.Build(OpSimpleSelect, params, dialectkind.MySQL)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), b.Hits())
	assert.Equal(t, int64(1), b.Misses())

	_, err = b.Build(OpSimpleSelect, params, dialectkind.MySQL)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), b.Hits())
	assert.Equal(t, int64(1), b.Misses())
}

func TestConnectionOptimizations(t *testing.T) {
	assert.Contains(t, ConnectionOptimizations(dialectkind.SQLite), "PRAGMA foreign_keys=ON")
	assert.Contains(t, ConnectionOptimizations(dialectkind.PostgreSQL), "SET lock_timeout=5000")
	assert.Len(t, ConnectionOptimizations(dialectkind.MySQL), 1)
}

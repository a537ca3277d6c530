package firewall

import (
	"testing"

	"relquery/internal/dialectkind"

	"github.com/stretchr/testify/assert"
)

func TestValidateRejectsEmpty(t *testing.T) {
	err := Validate("", KindTable)
	assert.Error(t, err)
}

func TestValidateRejectsTooLong(t *testing.T) {
	name := ""
	for i := 0; i < 65; i++ {
		name += "a"
	}
	err := Validate(name, KindColumn)
	assert.Error(t, err)
}

func TestValidateRejectsMalformed(t *testing.T) {
	assert.Error(t, Validate("1users", KindTable))
	assert.Error(t, Validate("user name", KindTable))
	assert.Error(t, Validate("users;drop", KindTable))
}

func TestValidateRejectsReservedWord(t *testing.T) {
	err := Validate("select", KindColumn)
	assert.Error(t, err)
	err = Validate("SELECT", KindColumn)
	assert.Error(t, err)
}

func TestValidateAcceptsNormalIdentifiers(t *testing.T) {
	assert.NoError(t, Validate("users", KindTable))
	assert.NoError(t, Validate("user_id", KindColumn))
	assert.NoError(t, Validate("created_at", KindColumn))
}

func TestEscapeMySQLDoublesBackticks(t *testing.T) {
	assert.Equal(t, "`users`", Escape("users", dialectkind.MySQL))
	assert.Equal(t, "`weird``name`", Escape("weird`name", dialectkind.MySQL))
}

func TestEscapeSQLiteDoublesBackticks(t *testing.T) {
	assert.Equal(t, "`users`", Escape("users", dialectkind.SQLite))
}

func TestEscapePostgreSQLDoublesQuotes(t *testing.T) {
	assert.Equal(t, `"users"`, Escape("users", dialectkind.PostgreSQL))
	assert.Equal(t, `"weird""name"`, Escape(`weird"name`, dialectkind.PostgreSQL))
}

func TestValidateAndEscapeCachesAcrossDialects(t *testing.T) {
	fw := New()

	esc, err := fw.ValidateAndEscape("users", dialectkind.MySQL, KindTable)
	assert.NoError(t, err)
	assert.Equal(t, "`users`", esc)

	esc, err = fw.ValidateAndEscape("users", dialectkind.PostgreSQL, KindTable)
	assert.NoError(t, err)
	assert.Equal(t, `"users"`, esc)

	// Second call for the same dialect hits the cache and returns the same value.
	esc, err = fw.ValidateAndEscape("users", dialectkind.MySQL, KindTable)
	assert.NoError(t, err)
	assert.Equal(t, "`users`", esc)
}

func TestValidateAndEscapeCachesInvalid(t *testing.T) {
	fw := New()

	_, err := fw.ValidateAndEscape("drop", dialectkind.MySQL, KindTable)
	assert.Error(t, err)

	_, err = fw.ValidateAndEscape("drop", dialectkind.MySQL, KindTable)
	assert.Error(t, err)
}

func TestValidateAndEscapeBulk(t *testing.T) {
	fw := New()

	out, err := fw.ValidateAndEscapeBulk([]string{"id", "name", "created_at"}, dialectkind.MySQL, KindColumn)
	assert.NoError(t, err)
	assert.Equal(t, []string{"`id`", "`name`", "`created_at`"}, out)

	_, err = fw.ValidateAndEscapeBulk([]string{"id", "select"}, dialectkind.MySQL, KindColumn)
	assert.Error(t, err)
}

func TestValidateOrderByDefaultsToAsc(t *testing.T) {
	fw := New()

	out, err := fw.ValidateOrderBy("name", dialectkind.MySQL)
	assert.NoError(t, err)
	assert.Equal(t, "`name` ASC", out)
}

func TestValidateOrderByParsesDirections(t *testing.T) {
	fw := New()

	out, err := fw.ValidateOrderBy("name desc, id asc", dialectkind.PostgreSQL)
	assert.NoError(t, err)
	assert.Equal(t, `"name" DESC, "id" ASC`, out)
}

func TestValidateOrderByRejectsBadDirection(t *testing.T) {
	fw := New()

	_, err := fw.ValidateOrderBy("name sideways", dialectkind.MySQL)
	assert.Error(t, err)
}

func TestValidateOrderByRejectsEmpty(t *testing.T) {
	fw := New()

	_, err := fw.ValidateOrderBy("   ", dialectkind.MySQL)
	assert.Error(t, err)
}

func TestValidateOrderByRejectsInvalidColumn(t *testing.T) {
	fw := New()

	_, err := fw.ValidateOrderBy("drop desc", dialectkind.MySQL)
	assert.Error(t, err)
}

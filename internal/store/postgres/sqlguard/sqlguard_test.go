package sqlguard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_AllowsAllowlistedTableAndNormalizes(t *testing.T) {
	out, err := Validate("select   id, name from entities where source_config_id = 'a'", []string{"a"})
	assert.NoError(t, err)
	assert.True(t, strings.Contains(out, "entities"))
}

func TestValidate_RejectsTableNotInAllowlist(t *testing.T) {
	_, err := Validate("select * from pg_shadow", []string{"a"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not in the debug-query allowlist")
}

func TestValidate_RejectsJoin(t *testing.T) {
	_, err := Validate("select * from entities e join events ev on ev.id = e.id", []string{"a"})
	assert.Error(t, err)
}

func TestValidate_RejectsMultipleStatements(t *testing.T) {
	_, err := Validate("select * from entities; select * from events", []string{"a"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one statement")
}

func TestValidate_RejectsNonSelect(t *testing.T) {
	_, err := Validate("delete from entities where id = '1'", []string{"a"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "only SELECT")
}

func TestValidate_RejectsCTE(t *testing.T) {
	_, err := Validate("with x as (select * from entities) select * from x", []string{"a"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "CTE")
}

func TestValidate_RejectsSubqueryInFrom(t *testing.T) {
	_, err := Validate("select * from (select * from entities) sub", []string{"a"})
	assert.Error(t, err)
}

func TestValidate_RejectsEmptySourceConfigIDs(t *testing.T) {
	_, err := Validate("select * from entities", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "source_config_ids is required")
}

func TestValidate_RejectsOversizedInput(t *testing.T) {
	huge := "select * from entities where name = '" + strings.Repeat("x", 5000) + "'"
	_, err := Validate(huge, []string{"a"})
	assert.Error(t, err)
}

func TestValidate_RejectsNullByte(t *testing.T) {
	_, err := Validate("select * from entities\x00", []string{"a"})
	assert.Error(t, err)
}

func TestValidate_RejectsEmptyQuery(t *testing.T) {
	_, err := Validate("", []string{"a"})
	assert.Error(t, err)
}

func TestValidate_RejectsMissingFromClause(t *testing.T) {
	_, err := Validate("select 1", []string{"a"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "FROM table")
}

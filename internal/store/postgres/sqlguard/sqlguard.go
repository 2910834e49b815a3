// Package sqlguard validates an operator-supplied raw SQL debug query
// before it reaches gorm, using PostgreSQL's own parser rather than a
// regex blocklist. Adapted from the teacher's
// internal/agent/tools/database_query.go SQLSecurityValidator: that tool
// let an LLM agent query the teacher's tenant tables on the user's behalf;
// here there is no LLM agent and no tenant column, only an operator
// debugging the search core's own read replica, so the allowlist is this
// service's tables and the caller must supply source_config_ids, which is
// checked for presence but not injected the way the teacher injects
// tenant_id.
package sqlguard

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// allowedTables is the read-only surface operators may query for
// debugging (spec §3.1's persistent records).
var allowedTables = map[string]bool{
	"entities":           true,
	"entity_types":       true,
	"events":             true,
	"entity_event_links": true,
	"article_sections":   true,
}

// Validate parses sql with PostgreSQL's own grammar, rejects anything but
// a single read-only SELECT against an allowlisted table, and returns the
// normalized (comment-stripped, whitespace-canonicalized) query. Only the
// top-level FROM clause is checked: CTEs, joins and subqueries in FROM are
// rejected, while subqueries in the target list or WHERE clause are not
// inspected. sourceConfigIDs is required but not injected into the query the
// way the teacher's tenant_id injection does for its richer multi-join
// schema; today it only gates that a caller scope was actually supplied.
func Validate(sql string, sourceConfigIDs []string) (string, error) {
	if strings.Contains(sql, "\x00") {
		return "", fmt.Errorf("invalid character in SQL query")
	}
	if len(sql) == 0 || len(sql) > 4096 {
		return "", fmt.Errorf("SQL query length out of bounds")
	}
	if len(sourceConfigIDs) == 0 {
		return "", fmt.Errorf("source_config_ids is required to scope a debug query")
	}

	result, err := pg_query.Parse(sql)
	if err != nil {
		return "", fmt.Errorf("SQL parse error: %w", err)
	}
	if len(result.Stmts) != 1 {
		return "", fmt.Errorf("exactly one statement is required")
	}

	selectStmt := result.Stmts[0].Stmt.GetSelectStmt()
	if selectStmt == nil {
		return "", fmt.Errorf("only SELECT queries are allowed")
	}
	if selectStmt.WithClause != nil {
		return "", fmt.Errorf("CTEs are not allowed")
	}
	if err := validateFromClause(selectStmt); err != nil {
		return "", err
	}

	normalized, err := pg_query.Deparse(result)
	if err != nil {
		return "", fmt.Errorf("failed to normalize SQL: %w", err)
	}
	return normalized, nil
}

func validateFromClause(stmt *pg_query.SelectStmt) error {
	if len(stmt.FromClause) == 0 {
		return fmt.Errorf("query must reference a FROM table")
	}
	for _, node := range stmt.FromClause {
		rv := node.GetRangeVar()
		if rv == nil {
			return fmt.Errorf("only direct table references are allowed in FROM, no subqueries or joins to unknown shapes")
		}
		if !allowedTables[rv.Relname] {
			return fmt.Errorf("table %q is not in the debug-query allowlist", rv.Relname)
		}
	}
	return nil
}

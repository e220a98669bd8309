package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// AnalyticsRepo executes LLM-generated SQL against the fixed reporting tables.
// Statements are read-only by contract; anything that is not a single SELECT
// is rejected before it reaches the database.
type AnalyticsRepo struct {
	db      *sqlx.DB
	rowCap  int
	allowed []string
}

func NewAnalyticsRepo(db *sqlx.DB) *AnalyticsRepo {
	return &AnalyticsRepo{
		db:      db,
		rowCap:  200,
		allowed: []string{"tickets", "energy_usage", "meter_readings"},
	}
}

type AnalyticsResult struct {
	Columns []string
	Rows    []map[string]interface{}
}

func (r *AnalyticsRepo) Execute(ctx context.Context, sqlStr string) (*AnalyticsResult, error) {
	if err := r.validate(sqlStr); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryxContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	result := &AnalyticsResult{Columns: cols}
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		result.Rows = append(result.Rows, row)
		if len(result.Rows) >= r.rowCap {
			break
		}
	}
	return result, rows.Err()
}

func (r *AnalyticsRepo) validate(sqlStr string) error {
	trimmed := strings.TrimSpace(sqlStr)
	if trimmed == "" {
		return fmt.Errorf("empty sql statement")
	}
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "select") && !strings.HasPrefix(lower, "with") {
		return fmt.Errorf("only SELECT statements are allowed")
	}
	// Any ';' is rejected, even inside a string literal. A query needing a
	// literal semicolon is out of luck; the check stays context-free.
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("multiple statements are not allowed")
	}
	for _, kw := range []string{"insert", "update", "delete", "drop", "alter", "truncate", "create", "grant"} {
		if containsWord(lower, kw) {
			return fmt.Errorf("statement contains forbidden keyword: %s", kw)
		}
	}
	found := false
	for _, table := range r.allowed {
		if containsWord(lower, table) {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("statement references no known table")
	}
	return nil
}

func containsWord(s, word string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], word)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordChar(s[i-1])
		afterIdx := i + len(word)
		after := afterIdx >= len(s) || !isWordChar(s[afterIdx])
		if before && after {
			return true
		}
		idx = i + len(word)
	}
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

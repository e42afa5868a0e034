package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeColumns(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected []OutputColumn
	}{
		{
			name: "simple columns",
			sql:  "SELECT id, name, email FROM users",
			expected: []OutputColumn{
				{Name: "id", Expr: "id"},
				{Name: "name", Expr: "name"},
				{Name: "email", Expr: "email"},
			},
		},
		{
			name: "columns with AS aliases",
			sql:  "SELECT id, name AS customer_name, email AS contact_email FROM users",
			expected: []OutputColumn{
				{Name: "id", Expr: "id"},
				{Name: "customer_name", Expr: "name AS customer_name"},
				{Name: "contact_email", Expr: "email AS contact_email"},
			},
		},
		{
			name: "aggregate functions with aliases",
			sql:  "SELECT COUNT(*) AS total, SUM(amount) AS revenue FROM orders",
			expected: []OutputColumn{
				{Name: "total", Expr: "COUNT(*) AS total"},
				{Name: "revenue", Expr: "SUM(amount) AS revenue"},
			},
		},
		{
			name: "table-qualified columns",
			sql:  "SELECT u.id, u.name, o.total FROM users u JOIN orders o ON u.id = o.user_id",
			expected: []OutputColumn{
				{Name: "id", Expr: "u.id"},
				{Name: "name", Expr: "u.name"},
				{Name: "total", Expr: "o.total"},
			},
		},
		{
			name: "function without alias is named after the function",
			sql:  "SELECT COUNT(*), SUM(amount) FROM orders",
			expected: []OutputColumn{
				{Name: "count", Expr: "COUNT(*)"},
				{Name: "sum", Expr: "SUM(amount)"},
			},
		},
		{
			name: "implicit alias",
			sql:  "SELECT COUNT(*) total, SUM(amount) revenue FROM orders",
			expected: []OutputColumn{
				{Name: "total", Expr: "COUNT(*) total"},
				{Name: "revenue", Expr: "SUM(amount) revenue"},
			},
		},
		{
			name: "nested function keeps the outer name",
			sql:  "SELECT COALESCE(SUM(amount), 0) AS total_revenue FROM orders",
			expected: []OutputColumn{
				{Name: "total_revenue", Expr: "COALESCE(SUM(amount), 0) AS total_revenue"},
			},
		},
		{
			name: "unaliased nested function",
			sql:  "SELECT COALESCE(SUM(amount), 0) FROM orders",
			expected: []OutputColumn{
				{Name: "coalesce", Expr: "COALESCE(SUM(amount), 0)"},
			},
		},
		{
			name: "wildcard",
			sql:  "SELECT * FROM users",
			expected: []OutputColumn{
				{Name: "*", Expr: "*"},
			},
		},
		{
			name: "qualified wildcard alongside a column",
			sql:  "SELECT u.*, o.total FROM users u JOIN orders o ON u.id = o.user_id",
			expected: []OutputColumn{
				{Name: "u.*", Expr: "u.*"},
				{Name: "total", Expr: "o.total"},
			},
		},
		{
			name: "expression column is named by its text",
			sql:  "SELECT price * qty FROM line_items",
			expected: []OutputColumn{
				{Name: "price * qty", Expr: "price * qty"},
			},
		},
		{
			name: "parenthesized column unwraps to the column name",
			sql:  "SELECT (price) FROM line_items",
			expected: []OutputColumn{
				{Name: "price", Expr: "(price)"},
			},
		},
		{
			name: "case expression is named by its text",
			sql:  "SELECT CASE WHEN status = 1 THEN 'active' ELSE 'inactive' END FROM users",
			expected: []OutputColumn{
				{Name: "CASE WHEN status = 1 THEN 'active' ELSE 'inactive' END", Expr: "CASE WHEN status = 1 THEN 'active' ELSE 'inactive' END"},
			},
		},
		{
			name: "literal column",
			sql:  "SELECT 1, 'flag' AS label FROM users",
			expected: []OutputColumn{
				{Name: "1", Expr: "1"},
				{Name: "label", Expr: "'flag' AS label"},
			},
		},
		{
			name: "backquoted column keeps its unquoted name",
			sql:  "SELECT `name` FROM users",
			expected: []OutputColumn{
				{Name: "name", Expr: "`name`"},
			},
		},
		{
			name: "marker as a select item is named by its variable",
			sql:  "SELECT ${metric} FROM daily_stats",
			expected: []OutputColumn{
				{Name: "metric", Expr: "${metric}"},
			},
		},
		{
			name: "aliased marker",
			sql:  "SELECT ${metric} AS value FROM daily_stats",
			expected: []OutputColumn{
				{Name: "value", Expr: "${metric} AS value"},
			},
		},
		{
			name: "marker in WHERE does not affect columns",
			sql:  "SELECT id, region FROM t WHERE region IN (${region})",
			expected: []OutputColumn{
				{Name: "id", Expr: "id"},
				{Name: "region", Expr: "region"},
			},
		},
		{
			name: "DISTINCT is skipped",
			sql:  "SELECT DISTINCT region FROM t",
			expected: []OutputColumn{
				{Name: "region", Expr: "region"},
			},
		},
		{
			name: "window function with alias",
			sql:  "SELECT ROW_NUMBER() OVER (ORDER BY id) AS rn FROM users",
			expected: []OutputColumn{
				{Name: "rn", Expr: "ROW_NUMBER() OVER (ORDER BY id) AS rn"},
			},
		},
		{
			name: "with WHERE clause",
			sql:  "SELECT id, name FROM users WHERE status = 'active'",
			expected: []OutputColumn{
				{Name: "id", Expr: "id"},
				{Name: "name", Expr: "name"},
			},
		},
		{
			name: "with GROUP BY",
			sql:  "SELECT customer_id, COUNT(*) AS orders FROM orders GROUP BY customer_id",
			expected: []OutputColumn{
				{Name: "customer_id", Expr: "customer_id"},
				{Name: "orders", Expr: "COUNT(*) AS orders"},
			},
		},
		{
			name: "lowercase as keyword",
			sql:  "SELECT name as customer_name FROM users",
			expected: []OutputColumn{
				{Name: "customer_name", Expr: "name as customer_name"},
			},
		},
		{
			name: "mixed case keeps author spelling",
			sql:  "SeLeCt id, NaMe FROM users",
			expected: []OutputColumn{
				{Name: "id", Expr: "id"},
				{Name: "NaMe", Expr: "NaMe"},
			},
		},
		{
			name:     "not a SELECT",
			sql:      "INSERT INTO users (name) VALUES ('test')",
			expected: nil,
		},
		{
			name:     "set operation describes nothing",
			sql:      "SELECT a FROM t UNION SELECT b FROM u",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DescribeColumns(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDescribeColumns_Errors(t *testing.T) {
	_, err := DescribeColumns("")
	assert.ErrorIs(t, err, ErrEmptyTemplate)

	_, err = DescribeColumns("SELECT FROM WHERE")
	var se *SyntaxError
	assert.ErrorAs(t, err, &se)

	_, err = DescribeColumns("SELECT 1; SELECT 2")
	assert.ErrorIs(t, err, ErrMultipleStatements)
}

func TestSelectFieldSpans(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected []string
	}{
		{
			name:     "simple columns",
			sql:      "SELECT id, name, email FROM users",
			expected: []string{"id", "name", "email"},
		},
		{
			name:     "function with comma inside",
			sql:      "SELECT id, COALESCE(name, 'Unknown'), email FROM users",
			expected: []string{"id", "COALESCE(name, 'Unknown')", "email"},
		},
		{
			name:     "nested functions",
			sql:      "SELECT ROUND(AVG(amount), 2), COUNT(*) FROM orders",
			expected: []string{"ROUND(AVG(amount), 2)", "COUNT(*)"},
		},
		{
			name:     "single column no FROM",
			sql:      "SELECT id",
			expected: []string{"id"},
		},
		{
			name:     "comment between items is excluded from spans",
			sql:      "SELECT id /* pk */, name FROM users",
			expected: []string{"id", "name"},
		},
		{
			name:     "subquery item",
			sql:      "SELECT (SELECT MAX(v) FROM s), id FROM t",
			expected: []string{"(SELECT MAX(v) FROM s)", "id"},
		},
		{
			name:     "trailing semicolon",
			sql:      "SELECT id, name;",
			expected: []string{"id", "name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			san, err := sanitizeMarkers(tt.sql, defaultSyntax.scan(tt.sql))
			require.NoError(t, err)

			var got []string
			for _, sp := range selectFieldSpans(san) {
				got = append(got, san.orig[sp.start:sp.end])
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

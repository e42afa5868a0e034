//go:build mssql || all_adapters

package mssql

import "testing"

func TestQuoteName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple identifier",
			input:    "orders",
			expected: "[orders]",
		},
		{
			name:     "closing bracket escaped",
			input:    "odd]name",
			expected: "[odd]]name]",
		},
		{
			name:     "injection attempt stays quoted",
			input:    "x]; DROP TABLE orders; --",
			expected: "[x]]; DROP TABLE orders; --]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quoteName(tt.input); got != tt.expected {
				t.Errorf("quoteName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTrimStatement(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trailing semicolon and whitespace",
			input:    "SELECT 1;\r\n",
			expected: "SELECT 1",
		},
		{
			name:     "no trailing characters",
			input:    "SELECT 1",
			expected: "SELECT 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trimStatement(tt.input); got != tt.expected {
				t.Errorf("trimStatement(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestStatementReturnsRows(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{
			name:     "plain select",
			input:    "SELECT * FROM orders",
			expected: true,
		},
		{
			name:     "lowercase select with leading whitespace",
			input:    "  select 1",
			expected: true,
		},
		{
			name:     "cte",
			input:    "WITH recent AS (SELECT 1 AS n) SELECT * FROM recent",
			expected: true,
		},
		{
			name:     "insert without output",
			input:    "INSERT INTO orders (id) VALUES (1)",
			expected: false,
		},
		{
			name:     "insert with output clause",
			input:    "INSERT INTO orders (id) OUTPUT INSERTED.id VALUES (1)",
			expected: true,
		},
		{
			name:     "delete with output clause",
			input:    "DELETE FROM orders OUTPUT DELETED.id WHERE id = 1",
			expected: true,
		},
		{
			name:     "output inside string literal does not count",
			input:    "UPDATE notes SET body = 'see output tab' WHERE id = 1",
			expected: false,
		},
		{
			name:     "update without output",
			input:    "UPDATE orders SET status = 'shipped' WHERE id = 1",
			expected: false,
		},
		{
			name:     "create table",
			input:    "CREATE TABLE t (id INT)",
			expected: false,
		},
		{
			name:     "column named output_dir still counts",
			input:    "UPDATE jobs SET output = 'x'",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statementReturnsRows(tt.input); got != tt.expected {
				t.Errorf("statementReturnsRows(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestStripStringLiterals(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no literals",
			input:    "SELECT id FROM orders",
			expected: "SELECT id FROM orders",
		},
		{
			name:     "literal contents removed",
			input:    "SELECT 'secret' AS s",
			expected: "SELECT '' AS s",
		},
		{
			name:     "escaped quote stays inside literal",
			input:    "SELECT 'it''s' AS s",
			expected: "SELECT '' AS s",
		},
		{
			name:     "unterminated literal swallows the rest",
			input:    "SELECT 'oops",
			expected: "SELECT '",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripStringLiterals(tt.input); got != tt.expected {
				t.Errorf("stripStringLiterals(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMapSQLServerType(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"INT", "INTEGER"},
		{"BIGINT", "BIGINT"},
		{"NVARCHAR", "VARCHAR"},
		{"nvarchar", "VARCHAR"},
		{"DECIMAL", "NUMERIC"},
		{"BIT", "BOOLEAN"},
		{"DATETIME2", "TIMESTAMP"},
		{"DATETIMEOFFSET", "TIMESTAMP WITH TIME ZONE"},
		{"UNIQUEIDENTIFIER", "UUID"},
		{"GEOGRAPHY", "GEOGRAPHY"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := mapSQLServerType(tt.input); got != tt.expected {
				t.Errorf("mapSQLServerType(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsStringType(t *testing.T) {
	stringTypes := []string{"CHAR", "NCHAR", "VARCHAR", "NVARCHAR", "TEXT", "NTEXT", "nvarchar"}
	for _, st := range stringTypes {
		if !isStringType(st) {
			t.Errorf("expected %q to be a string type", st)
		}
	}

	nonStringTypes := []string{"INT", "BIT", "DATETIME2", "VARBINARY", "UNIQUEIDENTIFIER"}
	for _, nt := range nonStringTypes {
		if isStringType(nt) {
			t.Errorf("expected %q not to be a string type", nt)
		}
	}
}

//go:build postgres || all_adapters

package postgres

import "testing"

func TestTrimStatement(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no trailing characters",
			input:    "SELECT 1",
			expected: "SELECT 1",
		},
		{
			name:     "trailing semicolon",
			input:    "SELECT 1;",
			expected: "SELECT 1",
		},
		{
			name:     "trailing semicolon and newline",
			input:    "SELECT 1;\n",
			expected: "SELECT 1",
		},
		{
			name:     "multiple trailing semicolons",
			input:    "SELECT 1;;  ",
			expected: "SELECT 1",
		},
		{
			name:     "semicolon inside string literal is kept",
			input:    "SELECT 'a;b'",
			expected: "SELECT 'a;b'",
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

func TestQuoteIdentifier(t *testing.T) {
	e := &QueryExecutor{}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple identifier",
			input:    "customers",
			expected: `"customers"`,
		},
		{
			name:     "mixed case preserved",
			input:    "OrderItems",
			expected: `"OrderItems"`,
		},
		{
			name:     "embedded double quote escaped",
			input:    `weird"name`,
			expected: `"weird""name"`,
		},
		{
			name:     "injection attempt stays quoted",
			input:    `x"; DROP TABLE customers; --`,
			expected: `"x""; DROP TABLE customers; --"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.QuoteIdentifier(tt.input); got != tt.expected {
				t.Errorf("QuoteIdentifier(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

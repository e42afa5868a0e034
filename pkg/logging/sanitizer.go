package logging

import (
	"regexp"
	"strings"
)

const (
	// MaxQueryLogLength is the maximum length of a query to log
	MaxQueryLogLength = 100
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match potential passwords in connection strings
	// Matches: password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Pattern to match potential API keys
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// Pattern to match connection string credentials (user:pass@host format)
	connStringPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)
)

// SanitizeConnectionString removes sensitive data from connection strings.
// Use this before logging any DSN.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeError sanitizes error messages that might contain sensitive data.
// Use this before logging any error from database operations: driver errors
// often echo the DSN or the offending SQL back.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()

	sanitized := passwordPattern.ReplaceAllString(errStr, "${1}="+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeQuery truncates and sanitizes a SQL query for logging. Substituted
// SQL carries bound values as inline literals, so string literal contents
// are redacted before truncation: bindings routinely hold names, emails, and
// other values that must not reach the logs.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}

	sanitized := RedactStringLiterals(query)

	if len(sanitized) > MaxQueryLogLength {
		sanitized = sanitized[:MaxQueryLogLength] + "..."
	}

	sanitized = passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)

	return sanitized
}

// RedactStringLiterals replaces the contents of every single-quoted SQL
// string literal with RedactedText, keeping the quotes. Doubled quotes
// inside a literal are treated as escapes.
func RedactStringLiterals(sqlText string) string {
	var b strings.Builder
	b.Grow(len(sqlText))

	i := 0
	for i < len(sqlText) {
		ch := sqlText[i]
		if ch != '\'' {
			b.WriteByte(ch)
			i++
			continue
		}

		// Find the end of the literal, skipping doubled quotes.
		j := i + 1
		for j < len(sqlText) {
			if sqlText[j] == '\'' {
				if j+1 < len(sqlText) && sqlText[j+1] == '\'' {
					j += 2
					continue
				}
				break
			}
			j++
		}

		b.WriteByte('\'')
		b.WriteString(RedactedText)
		if j < len(sqlText) {
			b.WriteByte('\'')
		}
		i = j + 1
	}

	return b.String()
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

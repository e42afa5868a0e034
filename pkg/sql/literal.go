package sql

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vantagebi/vantage-engine/pkg/models"
)

// renderValue renders one bound value as a SQL literal for the dialect.
// Non-string types are validated before rendering so a malformed value can
// never smuggle raw SQL into the output.
func renderValue(d Dialect, v *models.ScriptVariable, raw string) (string, error) {
	switch v.ValueType {
	case models.TypeString, "":
		return d.QuoteString(raw), nil

	case models.TypeNumeric:
		trimmed := strings.TrimSpace(raw)
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			return "", fmt.Errorf("variable %q: %w: %q is not numeric", v.Name, ErrInvalidValue, raw)
		}
		return trimmed, nil

	case models.TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(raw)))
		if err != nil {
			return "", fmt.Errorf("variable %q: %w: %q is not boolean", v.Name, ErrInvalidValue, raw)
		}
		return d.BooleanLiteral(b), nil

	case models.TypeDate:
		trimmed := strings.TrimSpace(raw)
		if _, err := time.Parse("2006-01-02", trimmed); err != nil {
			return "", fmt.Errorf("variable %q: %w: %q is not a date (want 2006-01-02)", v.Name, ErrInvalidValue, raw)
		}
		return d.DateLiteral(trimmed), nil

	case models.TypeTimestamp:
		trimmed := strings.TrimSpace(raw)
		if _, err := time.Parse("2006-01-02 15:04:05", trimmed); err != nil {
			return "", fmt.Errorf("variable %q: %w: %q is not a timestamp (want 2006-01-02 15:04:05)", v.Name, ErrInvalidValue, raw)
		}
		return d.TimestampLiteral(trimmed), nil
	}

	return "", fmt.Errorf("variable %q: %w: unknown value type %q", v.Name, ErrInvalidValue, v.ValueType)
}

// renderValueList renders all bound values joined by ", ".
func renderValueList(d Dialect, v *models.ScriptVariable) (string, error) {
	parts := make([]string, len(v.Values))
	for i, raw := range v.Values {
		lit, err := renderValue(d, v, raw)
		if err != nil {
			return "", err
		}
		parts[i] = lit
	}
	return strings.Join(parts, ", "), nil
}

// renderIdentifierList renders the values of an identifier variable as
// dialect-quoted identifiers joined by ", ". Dotted names quote each path
// segment separately.
func renderIdentifierList(d Dialect, v *models.ScriptVariable) string {
	parts := make([]string, len(v.Values))
	for i, raw := range v.Values {
		parts[i] = quoteIdentifierPath(d, strings.TrimSpace(raw))
	}
	return strings.Join(parts, ", ")
}

// renderFragmentList joins fragment values verbatim. No quoting or escaping
// is applied; fragment variables are a trusted-caller feature.
func renderFragmentList(v *models.ScriptVariable) string {
	return strings.Join(v.Values, ", ")
}

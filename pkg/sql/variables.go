package sql

import (
	"fmt"
	"strings"

	"github.com/vantagebi/vantage-engine/pkg/models"
)

// defaultSyntax is the ${name} marker syntax used by the package-level
// helpers. Engines built with WithMarkerDelimiters use their own syntax.
var defaultSyntax = func() *markerSyntax {
	s, err := newMarkerSyntax(DefaultMarkerPrefix, DefaultMarkerSuffix)
	if err != nil {
		panic(err)
	}
	return s
}()

// ExtractVariables finds all ${name} markers in SQL and returns a
// deduplicated list of variable names in order of first appearance. Markers
// inside string literals, comments, or quoted identifiers are inert and are
// not reported.
//
// Example:
//
//	sql := "SELECT * FROM orders WHERE customer_id = ${customer_id} AND total > ${min_total}"
//	names := ExtractVariables(sql)
//	// names == []string{"customer_id", "min_total"}
//
// If the same variable appears multiple times, it's only included once:
//
//	sql := "SELECT * FROM transactions WHERE sender_id = ${user_id} OR receiver_id = ${user_id}"
//	names := ExtractVariables(sql)
//	// names == []string{"user_id"}
func ExtractVariables(sqlText string) []string {
	return defaultSyntax.names(sqlText)
}

// ValidateVariableDefinitions checks that the markers in SQL and the
// declared variables match exactly.
//
// Returns an error if:
//   - A ${name} marker is referenced in SQL but not declared in defs
//   - A variable is declared but never referenced in SQL
//
// Example:
//
//	sql := "SELECT * FROM orders WHERE customer_id = ${customer_id} AND total > ${min_total}"
//	defs := []models.VariableDef{
//	    {Name: "customer_id", Kind: models.KindValue, ValueType: models.TypeString},
//	    // min_total is missing!
//	}
//	err := ValidateVariableDefinitions(sql, defs)
//	// err != nil: "variable ${min_total} referenced in SQL but not declared"
func ValidateVariableDefinitions(sqlText string, defs []models.VariableDef) error {
	referenced := ExtractVariables(sqlText)

	referencedSet := make(map[string]bool, len(referenced))
	for _, name := range referenced {
		referencedSet[name] = true
	}

	declaredSet := make(map[string]bool, len(defs))
	for _, d := range defs {
		declaredSet[d.Name] = true
	}

	for _, name := range referenced {
		if !declaredSet[name] {
			return fmt.Errorf("variable ${%s} referenced in SQL but not declared", name)
		}
	}

	for _, d := range defs {
		if !referencedSet[d.Name] {
			return fmt.Errorf("variable %q is declared but never referenced in SQL", d.Name)
		}
	}

	return nil
}

// FindMarkersInStringLiterals reports ${name} markers that sit inside string
// literals, comments, or quoted identifiers. Such markers are inert: the
// engine never substitutes them, so the literal text "${name}" survives into
// the executed SQL. That is occasionally intentional and usually an
// authoring mistake, which is why this is a separate lint rather than an
// error.
//
// Returns a deduplicated list of the affected variable names in order of
// first appearance.
//
// Example:
//
//	sql := "SELECT 'Hello ${name}' FROM users"
//	problems := FindMarkersInStringLiterals(sql)
//	// problems == []string{"name"}
//
//	sql := "SELECT * FROM users WHERE name = ${name}"
//	problems := FindMarkersInStringLiterals(sql)
//	// problems == nil (marker is in code position)
func FindMarkersInStringLiterals(sqlText string) []string {
	matches := defaultSyntax.re.FindAllStringSubmatchIndex(sqlText, -1)
	if len(matches) == 0 {
		return nil
	}

	mask := maskedSpans(sqlText)
	seen := make(map[string]bool)
	var problems []string
	mi := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		for mi < len(mask) && mask[mi].end <= start {
			mi++
		}
		if mi < len(mask) && mask[mi].start < end {
			name := sqlText[m[2]:m[3]]
			if !seen[name] {
				seen[name] = true
				problems = append(problems, name)
			}
		}
	}
	return problems
}

// ValidateTemplate checks that the template parses as a single SQL
// statement once its markers are replaced by stand-in identifiers. It is a
// storage-time check: it does not require bindings and does not produce
// output.
//
// Returns nil for valid templates, ErrEmptyTemplate, a *SyntaxError, or
// ErrMultipleStatements.
func ValidateTemplate(sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return ErrEmptyTemplate
	}

	san, err := sanitizeMarkers(sqlText, defaultSyntax.scan(sqlText))
	if err != nil {
		return err
	}
	_, err = parseStatement(san.text)
	return err
}

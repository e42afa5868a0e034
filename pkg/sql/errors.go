package sql

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrEmptyTemplate indicates the template was empty or whitespace-only.
	ErrEmptyTemplate = errors.New("empty SQL template")

	// ErrMultipleStatements indicates the template contains more than one
	// SQL statement. Substitution operates on single statements only.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")

	// ErrInvalidValue indicates a bound value does not match its variable's
	// declared value type (for example a non-numeric string bound to a
	// numeric variable). Substitution fails rather than emit the raw text.
	ErrInvalidValue = errors.New("value does not match variable type")

	// ErrUnknownDialect indicates a dialect name with no registered Dialect.
	ErrUnknownDialect = errors.New("unknown SQL dialect")
)

// SyntaxError reports that the template is not valid SQL. Substitution
// fails closed: no output is produced.
type SyntaxError struct {
	Line int    // 1-based, 0 if unknown
	Col  int    // 1-based, 0 if unknown
	Near string // source excerpt near the error, may be empty
	Err  error  // underlying parser error
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at line %d column %d near %q", e.Line, e.Col, e.Near)
	}
	return fmt.Sprintf("syntax error: %v", e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// parseErrLocation matches the location detail the parser embeds in its
// error text, e.g. `line 1 column 34 near "..."`.
var parseErrLocation = regexp.MustCompile(`line (\d+) column (\d+) near "((?s).*?)"`)

func newSyntaxError(err error) *SyntaxError {
	se := &SyntaxError{Err: err}
	if m := parseErrLocation.FindStringSubmatch(err.Error()); m != nil {
		fmt.Sscanf(m[1], "%d", &se.Line)
		fmt.Sscanf(m[2], "%d", &se.Col)
		se.Near = m[3]
		if len(se.Near) > 40 {
			se.Near = se.Near[:40]
		}
	}
	return se
}

// VariableNotFoundError reports a supplied variable that is never referenced
// by the template. It is returned only in strict mode; the default policy
// ignores unused variables.
type VariableNotFoundError struct {
	Name string
}

func (e *VariableNotFoundError) Error() string {
	return fmt.Sprintf("variable %q is not referenced in the template", e.Name)
}

// UnboundVariableError reports a marker whose name matches no supplied
// variable. Always fatal: leaving the marker in place would emit SQL that
// cannot execute.
type UnboundVariableError struct {
	Name string
}

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("no binding supplied for variable %q", e.Name)
}

// EmptyBindingError reports an empty binding in a position that requires at
// least one value. Only value variables inside comparison-like calls may be
// empty (they collapse to a null test); everything else fails closed.
type EmptyBindingError struct {
	Name     string
	Position string // short description of the marker's syntactic position
}

func (e *EmptyBindingError) Error() string {
	if e.Position != "" {
		return fmt.Sprintf("variable %q has no values but its position (%s) requires at least one", e.Name, e.Position)
	}
	return fmt.Sprintf("variable %q has no values but its position requires at least one", e.Name)
}

// OverlapError reports two replacements claiming overlapping spans of the
// original template. This is an internal invariant violation: it indicates a
// locator bug (or a template shape the locator cannot keep disjoint, such as
// two variables in one IN list) and is always fatal.
type OverlapError struct {
	StartA, EndA int
	StartB, EndB int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("replacement spans overlap: [%d,%d) and [%d,%d)", e.StartA, e.EndA, e.StartB, e.EndB)
}

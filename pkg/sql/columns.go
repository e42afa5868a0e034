package sql

import (
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"
)

// OutputColumn describes one column a SELECT template produces.
type OutputColumn struct {
	Name string // alias if present, else the column or function name, else the expression text
	Expr string // the select-list expression as written in the template, including any alias
}

// DescribeColumns parses the template and returns the columns its SELECT
// list produces, in order. Markers are allowed anywhere a column expression
// is; a marker used as a whole select-list item is reported under its
// variable name.
//
// Column names follow MySQL's header rules: an explicit or implicit alias
// wins, a plain column keeps its unqualified name, a function call is named
// after the function, and anything else is named by its expression text.
// Wildcard items are reported as "*" (or "t.*") since the columns they
// expand to depend on schema the template does not carry.
//
// Non-SELECT statements and set operations (UNION and friends) describe no
// columns; both return nil without error.
func DescribeColumns(template string) ([]OutputColumn, error) {
	if strings.TrimSpace(template) == "" {
		return nil, ErrEmptyTemplate
	}

	san, err := sanitizeMarkers(template, defaultSyntax.scan(template))
	if err != nil {
		return nil, err
	}
	stmt, err := parseStatement(san.text)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*ast.SelectStmt)
	if !ok || sel.Fields == nil {
		return nil, nil
	}

	spans := selectFieldSpans(san)
	cols := make([]OutputColumn, 0, len(sel.Fields.Fields))
	for i, f := range sel.Fields.Fields {
		var expr string
		if i < len(spans) {
			expr = san.orig[spans[i].start:spans[i].end]
		}
		cols = append(cols, OutputColumn{Name: fieldName(f, san, expr), Expr: expr})
	}
	return cols, nil
}

// fieldName derives the output name of one select-list item. exprText is the
// item's source text, used as the last-resort name the way MySQL titles
// unnamed expression columns.
func fieldName(f *ast.SelectField, san *sanitized, exprText string) string {
	if f.AsName.O != "" {
		return f.AsName.O
	}
	if f.WildCard != nil {
		var b strings.Builder
		if f.WildCard.Schema.O != "" {
			b.WriteString(f.WildCard.Schema.O)
			b.WriteByte('.')
		}
		if f.WildCard.Table.O != "" {
			b.WriteString(f.WildCard.Table.O)
			b.WriteByte('.')
		}
		b.WriteByte('*')
		return b.String()
	}

	expr := f.Expr
	for {
		p, ok := expr.(*ast.ParenthesesExpr)
		if !ok {
			break
		}
		expr = p.Expr
	}

	switch e := expr.(type) {
	case *ast.ColumnNameExpr:
		name := e.Name.Name.O
		if i, ok := san.markerIndex(name); ok {
			return san.markers[i].name
		}
		return name
	case *ast.FuncCallExpr:
		return e.FnName.L
	case *ast.AggregateFuncExpr:
		return strings.ToLower(e.F)
	}
	return exprText
}

// selectOptions are the modifiers that may follow the SELECT keyword before
// the first select-list item.
var selectOptions = map[string]bool{
	"ALL": true, "DISTINCT": true, "DISTINCTROW": true,
	"HIGH_PRIORITY": true, "STRAIGHT_JOIN": true,
	"SQL_SMALL_RESULT": true, "SQL_BIG_RESULT": true, "SQL_BUFFER_RESULT": true,
	"SQL_CACHE": true, "SQL_NO_CACHE": true, "SQL_CALC_FOUND_ROWS": true,
}

// clauseStarts are the keywords that terminate a select list when seen at
// paren depth zero.
var clauseStarts = map[string]bool{
	"FROM": true, "WHERE": true, "GROUP": true, "HAVING": true,
	"WINDOW": true, "ORDER": true, "LIMIT": true, "PROCEDURE": true,
	"INTO": true, "FOR": true, "LOCK": true,
	"UNION": true, "EXCEPT": true, "INTERSECT": true,
}

// selectFieldSpans splits the outermost SELECT list of the sanitized
// statement into one source span per comma-separated item. Spans index the
// original template text; sanitization preserves every offset.
func selectFieldSpans(san *sanitized) []span {
	toks := lexSQL(san.text)
	kept := toks[:0]
	for _, t := range toks {
		if t.kind != tokComment {
			kept = append(kept, t)
		}
	}
	toks = kept

	start := -1
	for i, t := range toks {
		if tokenIsWord(t, "SELECT") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}
	for start < len(toks) && !toks[start].quoted && toks[start].kind == tokIdent && selectOptions[strings.ToUpper(toks[start].text)] {
		start++
	}

	var spans []span
	depth := 0
	first := -1
	flush := func(last int) {
		if first >= 0 && last >= first {
			spans = append(spans, span{start: toks[first].start, end: toks[last].end})
		}
		first = -1
	}

	for i := start; i < len(toks); i++ {
		t := toks[i]
		if depth == 0 {
			if t.kind == tokOp && t.text == "," {
				flush(i - 1)
				continue
			}
			if t.kind == tokOp && t.text == ";" {
				flush(i - 1)
				return spans
			}
			if t.kind == tokIdent && !t.quoted && clauseStarts[strings.ToUpper(t.text)] {
				flush(i - 1)
				return spans
			}
		}
		if t.kind == tokOp {
			switch t.text {
			case "(":
				depth++
			case ")":
				depth--
				if depth < 0 {
					flush(i - 1)
					return spans
				}
			}
		}
		if first < 0 {
			first = i
		}
	}
	flush(len(toks) - 1)
	return spans
}

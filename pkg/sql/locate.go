package sql

import (
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/opcode"
)

// callShape classifies the grammatical position of a marker. Bare markers
// splice at the marker span; call shapes additionally know how to collapse
// the whole call into an IS NULL predicate when the binding is empty.
type callShape int

const (
	shapeBare callShape = iota
	shapeIn
	shapeCompare
	shapeLike
	shapeBetween
	shapeFunc
)

// occurrence is one located marker with everything the placeholder family
// needs to build a replacement. All spans index the original template text;
// sanitization preserves offsets, so spans computed on sanitized text apply
// directly. Occurrences are immutable once located and safe to cache.
//
// subject carries the original source text of the call's first operand (for
// comparisons, of the non-marker side): the target of the IS NULL collapse
// and of equality-to-IN promotion. Using source text rather than a re-render
// keeps the author's spelling intact in the output.
type occurrence struct {
	name    string
	loc     span // marker span, including delimiters
	shape   callShape
	callLoc span // enclosing call span; equals loc for bare markers
	negated bool // NOT IN, <>, !=, NOT LIKE, NOT BETWEEN

	subject       string
	firstIsMarker bool   // the marker itself is the call's first operand
	op            string // comparison operator, SQL spelling
	scalar        bool   // slot takes a single value, not a list
}

// compareOps maps the comparison opcodes eligible for claiming to their SQL
// spelling. opcode.Op.String() renders Go-style ("=="), so it is never used
// for output.
var compareOps = map[opcode.Op]string{
	opcode.EQ:     "=",
	opcode.NE:     "<>",
	opcode.LT:     "<",
	opcode.LE:     "<=",
	opcode.GT:     ">",
	opcode.GE:     ">=",
	opcode.NullEQ: "<=>",
}

// opSpellings lists the source spellings that parse to a given SQL operator,
// used to verify the token next to a claimed marker.
var opSpellings = map[string][]string{
	"<>": {"<>", "!="},
}

// locateOccurrences walks the parsed statement and produces one occurrence
// per marker. Every marker starts bare; visiting a call whose direct operand
// is a marker upgrades it to the matching call shape. A marker whose call
// cannot be resolved to a clean lexical span stays bare.
func locateOccurrences(san *sanitized, stmt ast.StmtNode) []occurrence {
	occ := make([]occurrence, len(san.markers))
	for i, m := range san.markers {
		occ[i] = occurrence{
			name:    m.name,
			loc:     span{start: m.start, end: m.end},
			shape:   shapeBare,
			callLoc: span{start: m.start, end: m.end},
		}
	}

	// Comments are dropped from the token stream so that keyword and
	// operator adjacency checks see through them. Token offsets still index
	// the original text, so spans stay exact and any comment inside a
	// resolved span is carried along by the source slice.
	toks := lexSQL(san.text)
	kept := toks[:0]
	for _, t := range toks {
		if t.kind != tokComment {
			kept = append(kept, t)
		}
	}

	l := &locator{
		san:     san,
		occ:     occ,
		claimed: make([]bool, len(occ)),
		toks:    kept,
	}
	l.tokOf = make(map[string]int, len(san.names))
	for ti, t := range l.toks {
		if t.kind == tokIdent && !t.quoted {
			if _, isMarker := san.markerIndex(t.text); isMarker {
				l.tokOf[t.text] = ti
			}
		}
	}

	stmt.Accept(l)
	return l.occ
}

type locator struct {
	san     *sanitized
	occ     []occurrence
	claimed []bool
	toks    []token
	tokOf   map[string]int // synthetic identifier -> token index
}

func (l *locator) Enter(n ast.Node) (ast.Node, bool) {
	switch v := n.(type) {
	case *ast.PatternInExpr:
		l.claimIn(v)
	case *ast.BinaryOperationExpr:
		l.claimCompare(v)
	case *ast.PatternLikeOrIlikeExpr:
		l.claimLike(v)
	case *ast.BetweenExpr:
		l.claimBetween(v)
	case *ast.FuncCallExpr:
		l.claimArgs(v.Args)
	case *ast.AggregateFuncExpr:
		l.claimArgs(v.Args)
	}
	return n, false
}

func (l *locator) Leave(n ast.Node) (ast.Node, bool) {
	return n, true
}

// markerOf reports whether expr is exactly a marker stand-in identifier.
// Qualified names and parenthesized markers do not count: those markers
// stay bare.
func (l *locator) markerOf(expr ast.ExprNode) (int, bool) {
	col, ok := expr.(*ast.ColumnNameExpr)
	if !ok || col.Name == nil {
		return 0, false
	}
	if col.Name.Schema.O != "" || col.Name.Table.O != "" {
		return 0, false
	}
	return l.san.markerIndex(col.Name.Name.O)
}

// src returns the original template text under sp.
func (l *locator) src(sp span) string {
	if sp.end <= sp.start {
		return ""
	}
	return l.san.orig[sp.start:sp.end]
}

func (l *locator) apply(idx int, o occurrence, callLoc span, ok bool) {
	if !ok || l.claimed[idx] {
		return
	}
	l.claimed[idx] = true
	o.name = l.occ[idx].name
	o.loc = l.occ[idx].loc
	o.callLoc = callLoc
	l.occ[idx] = o
}

// markerSite claims an occurrence whose enclosing call span is never used:
// positions where an empty binding is an error and a bound value splices at
// the marker itself.
func (l *locator) markerSite(idx int) span {
	return l.occ[idx].loc
}

func (l *locator) claimIn(v *ast.PatternInExpr) {
	if idx, ok := l.markerOf(v.Expr); ok {
		l.apply(idx, occurrence{shape: shapeIn, negated: v.Not, firstIsMarker: true, scalar: true}, l.markerSite(idx), true)
	}
	for _, item := range v.List {
		idx, ok := l.markerOf(item)
		if !ok {
			continue
		}
		site, siteOK := l.resolveInList(idx, v.Not)
		l.apply(idx, occurrence{shape: shapeIn, negated: v.Not, subject: l.src(site.subj)}, site.call, siteOK)
	}
}

func (l *locator) claimCompare(v *ast.BinaryOperationExpr) {
	op, ok := compareOps[v.Op]
	if !ok {
		return
	}
	negated := v.Op == opcode.NE

	if idx, isMarker := l.markerOf(v.L); isMarker {
		site, siteOK := l.resolveCompare(idx, op, true)
		l.apply(idx, occurrence{shape: shapeCompare, negated: negated, op: op, subject: l.src(site.subj), firstIsMarker: true, scalar: true}, site.call, siteOK)
	}
	if idx, isMarker := l.markerOf(v.R); isMarker {
		site, siteOK := l.resolveCompare(idx, op, false)
		l.apply(idx, occurrence{shape: shapeCompare, negated: negated, op: op, subject: l.src(site.subj), scalar: true}, site.call, siteOK)
	}
}

func (l *locator) claimLike(v *ast.PatternLikeOrIlikeExpr) {
	if idx, ok := l.markerOf(v.Expr); ok {
		l.apply(idx, occurrence{shape: shapeLike, negated: v.Not, firstIsMarker: true, scalar: true}, l.markerSite(idx), true)
	}
	if idx, ok := l.markerOf(v.Pattern); ok {
		site, siteOK := l.resolveLikePattern(idx, v.Not)
		l.apply(idx, occurrence{shape: shapeLike, negated: v.Not, subject: l.src(site.subj), scalar: true}, site.call, siteOK)
	}
}

func (l *locator) claimBetween(v *ast.BetweenExpr) {
	if idx, ok := l.markerOf(v.Expr); ok {
		l.apply(idx, occurrence{shape: shapeBetween, negated: v.Not, firstIsMarker: true, scalar: true}, l.markerSite(idx), true)
	}
	if idx, ok := l.markerOf(v.Left); ok {
		site, siteOK := l.resolveBetweenBound(idx, v.Not, true)
		l.apply(idx, occurrence{shape: shapeBetween, negated: v.Not, subject: l.src(site.subj), scalar: true}, site.call, siteOK)
	}
	if idx, ok := l.markerOf(v.Right); ok {
		site, siteOK := l.resolveBetweenBound(idx, v.Not, false)
		l.apply(idx, occurrence{shape: shapeBetween, negated: v.Not, subject: l.src(site.subj), scalar: true}, site.call, siteOK)
	}
}

// claimArgs handles plain and aggregate function calls: any argument that is
// a marker becomes a function-shaped occurrence.
func (l *locator) claimArgs(args []ast.ExprNode) {
	for pos, arg := range args {
		idx, ok := l.markerOf(arg)
		if !ok {
			continue
		}
		if pos == 0 {
			l.apply(idx, occurrence{shape: shapeFunc, firstIsMarker: true}, l.markerSite(idx), true)
			continue
		}
		site, siteOK := l.resolveCallArg(idx)
		l.apply(idx, occurrence{shape: shapeFunc, subject: l.src(site.subj)}, site.call, siteOK)
	}
}

// -- lexical span resolution --------------------------------------------------

// callSite is the resolved lexical extent of a claimed call: the span of the
// whole call and the span of its first operand (the non-marker side, for
// comparisons).
type callSite struct {
	call span
	subj span
}

// markerToken returns the token index of the stand-in identifier for
// occurrence idx.
func (l *locator) markerToken(idx int) (int, bool) {
	ti, ok := l.tokOf[l.san.names[idx]]
	return ti, ok
}

func (l *locator) tokenSpan(first, last int) span {
	return span{start: l.toks[first].start, end: l.toks[last].end}
}

// resolveInList finds "<subject> [NOT] IN ( ...marker... )" for a marker in
// the list.
func (l *locator) resolveInList(idx int, negated bool) (callSite, bool) {
	m, ok := l.markerToken(idx)
	if !ok {
		return callSite{}, false
	}
	open, ok := l.openParenLeft(m)
	if !ok {
		return callSite{}, false
	}
	kw := open - 1
	if kw < 0 || !tokenIsWord(l.toks[kw], "IN") {
		return callSite{}, false
	}
	if negated {
		kw--
		if kw < 0 || !tokenIsWord(l.toks[kw], "NOT") {
			return callSite{}, false
		}
	}
	start, ok := exprStart(l.toks, kw)
	if !ok || start > kw-1 {
		return callSite{}, false
	}
	closing, ok := l.closeParenRight(m)
	if !ok {
		return callSite{}, false
	}
	return callSite{
		call: l.tokenSpan(start, closing),
		subj: l.tokenSpan(start, kw-1),
	}, true
}

// resolveCompare finds "<expr> <op> <marker>" or its mirrored form.
func (l *locator) resolveCompare(idx int, op string, markerOnLeft bool) (callSite, bool) {
	m, ok := l.markerToken(idx)
	if !ok {
		return callSite{}, false
	}
	spellings := opSpellings[op]
	if spellings == nil {
		spellings = []string{op}
	}

	if markerOnLeft {
		if m+1 >= len(l.toks) || !tokenTextIn(l.toks[m+1], spellings) {
			return callSite{}, false
		}
		end, ok := exprEnd(l.toks, m+2)
		if !ok || end-1 < m+2 {
			return callSite{}, false
		}
		return callSite{
			call: l.tokenSpan(m, end-1),
			subj: l.tokenSpan(m+2, end-1),
		}, true
	}

	if m-1 < 0 || !tokenTextIn(l.toks[m-1], spellings) {
		return callSite{}, false
	}
	start, ok := exprStart(l.toks, m-1)
	if !ok || start > m-2 {
		return callSite{}, false
	}
	return callSite{
		call: l.tokenSpan(start, m),
		subj: l.tokenSpan(start, m-2),
	}, true
}

// resolveLikePattern finds "<expr> [NOT] LIKE <marker> [ESCAPE '..']".
func (l *locator) resolveLikePattern(idx int, negated bool) (callSite, bool) {
	m, ok := l.markerToken(idx)
	if !ok {
		return callSite{}, false
	}
	kw := m - 1
	if kw < 0 || !(tokenIsWord(l.toks[kw], "LIKE") || tokenIsWord(l.toks[kw], "ILIKE")) {
		return callSite{}, false
	}
	if negated {
		kw--
		if kw < 0 || !tokenIsWord(l.toks[kw], "NOT") {
			return callSite{}, false
		}
	}
	start, ok := exprStart(l.toks, kw)
	if !ok || start > kw-1 {
		return callSite{}, false
	}
	last := m
	if m+2 < len(l.toks) && tokenIsWord(l.toks[m+1], "ESCAPE") && l.toks[m+2].kind == tokString {
		last = m + 2
	}
	return callSite{
		call: l.tokenSpan(start, last),
		subj: l.tokenSpan(start, kw-1),
	}, true
}

// resolveBetweenBound finds "<expr> [NOT] BETWEEN <lo> AND <hi>" for a
// marker in either bound position.
func (l *locator) resolveBetweenBound(idx int, negated, markerIsLow bool) (callSite, bool) {
	m, ok := l.markerToken(idx)
	if !ok {
		return callSite{}, false
	}

	var kw int // index of BETWEEN
	var end span
	if markerIsLow {
		kw = m - 1
		if m+1 >= len(l.toks) || !tokenIsWord(l.toks[m+1], "AND") {
			return callSite{}, false
		}
		hiEnd, ok := exprEnd(l.toks, m+2)
		if !ok || hiEnd-1 < m+2 {
			return callSite{}, false
		}
		end = l.tokenSpan(hiEnd-1, hiEnd-1)
	} else {
		if m-1 < 0 || !tokenIsWord(l.toks[m-1], "AND") {
			return callSite{}, false
		}
		loStart, ok := exprStart(l.toks, m-1)
		if !ok || loStart > m-2 {
			return callSite{}, false
		}
		kw = loStart - 1
		end = l.tokenSpan(m, m)
	}

	if kw < 0 || !tokenIsWord(l.toks[kw], "BETWEEN") {
		return callSite{}, false
	}
	if negated {
		kw--
		if kw < 0 || !tokenIsWord(l.toks[kw], "NOT") {
			return callSite{}, false
		}
	}
	start, ok := exprStart(l.toks, kw)
	if !ok || start > kw-1 {
		return callSite{}, false
	}
	return callSite{
		call: span{start: l.toks[start].start, end: end.end},
		subj: l.tokenSpan(start, kw-1),
	}, true
}

// resolveCallArg finds "name( arg0, ...marker... )", including a dotted
// qualifier on the name. The subject is the first argument.
func (l *locator) resolveCallArg(idx int) (callSite, bool) {
	m, ok := l.markerToken(idx)
	if !ok {
		return callSite{}, false
	}
	open, ok := l.openParenLeft(m)
	if !ok {
		return callSite{}, false
	}
	name := open - 1
	if name < 0 || l.toks[name].kind != tokIdent {
		return callSite{}, false
	}
	for name >= 2 && l.toks[name-1].text == "." && l.toks[name-2].kind == tokIdent {
		name -= 2
	}
	closing, ok := l.closeParenRight(m)
	if !ok {
		return callSite{}, false
	}

	// first argument: from just inside the paren (skipping a DISTINCT
	// qualifier) to the first top-level comma
	argFirst := open + 1
	if argFirst < len(l.toks) && tokenIsWord(l.toks[argFirst], "DISTINCT") {
		argFirst++
	}
	argLast := -1
	depth := 0
	for k := argFirst; k < closing; k++ {
		switch l.toks[k].text {
		case "(":
			depth++
		case ")":
			depth--
		case ",":
			if depth == 0 {
				argLast = k - 1
			}
		}
		if argLast >= 0 {
			break
		}
	}
	if argLast < argFirst {
		return callSite{}, false
	}
	return callSite{
		call: l.tokenSpan(name, closing),
		subj: l.tokenSpan(argFirst, argLast),
	}, true
}

// openParenLeft walks left from token m to the unbalanced '(' that opens the
// group containing m.
func (l *locator) openParenLeft(m int) (int, bool) {
	depth := 0
	for k := m - 1; k >= 0; k-- {
		switch l.toks[k].text {
		case ")":
			depth++
		case "(":
			if depth == 0 {
				return k, true
			}
			depth--
		}
	}
	return 0, false
}

// closeParenRight walks right from token m to the unbalanced ')' that closes
// the group containing m.
func (l *locator) closeParenRight(m int) (int, bool) {
	depth := 0
	for k := m + 1; k < len(l.toks); k++ {
		switch l.toks[k].text {
		case "(":
			depth++
		case ")":
			if depth == 0 {
				return k, true
			}
			depth--
		}
	}
	return 0, false
}

// -- expression boundary scanning ----------------------------------------------

// stopWords are keywords that terminate an operand scan in either direction.
var stopWords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AND": true, "OR": true,
	"NOT": true, "XOR": true, "IN": true, "IS": true, "NULL": true,
	"LIKE": true, "ILIKE": true, "RLIKE": true, "REGEXP": true,
	"BETWEEN": true, "ESCAPE": true, "GROUP": true, "ORDER": true, "BY": true,
	"HAVING": true, "LIMIT": true, "OFFSET": true, "JOIN": true,
	"INNER": true, "OUTER": true, "CROSS": true, "STRAIGHT_JOIN": true,
	"ON": true, "USING": true, "UNION": true, "ALL": true, "DISTINCT": true,
	"AS": true, "SET": true, "VALUES": true, "INSERT": true, "UPDATE": true,
	"DELETE": true, "INTO": true, "CASE": true, "WHEN": true, "THEN": true,
	"ELSE": true, "END": true, "EXISTS": true, "ANY": true, "SOME": true,
	"ASC": true, "DESC": true, "OVER": true, "WINDOW": true, "INTERVAL": true,
}

// binary connectors that keep an operand scan going across terms.
var arithOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "^": true,
	"&": true, "|": true, "<<": true, ">>": true, "||": true,
	"->": true, "->>": true,
}

var arithWords = map[string]bool{"DIV": true, "MOD": true, "COLLATE": true}

func tokenIsWord(t token, word string) bool {
	return t.kind == tokIdent && !t.quoted && strings.EqualFold(t.text, word)
}

func tokenTextIn(t token, texts []string) bool {
	for _, s := range texts {
		if t.text == s {
			return true
		}
	}
	return false
}

func isStopWord(t token) bool {
	return t.kind == tokIdent && !t.quoted && stopWords[strings.ToUpper(t.text)]
}

func isConnector(t token) bool {
	if t.kind == tokOp {
		return arithOps[t.text]
	}
	return t.kind == tokIdent && !t.quoted && arithWords[strings.ToUpper(t.text)]
}

// endsExpr reports whether a token can be the final token of an expression,
// which disambiguates binary from unary plus and minus.
func endsExpr(t token) bool {
	switch t.kind {
	case tokNumber, tokString:
		return true
	case tokIdent:
		return !isStopWord(t)
	case tokOp:
		return t.text == ")"
	}
	return false
}

// exprStart scans left from toks[j-1] and returns the index of the first
// token of the expression that ends just before j. It consumes identifier
// dot-chains, balanced parentheses with an optional function name, CASE/END
// blocks, INTERVAL terms, unary prefixes, and binary arithmetic chains.
func exprStart(toks []token, j int) (int, bool) {
	i := j
	consumed := false

	for {
		k := i - 1
		if k < 0 {
			break
		}
		t := toks[k]

		switch {
		case t.text == ")":
			depth := 1
			k--
			for k >= 0 && depth > 0 {
				switch toks[k].text {
				case ")":
					depth++
				case "(":
					depth--
				}
				k--
			}
			if depth != 0 {
				return i, consumed
			}
			// k is now just before the '('; absorb a function name
			if k >= 0 && toks[k].kind == tokIdent && !isStopWord(toks[k]) {
				k--
				for k >= 1 && toks[k].text == "." && toks[k-1].kind == tokIdent {
					k -= 2
				}
			}
			i = k + 1

		case tokenIsWord(t, "END"):
			depth := 1
			k--
			for k >= 0 && depth > 0 {
				if tokenIsWord(toks[k], "END") {
					depth++
				} else if tokenIsWord(toks[k], "CASE") {
					depth--
				}
				k--
			}
			if depth != 0 {
				return i, consumed
			}
			i = k + 1

		case t.kind == tokIdent && !isStopWord(t):
			k--
			for k >= 1 && toks[k].text == "." && toks[k-1].kind == tokIdent {
				k -= 2
			}
			i = k + 1

		case t.kind == tokNumber || t.kind == tokString:
			i = k

		default:
			return i, consumed
		}
		consumed = true

		// INTERVAL <term> <unit>: the unit parses as a plain identifier, so
		// stitch the whole term back together.
		if i >= 2 && tokenIsWord(toks[i-2], "INTERVAL") &&
			(toks[i-1].kind == tokNumber || toks[i-1].kind == tokString || (toks[i-1].kind == tokIdent && !isStopWord(toks[i-1]))) {
			i -= 2
		}

		// unary prefixes
		for i >= 1 {
			p := toks[i-1]
			unary := p.text == "~" || p.text == "!" || tokenIsWord(p, "BINARY") ||
				((p.text == "-" || p.text == "+") && (i < 2 || !endsExpr(toks[i-2])))
			if !unary {
				break
			}
			i--
		}

		// binary connector keeps the scan going
		if i >= 2 && isConnector(toks[i-1]) && endsExpr(toks[i-2]) {
			i--
			continue
		}
		break
	}
	return i, consumed
}

// exprEnd scans right from toks[j] and returns the index just past the last
// token of the expression that starts at j.
func exprEnd(toks []token, j int) (int, bool) {
	i := j
	n := len(toks)
	consumed := false

	for {
		// unary prefixes
		for i < n {
			t := toks[i]
			if t.text == "~" || t.text == "!" || tokenIsWord(t, "BINARY") ||
				((t.text == "-" || t.text == "+") && (i == 0 || !endsExpr(toks[i-1]))) {
				i++
				continue
			}
			break
		}

		// INTERVAL <term> <unit>
		if i < n && tokenIsWord(toks[i], "INTERVAL") {
			i++
			if end, ok := exprEnd(toks, i); ok {
				i = end
			}
			if i < n && toks[i].kind == tokIdent && !isStopWord(toks[i]) {
				i++
			}
			consumed = true
			if i < n && isConnector(toks[i]) && i+1 < n {
				i++
				continue
			}
			break
		}

		if i >= n {
			return i, consumed
		}
		t := toks[i]

		switch {
		case t.kind == tokIdent && tokenIsWord(t, "CASE"):
			depth := 1
			i++
			for i < n && depth > 0 {
				if tokenIsWord(toks[i], "CASE") {
					depth++
				} else if tokenIsWord(toks[i], "END") {
					depth--
				}
				i++
			}
			if depth != 0 {
				return i, false
			}

		case t.kind == tokIdent && !isStopWord(t):
			i++
			for i+1 < n && toks[i].text == "." && toks[i+1].kind == tokIdent {
				i += 2
			}
			// function call
			if i < n && toks[i].text == "(" {
				depth := 1
				i++
				for i < n && depth > 0 {
					switch toks[i].text {
					case "(":
						depth++
					case ")":
						depth--
					}
					i++
				}
				if depth != 0 {
					return i, false
				}
			}

		case t.kind == tokNumber || t.kind == tokString:
			i++

		case t.text == "(":
			depth := 1
			i++
			for i < n && depth > 0 {
				switch toks[i].text {
				case "(":
					depth++
				case ")":
					depth--
				}
				i++
			}
			if depth != 0 {
				return i, false
			}

		default:
			return i, consumed
		}
		consumed = true

		if i < n && isConnector(toks[i]) && i+1 < n {
			i++
			continue
		}
		break
	}
	return i, consumed
}

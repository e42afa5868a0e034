package sql

// The lexer produces a flat token stream with exact byte offsets into the
// input. It exists for two jobs the grammar parser cannot do: masking
// string/comment regions during marker scanning, and recovering the exact
// source span of an expression around a located marker. It only needs to
// agree with the SQL grammar on token boundaries, not on meaning.

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokComment
	tokOp
)

type token struct {
	kind   tokenKind
	start  int // byte offset, inclusive
	end    int // byte offset, exclusive
	text   string
	quoted bool // quoted identifier (backquoted)
}

// multi-character operators, longest first within each leading byte.
var multiOps = []string{"<=>", "<<", ">>", "<>", "<=", ">=", "!=", "||", "&&", ":=", "->>", "->"}

// lexSQL tokenizes src. It never fails: unterminated strings or comments
// extend to end of input, and unrecognized bytes become single-character
// operator tokens. Whitespace is skipped.
func lexSQL(src string) []token {
	var toks []token
	i := 0
	n := len(src)

	emit := func(kind tokenKind, start, end int, quoted bool) {
		toks = append(toks, token{kind: kind, start: start, end: end, text: src[start:end], quoted: quoted})
	}

	for i < n {
		c := src[i]

		// whitespace
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v' {
			i++
			continue
		}

		// line comments: "-- " (or -- at end of line/input) and "#"
		if c == '-' && i+1 < n && src[i+1] == '-' && (i+2 >= n || src[i+2] == ' ' || src[i+2] == '\t' || src[i+2] == '\n' || src[i+2] == '\r') {
			start := i
			for i < n && src[i] != '\n' {
				i++
			}
			emit(tokComment, start, i, false)
			continue
		}
		if c == '#' {
			start := i
			for i < n && src[i] != '\n' {
				i++
			}
			emit(tokComment, start, i, false)
			continue
		}

		// block comment
		if c == '/' && i+1 < n && src[i+1] == '*' {
			start := i
			i += 2
			for i < n {
				if src[i] == '*' && i+1 < n && src[i+1] == '/' {
					i += 2
					break
				}
				i++
			}
			if i > n {
				i = n
			}
			emit(tokComment, start, i, false)
			continue
		}

		// string literals: '...' and "..." with doubled-quote and backslash
		// escapes (MySQL treats double quotes as strings by default)
		if c == '\'' || c == '"' {
			start := i
			i = scanQuoted(src, i, c)
			emit(tokString, start, i, false)
			continue
		}

		// backquoted identifier
		if c == '`' {
			start := i
			i = scanQuoted(src, i, '`')
			emit(tokIdent, start, i, true)
			continue
		}

		// numbers: digit-led, or dot-led decimal when a dot cannot be a
		// path separator (previous token is not an identifier or ')')
		if isDigit(c) || (c == '.' && i+1 < n && isDigit(src[i+1]) && !prevEndsExpr(toks)) {
			start := i
			i = scanNumber(src, i)
			emit(tokNumber, start, i, false)
			continue
		}

		// identifiers and keywords, including @vars and @@sysvars
		if isIdentStart(c) || c == '@' {
			start := i
			if c == '@' {
				i++
				if i < n && src[i] == '@' {
					i++
				}
			}
			for i < n && isIdentPart(src[i]) {
				i++
			}
			if i == start { // lone '@'
				i++
				emit(tokOp, start, i, false)
				continue
			}
			emit(tokIdent, start, i, false)
			continue
		}

		// multi-character operators
		matched := false
		for _, op := range multiOps {
			if len(op) <= n-i && src[i:i+len(op)] == op {
				emit(tokOp, i, i+len(op), false)
				i += len(op)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		// single-character operator/punctuation
		emit(tokOp, i, i+1, false)
		i++
	}

	return toks
}

// scanQuoted consumes a quoted region starting at src[start] == quote,
// honoring doubled quotes and backslash escapes. Returns the offset just
// past the closing quote, or len(src) if unterminated.
func scanQuoted(src string, start int, quote byte) int {
	i := start + 1
	n := len(src)
	for i < n {
		switch src[i] {
		case '\\':
			if quote != '`' && i+1 < n {
				i += 2
				continue
			}
			i++
		case quote:
			if i+1 < n && src[i+1] == quote {
				i += 2 // doubled quote stays inside
				continue
			}
			return i + 1
		default:
			i++
		}
	}
	return n
}

// scanNumber consumes an integer, decimal, scientific, or 0x hex literal.
func scanNumber(src string, start int) int {
	i := start
	n := len(src)

	if src[i] == '0' && i+1 < n && (src[i+1] == 'x' || src[i+1] == 'X') {
		i += 2
		for i < n && isHexDigit(src[i]) {
			i++
		}
		return i
	}

	for i < n && isDigit(src[i]) {
		i++
	}
	if i < n && src[i] == '.' {
		i++
		for i < n && isDigit(src[i]) {
			i++
		}
	}
	if i < n && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < n && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < n && isDigit(src[j]) {
			i = j
			for i < n && isDigit(src[i]) {
				i++
			}
		}
	}
	return i
}

// prevEndsExpr reports whether the last emitted token could end an
// expression, which makes a following '.' a path separator rather than the
// start of a decimal literal.
func prevEndsExpr(toks []token) bool {
	for j := len(toks) - 1; j >= 0; j-- {
		t := toks[j]
		if t.kind == tokComment {
			continue
		}
		return t.kind == tokIdent || t.kind == tokNumber || (t.kind == tokOp && t.text == ")")
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Identifier characters follow MySQL rules: ASCII letters, digits, '_' and
// '$', plus any multibyte UTF-8 sequence.
func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '$'
}

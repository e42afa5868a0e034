package sql

import (
	"testing"
)

func TestLexSQL(t *testing.T) {
	type tok struct {
		kind tokenKind
		text string
	}
	tests := []struct {
		name string
		src  string
		want []tok
	}{
		{
			name: "simple statement",
			src:  "SELECT * FROM t WHERE a = 1",
			want: []tok{
				{tokIdent, "SELECT"}, {tokOp, "*"}, {tokIdent, "FROM"}, {tokIdent, "t"},
				{tokIdent, "WHERE"}, {tokIdent, "a"}, {tokOp, "="}, {tokNumber, "1"},
			},
		},
		{
			name: "single-quoted string with doubled quote",
			src:  "SELECT 'it''s'",
			want: []tok{{tokIdent, "SELECT"}, {tokString, "'it''s'"}},
		},
		{
			name: "single-quoted string with backslash escape",
			src:  `SELECT 'a\'b'`,
			want: []tok{{tokIdent, "SELECT"}, {tokString, `'a\'b'`}},
		},
		{
			name: "double-quoted string",
			src:  `SELECT "east"`,
			want: []tok{{tokIdent, "SELECT"}, {tokString, `"east"`}},
		},
		{
			name: "unterminated string extends to end",
			src:  "SELECT 'abc",
			want: []tok{{tokIdent, "SELECT"}, {tokString, "'abc"}},
		},
		{
			name: "backquoted identifier",
			src:  "SELECT `from` FROM t",
			want: []tok{{tokIdent, "SELECT"}, {tokIdent, "`from`"}, {tokIdent, "FROM"}, {tokIdent, "t"}},
		},
		{
			name: "line comment with space",
			src:  "a -- rest of line\nb",
			want: []tok{{tokIdent, "a"}, {tokComment, "-- rest of line"}, {tokIdent, "b"}},
		},
		{
			name: "double dash without space is not a comment",
			src:  "a--1",
			want: []tok{{tokIdent, "a"}, {tokOp, "-"}, {tokOp, "-"}, {tokNumber, "1"}},
		},
		{
			name: "double dash at end of input",
			src:  "a --",
			want: []tok{{tokIdent, "a"}, {tokComment, "--"}},
		},
		{
			name: "hash comment",
			src:  "a # note\nb",
			want: []tok{{tokIdent, "a"}, {tokComment, "# note"}, {tokIdent, "b"}},
		},
		{
			name: "block comment",
			src:  "/* x */ 1",
			want: []tok{{tokComment, "/* x */"}, {tokNumber, "1"}},
		},
		{
			name: "unterminated block comment",
			src:  "1 /* x",
			want: []tok{{tokNumber, "1"}, {tokComment, "/* x"}},
		},
		{
			name: "numbers",
			src:  "1 2.5 .5 1e3 1.5e-2 0xFF",
			want: []tok{
				{tokNumber, "1"}, {tokNumber, "2.5"}, {tokNumber, ".5"},
				{tokNumber, "1e3"}, {tokNumber, "1.5e-2"}, {tokNumber, "0xFF"},
			},
		},
		{
			name: "dot after identifier is a path separator",
			src:  "t.5",
			want: []tok{{tokIdent, "t"}, {tokOp, "."}, {tokNumber, "5"}},
		},
		{
			name: "qualified column",
			src:  "t.region",
			want: []tok{{tokIdent, "t"}, {tokOp, "."}, {tokIdent, "region"}},
		},
		{
			name: "multi-character operators",
			src:  "a <=> b <> c != d <= e >= f << g >> h",
			want: []tok{
				{tokIdent, "a"}, {tokOp, "<=>"}, {tokIdent, "b"}, {tokOp, "<>"},
				{tokIdent, "c"}, {tokOp, "!="}, {tokIdent, "d"}, {tokOp, "<="},
				{tokIdent, "e"}, {tokOp, ">="}, {tokIdent, "f"}, {tokOp, "<<"},
				{tokIdent, "g"}, {tokOp, ">>"}, {tokIdent, "h"},
			},
		},
		{
			name: "json operators",
			src:  "doc->>'$.a' -> b",
			want: []tok{
				{tokIdent, "doc"}, {tokOp, "->>"}, {tokString, "'$.a'"},
				{tokOp, "->"}, {tokIdent, "b"},
			},
		},
		{
			name: "session and system variables",
			src:  "@v @@sys @ x",
			want: []tok{{tokIdent, "@v"}, {tokIdent, "@@sys"}, {tokOp, "@"}, {tokIdent, "x"}},
		},
		{
			name: "dollar in identifier",
			src:  "a$b",
			want: []tok{{tokIdent, "a$b"}},
		},
		{
			name: "multibyte identifier",
			src:  "héllo",
			want: []tok{{tokIdent, "héllo"}},
		},
		{
			name: "empty input",
			src:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lexSQL(tt.src)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d tokens, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, w := range tt.want {
				if got[i].kind != w.kind {
					t.Errorf("token %d: got kind %d, want %d", i, got[i].kind, w.kind)
				}
				if got[i].text != w.text {
					t.Errorf("token %d: got text %q, want %q", i, got[i].text, w.text)
				}
			}
		})
	}
}

func TestLexSQL_QuotedFlag(t *testing.T) {
	toks := lexSQL("SELECT `a`, b")
	if len(toks) != 4 {
		t.Fatalf("got %d tokens, want 4", len(toks))
	}
	if !toks[1].quoted {
		t.Errorf("backquoted identifier not flagged as quoted: %+v", toks[1])
	}
	if toks[3].quoted {
		t.Errorf("plain identifier flagged as quoted: %+v", toks[3])
	}
}

// Offsets must slice the input back to the token text exactly; span
// arithmetic downstream depends on it.
func TestLexSQL_Offsets(t *testing.T) {
	srcs := []string{
		"SELECT * FROM t WHERE region IN ('east', 'west')",
		"SELECT `a``b`, 'it''s', 1.5e-2 /* note */ -- tail\nFROM t",
		"a<=>b<>c!=d||e&&f:=g",
		"SELECT t.région FROM «tbl»",
	}
	for _, src := range srcs {
		last := 0
		for i, tk := range lexSQL(src) {
			if tk.start < last {
				t.Errorf("%q: token %d starts at %d, before previous end %d", src, i, tk.start, last)
			}
			if tk.end <= tk.start || tk.end > len(src) {
				t.Errorf("%q: token %d has bad span [%d,%d)", src, i, tk.start, tk.end)
			}
			if got := src[tk.start:tk.end]; got != tk.text {
				t.Errorf("%q: token %d text %q does not match span slice %q", src, i, tk.text, got)
			}
			last = tk.end
		}
	}
}

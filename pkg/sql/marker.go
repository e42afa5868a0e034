package sql

import (
	"fmt"
	"regexp"
)

const (
	// DefaultMarkerPrefix and DefaultMarkerSuffix delimit variable markers
	// in templates: ${name}.
	DefaultMarkerPrefix = "${"
	DefaultMarkerSuffix = "}"
)

// marker is a single variable reference found in template text, with the
// exact byte span of the whole marker including its delimiters.
type marker struct {
	name  string
	start int
	end   int
}

// markerSyntax scans template text for variable markers. Markers inside
// string literals, comments, and quoted identifiers are inert and are not
// reported.
type markerSyntax struct {
	prefix string
	suffix string
	re     *regexp.Regexp
}

var identDelimByte = regexp.MustCompile(`[A-Za-z0-9_\s]`)

func newMarkerSyntax(prefix, suffix string) (*markerSyntax, error) {
	if prefix == "" || suffix == "" {
		return nil, fmt.Errorf("marker delimiters must be non-empty")
	}
	if identDelimByte.MatchString(prefix) || identDelimByte.MatchString(suffix) {
		return nil, fmt.Errorf("marker delimiters must not contain letters, digits, underscores, or whitespace")
	}
	re := regexp.MustCompile(regexp.QuoteMeta(prefix) + `([A-Za-z_][A-Za-z0-9_]*)` + regexp.QuoteMeta(suffix))
	return &markerSyntax{prefix: prefix, suffix: suffix, re: re}, nil
}

// scan returns the markers in src that sit in code position, ordered by
// start offset.
func (s *markerSyntax) scan(src string) []marker {
	matches := s.re.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return nil
	}

	mask := maskedSpans(src)
	var out []marker
	mi := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		for mi < len(mask) && mask[mi].end <= start {
			mi++
		}
		if mi < len(mask) && mask[mi].start < end {
			continue // inside a string, comment, or quoted identifier
		}
		out = append(out, marker{name: src[m[2]:m[3]], start: start, end: end})
	}
	return out
}

// names returns the distinct variable names referenced by code-position
// markers in src, in order of first appearance.
func (s *markerSyntax) names(src string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range s.scan(src) {
		if !seen[m.name] {
			seen[m.name] = true
			out = append(out, m.name)
		}
	}
	return out
}

type span struct {
	start int
	end   int
}

// maskedSpans returns the byte ranges of src occupied by string literals,
// comments, and quoted identifiers, in ascending order.
func maskedSpans(src string) []span {
	var out []span
	for _, t := range lexSQL(src) {
		if t.kind == tokString || t.kind == tokComment || (t.kind == tokIdent && t.quoted) {
			out = append(out, span{start: t.start, end: t.end})
		}
	}
	return out
}

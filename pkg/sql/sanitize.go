package sql

import (
	"fmt"
	"strconv"
	"strings"
)

// Sanitization replaces every marker with a synthetic identifier of exactly
// the same byte length, so the template parses as plain SQL while every
// offset in the sanitized text still points at the same place in the
// original. The identifier encodes the marker's occurrence index, which is
// how AST nodes are mapped back to markers after parsing.

// pad characters for the unused leading positions of a synthetic
// identifier. Rotated when a template already uses the padded name.
var padChars = []byte{'0', 'z', 'q', 'x', 'k', 'w', 'v', 'j'}

type sanitized struct {
	orig    string   // original template text
	text    string   // template with markers replaced by synthetic identifiers
	markers []marker // original markers, ascending by start
	names   []string // names[i] is the identifier standing in for markers[i]
	byName  map[string]int
}

// markerIndex resolves a parsed identifier back to its marker, if it is one
// of the synthetic stand-ins.
func (s *sanitized) markerIndex(ident string) (int, bool) {
	i, ok := s.byName[ident]
	return i, ok
}

// sanitizeMarkers rewrites src with each marker replaced by a unique
// same-length identifier. marks must be non-overlapping and ascending, as
// produced by markerSyntax.scan.
func sanitizeMarkers(src string, marks []marker) (*sanitized, error) {
	taken := identifierSet(src)

	s := &sanitized{
		orig:    src,
		markers: marks,
		names:   make([]string, len(marks)),
		byName:  make(map[string]int, len(marks)),
	}

	var b strings.Builder
	b.Grow(len(src))
	last := 0
	for i, m := range marks {
		name, err := syntheticName(i, m.end-m.start, taken)
		if err != nil {
			return nil, err
		}
		taken[name] = true
		s.names[i] = name
		s.byName[name] = i

		b.WriteString(src[last:m.start])
		b.WriteString(name)
		last = m.end
	}
	b.WriteString(src[last:])
	s.text = b.String()
	return s, nil
}

// syntheticName builds a width-byte identifier for occurrence idx: a leading
// underscore, pad characters, then the index in base 36. Unquoted SQL
// identifiers compare case-insensitively, so the taken set is lowercase and
// the generated name only uses lowercase characters.
func syntheticName(idx, width int, taken map[string]bool) (string, error) {
	digits := strconv.FormatInt(int64(idx), 36)
	if len(digits) > width-1 {
		return "", fmt.Errorf("marker %d too short for a unique stand-in identifier", idx)
	}
	for _, pad := range padChars {
		name := "_" + strings.Repeat(string(pad), width-1-len(digits)) + digits
		if !taken[name] {
			return name, nil
		}
	}
	return "", fmt.Errorf("no available stand-in identifier for marker %d", idx)
}

// identifierSet collects the identifiers already present in src, lowercased.
// Quoted identifiers contribute their inner text as well, since rendering
// may drop the quotes.
func identifierSet(src string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range lexSQL(src) {
		if t.kind != tokIdent {
			continue
		}
		set[strings.ToLower(t.text)] = true
		if t.quoted && len(t.text) >= 2 {
			set[strings.ToLower(t.text[1:len(t.text)-1])] = true
		}
	}
	return set
}

package sql

import (
	"strings"
	"testing"
)

func TestSanitizeMarkers(t *testing.T) {
	syntax, err := newMarkerSyntax(DefaultMarkerPrefix, DefaultMarkerSuffix)
	if err != nil {
		t.Fatalf("newMarkerSyntax: %v", err)
	}

	tests := []struct {
		name string
		src  string
	}{
		{"single marker", "SELECT * FROM t WHERE region IN (${region})"},
		{"multiple markers", "SELECT ${a}, ${bb}, ${ccc} FROM t"},
		{"repeated name", "SELECT ${a} FROM t WHERE x = ${a}"},
		{"marker at start", "${a} FROM t"},
		{"marker at end", "SELECT ${a}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			marks := syntax.scan(tt.src)
			san, err := sanitizeMarkers(tt.src, marks)
			if err != nil {
				t.Fatalf("sanitizeMarkers: %v", err)
			}

			if san.orig != tt.src {
				t.Errorf("orig not preserved: got %q", san.orig)
			}
			if len(san.text) != len(tt.src) {
				t.Errorf("sanitized length %d, want %d", len(san.text), len(tt.src))
			}

			seen := make(map[string]bool)
			for i, m := range san.markers {
				name := san.names[i]
				if seen[name] {
					t.Errorf("stand-in %q assigned twice", name)
				}
				seen[name] = true

				if len(name) != m.end-m.start {
					t.Errorf("stand-in %q is %d bytes, marker %d is %d bytes", name, len(name), i, m.end-m.start)
				}
				if got := san.text[m.start:m.end]; got != name {
					t.Errorf("sanitized span [%d,%d) is %q, want %q", m.start, m.end, got, name)
				}

				idx, ok := san.markerIndex(name)
				if !ok || idx != i {
					t.Errorf("markerIndex(%q) = %d, %v; want %d, true", name, idx, ok, i)
				}
			}

			// everything outside the marker spans is untouched
			last := 0
			for _, m := range san.markers {
				if san.text[last:m.start] != tt.src[last:m.start] {
					t.Errorf("region [%d,%d) changed: %q", last, m.start, san.text[last:m.start])
				}
				last = m.end
			}
			if san.text[last:] != tt.src[last:] {
				t.Errorf("tail changed: %q", san.text[last:])
			}
		})
	}
}

func TestSanitizeMarkers_NoFalseMarkerIndex(t *testing.T) {
	syntax, err := newMarkerSyntax(DefaultMarkerPrefix, DefaultMarkerSuffix)
	if err != nil {
		t.Fatalf("newMarkerSyntax: %v", err)
	}

	src := "SELECT region FROM t WHERE region IN (${region})"
	san, err := sanitizeMarkers(src, syntax.scan(src))
	if err != nil {
		t.Fatalf("sanitizeMarkers: %v", err)
	}
	if _, ok := san.markerIndex("region"); ok {
		t.Errorf("column name resolved as a marker stand-in")
	}
}

// A template that already uses the first candidate identifiers forces the
// pad character to rotate. Unquoted SQL identifiers compare
// case-insensitively, so an uppercase collision counts too.
func TestSyntheticNameCollision(t *testing.T) {
	syntax, err := newMarkerSyntax(DefaultMarkerPrefix, DefaultMarkerSuffix)
	if err != nil {
		t.Fatalf("newMarkerSyntax: %v", err)
	}

	src := "SELECT _0000, _ZZZ0, ${ab} FROM t"
	san, err := sanitizeMarkers(src, syntax.scan(src))
	if err != nil {
		t.Fatalf("sanitizeMarkers: %v", err)
	}
	if len(san.names) != 1 {
		t.Fatalf("got %d stand-ins, want 1", len(san.names))
	}
	if san.names[0] != "_qqq0" {
		t.Errorf("got stand-in %q, want %q", san.names[0], "_qqq0")
	}
}

func TestSanitizeMarkers_Exhaustion(t *testing.T) {
	// Every pad variant of the three-byte stand-in is already taken.
	src := "SELECT _00, _z0, _q0, _x0, _k0, _w0, _v0, _j0, %a; FROM t"
	at := strings.Index(src, "%a;")
	marks := []marker{{name: "a", start: at, end: at + 3}}

	if _, err := sanitizeMarkers(src, marks); err == nil {
		t.Fatal("expected an error when no stand-in identifier is available")
	}
}

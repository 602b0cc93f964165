package textparse

import (
	"testing"
	"unsafe"

	"github.com/emallson/profiling2-decode/internal/value"
)

func TestParseScalars(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want value.Value
	}{
		{"nil", "nil", value.Nil},
		{"true", "true", value.Bool(true)},
		{"false", "false", value.Bool(false)},
		{"int", "1234", value.Int(1234)},
		{"negative int", "-423", value.Int(-423)},
		{"float", "12.345", value.Float(12.345)},
		{"float with exponent", "1.5e2", value.Float(150)},
		{"int with no decimal point stays int", "5", value.Int(5)},
		{"double-quoted string", `"foo"`, value.String("foo")},
		{"single-quoted string", `'foo'`, value.String("foo")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, err := Parse(c.src)
			if err != nil {
				t.Fatalf("Parse(%q): unexpected error: %v", c.src, err)
			}
			if !v.Equal(c.want) {
				t.Fatalf("Parse(%q) = %+v, want %+v", c.src, v, c.want)
			}
		})
	}
}

func TestParseIntVsFloatDecision(t *testing.T) {
	// Int values are produced only when the literal lacks a decimal
	// point; a literal with one becomes Float even if its value is
	// integral.
	v, err := Parse("5.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != value.KindFloat {
		t.Fatalf("got kind %v, want float", v.Kind)
	}
}

func TestParseAssignmentDiscardsIdentifier(t *testing.T) {
	v, err := Parse(`Profiling2_Storage = { ["recordings"] = { } }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != value.KindTable || v.Table.Kind != value.TableNamed {
		t.Fatalf("got %+v, want named table", v)
	}
	rec, ok := v.Table.Named["recordings"]
	if !ok {
		t.Fatalf("missing \"recordings\" key in %+v", v.Table.Named)
	}
	if rec.Table.Kind != value.TableEmpty {
		t.Fatalf("got recordings kind %v, want empty", rec.Table.Kind)
	}
}

func TestParseBareValueWithoutAssignment(t *testing.T) {
	v, err := Parse(`{ foo = "xyz", bar = 12.345, baz = false }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Table.Named["foo"].Str != "xyz" {
		t.Fatalf("got %+v", v.Table.Named)
	}
	if v.Table.Named["bar"].Float != 12.345 {
		t.Fatalf("got %+v", v.Table.Named)
	}
	if v.Table.Named["baz"].Bool != false {
		t.Fatalf("got %+v", v.Table.Named)
	}
}

func TestParseEmptyTable(t *testing.T) {
	v, err := Parse("{}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Table.Kind != value.TableEmpty {
		t.Fatalf("got kind %v, want empty", v.Table.Kind)
	}
}

func TestParseArrayTable(t *testing.T) {
	v, err := Parse(`{ 1, 2, 3 }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Table.Kind != value.TableArray {
		t.Fatalf("got kind %v, want array", v.Table.Kind)
	}
	if len(v.Table.Array) != 3 {
		t.Fatalf("got %d elements, want 3", len(v.Table.Array))
	}
}

func TestParseArrayTableTrailingComma(t *testing.T) {
	v, err := Parse(`{ 1, 2, 3, }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.Table.Array) != 3 {
		t.Fatalf("got %d elements, want 3", len(v.Table.Array))
	}
}

func TestParseBracketedStringKey(t *testing.T) {
	v, err := Parse(`{ ["my key"] = 1 }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Table.Named["my key"].Int != 1 {
		t.Fatalf("got %+v", v.Table.Named)
	}
}

func TestParseCommentsEverywhere(t *testing.T) {
	src := `
-- leading comment
Storage = { -- after brace
  ["a"] = 1, -- after entry
  -- between entries
  ["b"] = 2,
} -- trailing
`
	v, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Table.Named["a"].Int != 1 || v.Table.Named["b"].Int != 2 {
		t.Fatalf("got %+v", v.Table.Named)
	}
}

func TestParseNoCopyStrings(t *testing.T) {
	src := `{ ["key"] = "value" }`
	v, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := v.Table.Named["key"].Str
	// property 1: the returned string must be a slice of the input buffer,
	// not a fresh allocation, for every string literal the parser accepts.
	if len(s) == 0 {
		t.Fatal("expected a non-empty string")
	}
	srcIdx := indexOfSubstring(src, s)
	if srcIdx < 0 {
		t.Fatalf("string %q not found as a substring of source", s)
	}
	if unsafe.StringData(s) != unsafe.StringData(src[srcIdx:]) {
		t.Fatalf("string %q is a copy, not a slice of the source buffer", s)
	}
}

func indexOfSubstring(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func TestParseUnterminatedStringFails(t *testing.T) {
	_, err := Parse(`"unterminated`)
	if err == nil {
		t.Fatal("expected an error for an unterminated string literal")
	}
}

func TestParseMixedArrayAndNamedRejected(t *testing.T) {
	// table := entries is either a comma-separated value list (Array) or a
	// key = value list (Named); mixing the two is not accepted at this
	// layer.
	_, err := Parse(`{ 1, foo = 2 }`)
	if err == nil {
		t.Fatal("expected an error mixing array and named entries")
	}
}

func TestParseTrailingDataFails(t *testing.T) {
	_, err := Parse(`nil nil`)
	if err == nil {
		t.Fatal("expected an error for trailing data after the top-level value")
	}
}

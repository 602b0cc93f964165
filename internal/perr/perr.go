// Package perr is the unified error taxonomy shared by every decoder layer:
// text parser, print decoder, DEFLATE wrapper, binary deserializer, and
// schema mapper. Each error kind carries enough context (a byte/line
// offset, the offending kind, or the struct/key/type involved) to locate
// the fault without re-running the decode.
package perr

import "fmt"

// TextParseError reports a failure in the saved-variables text grammar.
type TextParseError struct {
	Offset  int
	Message string
}

func (e *TextParseError) Error() string {
	return fmt.Sprintf("text parse error at byte %d: %s", e.Offset, e.Message)
}

// MissingKeyError reports a required schema field absent from its table.
type MissingKeyError struct {
	Struct string
	Key    string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%s: missing required key %q", e.Struct, e.Key)
}

// BadTypeError reports a schema field whose value has the wrong Value kind.
type BadTypeError struct {
	Struct   string
	Expected string
	Actual   string
}

func (e *BadTypeError) Error() string {
	return fmt.Sprintf("%s: expected %s, found %s", e.Struct, e.Expected, e.Actual)
}

// InvalidPrimitiveError reports a primitive value (e.g. an enum tag) that
// does not match any recognized value.
type InvalidPrimitiveError struct {
	Expected string
	Actual   string
}

func (e *InvalidPrimitiveError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Expected, e.Actual)
}

// PrintDecodeError reports a byte in the print-decode envelope that maps
// to an invalid 6-bit digit.
type PrintDecodeError struct {
	BadByte byte
}

func (e *PrintDecodeError) Error() string {
	return fmt.Sprintf("invalid print-decode byte %#02x", e.BadByte)
}

// DeflateError wraps a raw-DEFLATE inflater failure verbatim.
type DeflateError struct {
	Inner error
}

func (e *DeflateError) Error() string {
	return fmt.Sprintf("deflate error: %s", e.Inner)
}

func (e *DeflateError) Unwrap() error { return e.Inner }

// BinaryParseFault is one entry in a BinaryParseError's trace: the kind of
// read that failed and the byte offset of the read position at failure.
type BinaryParseFault struct {
	Kind   string
	Offset int
}

// BinaryParseError reports a failure in the tag-driven binary deserializer.
// The deserializer records a single fault per error: the innermost read
// that failed. The enclosing object kinds are not added to the trace.
type BinaryParseError struct {
	Faults []BinaryParseFault
}

func (e *BinaryParseError) Error() string {
	s := "binary parse error:"
	for _, f := range e.Faults {
		s += fmt.Sprintf(" %s at byte %d;", f.Kind, f.Offset)
	}
	return s
}

// Utf8Error reports a string field whose bytes are not valid UTF-8.
type Utf8Error struct{}

func (e *Utf8Error) Error() string { return "invalid utf-8 in string value" }

// FloatStringParseError wraps a failure parsing a float-from-string
// large-object tag's decimal payload.
type FloatStringParseError struct {
	Inner error
}

func (e *FloatStringParseError) Error() string {
	return fmt.Sprintf("invalid float string: %s", e.Inner)
}

func (e *FloatStringParseError) Unwrap() error { return e.Inner }

// MissingRefError reports a back-reference index with no matching table
// entry (index 0, or an index past the end of the table).
type MissingRefError struct {
	Index int
}

func (e *MissingRefError) Error() string {
	return fmt.Sprintf("reference to missing table or string (index %d)", e.Index)
}

// UnsupportedVersionError reports a version-prefix byte above the highest
// version this deserializer understands.
type UnsupportedVersionError struct {
	Saw byte
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported serialization version %d", e.Saw)
}

// SignCastError reports a u64 schema field that received a negative Int.
type SignCastError struct {
	Field string
	Value int64
}

func (e *SignCastError) Error() string {
	return fmt.Sprintf("%s: cannot cast negative value %d to unsigned", e.Field, e.Value)
}

// TableKeyError reports a Named-table key that decoded to a Table, which
// has no valid stringification and is fatal per the format's invariants.
type TableKeyError struct{}

func (e *TableKeyError) Error() string { return "table used as a table key" }

// Package value defines the tagged-union Value tree shared by the text
// parser and the binary deserializer, plus the Table variants each
// decoder narrows to. It is the lingua franca the schema mapper
// converts into the typed recording tree.
package value

import "math"

// Kind tags which variant a Value holds.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Value is the tagged union produced by both decoders. Only the field
// matching Kind is meaningful. String payloads are copy-on-write: decoders
// borrow input bytes when they can (Str holds a substring of the source
// buffer) and only allocate when a layer forces a copy.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Table Table
}

// Nil is the shared Nil value.
var Nil = Value{Kind: KindNil}

// Bool constructs a Bool value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Int constructs an Int value.
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Float constructs a Float value.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// String constructs a String value. The caller controls whether s is
// borrowed from an input buffer or freshly allocated.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// TableValue constructs a Table-kind Value.
func TableValue(t Table) Value { return Value{Kind: KindTable, Table: t} }

// TableKind tags which Table variant is populated.
type TableKind int

const (
	TableEmpty TableKind = iota
	TableArray
	TableFloatArray
	TableNamed
	TableMixed
)

// Table is the mutually-exclusive set of table shapes the parsers
// produce. The binary deserializer is the only layer that can produce
// TableMixed; the text parser never mixes array and named entries.
type Table struct {
	Kind       TableKind
	Array      []Value
	FloatArray []float64
	Named      map[string]Value
}

// EmptyTable returns the canonical Empty table.
func EmptyTable() Table { return Table{Kind: TableEmpty} }

// ArrayTable wraps a Value slice as an Array table.
func ArrayTable(vs []Value) Table { return Table{Kind: TableArray, Array: vs} }

// FloatArrayTable wraps a float64 slice as a FloatArray table.
func FloatArrayTable(fs []float64) Table { return Table{Kind: TableFloatArray, FloatArray: fs} }

// NamedTable wraps a string-keyed map as a Named table.
func NamedTable(m map[string]Value) Table { return Table{Kind: TableNamed, Named: m} }

// MixedTable combines an array part and a named part.
func MixedTable(array []Value, named map[string]Value) Table {
	return Table{Kind: TableMixed, Array: array, Named: named}
}

// Len returns the number of entries in the table, counting both parts of
// a Mixed table.
func (t Table) Len() int {
	switch t.Kind {
	case TableEmpty:
		return 0
	case TableArray:
		return len(t.Array)
	case TableFloatArray:
		return len(t.FloatArray)
	case TableNamed:
		return len(t.Named)
	case TableMixed:
		return len(t.Array) + len(t.Named)
	default:
		return 0
	}
}

// AsArray returns the table's sequence of Values regardless of whether it
// is stored as Array or FloatArray, per the invariant that a FloatArray is
// behaviorally equivalent to an Array of Float. Consumers that only need
// the array part of a Mixed table may also use this.
func (t Table) AsArray() []Value {
	switch t.Kind {
	case TableArray:
		return t.Array
	case TableMixed:
		return t.Array
	case TableFloatArray:
		out := make([]Value, len(t.FloatArray))
		for i, f := range t.FloatArray {
			out[i] = Float(f)
		}
		return out
	default:
		return nil
	}
}

// Equal reports structural equality. Strings compare by byte content;
// floats compare by bit pattern so that round-tripping (e.g. through a
// back-reference clone) can be verified exactly.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindBool:
		return v.Bool == other.Bool
	case KindInt:
		return v.Int == other.Int
	case KindFloat:
		return math.Float64bits(v.Float) == math.Float64bits(other.Float)
	case KindString:
		return v.Str == other.Str
	case KindTable:
		return v.Table.Equal(other.Table)
	default:
		return false
	}
}

// Equal reports structural equality between two tables.
func (t Table) Equal(other Table) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case TableEmpty:
		return true
	case TableArray:
		return equalValueSlices(t.Array, other.Array)
	case TableFloatArray:
		return equalFloatSlices(t.FloatArray, other.FloatArray)
	case TableNamed:
		return equalValueMaps(t.Named, other.Named)
	case TableMixed:
		return equalValueSlices(t.Array, other.Array) && equalValueMaps(t.Named, other.Named)
	default:
		return false
	}
}

func equalValueSlices(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func equalFloatSlices(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}

func equalValueMaps(a, b map[string]Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		ov, ok := b[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Clone returns a deep, independent copy of the value: mutating the clone
// (e.g. appending to one of its Array/Named fields) must never affect the
// original, which is required for back-reference expansion.
func (v Value) Clone() Value {
	out := v
	out.Table = v.Table.Clone()
	return out
}

// Clone returns a deep, independent copy of the table.
func (t Table) Clone() Table {
	out := Table{Kind: t.Kind}
	if t.Array != nil {
		out.Array = make([]Value, len(t.Array))
		for i, v := range t.Array {
			out.Array[i] = v.Clone()
		}
	}
	if t.FloatArray != nil {
		out.FloatArray = append([]float64(nil), t.FloatArray...)
	}
	if t.Named != nil {
		out.Named = make(map[string]Value, len(t.Named))
		for k, v := range t.Named {
			out.Named[k] = v.Clone()
		}
	}
	return out
}

package schema

import (
	"github.com/emallson/profiling2-decode/internal/perr"
	"github.com/emallson/profiling2-decode/internal/value"
)

// namedFields returns the key/value map backing a Named, Mixed, or Empty
// table Value, tolerating all three the way the binary deserializer and
// text parser can each legally produce. Array and FloatArray tables are a
// BadType for any struct-shaped field.
func namedFields(v value.Value, structName string) (map[string]value.Value, error) {
	if v.Kind != value.KindTable {
		return nil, &perr.BadTypeError{Struct: structName, Expected: "table", Actual: v.Kind.String()}
	}
	switch v.Table.Kind {
	case value.TableEmpty:
		return map[string]value.Value{}, nil
	case value.TableNamed, value.TableMixed:
		return v.Table.Named, nil
	default:
		return nil, &perr.BadTypeError{Struct: structName, Expected: "named table", Actual: "array table"}
	}
}

func requiredField(fields map[string]value.Value, structName, key string) (value.Value, error) {
	v, ok := fields[key]
	if !ok {
		return value.Value{}, &perr.MissingKeyError{Struct: structName, Key: key}
	}
	return v, nil
}

// optionalField returns (value, true) when key is present and not Nil; an
// absent key or an explicit Nil both count as "not present", matching
// an absent key or an explicit Nil both count as "not present".
func optionalField(fields map[string]value.Value, key string) (value.Value, bool) {
	v, ok := fields[key]
	if !ok || v.Kind == value.KindNil {
		return value.Value{}, false
	}
	return v, true
}

func asString(v value.Value, structName, field string) (string, error) {
	if v.Kind != value.KindString {
		return "", &perr.BadTypeError{Struct: structName, Expected: field + ": string", Actual: v.Kind.String()}
	}
	return v.Str, nil
}

func asBool(v value.Value, structName, field string) (bool, error) {
	if v.Kind != value.KindBool {
		return false, &perr.BadTypeError{Struct: structName, Expected: field + ": bool", Actual: v.Kind.String()}
	}
	return v.Bool, nil
}

func asUint64(v value.Value, structName, field string) (uint64, error) {
	if v.Kind != value.KindInt {
		return 0, &perr.BadTypeError{Struct: structName, Expected: field + ": int", Actual: v.Kind.String()}
	}
	if v.Int < 0 {
		return 0, &perr.SignCastError{Field: structName + "." + field, Value: v.Int}
	}
	return uint64(v.Int), nil
}

func asInt64(v value.Value, structName, field string) (int64, error) {
	if v.Kind != value.KindInt {
		return 0, &perr.BadTypeError{Struct: structName, Expected: field + ": int", Actual: v.Kind.String()}
	}
	return v.Int, nil
}

// asFloat64 accepts Float directly and widens Int
// ("float fields accept Int (widened) or Float").
func asFloat64(v value.Value, structName, field string) (float64, error) {
	switch v.Kind {
	case value.KindFloat:
		return v.Float, nil
	case value.KindInt:
		return float64(v.Int), nil
	default:
		return 0, &perr.BadTypeError{Struct: structName, Expected: field + ": float", Actual: v.Kind.String()}
	}
}

// asValueSlice returns a table's sequence of Values regardless of whether
// it is stored as Empty, Array, FloatArray, or the array part of Mixed.
func asValueSlice(v value.Value, structName, field string) ([]value.Value, error) {
	if v.Kind != value.KindTable {
		return nil, &perr.BadTypeError{Struct: structName, Expected: field + ": array", Actual: v.Kind.String()}
	}
	switch v.Table.Kind {
	case value.TableEmpty:
		return nil, nil
	case value.TableArray, value.TableFloatArray, value.TableMixed:
		return v.Table.AsArray(), nil
	default:
		return nil, &perr.BadTypeError{Struct: structName, Expected: field + ": array", Actual: "named table"}
	}
}

// asFloatSlice is asValueSlice specialized to float fields, using the
// FloatArray fast path directly instead of re-boxing each element.
func asFloatSlice(v value.Value, structName, field string) ([]float64, error) {
	if v.Kind != value.KindTable {
		return nil, &perr.BadTypeError{Struct: structName, Expected: field + ": array", Actual: v.Kind.String()}
	}
	switch v.Table.Kind {
	case value.TableEmpty:
		return nil, nil
	case value.TableFloatArray:
		return append([]float64(nil), v.Table.FloatArray...), nil
	case value.TableArray, value.TableMixed:
		elems := v.Table.AsArray()
		out := make([]float64, len(elems))
		for i, e := range elems {
			f, err := asFloat64(e, structName, field)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, &perr.BadTypeError{Struct: structName, Expected: field + ": array", Actual: "named table"}
	}
}

func reqString(fields map[string]value.Value, structName, key string) (string, error) {
	v, err := requiredField(fields, structName, key)
	if err != nil {
		return "", err
	}
	return asString(v, structName, key)
}

func reqBool(fields map[string]value.Value, structName, key string) (bool, error) {
	v, err := requiredField(fields, structName, key)
	if err != nil {
		return false, err
	}
	return asBool(v, structName, key)
}

func reqUint64(fields map[string]value.Value, structName, key string) (uint64, error) {
	v, err := requiredField(fields, structName, key)
	if err != nil {
		return 0, err
	}
	return asUint64(v, structName, key)
}

func reqFloat64(fields map[string]value.Value, structName, key string) (float64, error) {
	v, err := requiredField(fields, structName, key)
	if err != nil {
		return 0, err
	}
	return asFloat64(v, structName, key)
}

func optFloat64Ptr(fields map[string]value.Value, structName, key string) (*float64, error) {
	v, ok := optionalField(fields, key)
	if !ok {
		return nil, nil
	}
	f, err := asFloat64(v, structName, key)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func optBoolPtr(fields map[string]value.Value, structName, key string) (*bool, error) {
	v, ok := optionalField(fields, key)
	if !ok {
		return nil, nil
	}
	b, err := asBool(v, structName, key)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func optFloatMap(fields map[string]value.Value, structName, key string) (map[string]float64, error) {
	v, ok := optionalField(fields, key)
	if !ok {
		return nil, nil
	}
	named, err := namedFields(v, structName)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(named))
	for k, fv := range named {
		f, err := asFloat64(fv, structName, key)
		if err != nil {
			return nil, err
		}
		out[k] = f
	}
	return out, nil
}

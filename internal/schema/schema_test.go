package schema

import (
	"errors"
	"testing"

	"github.com/emallson/profiling2-decode/internal/perr"
	"github.com/emallson/profiling2-decode/internal/value"
)

func TestMapSavedVariablesEmpty(t *testing.T) {
	v := value.TableValue(value.NamedTable(map[string]value.Value{
		"recordings": value.TableValue(value.EmptyTable()),
	}))
	sv, err := MapSavedVariables(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sv.Recordings) != 0 {
		t.Fatalf("got %d recordings, want 0", len(sv.Recordings))
	}
}

func TestMapSavedVariablesMissingKey(t *testing.T) {
	v := value.TableValue(value.EmptyTable())
	_, err := MapSavedVariables(v)
	var missing *perr.MissingKeyError
	if !errors.As(err, &missing) {
		t.Fatalf("got %T (%v), want *perr.MissingKeyError", err, err)
	}
}

func TestMapEncounterManual(t *testing.T) {
	v := value.TableValue(value.NamedTable(map[string]value.Value{
		"kind":      value.String("manual"),
		"startTime": value.Int(100),
		"endTime":   value.Int(200),
	}))
	enc, err := mapEncounter(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc.Kind != EncounterManual || enc.StartTime != 100 || enc.EndTime != 200 {
		t.Fatalf("got %+v", enc)
	}
}

func TestMapEncounterDungeonWireNameMythicplus(t *testing.T) {
	v := value.TableValue(value.NamedTable(map[string]value.Value{
		"kind":      value.String("mythicplus"),
		"startTime": value.Int(1),
		"endTime":   value.Int(2),
		"success":   value.Bool(true),
		"mapId":     value.Int(42),
		"groupSize": value.Int(5),
	}))
	enc, err := mapEncounter(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc.Kind != EncounterDungeon || enc.MapID != 42 || !enc.Success {
		t.Fatalf("got %+v", enc)
	}
}

func TestMapEncounterUnknownKind(t *testing.T) {
	v := value.TableValue(value.NamedTable(map[string]value.Value{
		"kind": value.String("arena"),
	}))
	_, err := mapEncounter(v)
	var badType *perr.BadTypeError
	if !errors.As(err, &badType) {
		t.Fatalf("got %T (%v), want *perr.BadTypeError", err, err)
	}
}

func TestMapStruct(t *testing.T) {
	// Text `{ foo = "xyz", bar = 12.345, baz = false }`.
	v := value.TableValue(value.NamedTable(map[string]value.Value{
		"foo": value.String("xyz"),
		"bar": value.Float(12.345),
		"baz": value.Bool(false),
	}))
	fields, err := namedFields(v, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foo, err := reqString(fields, "test", "foo")
	if err != nil || foo != "xyz" {
		t.Fatalf("foo = %q, %v", foo, err)
	}
	bar, err := reqFloat64(fields, "test", "bar")
	if err != nil || bar != 12.345 {
		t.Fatalf("bar = %v, %v", bar, err)
	}
	baz, err := reqBool(fields, "test", "baz")
	if err != nil || baz != false {
		t.Fatalf("baz = %v, %v", baz, err)
	}
}

func TestMapStatsShapedTable(t *testing.T) {
	v := value.TableValue(value.NamedTable(map[string]value.Value{
		"mean": value.Float(1.5),
		"skew": value.Float(0.2),
		"samples": value.TableValue(value.ArrayTable([]value.Value{
			value.Int(1), value.Int(2), value.Int(3), value.Int(4),
		})),
		"quantiles": value.TableValue(value.NamedTable(map[string]value.Value{
			"p50": value.Float(1.0),
			"p99": value.Float(3.9),
		})),
	}))
	stats, err := mapStats(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Mean != 1.5 || stats.Skew == nil || *stats.Skew != 0.2 {
		t.Fatalf("got %+v", stats)
	}
	if len(stats.Samples) != 4 {
		t.Fatalf("got %d samples, want 4", len(stats.Samples))
	}
	if stats.Variance != nil {
		t.Fatalf("got variance %v, want nil (absent)", stats.Variance)
	}
	if stats.Quantiles["p50"] != 1.0 || stats.Quantiles["p99"] != 3.9 {
		t.Fatalf("got quantiles %+v", stats.Quantiles)
	}
}

func TestMapSketchBinsSparseExpandsToDense(t *testing.T) {
	fields := map[string]value.Value{
		"bins": value.TableValue(value.NamedTable(map[string]value.Value{
			"0": value.Float(1.0),
			"3": value.Float(4.0),
		})),
	}
	bins, err := mapSketchBins(fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{1.0, 0, 0, 4.0}
	if len(bins) != len(want) {
		t.Fatalf("got %v, want %v", bins, want)
	}
	for i := range want {
		if bins[i] != want[i] {
			t.Fatalf("got %v, want %v", bins, want)
		}
	}
}

func TestMapSketchBinsPlainArrayPassesThrough(t *testing.T) {
	fields := map[string]value.Value{
		"bins": value.TableValue(value.FloatArrayTable([]float64{1, 2, 3})),
	}
	bins, err := mapSketchBins(fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bins) != 3 || bins[0] != 1 || bins[2] != 3 {
		t.Fatalf("got %v", bins)
	}
}

func TestMapSketchBinsSparseRejectsNegativeIndex(t *testing.T) {
	fields := map[string]value.Value{
		"bins": value.TableValue(value.NamedTable(map[string]value.Value{
			"-5": value.Float(1.0),
		})),
	}
	_, err := mapSketchBins(fields)
	var signErr *perr.SignCastError
	if _, ok := err.(*perr.SignCastError); !ok {
		t.Fatalf("got %T (%v), want %T", err, err, signErr)
	}
}

func TestMapSketchBinsAbsentIsNil(t *testing.T) {
	bins, err := mapSketchBins(map[string]value.Value{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bins != nil {
		t.Fatalf("got %v, want nil", bins)
	}
}

func TestRecordingDataLazyDecodeMemoizes(t *testing.T) {
	d := newUnparsedData("raw-blob")
	calls := 0
	decode := func(raw string) (*ParsedRecording, error) {
		calls++
		return &ParsedRecording{OnUpdateDelay: TrackerData{}}, nil
	}

	if d.IsParsed() {
		t.Fatal("fresh unparsed data reports IsParsed() == true")
	}
	if _, err := d.Parsed(decode); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := d.Parsed(decode); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("decode called %d times, want 1 (memoized)", calls)
	}
	if !d.IsParsed() {
		t.Fatal("decoded data reports IsParsed() == false")
	}
}

func TestNewParsedDataSkipsDecode(t *testing.T) {
	parsed := &ParsedRecording{}
	d := newParsedData(parsed)
	if !d.IsParsed() {
		t.Fatal("pre-parsed data reports IsParsed() == false")
	}
	got, err := d.Parsed(func(string) (*ParsedRecording, error) {
		t.Fatal("decode must not be called for already-parsed data")
		return nil, nil
	})
	if err != nil || got != parsed {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestMapTrackerDataUntaggedNewStyle(t *testing.T) {
	v := value.TableValue(value.NamedTable(map[string]value.Value{
		"calls":      value.Int(10),
		"commits":    value.Int(9),
		"total_time": value.Float(1.23),
		"sketch": value.TableValue(value.NamedTable(map[string]value.Value{
			"outliers":      value.TableValue(value.EmptyTable()),
			"count":         value.Int(9),
			"trivial_count": value.Int(0),
		})),
	}))
	td, err := mapTrackerData(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !td.IsNewStyle || td.Sketch.Count != 9 {
		t.Fatalf("got %+v", td)
	}
}

func TestMapTrackerDataUntaggedOldStyle(t *testing.T) {
	v := value.TableValue(value.NamedTable(map[string]value.Value{
		"calls":      value.Int(10),
		"commits":    value.Int(9),
		"total_time": value.Float(1.23),
		"stats": value.TableValue(value.NamedTable(map[string]value.Value{
			"mean":    value.Float(0.5),
			"samples": value.TableValue(value.EmptyTable()),
		})),
		"top5": value.TableValue(value.FloatArrayTable([]float64{1, 2, 3, 4, 5})),
	}))
	td, err := mapTrackerData(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if td.IsNewStyle || td.Stats.Mean != 0.5 || len(td.Top5) != 5 {
		t.Fatalf("got %+v", td)
	}
}

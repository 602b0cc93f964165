package schema

import (
	"strconv"

	"github.com/emallson/profiling2-decode/internal/perr"
	"github.com/emallson/profiling2-decode/internal/value"
)

// MapSavedVariables converts the top-level Value produced by the text
// parser into a SavedVariables tree.
func MapSavedVariables(v value.Value) (*SavedVariables, error) {
	fields, err := namedFields(v, "SavedVariables")
	if err != nil {
		return nil, err
	}
	recordingsV, err := requiredField(fields, "SavedVariables", "recordings")
	if err != nil {
		return nil, err
	}
	arr, err := asValueSlice(recordingsV, "SavedVariables", "recordings")
	if err != nil {
		return nil, err
	}

	recs := make([]*Recording, 0, len(arr))
	for _, rv := range arr {
		r, err := mapRecording(rv)
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return &SavedVariables{Recordings: recs}, nil
}

// MapParsedRecording converts a Value (typically the root of a
// binary-deserialized stream) into a ParsedRecording. It is exported so
// the lazy-decode path in the top-level package can call it directly
// without round-tripping through a Recording.
func MapParsedRecording(v value.Value) (*ParsedRecording, error) {
	return mapParsedRecording(v)
}

func mapRecording(v value.Value) (*Recording, error) {
	fields, err := namedFields(v, "Recording")
	if err != nil {
		return nil, err
	}
	encV, err := requiredField(fields, "Recording", "encounter")
	if err != nil {
		return nil, err
	}
	enc, err := mapEncounter(encV)
	if err != nil {
		return nil, err
	}
	dataV, err := requiredField(fields, "Recording", "data")
	if err != nil {
		return nil, err
	}
	data, err := mapRecordingData(dataV)
	if err != nil {
		return nil, err
	}
	return &Recording{Encounter: enc, Data: data}, nil
}

// mapRecordingData implements the RecordingData union the way the
// reference schema's untagged enum resolves it: a raw string is Unparsed,
// anything else must already have ParsedRecording's shape.
func mapRecordingData(v value.Value) (*RecordingData, error) {
	if v.Kind == value.KindString {
		return newUnparsedData(v.Str), nil
	}
	parsed, err := mapParsedRecording(v)
	if err != nil {
		return nil, err
	}
	return newParsedData(parsed), nil
}

func mapEncounter(v value.Value) (Encounter, error) {
	fields, err := namedFields(v, "Encounter")
	if err != nil {
		return Encounter{}, err
	}
	kind, err := reqString(fields, "Encounter", "kind")
	if err != nil {
		return Encounter{}, err
	}

	switch EncounterKind(kind) {
	case EncounterManual:
		start, err := reqUint64(fields, "Encounter", "startTime")
		if err != nil {
			return Encounter{}, err
		}
		end, err := reqUint64(fields, "Encounter", "endTime")
		if err != nil {
			return Encounter{}, err
		}
		return Encounter{Kind: EncounterManual, StartTime: start, EndTime: end}, nil

	case EncounterRaid:
		start, err := reqUint64(fields, "Encounter", "startTime")
		if err != nil {
			return Encounter{}, err
		}
		end, err := reqUint64(fields, "Encounter", "endTime")
		if err != nil {
			return Encounter{}, err
		}
		name, err := reqString(fields, "Encounter", "encounterName")
		if err != nil {
			return Encounter{}, err
		}
		encID, err := reqUint64(fields, "Encounter", "encounterId")
		if err != nil {
			return Encounter{}, err
		}
		success, err := reqBool(fields, "Encounter", "success")
		if err != nil {
			return Encounter{}, err
		}
		difficulty, err := reqUint64(fields, "Encounter", "difficultyId")
		if err != nil {
			return Encounter{}, err
		}
		groupSize, err := reqUint64(fields, "Encounter", "groupSize")
		if err != nil {
			return Encounter{}, err
		}
		return Encounter{
			Kind: EncounterRaid, StartTime: start, EndTime: end,
			EncounterName: name, EncounterID: encID, Success: success,
			DifficultyID: difficulty, GroupSize: groupSize,
		}, nil

	case EncounterDungeon:
		start, err := reqUint64(fields, "Encounter", "startTime")
		if err != nil {
			return Encounter{}, err
		}
		end, err := reqUint64(fields, "Encounter", "endTime")
		if err != nil {
			return Encounter{}, err
		}
		success, err := reqBool(fields, "Encounter", "success")
		if err != nil {
			return Encounter{}, err
		}
		mapID, err := reqUint64(fields, "Encounter", "mapId")
		if err != nil {
			return Encounter{}, err
		}
		groupSize, err := reqUint64(fields, "Encounter", "groupSize")
		if err != nil {
			return Encounter{}, err
		}
		return Encounter{
			Kind: EncounterDungeon, StartTime: start, EndTime: end,
			Success: success, MapID: mapID, GroupSize: groupSize,
		}, nil

	default:
		return Encounter{}, &perr.BadTypeError{Struct: "Encounter", Expected: "kind in {manual, raid, mythicplus}", Actual: kind}
	}
}

func mapParsedRecording(v value.Value) (*ParsedRecording, error) {
	fields, err := namedFields(v, "ParsedRecording")
	if err != nil {
		return nil, err
	}
	scriptsV, err := requiredField(fields, "ParsedRecording", "scripts")
	if err != nil {
		return nil, err
	}
	scripts, err := mapTrackerDataMap(scriptsV, "scripts")
	if err != nil {
		return nil, err
	}

	var externals map[string]TrackerData
	if externalsV, ok := optionalField(fields, "externals"); ok {
		externals, err = mapTrackerDataMap(externalsV, "externals")
		if err != nil {
			return nil, err
		}
	}

	onUpdateV, err := requiredField(fields, "ParsedRecording", "onUpdateDelay")
	if err != nil {
		return nil, err
	}
	onUpdate, err := mapTrackerData(onUpdateV)
	if err != nil {
		return nil, err
	}

	var sketchParams *SketchParams
	if spV, ok := optionalField(fields, "sketch_params"); ok {
		sketchParams, err = mapSketchParams(spV)
		if err != nil {
			return nil, err
		}
	}

	return &ParsedRecording{
		Scripts:       scripts,
		Externals:     externals,
		OnUpdateDelay: onUpdate,
		SketchParams:  sketchParams,
	}, nil
}

func mapTrackerDataMap(v value.Value, field string) (map[string]TrackerData, error) {
	fields, err := namedFields(v, "ParsedRecording."+field)
	if err != nil {
		return nil, err
	}
	out := make(map[string]TrackerData, len(fields))
	for k, fv := range fields {
		td, err := mapTrackerData(fv)
		if err != nil {
			return nil, err
		}
		out[k] = td
	}
	return out, nil
}

// mapTrackerData resolves the untagged OldStyle/NewStyle union by probing
// for "sketch" first, then "stats"+"top5", matching the reference schema's
// declared variant order.
func mapTrackerData(v value.Value) (TrackerData, error) {
	fields, err := namedFields(v, "TrackerData")
	if err != nil {
		return TrackerData{}, err
	}

	core, err := mapTrackerCore(fields)
	if err != nil {
		return TrackerData{}, err
	}

	if sketchV, ok := fields["sketch"]; ok {
		sketch, err := mapSketchStats(sketchV)
		if err != nil {
			return TrackerData{}, err
		}
		return TrackerData{TrackerCore: core, IsNewStyle: true, Sketch: sketch}, nil
	}

	if statsV, ok := fields["stats"]; ok {
		stats, err := mapStats(statsV)
		if err != nil {
			return TrackerData{}, err
		}
		top5V, err := requiredField(fields, "TrackerData", "top5")
		if err != nil {
			return TrackerData{}, err
		}
		top5, err := asFloatSlice(top5V, "TrackerData", "top5")
		if err != nil {
			return TrackerData{}, err
		}
		return TrackerData{TrackerCore: core, IsNewStyle: false, Stats: stats, Top5: top5}, nil
	}

	return TrackerData{}, &perr.MissingKeyError{Struct: "TrackerData", Key: "sketch or stats"}
}

func mapTrackerCore(fields map[string]value.Value) (TrackerCore, error) {
	calls, err := reqUint64(fields, "TrackerData", "calls")
	if err != nil {
		return TrackerCore{}, err
	}
	commits, err := reqUint64(fields, "TrackerData", "commits")
	if err != nil {
		return TrackerCore{}, err
	}
	officialTime, err := optFloat64Ptr(fields, "TrackerData", "officialTime")
	if err != nil {
		return TrackerCore{}, err
	}
	dependent, err := optBoolPtr(fields, "TrackerData", "dependent")
	if err != nil {
		return TrackerCore{}, err
	}
	totalTime, err := reqFloat64(fields, "TrackerData", "total_time")
	if err != nil {
		return TrackerCore{}, err
	}
	return TrackerCore{
		Calls: calls, Commits: commits,
		OfficialTime: officialTime, Dependent: dependent,
		TotalTime: totalTime,
	}, nil
}

func mapStats(v value.Value) (Stats, error) {
	fields, err := namedFields(v, "Stats")
	if err != nil {
		return Stats{}, err
	}
	mean, err := reqFloat64(fields, "Stats", "mean")
	if err != nil {
		return Stats{}, err
	}
	variance, err := optFloat64Ptr(fields, "Stats", "variance")
	if err != nil {
		return Stats{}, err
	}
	skew, err := optFloat64Ptr(fields, "Stats", "skew")
	if err != nil {
		return Stats{}, err
	}
	samplesV, err := requiredField(fields, "Stats", "samples")
	if err != nil {
		return Stats{}, err
	}
	samples, err := asFloatSlice(samplesV, "Stats", "samples")
	if err != nil {
		return Stats{}, err
	}
	quantiles, err := optFloatMap(fields, "Stats", "quantiles")
	if err != nil {
		return Stats{}, err
	}
	return Stats{Mean: mean, Variance: variance, Skew: skew, Samples: samples, Quantiles: quantiles}, nil
}

func mapSketchStats(v value.Value) (SketchStats, error) {
	fields, err := namedFields(v, "SketchStats")
	if err != nil {
		return SketchStats{}, err
	}
	outliersV, err := requiredField(fields, "SketchStats", "outliers")
	if err != nil {
		return SketchStats{}, err
	}
	outliers, err := asFloatSlice(outliersV, "SketchStats", "outliers")
	if err != nil {
		return SketchStats{}, err
	}
	bins, err := mapSketchBins(fields)
	if err != nil {
		return SketchStats{}, err
	}
	count, err := reqUint64(fields, "SketchStats", "count")
	if err != nil {
		return SketchStats{}, err
	}
	trivialCount, err := reqUint64(fields, "SketchStats", "trivial_count")
	if err != nil {
		return SketchStats{}, err
	}
	return SketchStats{Outliers: outliers, Bins: bins, Count: count, TrivialCount: trivialCount}, nil
}

// mapSketchBins coerces the bins field: a plain float array passes
// through, while a sparse mapping from integer (or numeric string) index
// to float expands into a dense, zero-filled array sized to max(index)+1.
func mapSketchBins(fields map[string]value.Value) ([]float64, error) {
	v, ok := optionalField(fields, "bins")
	if !ok {
		return nil, nil
	}
	if v.Kind != value.KindTable {
		return nil, &perr.BadTypeError{Struct: "SketchStats", Expected: "table", Actual: v.Kind.String()}
	}

	switch v.Table.Kind {
	case value.TableEmpty:
		return nil, nil
	case value.TableFloatArray, value.TableArray:
		return asFloatSlice(v, "SketchStats", "bins")
	case value.TableNamed, value.TableMixed:
		return sparseBinsToDense(v.Table)
	default:
		return nil, &perr.BadTypeError{Struct: "SketchStats", Expected: "array or sparse-index table", Actual: "table"}
	}
}

func sparseBinsToDense(t value.Table) ([]float64, error) {
	entries := make(map[int]float64, len(t.Named)+len(t.Array))
	maxIdx := -1

	for i, v := range t.Array {
		f, err := asFloat64(v, "SketchStats", "bins")
		if err != nil {
			return nil, err
		}
		entries[i] = f
		if i > maxIdx {
			maxIdx = i
		}
	}
	for k, v := range t.Named {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, &perr.BadTypeError{Struct: "SketchStats", Expected: "numeric bin index", Actual: k}
		}
		if idx < 0 {
			return nil, &perr.SignCastError{Field: "SketchStats.bins", Value: int64(idx)}
		}
		f, err := asFloat64(v, "SketchStats", "bins")
		if err != nil {
			return nil, err
		}
		entries[idx] = f
		if idx > maxIdx {
			maxIdx = idx
		}
	}

	dense := make([]float64, maxIdx+1)
	for idx, f := range entries {
		dense[idx] = f
	}
	return dense, nil
}

func mapSketchParams(v value.Value) (*SketchParams, error) {
	fields, err := namedFields(v, "SketchParams")
	if err != nil {
		return nil, err
	}
	alpha, err := reqFloat64(fields, "SketchParams", "alpha")
	if err != nil {
		return nil, err
	}
	gamma, err := reqFloat64(fields, "SketchParams", "gamma")
	if err != nil {
		return nil, err
	}
	binOffsetV, err := requiredField(fields, "SketchParams", "bin_offset")
	if err != nil {
		return nil, err
	}
	binOffset, err := asInt64(binOffsetV, "SketchParams", "bin_offset")
	if err != nil {
		return nil, err
	}
	trivialCutoff, err := reqFloat64(fields, "SketchParams", "trivial_cutoff")
	if err != nil {
		return nil, err
	}
	return &SketchParams{Alpha: alpha, Gamma: gamma, BinOffset: binOffset, TrivialCutoff: trivialCutoff}, nil
}

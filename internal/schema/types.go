// Package schema converts a decoded Value tree (produced by either the
// text parser or the binary deserializer) into the typed recording tree
// the rest of the system consumes, and holds the lazy-decode memoization
// that upgrades a raw recording blob into its parsed form on first access.
package schema

import (
	"sync"
	"sync/atomic"
)

// SavedVariables is the top-level decoded saved-variables file.
type SavedVariables struct {
	Recordings []*Recording
}

// EncounterKind discriminates the Encounter union by its wire-format
// "kind" field. The dungeon variant is spelled "mythicplus" on the wire
// but is called Dungeon in code, matching the reference implementation's
// own naming split.
type EncounterKind string

const (
	EncounterManual   EncounterKind = "manual"
	EncounterRaid     EncounterKind = "raid"
	EncounterDungeon  EncounterKind = "mythicplus"
)

// Encounter describes the activity a Recording was captured during. Only
// the fields relevant to Kind are populated; the others are zero.
type Encounter struct {
	Kind      EncounterKind
	StartTime uint64
	EndTime   uint64

	// Raid-only.
	EncounterName string
	EncounterID   uint64
	DifficultyID  uint64

	// Raid and Dungeon.
	Success   bool
	GroupSize uint64

	// Dungeon-only.
	MapID uint64
}

// Recording pairs an Encounter descriptor with its (possibly still
// unparsed) per-tracker data blob.
type Recording struct {
	Encounter Encounter
	Data      *RecordingData
}

// RecordingData holds a recording's tracker data, either as the raw
// printable blob produced by the text parser or, once decoded, as the
// typed ParsedRecording. See Parsed for the lazy-decode/memoization
// contract.
type RecordingData struct {
	raw string

	once   sync.Once
	done   atomic.Bool
	parsed *ParsedRecording
	err    error
}

func newUnparsedData(raw string) *RecordingData {
	return &RecordingData{raw: raw}
}

func newParsedData(p *ParsedRecording) *RecordingData {
	d := &RecordingData{parsed: p}
	d.once.Do(func() {})
	d.done.Store(true)
	return d
}

// Raw returns the undecoded printable blob. The blob stays available after
// Parsed has decoded it; it is empty for data constructed already parsed.
func (d *RecordingData) Raw() string { return d.raw }

// IsParsed reports whether this recording's data has already been decoded,
// without triggering a decode.
func (d *RecordingData) IsParsed() bool { return d.done.Load() }

// Parsed returns this recording's decoded ParsedRecording, computing it via
// decode on the first call and caching the result (success or failure) for
// every subsequent call. decode is ignored once a result is cached,
// including when the RecordingData was constructed already-parsed.
func (d *RecordingData) Parsed(decode func(raw string) (*ParsedRecording, error)) (*ParsedRecording, error) {
	d.once.Do(func() {
		d.parsed, d.err = decode(d.raw)
		d.done.Store(true)
	})
	return d.parsed, d.err
}

// ParsedRecording is the fully-decoded per-recording tracker tree.
type ParsedRecording struct {
	Scripts       map[string]TrackerData
	Externals     map[string]TrackerData // nil if absent
	OnUpdateDelay TrackerData
	SketchParams  *SketchParams // nil if absent
}

// TrackerCore holds the fields common to both TrackerData styles.
type TrackerCore struct {
	Calls        uint64
	Commits      uint64
	OfficialTime *float64 // nil if absent
	Dependent    *bool    // nil if absent
	TotalTime    float64
}

// TrackerData is the per-code-site profiling sample bundle. It is an
// untagged union on the wire (distinguished by the presence of "sketch" vs
// "stats"+"top5"), so it is represented here as a flattened struct with an
// IsNewStyle discriminant rather than an interface, mirroring how the
// reference schema flattens TrackerCore into both variants.
type TrackerData struct {
	TrackerCore

	IsNewStyle bool

	// OldStyle only.
	Stats Stats
	Top5  []float64

	// NewStyle only.
	Sketch SketchStats
}

// Stats is the "old-style" sample-list tracker summary.
type Stats struct {
	Mean      float64
	Variance  *float64 // nil if absent
	Skew      *float64 // nil if absent
	Samples   []float64
	Quantiles map[string]float64 // nil if absent
}

// SketchStats is the "new-style" DDSketch-like tracker summary.
type SketchStats struct {
	Outliers     []float64
	Bins         []float64 // nil if absent
	Count        uint64
	TrivialCount uint64
}

// SketchParams describes the DDSketch configuration shared across a
// recording's new-style trackers.
type SketchParams struct {
	Alpha         float64
	Gamma         float64
	BinOffset     int64
	TrivialCutoff float64
}

package profiling2

import (
	"bytes"
	"compress/flate"
	"strings"
	"testing"

	"github.com/emallson/profiling2-decode/internal/value"
)

func TestParseSavedVariablesEmptyRecordings(t *testing.T) {
	sv, err := ParseSavedVariables(`Profiling2_Storage = { ["recordings"] = { } }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sv.Recordings) != 0 {
		t.Fatalf("got %d recordings, want 0", len(sv.Recordings))
	}
}

func TestParseSavedVariablesMissingTopLevelKey(t *testing.T) {
	_, err := ParseSavedVariables(`{ foo = "xyz", bar = 12.345, baz = false }`)
	if err == nil {
		t.Fatal("expected an error: this struct has no \"recordings\" key")
	}
}

// digitToChar is the exact inverse of printdecode's decoding table,
// rebuilt here so this test can construct fixtures without importing an
// unexported table from another package.
var digitToChar = func() [64]byte {
	var t [64]byte
	t[0] = 'a'
	for i := 1; i <= 15; i++ {
		t[i] = byte('a' + i)
	}
	for i := 16; i <= 25; i++ {
		t[i] = byte('a' + i)
	}
	for i := 26; i <= 45; i++ {
		t[i] = byte('A' + (i - 26))
	}
	for i := 46; i <= 51; i++ {
		t[i] = byte('A' + (i - 26))
	}
	for i := 52; i <= 61; i++ {
		t[i] = byte('0' + (i - 52))
	}
	t[62] = '('
	t[63] = ')'
	return t
}()

// encodeForPrintTest is the mechanical inverse of printdecode.Decode's
// fixed "last 4 characters are the bitwise tail" split, used only to
// build test fixtures.
func encodeForPrintTest(data []byte) string {
	n := len(data)
	tailLen := 0
	if n > 0 {
		tailLen = n % 3
		if tailLen == 0 {
			tailLen = 3
		}
		if tailLen > n {
			tailLen = n
		}
	}
	majorLen := n - tailLen

	var sb strings.Builder
	for i := 0; i < majorLen; i += 3 {
		cache := uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16
		for j := 0; j < 4; j++ {
			sb.WriteByte(digitToChar[cache&0x3f])
			cache >>= 6
		}
	}

	var cache uint64
	var bits uint
	for _, b := range data[majorLen:] {
		cache |= uint64(b) << bits
		bits += 8
	}
	for i := 0; i < 4; i++ {
		sb.WriteByte(digitToChar[cache&0x3f])
		cache >>= 6
	}
	return sb.String()
}

func deflateRaw(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		t.Fatalf("flate.NewWriter: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("flate write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("flate close: %v", err)
	}
	return buf.Bytes()
}

func TestFullPipelineRecordingDecode(t *testing.T) {
	// version=1, packed u7 -> Int(5).
	binary := []byte{0x01, 0x0b}
	compressed := deflateRaw(t, binary)
	printable := encodeForPrintTest(compressed)

	decoded, err := DecodeForPrint(printable)
	if err != nil {
		t.Fatalf("DecodeForPrint: %v", err)
	}
	if !bytes.Equal(decoded, compressed) {
		t.Fatalf("DecodeForPrint round-trip mismatch: got %x, want %x", decoded, compressed)
	}

	inflated, err := Decompress(printable)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(inflated, binary) {
		t.Fatalf("Decompress round-trip mismatch: got %x, want %x", inflated, binary)
	}

	v, err := decodeToValue(printable)
	if err != nil {
		t.Fatalf("decodeToValue: %v", err)
	}
	if !v.Equal(value.Int(5)) {
		t.Fatalf("got %+v, want Int(5)", v)
	}
}

func TestDecodeRecordingMemoizes(t *testing.T) {
	text := `Profiling2_Storage = {
		["recordings"] = {
			{
				["encounter"] = { ["kind"] = "manual", ["startTime"] = 1, ["endTime"] = 2 },
				["data"] = "` + escapedEmptyRecording(t) + `",
			},
		},
	}`

	sv, err := ParseSavedVariables(text)
	if err != nil {
		t.Fatalf("ParseSavedVariables: %v", err)
	}
	if len(sv.Recordings) != 1 {
		t.Fatalf("got %d recordings, want 1", len(sv.Recordings))
	}
	rec := sv.Recordings[0]
	if rec.Data.IsParsed() {
		t.Fatal("freshly parsed recording reports its data already decoded")
	}

	// The fixture recording data deliberately maps to an empty table,
	// which is missing ParsedRecording's required fields: DecodeRecording
	// must still memoize the resulting error so a second call doesn't
	// re-run the decode.
	pr1, err1 := DecodeRecording(rec)
	if err1 == nil {
		t.Fatal("expected a MissingKey error decoding an empty recording table")
	}
	pr2, err2 := DecodeRecording(rec)
	if pr1 != pr2 || err1 != err2 {
		t.Fatal("DecodeRecording did not return the memoized result on the second call")
	}
	if !rec.Data.IsParsed() {
		t.Fatal("decoded (even if failed) recording reports IsParsed() == false")
	}
}

// escapedEmptyRecording builds a printable blob for a minimal
// ParsedRecording-shaped binary stream (an empty Named table with no
// entries -- enough to exercise MapParsedRecording's required-field
// errors, which is all this wiring test needs to observe instead of
// a fully valid ParsedRecording).
func escapedEmptyRecording(t *testing.T) string {
	t.Helper()
	// version=1, small object header: count=0, type=Table(1) -> 0000 0110 = 0x06
	binary := []byte{0x01, 0x06}
	compressed := deflateRaw(t, binary)
	return encodeForPrintTest(compressed)
}

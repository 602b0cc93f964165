// Package profiling2 decodes saved-variables profiling data from the
// "profiling2" World of Warcraft addon: a text-format saved-variables
// file whose leaf recordings are a printable-ASCII-wrapped, DEFLATE
// compressed, LibSerialize-encoded binary object stream.
//
// The four public operations mirror the layers of that pipeline —
// ParseSavedVariables stops at the text layer (a recording whose data is a
// string blob is left Unparsed); DecodeForPrint, Decompress, and ParseCompressedRecording
// each peel one more layer off a single recording's raw blob on demand.
package profiling2

import (
	"fmt"
	"unicode/utf8"

	"github.com/emallson/profiling2-decode/internal/libserialize"
	"github.com/emallson/profiling2-decode/internal/perr"
	"github.com/emallson/profiling2-decode/internal/printdecode"
	"github.com/emallson/profiling2-decode/internal/rawdeflate"
	"github.com/emallson/profiling2-decode/internal/schema"
	"github.com/emallson/profiling2-decode/internal/textparse"
	"github.com/emallson/profiling2-decode/internal/value"
)

// ParseSavedVariables parses a complete saved-variables text file. A
// recording whose data is a string blob starts Unparsed (data already shaped
// as a ParsedRecording table is mapped immediately); call DecodeRecording (or
// Recording.Data.Parsed directly) to decode an individual recording's
// tracker data on demand.
func ParseSavedVariables(text string) (*schema.SavedVariables, error) {
	v, err := textparse.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse saved variables: %w", err)
	}
	sv, err := schema.MapSavedVariables(v)
	if err != nil {
		return nil, fmt.Errorf("parse saved variables: %w", err)
	}
	return sv, nil
}

// DecodeForPrint decodes a recording's printable-ASCII envelope into raw
// bytes, without inflating or deserializing them. Exposed for diagnostics.
func DecodeForPrint(printable string) ([]byte, error) {
	b, err := printdecode.Decode(printable)
	if err != nil {
		return nil, fmt.Errorf("decode for print: %w", err)
	}
	return b, nil
}

// Decompress decodes and inflates a recording's raw blob, returning the
// LibSerialize byte stream without deserializing it. Exposed for
// diagnostics.
func Decompress(printable string) ([]byte, error) {
	decoded, err := printdecode.Decode(printable)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	inflated, err := rawdeflate.Inflate(decoded)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return inflated, nil
}

// DecompressString is Decompress with a UTF-8 validity check on the
// inflated bytes, matching the reference binding's decompress_string
// entry point used by callers that already know the payload is text.
func DecompressString(printable string) (string, error) {
	b, err := Decompress(printable)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", &perr.Utf8Error{}
	}
	return string(b), nil
}

// ParseCompressedRecording runs the full inner pipeline on a single
// recording's raw blob: print-decode, inflate, binary-deserialize, and
// schema-map. It does not memoize; callers decoding a Recording obtained
// from ParseSavedVariables should use DecodeRecording instead, which
// caches the result on the Recording itself.
func ParseCompressedRecording(printable string) (*schema.ParsedRecording, error) {
	v, err := decodeToValue(printable)
	if err != nil {
		return nil, fmt.Errorf("parse compressed recording: %w", err)
	}
	pr, err := schema.MapParsedRecording(v)
	if err != nil {
		return nil, fmt.Errorf("parse compressed recording: %w", err)
	}
	return pr, nil
}

func decodeToValue(printable string) (value.Value, error) {
	decoded, err := printdecode.Decode(printable)
	if err != nil {
		return value.Value{}, err
	}
	inflated, err := rawdeflate.Inflate(decoded)
	if err != nil {
		return value.Value{}, err
	}
	return libserialize.Deserialize(inflated)
}

// DecodeRecording returns rec's decoded tracker data, running the full
// inner pipeline on first access and memoizing the result on rec.Data
// for every subsequent call.
func DecodeRecording(rec *schema.Recording) (*schema.ParsedRecording, error) {
	return rec.Data.Parsed(ParseCompressedRecording)
}

// Package rawdeflate feeds print-decoded bytes into a raw DEFLATE
// inflater. No zlib/gzip header or checksum is expected, matching
// LibDeflate's own raw-DEFLATE framing.
//
// It uses klauspost/compress/flate rather than the standard library's
// compress/flate, keeping this repo on one compression vendor for both
// raw DEFLATE and any future zstd-family use rather than splitting
// across two.
package rawdeflate

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/emallson/profiling2-decode/internal/perr"
)

// Inflate decompresses a raw-DEFLATE byte stream with no trailer.
func Inflate(compressed []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, &perr.DeflateError{Inner: err}
	}
	return out, nil
}

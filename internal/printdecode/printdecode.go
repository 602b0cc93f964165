// Package printdecode implements LibDeflate's printable-ASCII envelope:
// a 6-bit-per-character packing of arbitrary bytes into 64 printable
// characters, decoded back into raw bytes ahead of DEFLATE inflation.
package printdecode

import "github.com/emallson/profiling2-decode/internal/perr"

// decodingTable maps a printable byte to its 6-bit digit. A zero entry
// means "invalid", except for byte 97 ('a'), which is a special alias for
// digit 0 (the encoder reserves index 0 of the table for something else).
var decodingTable = [256]byte{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 62, 63, 0, 0, 0, 0, 0, 0, 52, 53, 54, 55, 56, 57, 58, 59, 60, 61, 0, 0,
	0, 0, 0, 0, 0, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, 36, 37, 38, 39, 40, 41, 42, 43, 44, 45,
	46, 47, 48, 49, 50, 51, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
	16, 17, 18, 19, 20, 21, 22, 23, 24, 25,
}

// specialZero is the one byte whose table entry of 0 is a real digit 0
// rather than "invalid": the encoder reserves decodingTable[0] for
// something else and special-cases 'a' to mean digit 0 instead.
const specialZero = 97 // 'a'

func decodeByte(b byte) (byte, error) {
	if b == specialZero {
		return 0, nil
	}
	d := decodingTable[b]
	if d == 0 {
		return 0, &perr.PrintDecodeError{BadByte: b}
	}
	return d, nil
}

// Decode decodes a printable-ASCII envelope into raw bytes. The last 4
// bytes of the input are always treated as the bitwise tail regardless of
// input length modulo 4 — this matches the reference encoder's
// `split_at(len - 4)` exactly and must not be "fixed" to `len mod 4`
// without revalidating against a corpus of real recordings. Inputs shorter
// than 4 bytes are decoded entirely through the bitwise tail path.
func Decode(input string) ([]byte, error) {
	in := []byte(input)
	if len(in) < 4 {
		return decodeTail(in)
	}

	groupEnd := len(in) - 4
	alignedEnd := groupEnd - groupEnd%4
	out := make([]byte, 0, (len(in)/4)*3+3)
	for i := 0; i < alignedEnd; i += 4 {
		d0, err := decodeByte(in[i])
		if err != nil {
			return nil, err
		}
		d1, err := decodeByte(in[i+1])
		if err != nil {
			return nil, err
		}
		d2, err := decodeByte(in[i+2])
		if err != nil {
			return nil, err
		}
		d3, err := decodeByte(in[i+3])
		if err != nil {
			return nil, err
		}
		cache := uint32(d0) + uint32(d1)*64 + uint32(d2)*4096 + uint32(d3)*262144
		out = append(out, byte(cache%256))
		cache /= 256
		out = append(out, byte(cache%256))
		cache /= 256
		out = append(out, byte(cache))
	}

	tail, err := decodeTail(in[alignedEnd:])
	if err != nil {
		return nil, err
	}
	return append(out, tail...), nil
}

// decodeTail decodes 0..N bitwise-packed 6-bit digits into bytes,
// discarding any residual bits that don't fill a full byte.
func decodeTail(in []byte) ([]byte, error) {
	var out []byte
	var cache uint64
	var cacheBits uint

	for _, b := range in {
		d, err := decodeByte(b)
		if err != nil {
			return nil, err
		}
		cache += uint64(d) << cacheBits
		cacheBits += 6

		for cacheBits >= 8 {
			out = append(out, byte(cache&0xff))
			cache >>= 8
			cacheBits -= 8
		}
	}
	return out, nil
}

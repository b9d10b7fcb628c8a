package bloom

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// The on-disk header occupies exactly one page at the start of the file:
//
//	+----------+-------+-------+-------+----------------------+
//	| Magic    | n     | m     | k     | zero padding         |
//	| 8 bytes  | u32BE | u32BE | u32BE | to PageSize          |
//	+----------+-------+-------+-------+----------------------+
//
// The false-positive rate is not stored; it is re-derived from (m, n, k) on
// load. External tools can read the first 20 bytes to recover the
// parameters without constructing a filter.
const (
	// Magic is the format version marker at the start of every filter
	// file. Anything else at load time is a format mismatch.
	Magic = "BLOOMv00"

	headerMagicOff = 0
	headerNOff     = 8
	headerMOff     = 12
	headerKOff     = 16

	// headerUsed is the span of meaningful header bytes; the rest of the
	// header page is reserved and zero.
	headerUsed = 20
)

// ErrFormatMismatch is returned on load when the magic tag does not match.
var ErrFormatMismatch = errors.New("bloom: bad magic tag, not a filter file")

// Header is a flyweight view over a header page's bytes. It must be at
// least headerUsed bytes long.
type Header []byte

// MagicOK reports whether the magic tag matches this format version.
func (h Header) MagicOK() bool {
	return bytes.Equal(h[headerMagicOff:headerMagicOff+len(Magic)], []byte(Magic))
}

// N returns the stored target capacity.
func (h Header) N() uint32 {
	return binary.BigEndian.Uint32(h[headerNOff:])
}

// SetN writes the target capacity.
func (h Header) SetN(v uint32) {
	binary.BigEndian.PutUint32(h[headerNOff:], v)
}

// M returns the stored bit length.
func (h Header) M() uint32 {
	return binary.BigEndian.Uint32(h[headerMOff:])
}

// SetM writes the bit length.
func (h Header) SetM(v uint32) {
	binary.BigEndian.PutUint32(h[headerMOff:], v)
}

// K returns the stored hash count.
func (h Header) K() uint32 {
	return binary.BigEndian.Uint32(h[headerKOff:])
}

// SetK writes the hash count.
func (h Header) SetK(v uint32) {
	binary.BigEndian.PutUint32(h[headerKOff:], v)
}

// encodeHeader fills a zeroed PageSize buffer with the header for p.
func encodeHeader(buf []byte, p Params) {
	h := Header(buf)
	copy(buf[headerMagicOff:], Magic)
	h.SetN(p.N)
	h.SetM(p.M)
	h.SetK(p.K)
}

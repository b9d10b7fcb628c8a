package bloom

import (
	"fmt"
	"math/bits"

	"github.com/bits-and-blooms/bitset"
)

const (
	// PageSize is the page granularity of the filter and its on-disk
	// format, in bytes.
	PageSize = 16 * 1024

	// PageBits is the number of filter bits per page.
	PageBits = PageSize * 8
)

// pageStore owns the filter's bit array as raw packed bytes split into
// PageSize chunks, plus the per-page dirty map that drives incremental
// saves. Keeping the array as bytes (rather than words) means a page view
// is exactly the bytes the persistence codec writes, with no repacking.
//
// Bit numbering is LSB0: bit 0 is the least significant bit of byte 0.
type pageStore struct {
	bits  []byte
	pages uint32
	dirty *bitset.BitSet
}

// newPageStore allocates a zeroed store for m bits. m must be a PageBits
// multiple; filter construction guarantees that.
func newPageStore(m uint32) *pageStore {
	pages := m / PageBits
	return &pageStore{
		bits:  make([]byte, m/8),
		pages: pages,
		dirty: bitset.New(uint(pages)),
	}
}

// get reports whether bit i is set. An out-of-range index means a corrupted
// page/offset computation, never a user input, so it panics.
func (s *pageStore) get(i uint64) bool {
	if i >= uint64(len(s.bits))*8 {
		panic(fmt.Sprintf("bloom: bit index %d out of range (m=%d)", i, len(s.bits)*8))
	}
	return s.bits[i>>3]&(1<<(i&7)) != 0
}

// set sets bit i, reporting whether it flipped 0->1. Setting an already-set
// bit is a no-op.
func (s *pageStore) set(i uint64) bool {
	if i >= uint64(len(s.bits))*8 {
		panic(fmt.Sprintf("bloom: bit index %d out of range (m=%d)", i, len(s.bits)*8))
	}
	mask := byte(1) << (i & 7)
	if s.bits[i>>3]&mask != 0 {
		return false
	}
	s.bits[i>>3] |= mask
	return true
}

// pageOf returns the page containing bit i.
func (s *pageStore) pageOf(i uint64) uint32 {
	return uint32(i / PageBits)
}

// markDirty flags a page as mutated since the last successful save.
func (s *pageStore) markDirty(page uint32) {
	s.dirty.Set(uint(page))
}

// clearDirty clears every dirty flag. Called by the persistence codec only
// after the flagged pages are durable.
func (s *pageStore) clearDirty() {
	s.dirty.ClearAll()
}

// dirtyPages returns the indices of pages mutated since the last clear, in
// ascending order. Collecting the indices does not clear the flags; only
// clearDirty does.
func (s *pageStore) dirtyPages() []uint32 {
	out := make([]uint32, 0, s.dirty.Count())
	for i, ok := s.dirty.NextSet(0); ok; i, ok = s.dirty.NextSet(i + 1) {
		out = append(out, uint32(i))
	}
	return out
}

// pageBytes returns a zero-copy view of one page's packed bytes, in the
// exact layout the on-disk format uses.
func (s *pageStore) pageBytes(page uint32) []byte {
	off := int(page) * PageSize
	return s.bits[off : off+PageSize]
}

// ones is the population count of the whole array.
func (s *pageStore) ones() uint32 {
	var n int
	for _, b := range s.bits {
		n += bits.OnesCount8(b)
	}
	return uint32(n)
}

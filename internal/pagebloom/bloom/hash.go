package bloom

import "github.com/dchest/siphash"

// Seed is the 128-bit SipHash key used to place items. It is deliberately
// not randomized per filter: two filters built in the same binary under the
// same seed agree on bit placement, which is what makes persisted files
// portable across runs. The zero value is the fixed default seed.
//
// The on-disk format does not record the seed. A file written under a
// non-default seed can only be reopened with that same seed.
type Seed struct {
	K0 uint64
	K1 uint64
}

// ItemHash is the pair of 64-bit halves of an item's 128-bit hash. The
// item's whole probe family derives from this pair, so the item bytes are
// hashed exactly once per operation.
type ItemHash struct {
	h1 uint64
	h2 uint64
}

// HashItem hashes an item's byte representation under seed. SipHash-2-4 is
// used as a fast well-distributed hash, not a security boundary.
func HashItem(seed Seed, item []byte) ItemHash {
	h1, h2 := siphash.Hash128(seed.K0, seed.K1, item)
	return ItemHash{h1: h1, h2: h2}
}

// Nth returns the i-th derived probe value via Kirsch-Mitzenmacher double
// hashing: h1 + i*h2, with uint64 wraparound as the intended modulus. One
// multiply-add per probe, no re-hashing.
func (h ItemHash) Nth(i uint32) uint64 {
	return h.h1 + uint64(i)*h.h2
}

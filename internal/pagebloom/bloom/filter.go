// Package bloom implements a page-segmented bloom filter that persists to
// disk with page-granular incremental writes.
//
// A bloom filter answers set membership probabilistically: false positives
// at a tunable rate, never false negatives. This variant partitions the bit
// array into fixed 16 KiB pages and confines every item to a single page:
// one extra probe of the item's hash selects the page, and all k data
// probes land inside it. Confinement costs a slightly higher effective
// false-positive rate than a flat filter of the same size, and buys the
// property the package exists for: mutations touch exactly one page, so a
// save after a handful of inserts rewrites a handful of pages instead of
// the whole file.
//
// Hashing is SipHash-128 under a fixed (but configurable) seed, expanded
// into k probe positions with Kirsch-Mitzenmacher double hashing, so each
// operation hashes the item bytes exactly once.
//
// Filters are single-writer: no internal locking, and persistence is always
// caller-triggered via Save. Concurrent use of one Filter requires external
// mutual exclusion.
package bloom

import (
	"math"

	"github.com/cespare/xxhash/v2"
)

// Filter is a fixed-parameter, page-segmented bloom filter.
type Filter struct {
	params Params
	seed   Seed
	count  uint32
	store  *pageStore
}

// FromParams builds an empty filter under the default seed. See
// FromParamsSeeded.
func FromParams(p Params) *Filter {
	return FromParamsSeeded(p, Seed{})
}

// FromParamsSeeded builds an empty filter from a solved parameter set. The
// bit length is rounded up to the next PageBits multiple and the remaining
// parameters re-derived from the padded length, so the effective capacity
// is at least — and usually more than — the requested one.
//
// p must come from Solve (or a Params helper); a hand-built inconsistent
// set panics.
func FromParamsSeeded(p Params, seed Seed) *Filter {
	m := p.M
	if m%PageBits != 0 {
		m += PageBits - m%PageBits
	}

	rounded, err := Solve(Spec{Bits: m, FalsePositives: p.P})
	if err != nil {
		panic("bloom: inconsistent params: " + err.Error())
	}

	return &Filter{
		params: rounded,
		seed:   seed,
		store:  newPageStore(rounded.M),
	}
}

// NewFilter solves for a filter holding capacity items at false-positive
// rate p and builds it empty.
func NewFilter(capacity uint32, p float64) (*Filter, error) {
	params, err := Solve(Spec{Capacity: capacity, FalsePositives: p})
	if err != nil {
		return nil, err
	}
	return FromParams(params), nil
}

// Params returns the filter's post-rounding parameter set.
func (f *Filter) Params() Params {
	return f.params
}

// Pages returns the number of 16 KiB pages in the bit array.
func (f *Filter) Pages() uint32 {
	return f.store.pages
}

// Contains reports whether item is possibly in the set. False means
// definitely absent; true is wrong at roughly rate P.
func (f *Filter) Contains(item []byte) bool {
	return f.checkOrInsert(HashItem(f.seed, item), false)
}

// Insert adds item and reports whether it flipped at least one bit, i.e.
// whether it looked new. A false return means the item was already present
// or collided completely with earlier items.
//
// Inserting past the design capacity N is legal but erodes the advertised
// false-positive rate; use CheckedInsert to guard against that.
func (f *Filter) Insert(item []byte) bool {
	return f.checkOrInsert(HashItem(f.seed, item), true)
}

// CheckedInsert is Insert with a capacity guard: once count reaches N it
// refuses, returning ok=false with the filter untouched.
func (f *Filter) CheckedInsert(item []byte) (added, ok bool) {
	if f.Full() {
		return false, false
	}
	return f.checkOrInsert(HashItem(f.seed, item), true), true
}

// checkOrInsert runs the k-probe sequence inside the item's page. A lookup
// short-circuits at the first unset bit; an insert sets every unset bit,
// and on any flip bumps the counter and dirties the page.
func (f *Filter) checkOrInsert(h ItemHash, insert bool) bool {
	// The probe value one past the k data probes selects the page, so the
	// item's whole footprint lands in a single page. A store smaller than
	// one page degenerates to page 0.
	var page uint64
	if f.store.pages > 0 {
		page = h.Nth(f.params.K+1) % uint64(f.store.pages)
	}
	offset := page * PageBits

	added := false
	for i := uint32(0); i < f.params.K; i++ {
		bit := offset + h.Nth(i)%PageBits
		if !f.store.get(bit) {
			if !insert {
				return false
			}
			f.store.set(bit)
			added = true
		}
	}

	if !insert {
		return true
	}

	if added {
		f.count++
		f.store.markDirty(uint32(page))
	}
	return added
}

// Count returns the running insert counter: the number of inserts that
// flipped at least one bit. Approximate after Load, which rebuilds it from
// CountEstimate.
func (f *Filter) Count() uint32 {
	return f.count
}

// CountEstimate derives the approximate number of distinct items inserted
// from the fraction of bits set: -(m/k) * ln(1 - ones/m).
func (f *Filter) CountEstimate() uint32 {
	m := float64(f.params.M)
	ones := float64(f.store.ones())
	if ones >= m {
		// Saturated; the estimator diverges.
		return math.MaxUint32
	}
	return uint32(-(m / float64(f.params.K)) * math.Log(1-ones/m))
}

// Full reports whether the insert counter has reached the design capacity.
func (f *Filter) Full() bool {
	return f.count >= f.params.N
}

// Empty reports whether no insert has flipped a bit.
func (f *Filter) Empty() bool {
	return f.count == 0
}

// Fingerprint is a 64-bit digest of the packed bit array, for cheap
// equality checks between filter states across files and processes.
func (f *Filter) Fingerprint() uint64 {
	return xxhash.Sum64(f.store.bits)
}

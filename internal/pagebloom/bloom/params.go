package bloom

import (
	"errors"
	"math"
)

// Parameter derivation follows the standard bloom filter relations
// (https://hur.st/bloomfilter). With r = m/n:
//
//	k = round(ln(2) * r)
//	p = (1 - e^(-k/r))^k
//	m = ceil(n * ln(p) / ln(1 / 2^ln2))   [ln(1/2^ln2) = -ln(2)^2]

var (
	// ErrInvalidSpecification is returned by Solve when the set of known
	// fields is not one of the four supported combinations.
	ErrInvalidSpecification = errors.New("bloom: unsupported combination of known parameters")

	// ErrInvalidProbability is returned when the false-positive input is
	// not a positive, normal floating point value.
	ErrInvalidProbability = errors.New("bloom: false-positive rate must be a positive finite probability")
)

// Params is a complete, internally consistent parameter set: M filter bits,
// N target capacity, K probes per item, and P the expected false-positive
// rate at capacity. Params are immutable once a filter is built from them.
type Params struct {
	M uint32
	N uint32
	K uint32
	P float64
}

// Spec is a partial parameter specification for Solve. A zero field is
// treated as unknown. FalsePositives may be given either as a probability
// in (0, 1) or as a "1 in N" ratio greater than one.
type Spec struct {
	Bits           uint32
	Capacity       uint32
	Hashes         uint32
	FalsePositives float64
}

// WithBytes returns a copy of s with the bit length set from a byte count.
func (s Spec) WithBytes(n uint32) Spec {
	s.Bits = n * 8
	return s
}

// logHalfPowLn2 = ln(1 / 2^ln2) = -ln(2)^2, the denominator of the optimal
// bit-length formula.
var logHalfPowLn2 = math.Log(1 / math.Pow(2, math.Ln2))

// minNormal is the smallest positive normal float64. Subnormals are
// rejected along with zero, NaN and the infinities.
const minNormal = 0x1p-1022

// normalizeFalsePositives converts a "1 in N" ratio to a probability and
// validates the result.
func normalizeFalsePositives(p float64) (float64, error) {
	if p > 1 {
		p = 1 / p
	}
	if math.IsNaN(p) || math.IsInf(p, 0) || p < minNormal {
		return 0, ErrInvalidProbability
	}
	return p, nil
}

// Solve completes a partial specification. Exactly four combinations of
// known fields are accepted, each with exactly one derivation path:
//
//	(m, n, k) -> p
//	(n, p)    -> m, then k
//	(m, n)    -> k, then p
//	(m, p)    -> n, then k, then p recomputed from the derived k
//
// Anything else fails with ErrInvalidSpecification; there is no defaulting.
func Solve(spec Spec) (Params, error) {
	m, n, k := spec.Bits, spec.Capacity, spec.Hashes
	haveM, haveN, haveK := m != 0, n != 0, k != 0
	haveP := spec.FalsePositives != 0

	var p float64
	if haveP {
		var err error
		if p, err = normalizeFalsePositives(spec.FalsePositives); err != nil {
			return Params{}, err
		}
	}

	switch {
	case haveM && haveN && haveK && !haveP:
		return complete(m, n, k), nil

	case !haveM && haveN && !haveK && haveP:
		m = uint32(math.Ceil(float64(n) * math.Log(p) / logHalfPowLn2))
		k = optimalK(m, n)
		return complete(m, n, k), nil

	case haveM && haveN && !haveK && !haveP:
		k = optimalK(m, n)
		return complete(m, n, k), nil

	case haveM && !haveN && !haveK && haveP:
		// Inverted from m = -n*ln(p)/ln(2)^2. Upstream revisions of this
		// branch disagree with each other, so it is derived here from the
		// optimal-parameter relations rather than copied.
		n = uint32(math.Ceil(float64(m) * logHalfPowLn2 / math.Log(p)))
		k = optimalK(m, n)
		return complete(m, n, k), nil

	default:
		return Params{}, ErrInvalidSpecification
	}
}

// optimalK is round(ln(2) * m/n).
func optimalK(m, n uint32) uint32 {
	return uint32(math.Round(math.Ln2 * float64(m) / float64(n)))
}

// complete fills in the false-positive rate for a known (m, n, k) triple.
func complete(m, n, k uint32) Params {
	r := float64(m) / float64(n)
	q := math.Exp(-float64(k) / r)
	return Params{M: m, N: n, K: k, P: math.Pow(1-q, float64(k))}
}

package bloom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveCapacityAndFalsePositives(t *testing.T) {
	// Fixed reference vectors for the maths.
	prm, err := Solve(Spec{Capacity: 100, FalsePositives: 0.01})
	require.NoError(t, err)
	assert.Equal(t, uint32(959), prm.M)
	assert.Equal(t, uint32(7), prm.K)
	assert.Greater(t, prm.P, 0.009)
	assert.Less(t, prm.P, 0.012)

	prm, err = Solve(Spec{Capacity: 1_000_000, FalsePositives: 0.0001})
	require.NoError(t, err)
	assert.Equal(t, uint32(19170117), prm.M)
	assert.Equal(t, uint32(13), prm.K)
	assert.Greater(t, prm.P, 0.00009)
	assert.Less(t, prm.P, 0.00012)
}

func TestSolveRoundTrip(t *testing.T) {
	// (n, p) -> (m, k), then (m, n) must re-derive the same k, and
	// (m, n, k) must land close to the p we started with.
	first, err := Solve(Spec{Capacity: 5000, FalsePositives: 0.001})
	require.NoError(t, err)

	second, err := Solve(Spec{Bits: first.M, Capacity: first.N})
	require.NoError(t, err)
	assert.Equal(t, first.K, second.K)

	third, err := Solve(Spec{Bits: first.M, Capacity: first.N, Hashes: first.K})
	require.NoError(t, err)
	assert.InEpsilon(t, first.P, third.P, 1e-9)
}

func TestSolveBitsAndFalsePositives(t *testing.T) {
	// (m, p) derives a capacity that the forward direction confirms: using
	// that capacity at the same rate must not need more than m bits.
	prm, err := Solve(Spec{Bits: 1 << 20, FalsePositives: 0.01})
	require.NoError(t, err)
	assert.NotZero(t, prm.N)
	assert.NotZero(t, prm.K)

	forward, err := Solve(Spec{Capacity: prm.N, FalsePositives: 0.01})
	require.NoError(t, err)
	assert.LessOrEqual(t, forward.M, uint32(1<<20)+forward.N)
	assert.InDelta(t, float64(1<<20), float64(forward.M), float64(prm.N))
}

func TestSolveRejectsUnsupportedCombinations(t *testing.T) {
	// Too few knowns, too many knowns, and the unsupported pairs all fail
	// the same way. No defaulting.
	specs := []Spec{
		{},
		{Capacity: 100},
		{Bits: 4096},
		{Hashes: 7},
		{Hashes: 7, FalsePositives: 0.01},
		{Capacity: 100, Hashes: 7},
		{Capacity: 100, Hashes: 7, FalsePositives: 0.01},
		{Bits: 4096, Capacity: 100, FalsePositives: 0.01},
		{Bits: 4096, Capacity: 100, Hashes: 7, FalsePositives: 0.01},
	}
	for _, spec := range specs {
		_, err := Solve(spec)
		assert.ErrorIs(t, err, ErrInvalidSpecification, "spec %+v", spec)
	}
}

func TestSolveNormalizesRatio(t *testing.T) {
	// "1 in 100" and 0.01 are the same request.
	asRatio, err := Solve(Spec{Capacity: 100, FalsePositives: 100})
	require.NoError(t, err)
	asProbability, err := Solve(Spec{Capacity: 100, FalsePositives: 0.01})
	require.NoError(t, err)
	assert.Equal(t, asProbability, asRatio)
}

func TestSolveRejectsBadProbability(t *testing.T) {
	bad := []float64{
		math.NaN(),
		math.Inf(1),
		math.Inf(-1),
		-0.5,
		5e-324, // subnormal
	}
	for _, p := range bad {
		_, err := Solve(Spec{Capacity: 100, FalsePositives: p})
		assert.ErrorIs(t, err, ErrInvalidProbability, "p=%v", p)
	}
}

func TestSpecWithBytes(t *testing.T) {
	spec := Spec{FalsePositives: 0.01}.WithBytes(512)
	assert.Equal(t, uint32(4096), spec.Bits)
}

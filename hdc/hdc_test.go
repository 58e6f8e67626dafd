package hdc_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdc-research/hdcmem/hdc"
)

const (
	dims     = 10000
	dimSmall = 130 // spans three words, last one partial
)

// ── Vector construction ───────────────────────────────────────────────────────

func TestNew_AllPositive(t *testing.T) {
	v, err := hdc.New(dims)
	require.NoError(t, err)
	require.Equal(t, dims, v.Dims())
	for i := 0; i < dims; i += 997 {
		assert.Equal(t, int8(1), v.At(i))
	}
}

func TestNew_InvalidDims(t *testing.T) {
	for _, d := range []int{0, -1} {
		_, err := hdc.New(d)
		require.ErrorIs(t, err, hdc.ErrInvalidArgument, "dims=%d", d)
	}
}

func TestFromBipolar_RoundTrip(t *testing.T) {
	in := []int8{1, -1, -1, 1, 1, -1}
	v, err := hdc.FromBipolar(in)
	require.NoError(t, err)
	assert.Equal(t, in, v.Bipolar())
}

func TestFromBipolar_RejectsOtherMagnitudes(t *testing.T) {
	_, err := hdc.FromBipolar([]int8{1, 0, -1})
	require.ErrorIs(t, err, hdc.ErrInvalidArgument)

	_, err = hdc.FromBipolar([]int8{2})
	require.ErrorIs(t, err, hdc.ErrInvalidArgument)
}

func TestFromBipolar_Empty(t *testing.T) {
	_, err := hdc.FromBipolar(nil)
	require.ErrorIs(t, err, hdc.ErrInvalidArgument)
}

func TestFromWords_PaddingZeroed(t *testing.T) {
	// dims=65 → 2 words; only bit 0 of the second word is meaningful.
	v, err := hdc.FromWords(65, []uint64{^uint64(0), ^uint64(0)})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.Words()[1])
	assert.Equal(t, int8(-1), v.At(64))
}

func TestFromWords_WrongLength(t *testing.T) {
	_, err := hdc.FromWords(65, []uint64{0})
	require.ErrorIs(t, err, hdc.ErrInvalidArgument)
}

func TestAt_OutOfRange_Panics(t *testing.T) {
	v := mustRandom(t, dimSmall, 1)
	assert.Panics(t, func() { v.At(dimSmall) })
	assert.Panics(t, func() { v.At(-1) })
}

// ── Clone / Equal / Negate ───────────────────────────────────────────────────

func TestClone_Independent(t *testing.T) {
	v := mustRandom(t, dims, 42)
	c := v.Clone()
	require.True(t, hdc.Equal(v, c))

	words := c.Words()
	words[0] ^= 1
	assert.True(t, hdc.Equal(v, c), "Words must return a copy")
}

func TestEqual_DifferentDims(t *testing.T) {
	a := mustRandom(t, 64, 1)
	b := mustRandom(t, 65, 1)
	assert.False(t, hdc.Equal(a, b))
}

func TestNegate_FlipsEveryComponent(t *testing.T) {
	v := mustRandom(t, dimSmall, 3)
	n := hdc.Negate(v)
	for i := 0; i < dimSmall; i++ {
		require.Equal(t, -v.At(i), n.At(i), "component %d", i)
	}
	assert.True(t, hdc.Equal(v, hdc.Negate(n)))
}

func TestNegate_ZeroVector(t *testing.T) {
	assert.Equal(t, 0, hdc.Negate(hdc.Vector{}).Dims())
}

// ── Bind ──────────────────────────────────────────────────────────────────────

func TestBind_SelfInverse(t *testing.T) {
	a := mustRandom(t, dims, 1)
	b := mustRandom(t, dims, 2)
	assert.True(t, hdc.Equal(a, mustBind(t, mustBind(t, a, b), b)), "Bind(Bind(a,b),b) must equal a")
}

func TestBind_Commutativity(t *testing.T) {
	a := mustRandom(t, dims, 1)
	b := mustRandom(t, dims, 2)
	assert.True(t, hdc.Equal(mustBind(t, a, b), mustBind(t, b, a)))
}

func TestBind_ElementWiseProduct(t *testing.T) {
	a, _ := hdc.FromBipolar([]int8{1, 1, -1, -1})
	b, _ := hdc.FromBipolar([]int8{1, -1, 1, -1})
	assert.Equal(t, []int8{1, -1, -1, 1}, mustBind(t, a, b).Bipolar())
}

func TestBind_QuasiOrthogonalToInputs(t *testing.T) {
	a := mustRandom(t, dims, 1)
	b := mustRandom(t, dims, 2)
	ab := mustBind(t, a, b)
	assertNearZero(t, "Bind result vs a", mustCosine(t, a, ab))
	assertNearZero(t, "Bind result vs b", mustCosine(t, b, ab))
}

func TestBind_DimensionMismatch(t *testing.T) {
	_, err := hdc.Bind(mustRandom(t, 100, 1), mustRandom(t, 200, 1))
	require.ErrorIs(t, err, hdc.ErrDimensionMismatch)

	var dm *hdc.DimensionMismatchError
	require.True(t, errors.As(err, &dm))
	assert.Equal(t, 100, dm.Expected)
	assert.Equal(t, 200, dm.Actual)
}

func TestBind_ZeroVector(t *testing.T) {
	_, err := hdc.Bind(hdc.Vector{}, hdc.Vector{})
	require.ErrorIs(t, err, hdc.ErrInvalidArgument)
}

// ── Bundle ────────────────────────────────────────────────────────────────────

func TestBundle_Single_Identity(t *testing.T) {
	v := mustRandom(t, dims, 42)
	assert.True(t, hdc.Equal(v, mustBundle(t, v)), "Bundle of one vector must equal that vector")
}

func TestBundle_OddIdentical(t *testing.T) {
	v := mustRandom(t, dims, 1)
	assert.True(t, hdc.Equal(v, mustBundle(t, v, v, v)))
}

func TestBundle_TieResolvesPositive(t *testing.T) {
	v := mustRandom(t, dimSmall, 9)
	got := mustBundle(t, v, hdc.Negate(v))
	for i, c := range got.Bipolar() {
		require.Equal(t, int8(1), c, "component %d", i)
	}
}

func TestBundle_MajorityVote(t *testing.T) {
	a, _ := hdc.FromBipolar([]int8{1, 1, -1, -1})
	b, _ := hdc.FromBipolar([]int8{1, -1, -1, 1})
	c, _ := hdc.FromBipolar([]int8{-1, -1, -1, 1})
	assert.Equal(t, []int8{1, -1, -1, 1}, mustBundle(t, a, b, c).Bipolar())

	// Even count: sums {2, 0, -2, 0} → ties resolve to +1.
	assert.Equal(t, []int8{1, 1, -1, 1}, mustBundle(t, a, b).Bipolar())
}

func TestBundle_MajoritySimilarity(t *testing.T) {
	a := mustRandom(t, dims, 1)
	b := mustRandom(t, dims, 2)
	c := mustRandom(t, dims, 3)
	bundled := mustBundle(t, a, b, c)
	// Each input agrees with the majority on ~3/4 of positions → cosine ~0.5.
	for label, v := range map[string]hdc.Vector{"a": a, "b": b, "c": c} {
		s := mustCosine(t, bundled, v)
		assert.InDelta(t, 0.5, s, 0.05, "Bundle vs %s", label)
	}
}

func TestBundle_Empty(t *testing.T) {
	_, err := hdc.Bundle()
	require.ErrorIs(t, err, hdc.ErrEmptyInput)
}

func TestBundle_DimensionMismatch(t *testing.T) {
	_, err := hdc.Bundle(mustRandom(t, 100, 1), mustRandom(t, 100, 2), mustRandom(t, 200, 3))
	require.ErrorIs(t, err, hdc.ErrDimensionMismatch)
}

func TestBundle_DoesNotMutateInputs(t *testing.T) {
	a := mustRandom(t, dims, 1)
	b := mustRandom(t, dims, 2)
	a0, b0 := a.Clone(), b.Clone()
	mustBundle(t, a, b)
	assert.True(t, hdc.Equal(a, a0))
	assert.True(t, hdc.Equal(b, b0))
}

// ── CosineSimilarity ─────────────────────────────────────────────────────────

func TestCosine_Identical(t *testing.T) {
	v := mustRandom(t, dims, 42)
	assert.Equal(t, 1.0, mustCosine(t, v, v))
}

func TestCosine_Opposite(t *testing.T) {
	v := mustRandom(t, dims, 42)
	assert.Equal(t, -1.0, mustCosine(t, v, hdc.Negate(v)))
}

func TestCosine_MatchesDotOverNorms(t *testing.T) {
	a, _ := hdc.FromBipolar([]int8{1, -1, 1, 1, -1})
	b, _ := hdc.FromBipolar([]int8{1, 1, 1, -1, -1})
	// dot = 1 - 1 + 1 - 1 + 1 = 1; norms = sqrt(5) each.
	assert.InDelta(t, 0.2, mustCosine(t, a, b), 1e-12)
}

func TestCosine_UnrelatedNearZero(t *testing.T) {
	a := mustRandom(t, dims, 100)
	b := mustRandom(t, dims, 200)
	assertNearZero(t, "unrelated random vectors", mustCosine(t, a, b))
}

func TestCosine_DimensionMismatch(t *testing.T) {
	_, err := hdc.CosineSimilarity(mustRandom(t, 100, 1), mustRandom(t, 200, 1))
	require.ErrorIs(t, err, hdc.ErrDimensionMismatch)
}

func TestCosine_ZeroLength(t *testing.T) {
	_, err := hdc.CosineSimilarity(hdc.Vector{}, hdc.Vector{})
	require.ErrorIs(t, err, hdc.ErrInvalidArgument)
}

// ── Check ─────────────────────────────────────────────────────────────────────

func TestCheck(t *testing.T) {
	v := mustRandom(t, 64, 1)
	require.NoError(t, hdc.Check(v, 64))
	require.ErrorIs(t, hdc.Check(v, 128), hdc.ErrDimensionMismatch)
	require.ErrorIs(t, hdc.Check(hdc.Vector{}, 64), hdc.ErrInvalidArgument)
}

// ── Benchmarks ────────────────────────────────────────────────────────────────

func BenchmarkCosine(b *testing.B) {
	x, _ := hdc.Random(dims, 1)
	y, _ := hdc.Random(dims, 2)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = hdc.CosineSimilarity(x, y)
	}
}

func BenchmarkBind(b *testing.B) {
	x, _ := hdc.Random(dims, 1)
	y, _ := hdc.Random(dims, 2)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = hdc.Bind(x, y)
	}
}

func BenchmarkBundle10(b *testing.B) {
	vecs := make([]hdc.Vector, 10)
	for i := range vecs {
		vecs[i], _ = hdc.Random(dims, uint64(i))
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = hdc.Bundle(vecs...)
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func mustRandom(t testing.TB, d int, seed uint64) hdc.Vector {
	t.Helper()
	v, err := hdc.Random(d, seed)
	require.NoError(t, err)
	return v
}

func mustBind(t testing.TB, a, b hdc.Vector) hdc.Vector {
	t.Helper()
	v, err := hdc.Bind(a, b)
	require.NoError(t, err)
	return v
}

func mustBundle(t testing.TB, vecs ...hdc.Vector) hdc.Vector {
	t.Helper()
	v, err := hdc.Bundle(vecs...)
	require.NoError(t, err)
	return v
}

func mustCosine(t testing.TB, a, b hdc.Vector) float64 {
	t.Helper()
	s, err := hdc.CosineSimilarity(a, b)
	require.NoError(t, err)
	return s
}

func assertNearZero(t *testing.T, label string, s float64) {
	t.Helper()
	if s < -0.05 || s > 0.05 {
		t.Fatalf("%s: expected similarity ~0 (quasi-orthogonal), got %.4f", label, s)
	}
}

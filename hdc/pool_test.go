package hdc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── bufPool tests ────────────────────────────────────────────────────────────

func TestBufPool_GetWords_ReturnsZeroed(t *testing.T) {
	pool := newBufPool(10000)
	buf := pool.getWords()
	for i := range buf {
		buf[i] = ^uint64(0)
	}
	pool.putWords(buf)

	for i, w := range pool.getWords() {
		if w != 0 {
			t.Fatalf("recycled getWords returned non-zero word at index %d: %d", i, w)
		}
	}
}

func TestBufPool_GetCounts_ReturnsZeroed(t *testing.T) {
	pool := newBufPool(10000)
	buf := pool.getCounts()
	for i := range buf {
		buf[i] = 999
	}
	pool.putCounts(buf)

	for i, c := range pool.getCounts() {
		if c != 0 {
			t.Fatalf("recycled getCounts returned non-zero count at index %d: %d", i, c)
		}
	}
}

func TestBufPool_Lengths(t *testing.T) {
	pool := newBufPool(10000)
	assert.Len(t, pool.getWords(), numWords(10000))
	assert.Len(t, pool.getCounts(), 10000)
}

func TestPoolFor_OnePoolPerDims(t *testing.T) {
	assert.Same(t, poolFor(128), poolFor(128))
	assert.NotSame(t, poolFor(128), poolFor(129))
	assert.Equal(t, 129, poolFor(129).dims)
}

// ── In-place kernels ─────────────────────────────────────────────────────────

func TestBindInto_MatchesBind(t *testing.T) {
	a, _ := Random(10000, 1)
	b, _ := Random(10000, 2)
	expected, err := Bind(a, b)
	require.NoError(t, err)

	dst := newVector(10000)
	bindInto(dst, a, b)
	assert.True(t, Equal(dst, expected))
}

func TestAccumulate_CountsNegativeComponents(t *testing.T) {
	v, _ := FromBipolar([]int8{-1, 1, -1, -1, 1})
	counts := make([]int32, 5)
	accumulate(counts, v.data)
	accumulate(counts, v.data)
	assert.Equal(t, []int32{2, 0, 2, 2, 0}, counts)
}

func TestAccumulate_IgnoresPaddingWord(t *testing.T) {
	// 65 dims: the last word carries a single meaningful bit.
	counts := make([]int32, 65)
	accumulate(counts, []uint64{0, 1})
	assert.Equal(t, int32(1), counts[64])
}

func TestMajorityInto_TieIsPositive(t *testing.T) {
	dst := newVector(3)
	majorityInto(dst, []int32{1, 2, 0}, 2)
	assert.Equal(t, []int8{1, -1, 1}, dst.Bipolar())
}

func TestBundleInto_MatchesBundle(t *testing.T) {
	vecs := make([]Vector, 5)
	for i := range vecs {
		vecs[i], _ = Random(10000, uint64(i+1))
	}
	expected, err := Bundle(vecs...)
	require.NoError(t, err)

	dst := newVector(10000)
	bundleInto(dst, make([]int32, 10000), vecs)
	assert.True(t, Equal(dst, expected))
}

func TestVectorFromBuf_ZeroesPadding(t *testing.T) {
	v := vectorFromBuf(65, []uint64{^uint64(0), ^uint64(0)})
	assert.Equal(t, uint64(1), v.data[1], "only bit 0 of the second word belongs to 65 dims")
}

// ── Encoder pooling correctness ──────────────────────────────────────────────

func TestEncode_Pooled_DifferentRecords_Independent(t *testing.T) {
	enc, err := NewRecordEncoder(DefaultConfig())
	require.NoError(t, err)

	records := [][]Pair{
		{{"crop", "cannabis"}, {"status", "approved"}},
		{{"crop", "durian"}, {"region", "phuket"}, {"status", "pending"}},
		{{"region", "chiang_mai"}},
	}
	refs := make([]Vector, len(records))
	for i, r := range records {
		refs[i], err = enc.Encode(r)
		require.NoError(t, err)
	}

	// Interleave to stress pool recycling.
	for round := 0; round < 20; round++ {
		for i, r := range records {
			v, err := enc.Encode(r)
			require.NoError(t, err)
			require.True(t, Equal(refs[i], v), "round %d, record %d: pool contamination", round, i)
		}
	}
}

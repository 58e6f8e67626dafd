package hdc

import "sync"

// bufPool recycles []uint64 word buffers and []int32 counts buffers used as
// scratch space by Bundle and RecordEncoder. Each pool serves exactly one
// dimension, so a buffer obtained for one dimension is never reused for another.
//
// Zeroing happens on *get*, not put, so a stale buffer returned to the pool
// can never leak data into the next user.
type bufPool struct {
	words  sync.Pool // stores *[]uint64
	counts sync.Pool // stores *[]int32
	dims   int
}

// pools maps dims → *bufPool.
var pools sync.Map

func poolFor(dims int) *bufPool {
	if p, ok := pools.Load(dims); ok {
		return p.(*bufPool)
	}
	p, _ := pools.LoadOrStore(dims, newBufPool(dims))
	return p.(*bufPool)
}

func newBufPool(dims int) *bufPool {
	nw := numWords(dims)
	return &bufPool{
		dims: dims,
		words: sync.Pool{
			New: func() any {
				buf := make([]uint64, nw)
				return &buf
			},
		},
		counts: sync.Pool{
			New: func() any {
				buf := make([]int32, dims)
				return &buf
			},
		},
	}
}

// getWords returns a zeroed []uint64 slice of length numWords(dims).
func (p *bufPool) getWords() []uint64 {
	bp := p.words.Get().(*[]uint64)
	buf := *bp
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

func (p *bufPool) putWords(buf []uint64) {
	p.words.Put(&buf)
}

// getCounts returns a zeroed []int32 slice of length dims.
func (p *bufPool) getCounts() []int32 {
	bp := p.counts.Get().(*[]int32)
	buf := *bp
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

func (p *bufPool) putCounts(buf []int32) {
	p.counts.Put(&buf)
}

// ── in-place kernels ────────────────────────────────────────────────────────

// bindInto writes a XOR b into dst. All three must share dims.
func bindInto(dst, a, b Vector) {
	for i := range dst.data {
		dst.data[i] = a.data[i] ^ b.data[i]
	}
}

// accumulate adds the set bits (-1 components) of words into counts.
func accumulate(counts []int32, words []uint64) {
	dims := len(counts)
	for w, word := range words {
		if word == 0 {
			continue
		}
		base := w * 64
		limit := 64
		if base+limit > dims {
			limit = dims - base
		}
		for b := 0; b < limit; b++ {
			counts[base+b] += int32(word >> uint(b) & 1)
		}
	}
}

// majorityInto sets bit i of dst when more than half of n inputs were -1 at
// position i, i.e. when the bipolar sum is strictly negative. Ties stay +1.
func majorityInto(dst Vector, counts []int32, n int) {
	threshold := n / 2
	for i := range dst.data {
		dst.data[i] = 0
	}
	for i, c := range counts {
		if int(c) > threshold {
			dst.data[i/64] |= 1 << uint(i%64)
		}
	}
}

// bundleInto computes the majority vote of vecs into dst using counts as
// scratch. counts must be zeroed and have length dst.dims.
func bundleInto(dst Vector, counts []int32, vecs []Vector) {
	for _, v := range vecs {
		accumulate(counts, v.data)
	}
	majorityInto(dst, counts, len(vecs))
}

// vectorFromBuf copies buf into a new Vector and zeroes padding bits.
func vectorFromBuf(dims int, buf []uint64) Vector {
	data := make([]uint64, numWords(dims))
	copy(data, buf)
	zeroPadding(data, dims)
	return Vector{dims: dims, data: data}
}

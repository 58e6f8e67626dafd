// Package hdc implements bipolar hyperdimensional computing.
//
// A Vector has components in {-1, +1}. Components are bitpacked into []uint64
// slices: a clear bit is +1 and a set bit is -1. With that mapping the
// element-wise product is XOR, the dot product follows from the Hamming
// distance, and majority-vote bundling is a per-position bit count.
package hdc

import "math/bits"

// Vector is an immutable bitpacked bipolar hypervector.
// Padding bits in the final word are always zero.
// The zero value has dimension 0 and is rejected by every operator.
type Vector struct {
	dims int
	data []uint64
}

// New returns a Vector of the given dimension with every component +1.
func New(dims int) (Vector, error) {
	if dims <= 0 {
		return Vector{}, invalidArgf("dimension must be positive, got %d", dims)
	}
	return newVector(dims), nil
}

// FromWords constructs a Vector from a raw word slice.
// len(data) must equal ceil(dims/64). Padding bits are zeroed automatically.
func FromWords(dims int, data []uint64) (Vector, error) {
	if dims <= 0 {
		return Vector{}, invalidArgf("dimension must be positive, got %d", dims)
	}
	if needed := numWords(dims); len(data) != needed {
		return Vector{}, invalidArgf("got %d words for %d dimensions, want %d", len(data), dims, needed)
	}
	return vectorFromBuf(dims, data), nil
}

// FromBipolar constructs a Vector from explicit components.
// Every component must be exactly -1 or +1.
func FromBipolar(components []int8) (Vector, error) {
	if len(components) == 0 {
		return Vector{}, invalidArgf("zero-length vector")
	}
	v := newVector(len(components))
	for i, c := range components {
		switch c {
		case 1:
		case -1:
			v.data[i/64] |= 1 << uint(i%64)
		default:
			return Vector{}, invalidArgf("component %d is %d, want -1 or +1", i, c)
		}
	}
	return v, nil
}

// Dims returns the number of components.
func (v Vector) Dims() int { return v.dims }

// At returns component i as -1 or +1. It panics if i is out of range.
func (v Vector) At(i int) int8 {
	if i < 0 || i >= v.dims {
		panic("hdc: component index out of range")
	}
	if v.data[i/64]>>uint(i%64)&1 == 1 {
		return -1
	}
	return 1
}

// Bipolar returns the components as a new []int8.
func (v Vector) Bipolar() []int8 {
	out := make([]int8, v.dims)
	for i := range out {
		out[i] = v.At(i)
	}
	return out
}

// Words returns a copy of the packed representation.
func (v Vector) Words() []uint64 {
	out := make([]uint64, len(v.data))
	copy(out, v.data)
	return out
}

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	return Vector{dims: v.dims, data: v.Words()}
}

// Equal reports whether a and b have the same dimension and components.
func Equal(a, b Vector) bool {
	if a.dims != b.dims {
		return false
	}
	for i := range a.data {
		if a.data[i] != b.data[i] {
			return false
		}
	}
	return true
}

// Negate returns -v.
func Negate(v Vector) Vector {
	if v.dims == 0 {
		return Vector{}
	}
	result := newVector(v.dims)
	for i := range result.data {
		result.data[i] = ^v.data[i]
	}
	zeroPadding(result.data, v.dims)
	return result
}

// Bind returns the element-wise product of a and b. The operation is
// commutative and its own inverse: Bind(Bind(a, b), b) == a.
func Bind(a, b Vector) (Vector, error) {
	if err := requireSameDims(a, b); err != nil {
		return Vector{}, err
	}
	result := newVector(a.dims)
	bindInto(result, a, b)
	return result, nil
}

// Bundle returns the element-wise sign of the component-wise sum of vecs.
// A position whose sum is exactly zero resolves to +1; this only happens
// with an even number of inputs. The tie-break is a convention kept for
// compatibility, not a property of the algebra.
func Bundle(vecs ...Vector) (Vector, error) {
	if len(vecs) == 0 {
		return Vector{}, ErrEmptyInput
	}
	if err := requireSameDims(vecs...); err != nil {
		return Vector{}, err
	}

	dims := vecs[0].dims
	pool := poolFor(dims)
	counts := pool.getCounts()
	defer pool.putCounts(counts)

	result := newVector(dims)
	bundleInto(result, counts, vecs)
	return result, nil
}

// CosineSimilarity returns dot(a, b) / (|a| |b|) in [-1, 1].
// For bipolar vectors this is (D - 2*hamming(a, b)) / D, so identical vectors
// score exactly 1 and opposite vectors exactly -1.
func CosineSimilarity(a, b Vector) (float64, error) {
	if err := requireSameDims(a, b); err != nil {
		return 0, err
	}
	return cosine(a, b), nil
}

// Check returns nil if v is a valid vector of the given dimension.
func Check(v Vector, dims int) error {
	if v.dims == 0 {
		return invalidArgf("zero-length vector")
	}
	if v.dims != dims {
		return &DimensionMismatchError{Expected: dims, Actual: v.dims}
	}
	return nil
}

// cosine assumes a and b are valid and of equal dimension.
func cosine(a, b Vector) float64 {
	var diff int
	for i := range a.data {
		diff += bits.OnesCount64(a.data[i] ^ b.data[i])
	}
	return float64(a.dims-2*diff) / float64(a.dims)
}

func newVector(dims int) Vector {
	return Vector{dims: dims, data: make([]uint64, numWords(dims))}
}

func numWords(dims int) int {
	return (dims + 63) / 64
}

func zeroPadding(data []uint64, dims int) {
	if rem := dims % 64; rem != 0 {
		data[len(data)-1] &= (uint64(1) << uint(rem)) - 1
	}
}

func requireSameDims(vecs ...Vector) error {
	d := vecs[0].dims
	for _, v := range vecs {
		if v.dims == 0 {
			return invalidArgf("zero-length vector")
		}
		if v.dims != d {
			return &DimensionMismatchError{Expected: d, Actual: v.dims}
		}
	}
	return nil
}

package hdc

import (
	"math/rand"
	"sync"

	farmhash "github.com/leemcloughlin/gofarmhash"
)

// Generator is a seeded source of random hypervectors.
// Two generators created with the same seed and driven by the same call
// sequence produce identical vectors. It is safe for concurrent use, but
// concurrent callers interleave draws, so reproducibility requires a single
// caller sequence.
type Generator struct {
	mu   sync.Mutex
	seed uint64
	r    *rand.Rand
}

// NewGenerator returns a Generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		seed: seed,
		r:    rand.New(rand.NewSource(int64(seed))), //nolint:gosec
	}
}

// Seed returns the seed the generator was created with.
func (g *Generator) Seed() uint64 { return g.seed }

// Random returns a vector of dims independent, uniformly drawn components.
func (g *Generator) Random(dims int) (Vector, error) {
	if dims <= 0 {
		return Vector{}, invalidArgf("dimension must be positive, got %d", dims)
	}
	v := newVector(dims)
	g.mu.Lock()
	for i := range v.data {
		v.data[i] = g.r.Uint64()
	}
	g.mu.Unlock()
	zeroPadding(v.data, dims)
	return v, nil
}

// Sample returns k distinct integers from [0, n) in draw order.
func (g *Generator) Sample(n, k int) ([]int, error) {
	if n <= 0 || k <= 0 || k > n {
		return nil, invalidArgf("cannot sample %d of %d", k, n)
	}
	g.mu.Lock()
	perm := g.r.Perm(n)
	g.mu.Unlock()
	return perm[:k], nil
}

// Random generates a deterministic pseudorandom Vector for the given seed.
// The same (dims, seed) pair always produces the same vector.
// Vectors from different seeds are quasi-orthogonal with overwhelming probability.
func Random(dims int, seed uint64) (Vector, error) {
	return NewGenerator(seed).Random(dims)
}

// Symbol returns the vector for name within namespace. Unlike a Generator it
// does not depend on call order: the same (dims, namespace, name) always maps
// to the same vector.
func Symbol(dims int, namespace uint64, name string) (Vector, error) {
	return Random(dims, farmhash.Hash64WithSeed([]byte(name), namespace))
}

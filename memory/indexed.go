package memory

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hdc-research/hdcmem/hdc"
)

const (
	defaultTables = 48
	defaultBits   = 8
)

// lshTable hashes a vector by the components at a fixed set of positions.
// Vectors agreeing on all sampled positions share a bucket.
type lshTable struct {
	positions []int
	buckets   map[uint64]*roaring.Bitmap
}

func (t *lshTable) signature(v hdc.Vector) uint64 {
	var sig uint64
	for j, p := range t.positions {
		if v.At(p) < 0 {
			sig |= 1 << uint(j)
		}
	}
	return sig
}

type slot struct {
	key string
	vec hdc.Vector
}

// Indexed is an approximate Memory. A query scores only the entries sharing a
// bucket with it in at least one table, so results are exact for the entries
// returned but may omit weakly similar ones. For two vectors agreeing on a
// fraction p of components, the chance of being a candidate is
// 1 - (1 - p^Bits)^Tables.
type Indexed struct {
	mu     sync.RWMutex
	dims   int
	tables []lshTable
	slots  []slot
	byKey  map[string]uint32
	free   []uint32
	obs    Observer

	adds           atomic.Uint64
	queries        atomic.Uint64
	lastCandidates atomic.Int64
}

// NewIndexed creates an empty Indexed memory. Only Dims, Tables, Bits, Seed
// and Observer are read from opts.
func NewIndexed(opts Options) (*Indexed, error) {
	if opts.Dims <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", hdc.ErrInvalidArgument, opts.Dims)
	}
	tables, bits := opts.Tables, opts.Bits
	if tables == 0 {
		tables = defaultTables
	}
	if bits == 0 {
		bits = min(defaultBits, opts.Dims)
	}
	switch {
	case tables < 0:
		return nil, fmt.Errorf("%w: tables must be positive, got %d", hdc.ErrInvalidArgument, tables)
	case bits < 0 || bits > 64 || bits > opts.Dims:
		return nil, fmt.Errorf("%w: bits must be in [1, min(64, dims)], got %d", hdc.ErrInvalidArgument, bits)
	}

	gen := hdc.NewGenerator(opts.Seed)
	x := &Indexed{
		dims:   opts.Dims,
		tables: make([]lshTable, tables),
		byKey:  make(map[string]uint32),
		obs:    opts.Observer,
	}
	for i := range x.tables {
		positions, err := gen.Sample(opts.Dims, bits)
		if err != nil {
			return nil, err
		}
		x.tables[i] = lshTable{positions: positions, buckets: make(map[uint64]*roaring.Bitmap)}
	}
	return x, nil
}

// Add stores v under key, replacing and reindexing any previous vector.
func (x *Indexed) Add(key string, v hdc.Vector) error {
	if err := hdc.Check(v, x.dims); err != nil {
		return err
	}

	x.mu.Lock()
	if id, ok := x.byKey[key]; ok {
		x.unindexLocked(id)
		x.slots[id].vec = v
		x.indexLocked(id)
	} else {
		id := x.allocLocked(key, v)
		x.indexLocked(id)
	}
	x.mu.Unlock()

	x.adds.Add(1)
	if x.obs != nil {
		x.obs.ObserveAdd(string(BackendIndexed))
	}
	return nil
}

// Query returns the bucket candidates of v ranked by similarity.
func (x *Indexed) Query(v hdc.Vector) ([]Match, error) {
	if err := hdc.Check(v, x.dims); err != nil {
		return nil, err
	}
	start := time.Now()

	x.mu.RLock()
	out, err := x.scanLocked(v)
	x.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	sortMatches(out)
	x.queries.Add(1)
	x.lastCandidates.Store(int64(len(out)))
	if x.obs != nil {
		x.obs.ObserveQuery(string(BackendIndexed), time.Since(start), len(out))
	}
	return out, nil
}

// TopK returns at most k of the best Query matches.
func (x *Indexed) TopK(v hdc.Vector, k int) ([]Match, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	ms, err := x.Query(v)
	if err != nil {
		return nil, err
	}
	return truncate(ms, k), nil
}

// Get returns the vector stored under key.
func (x *Indexed) Get(key string) (hdc.Vector, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	id, ok := x.byKey[key]
	if !ok {
		return hdc.Vector{}, false
	}
	return x.slots[id].vec, true
}

// Delete removes key from the memory and its buckets.
// Returns true if the key was present.
func (x *Indexed) Delete(key string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	id, ok := x.byKey[key]
	if !ok {
		return false
	}
	x.unindexLocked(id)
	delete(x.byKey, key)
	x.slots[id] = slot{}
	x.free = append(x.free, id)
	return true
}

// Len returns the number of stored entries.
func (x *Indexed) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byKey)
}

// Dims returns the vector dimension.
func (x *Indexed) Dims() int { return x.dims }

// Stats returns a point-in-time snapshot of memory metrics.
func (x *Indexed) Stats() Stats {
	return Stats{
		Entries:        x.Len(),
		Adds:           x.adds.Load(),
		Queries:        x.queries.Load(),
		LastCandidates: int(x.lastCandidates.Load()),
	}
}

// scanLocked scores the union of the query's buckets. Must be called with x.mu held.
func (x *Indexed) scanLocked(v hdc.Vector) ([]Match, error) {
	hits := make([]*roaring.Bitmap, 0, len(x.tables))
	for i := range x.tables {
		t := &x.tables[i]
		if bm, ok := t.buckets[t.signature(v)]; ok {
			hits = append(hits, bm)
		}
	}
	if len(hits) == 0 {
		return []Match{}, nil
	}

	candidates := roaring.FastOr(hits...)
	out := make([]Match, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		s := x.slots[it.Next()]
		score, err := hdc.CosineSimilarity(v, s.vec)
		if err != nil {
			return nil, err
		}
		out = append(out, Match{Key: s.key, Score: score})
	}
	return out, nil
}

func (x *Indexed) allocLocked(key string, v hdc.Vector) uint32 {
	var id uint32
	if n := len(x.free); n > 0 {
		id = x.free[n-1]
		x.free = x.free[:n-1]
		x.slots[id] = slot{key: key, vec: v}
	} else {
		id = uint32(len(x.slots))
		x.slots = append(x.slots, slot{key: key, vec: v})
	}
	x.byKey[key] = id
	return id
}

func (x *Indexed) indexLocked(id uint32) {
	v := x.slots[id].vec
	for i := range x.tables {
		t := &x.tables[i]
		sig := t.signature(v)
		bm, ok := t.buckets[sig]
		if !ok {
			bm = roaring.New()
			t.buckets[sig] = bm
		}
		bm.Add(id)
	}
}

func (x *Indexed) unindexLocked(id uint32) {
	v := x.slots[id].vec
	for i := range x.tables {
		t := &x.tables[i]
		sig := t.signature(v)
		bm, ok := t.buckets[sig]
		if !ok {
			continue
		}
		bm.Remove(id)
		if bm.IsEmpty() {
			delete(t.buckets, sig)
		}
	}
}

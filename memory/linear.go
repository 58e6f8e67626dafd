package memory

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hdc-research/hdcmem/hdc"
)

const defaultParallelThreshold = 4096

// Linear is the reference Memory: every query scores every stored entry.
// Cost is O(N·D) per query.
type Linear struct {
	mu      sync.RWMutex
	dims    int
	entries map[string]hdc.Vector

	parallelThreshold int
	workers           int
	obs               Observer

	adds           atomic.Uint64
	queries        atomic.Uint64
	lastCandidates atomic.Int64
}

// NewLinear creates an empty Linear memory. Only Dims, ParallelThreshold,
// Workers and Observer are read from opts.
func NewLinear(opts Options) (*Linear, error) {
	if opts.Dims <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", hdc.ErrInvalidArgument, opts.Dims)
	}
	threshold := opts.ParallelThreshold
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Linear{
		dims:              opts.Dims,
		entries:           make(map[string]hdc.Vector),
		parallelThreshold: threshold,
		workers:           workers,
		obs:               opts.Observer,
	}, nil
}

// Add stores v under key, overwriting any previous vector.
func (l *Linear) Add(key string, v hdc.Vector) error {
	if err := hdc.Check(v, l.dims); err != nil {
		return err
	}

	l.mu.Lock()
	l.entries[key] = v
	l.mu.Unlock()

	l.adds.Add(1)
	if l.obs != nil {
		l.obs.ObserveAdd(string(BackendLinear))
	}
	return nil
}

// Query scores every entry against v and returns them ranked.
func (l *Linear) Query(v hdc.Vector) ([]Match, error) {
	if err := hdc.Check(v, l.dims); err != nil {
		return nil, err
	}
	start := time.Now()

	l.mu.RLock()
	out, err := l.scanLocked(v)
	l.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	sortMatches(out)
	l.queries.Add(1)
	l.lastCandidates.Store(int64(len(out)))
	if l.obs != nil {
		l.obs.ObserveQuery(string(BackendLinear), time.Since(start), len(out))
	}
	return out, nil
}

// TopK returns at most k of the best Query matches.
func (l *Linear) TopK(v hdc.Vector, k int) ([]Match, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	ms, err := l.Query(v)
	if err != nil {
		return nil, err
	}
	return truncate(ms, k), nil
}

// Get returns the vector stored under key.
func (l *Linear) Get(key string) (hdc.Vector, bool) {
	l.mu.RLock()
	v, ok := l.entries[key]
	l.mu.RUnlock()
	return v, ok
}

// Delete removes key. Returns true if it was present.
func (l *Linear) Delete(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[key]; !ok {
		return false
	}
	delete(l.entries, key)
	return true
}

// Len returns the number of stored entries.
func (l *Linear) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Dims returns the vector dimension.
func (l *Linear) Dims() int { return l.dims }

// Stats returns a point-in-time snapshot of memory metrics.
func (l *Linear) Stats() Stats {
	return Stats{
		Entries:        l.Len(),
		Adds:           l.adds.Load(),
		Queries:        l.queries.Load(),
		LastCandidates: int(l.lastCandidates.Load()),
	}
}

// scanLocked scores every entry against v. Must be called with l.mu held.
func (l *Linear) scanLocked(v hdc.Vector) ([]Match, error) {
	n := len(l.entries)
	out := make([]Match, 0, n)
	if n < l.parallelThreshold || l.workers < 2 {
		for key, stored := range l.entries {
			s, err := hdc.CosineSimilarity(v, stored)
			if err != nil {
				return nil, err
			}
			out = append(out, Match{Key: key, Score: s})
		}
		return out, nil
	}

	keys := make([]string, 0, n)
	vecs := make([]hdc.Vector, 0, n)
	for key, stored := range l.entries {
		keys = append(keys, key)
		vecs = append(vecs, stored)
	}
	out = out[:n]

	var g errgroup.Group
	g.SetLimit(l.workers)
	chunk := (n + l.workers - 1) / l.workers
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				s, err := hdc.CosineSimilarity(v, vecs[i])
				if err != nil {
					return err
				}
				out[i] = Match{Key: keys[i], Score: s}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

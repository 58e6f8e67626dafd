// Package memory implements associative memories over HDC record vectors.
//
// A Memory maps unique string keys to vectors and ranks stored entries by
// cosine similarity to a query. Two backends share the contract:
//
//   - Linear scans every entry and is the reference behavior.
//   - Indexed uses locality-sensitive bit sampling to pick candidates and
//     ranks only those; entries that never collide with the query are omitted.
package memory

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/hdc-research/hdcmem/hdc"
)

// Match is one ranked query result.
type Match struct {
	Key   string
	Score float64
}

// Stats is a point-in-time snapshot of memory metrics.
type Stats struct {
	Entries        int
	Adds           uint64
	Queries        uint64
	LastCandidates int // entries scored by the most recent query
}

// Memory is a key → vector associative memory.
// Implementations are safe for concurrent use: queries may run in parallel
// with each other but not with Add or Delete.
type Memory interface {
	// Add stores v under key, overwriting any previous vector.
	// It fails only when v is zero-length or its dimension differs from the
	// memory's; the memory is unchanged on failure.
	Add(key string, v hdc.Vector) error
	// Query returns stored entries ranked by similarity to v. An empty
	// memory yields an empty slice and no error.
	Query(v hdc.Vector) ([]Match, error)
	// TopK is Query truncated to the k best matches.
	TopK(v hdc.Vector, k int) ([]Match, error)
	// Get returns the vector stored under key.
	Get(key string) (hdc.Vector, bool)
	// Delete removes key. Returns true if an entry was removed.
	Delete(key string) bool
	Len() int
	Dims() int
	Stats() Stats
}

// Backend names a Memory implementation.
type Backend string

const (
	BackendLinear  Backend = "linear"  // exact scan over every entry
	BackendIndexed Backend = "indexed" // LSH candidates, exact re-rank
)

// ParseBackend converts a backend name. The empty string selects BackendLinear.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendLinear:
		return BackendLinear, nil
	case BackendIndexed:
		return BackendIndexed, nil
	}
	return "", fmt.Errorf("%w: unknown memory backend %q", hdc.ErrInvalidArgument, s)
}

// Observer receives operation events, e.g. for metrics export.
type Observer interface {
	ObserveAdd(backend string)
	ObserveQuery(backend string, d time.Duration, candidates int)
}

// Options configures a Memory built by New.
type Options struct {
	Dims     int     // vector dimension (required)
	Backend  Backend // default BackendLinear
	Observer Observer

	// Linear
	ParallelThreshold int // entries above which a scan is split across goroutines (default 4096)
	Workers           int // max scan goroutines (default GOMAXPROCS)

	// Indexed
	Tables int    // hash tables (default 48)
	Bits   int    // sampled positions per table, at most 64 (default 8)
	Seed   uint64 // seed for position sampling
}

// New creates a Memory with the backend selected by opts.Backend.
func New(opts Options) (Memory, error) {
	backend, err := ParseBackend(string(opts.Backend))
	if err != nil {
		return nil, err
	}
	switch backend {
	case BackendIndexed:
		return NewIndexed(opts)
	default:
		return NewLinear(opts)
	}
}

// sortMatches orders by score descending, then key ascending.
func sortMatches(ms []Match) {
	slices.SortFunc(ms, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
}

func checkK(k int) error {
	if k <= 0 {
		return fmt.Errorf("%w: k must be positive, got %d", hdc.ErrInvalidArgument, k)
	}
	return nil
}

func truncate(ms []Match, k int) []Match {
	if len(ms) > k {
		return ms[:k]
	}
	return ms
}

// Package hdcmem encodes key/value records as bipolar hypervectors and
// retrieves the stored records that best match a partial query.
//
// Each record field is a role/filler pair. The pair is bound (element-wise
// product of the role and filler vectors) and all bound pairs of a record are
// bundled (majority vote) into one record vector. A query bundles a subset of
// pairs the same way and ranks stored records by cosine similarity.
//
// Basic usage:
//
//	s, _ := hdcmem.New(hdcmem.WithSeed(42))
//	s.Put("farm_123", map[string]string{"crop": "cannabis", "status": "approved", "region": "chiang_mai"})
//	matches, _ := s.Query(map[string]string{"crop": "cannabis", "region": "chiang_mai"})
package hdcmem

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hdc-research/hdcmem/config"
	"github.com/hdc-research/hdcmem/hdc"
	"github.com/hdc-research/hdcmem/internal/metrics"
	"github.com/hdc-research/hdcmem/memory"
)

// ErrNotFound is returned by Decode for an unknown record id.
var ErrNotFound = errors.New("hdcmem: record not found")

// Stats is a point-in-time snapshot of Store metrics.
type Stats struct {
	Entries int
	Adds    uint64
	Queries uint64
	Roles   int
	Fillers int
}

// Store encodes records and keeps them in an associative memory.
// It is safe for concurrent use.
type Store struct {
	enc *hdc.RecordEncoder
	mem memory.Memory
	log *Logger
}

// Option configures a Store.
type Option func(*options)

type options struct {
	dims              int
	seed              uint64
	backend           memory.Backend
	tables            int
	bits              int
	parallelThreshold int
	source            hdc.SymbolSource
	foldCase          bool
	logger            *Logger
	registerer        prometheus.Registerer
}

func defaultOptions() options {
	return options{
		dims:    10000,
		seed:    42,
		backend: memory.BackendLinear,
		source:  hdc.SourceGenerator,
	}
}

// WithDims sets the hypervector dimension (default 10000).
func WithDims(n int) Option { return func(o *options) { o.dims = n } }

// WithSeed sets the seed for symbol vectors and index sampling (default 42).
// Stores with different seeds produce incompatible vectors.
func WithSeed(s uint64) Option { return func(o *options) { o.seed = s } }

// WithBackend selects the associative memory implementation (default linear).
func WithBackend(b memory.Backend) Option { return func(o *options) { o.backend = b } }

// WithIndex tunes the indexed backend: number of hash tables and sampled
// positions per table. Zero keeps the backend default.
func WithIndex(tables, bits int) Option {
	return func(o *options) { o.tables, o.bits = tables, bits }
}

// WithParallelThreshold sets the entry count above which the linear backend
// splits a scan across goroutines.
func WithParallelThreshold(n int) Option { return func(o *options) { o.parallelThreshold = n } }

// WithSymbolSource selects how role and filler symbols get their vectors.
func WithSymbolSource(s hdc.SymbolSource) Option { return func(o *options) { o.source = s } }

// WithFoldCase lowercases symbols and collapses inner whitespace before
// lookup, so "Chiang  Mai" and "chiang mai" share a vector. Without it only
// surrounding whitespace is trimmed.
func WithFoldCase(v bool) Option { return func(o *options) { o.foldCase = v } }

// WithLogger sets the logger (default discards everything).
func WithLogger(l *Logger) Option { return func(o *options) { o.logger = l } }

// WithMetrics registers Prometheus collectors for memory activity on reg.
func WithMetrics(reg prometheus.Registerer) Option { return func(o *options) { o.registerer = reg } }

// ConfigOptions converts a validated config.Config into Store options.
// Logging is left to the caller, who owns the output stream.
func ConfigOptions(c config.Config) ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	backend, err := memory.ParseBackend(c.Backend)
	if err != nil {
		return nil, err
	}
	source, err := hdc.ParseSymbolSource(c.Symbols.Source)
	if err != nil {
		return nil, err
	}
	return []Option{
		WithDims(c.Dims),
		WithSeed(c.Seed),
		WithBackend(backend),
		WithIndex(c.Index.Tables, c.Index.Bits),
		WithSymbolSource(source),
		WithFoldCase(c.Symbols.FoldCase),
	}, nil
}

// New creates a Store with the given options.
func New(opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}

	enc, err := hdc.NewRecordEncoder(hdc.Config{
		Dims:     o.dims,
		Seed:     o.seed,
		Source:   o.source,
		FoldCase: o.foldCase,
	})
	if err != nil {
		return nil, fmt.Errorf("hdcmem: %w", err)
	}

	var obs memory.Observer
	if o.registerer != nil {
		rec, err := metrics.NewRecorder(o.registerer)
		if err != nil {
			return nil, fmt.Errorf("hdcmem: %w", err)
		}
		obs = rec
	}

	mem, err := memory.New(memory.Options{
		Dims:              o.dims,
		Backend:           o.backend,
		Observer:          obs,
		ParallelThreshold: o.parallelThreshold,
		Tables:            o.tables,
		Bits:              o.bits,
		Seed:              o.seed,
	})
	if err != nil {
		return nil, fmt.Errorf("hdcmem: %w", err)
	}

	o.logger.Debug("store created",
		"dimension", o.dims,
		"backend", string(o.backend),
		"symbols", o.source.String(),
	)
	return &Store{enc: enc, mem: mem, log: o.logger}, nil
}

// Put encodes fields (role → filler) and stores the record under id,
// replacing any previous record with the same id.
func (s *Store) Put(id string, fields map[string]string) error {
	return s.PutPairs(id, hdc.PairsFromMap(fields))
}

// PutPairs is Put with an explicit pair order.
func (s *Store) PutPairs(id string, pairs []hdc.Pair) error {
	err := s.put(id, pairs)
	s.log.LogPut(context.Background(), id, len(pairs), err)
	return err
}

func (s *Store) put(id string, pairs []hdc.Pair) error {
	if id == "" {
		return fmt.Errorf("hdcmem: %w: empty record id", hdc.ErrInvalidArgument)
	}
	v, err := s.enc.Encode(pairs)
	if err != nil {
		return fmt.Errorf("hdcmem: encode %s: %w", id, err)
	}
	if err := s.mem.Add(id, v); err != nil {
		return fmt.Errorf("hdcmem: store %s: %w", id, err)
	}
	return nil
}

// Query encodes a partial record and returns stored records ranked by
// similarity, best first. Equal scores are ordered by ascending id.
func (s *Store) Query(fields map[string]string) ([]memory.Match, error) {
	return s.QueryPairs(hdc.PairsFromMap(fields))
}

// QueryPairs is Query with an explicit pair order.
func (s *Store) QueryPairs(pairs []hdc.Pair) ([]memory.Match, error) {
	ms, err := s.query(pairs)
	s.log.LogQuery(context.Background(), len(pairs), len(ms), err)
	return ms, err
}

// TopK is Query truncated to the k best matches.
func (s *Store) TopK(fields map[string]string, k int) ([]memory.Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("hdcmem: %w: k must be positive, got %d", hdc.ErrInvalidArgument, k)
	}
	ms, err := s.Query(fields)
	if err != nil {
		return nil, err
	}
	if len(ms) > k {
		ms = ms[:k]
	}
	return ms, nil
}

func (s *Store) query(pairs []hdc.Pair) ([]memory.Match, error) {
	v, err := s.enc.Encode(pairs)
	if err != nil {
		return nil, fmt.Errorf("hdcmem: encode query: %w", err)
	}
	ms, err := s.mem.Query(v)
	if err != nil {
		return nil, fmt.Errorf("hdcmem: query: %w", err)
	}
	return ms, nil
}

// Decode recovers the filler bound to role in record id by unbinding the
// role and cleaning up against known fillers. The score is the cosine
// similarity between the unbound vector and the returned filler.
func (s *Store) Decode(id, role string) (string, float64, error) {
	filler, score, err := s.decode(id, role)
	s.log.LogDecode(context.Background(), id, role, filler, score, err)
	return filler, score, err
}

func (s *Store) decode(id, role string) (string, float64, error) {
	v, ok := s.mem.Get(id)
	if !ok {
		return "", 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	filler, score, err := s.enc.Decode(v, role)
	if err != nil {
		return "", 0, fmt.Errorf("hdcmem: decode %s.%s: %w", id, role, err)
	}
	return filler, score, nil
}

// Vector returns the stored record vector for id.
func (s *Store) Vector(id string) (hdc.Vector, bool) { return s.mem.Get(id) }

// Delete removes the record stored under id.
// Returns true if a record was found and removed.
func (s *Store) Delete(id string) bool { return s.mem.Delete(id) }

// Len returns the number of stored records.
func (s *Store) Len() int { return s.mem.Len() }

// Dims returns the hypervector dimension.
func (s *Store) Dims() int { return s.mem.Dims() }

// Encoder returns the record encoder, e.g. to build vectors by hand.
func (s *Store) Encoder() *hdc.RecordEncoder { return s.enc }

// Stats returns a point-in-time snapshot of Store metrics.
func (s *Store) Stats() Stats {
	m := s.mem.Stats()
	return Stats{
		Entries: m.Entries,
		Adds:    m.Adds,
		Queries: m.Queries,
		Roles:   s.enc.Roles().Len(),
		Fillers: s.enc.Fillers().Len(),
	}
}

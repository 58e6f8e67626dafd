package hdc

import (
	"fmt"
	"slices"
	"sync"
)

// Encoder converts a set of role/filler pairs to a record hypervector.
type Encoder interface {
	Encode(pairs []Pair) (Vector, error)
	Dims() int
}

// Pair is one attribute=value slot of a record.
type Pair struct {
	Role   string
	Filler string
}

// PairsFromMap returns the pairs of fields ordered by role.
func PairsFromMap(fields map[string]string) []Pair {
	pairs := make([]Pair, 0, len(fields))
	for role, filler := range fields {
		pairs = append(pairs, Pair{Role: role, Filler: filler})
	}
	slices.SortFunc(pairs, func(a, b Pair) int {
		switch {
		case a.Role < b.Role:
			return -1
		case a.Role > b.Role:
			return 1
		}
		return 0
	})
	return pairs
}

// SymbolSource selects how a Codebook assigns vectors to new symbols.
type SymbolSource int

const (
	// SourceGenerator draws each new symbol from a seeded Generator, so the
	// vector depends on the order in which symbols are first seen.
	SourceGenerator SymbolSource = iota
	// SourceHashed derives each symbol's vector from a hash of its name.
	SourceHashed
)

func (s SymbolSource) String() string {
	switch s {
	case SourceGenerator:
		return "generator"
	case SourceHashed:
		return "hashed"
	default:
		return fmt.Sprintf("SymbolSource(%d)", int(s))
	}
}

// ParseSymbolSource converts "generator" or "hashed" to a SymbolSource.
func ParseSymbolSource(s string) (SymbolSource, error) {
	switch s {
	case "", "generator":
		return SourceGenerator, nil
	case "hashed":
		return SourceHashed, nil
	}
	return 0, invalidArgf("unknown symbol source %q", s)
}

// Config holds parameters for a RecordEncoder.
type Config struct {
	Dims     int          // hypervector dimension (default 10000)
	Seed     uint64       // generator seed, or hash namespace for SourceHashed
	Source   SymbolSource // how symbols get their vectors
	FoldCase bool         // lowercase and collapse whitespace before lookup
}

// DefaultConfig returns the defaults used by the prototype experiments.
func DefaultConfig() Config {
	return Config{
		Dims:   10000,
		Seed:   42,
		Source: SourceGenerator,
	}
}

// RecordEncoder implements Encoder by binding each role to its filler and
// bundling the bound pairs. Roles and fillers are kept in separate codebooks,
// so the role "status" and the filler "status" are unrelated vectors.
// It is safe for concurrent use.
type RecordEncoder struct {
	cfg     Config
	roles   *Codebook
	fillers *Codebook
	pool    *bufPool
}

// NewRecordEncoder creates a RecordEncoder with the given Config.
func NewRecordEncoder(cfg Config) (*RecordEncoder, error) {
	if cfg.Dims <= 0 {
		return nil, invalidArgf("dimension must be positive, got %d", cfg.Dims)
	}

	var gen *Generator
	switch cfg.Source {
	case SourceGenerator:
		// One stream shared by both codebooks, as in a single seeded run.
		gen = NewGenerator(cfg.Seed)
	case SourceHashed:
	default:
		return nil, invalidArgf("unknown symbol source %d", int(cfg.Source))
	}

	return &RecordEncoder{
		cfg:     cfg,
		roles:   newCodebook(cfg.Dims, gen, cfg.Seed<<1, cfg.FoldCase),
		fillers: newCodebook(cfg.Dims, gen, cfg.Seed<<1|1, cfg.FoldCase),
		pool:    poolFor(cfg.Dims),
	}, nil
}

// Dims returns the encoder's hypervector dimension.
func (e *RecordEncoder) Dims() int { return e.cfg.Dims }

// Roles returns the role codebook.
func (e *RecordEncoder) Roles() *Codebook { return e.roles }

// Fillers returns the filler codebook.
func (e *RecordEncoder) Fillers() *Codebook { return e.fillers }

// EncodePair returns Bind(role, filler) for a single pair.
func (e *RecordEncoder) EncodePair(p Pair) (Vector, error) {
	if err := e.check(p); err != nil {
		return Vector{}, err
	}
	r, f, err := e.resolve(p)
	if err != nil {
		return Vector{}, err
	}
	return Bind(r, f)
}

// Encode returns Bundle(Bind(r1, f1), ..., Bind(rn, fn)) over pairs in order.
// A query vector is encoded the same way from a subset of a record's pairs.
func (e *RecordEncoder) Encode(pairs []Pair) (Vector, error) {
	if len(pairs) == 0 {
		return Vector{}, ErrEmptyInput
	}
	// No symbol is assigned unless every pair is valid.
	for _, p := range pairs {
		if err := e.check(p); err != nil {
			return Vector{}, err
		}
	}

	roles := make([]Vector, len(pairs))
	fillers := make([]Vector, len(pairs))
	for i, p := range pairs {
		r, f, err := e.resolve(p)
		if err != nil {
			return Vector{}, err
		}
		roles[i], fillers[i] = r, f
	}

	counts := e.pool.getCounts()
	defer e.pool.putCounts(counts)
	scratch := e.pool.getWords()
	defer e.pool.putWords(scratch)

	bound := Vector{dims: e.cfg.Dims, data: scratch}
	for i := range pairs {
		bindInto(bound, roles[i], fillers[i])
		accumulate(counts, bound.data)
	}

	result := newVector(e.cfg.Dims)
	majorityInto(result, counts, len(pairs))
	return result, nil
}

// Unbind binds record with the vector of role, yielding a noisy copy of the
// filler that was bound to role when the record was built.
func (e *RecordEncoder) Unbind(record Vector, role string) (Vector, error) {
	if err := Check(record, e.cfg.Dims); err != nil {
		return Vector{}, err
	}
	r, ok := e.roles.Lookup(role)
	if !ok {
		return Vector{}, invalidArgf("unknown role %q", role)
	}
	return Bind(record, r)
}

// Decode returns the known filler most similar to Unbind(record, role).
func (e *RecordEncoder) Decode(record Vector, role string) (string, float64, error) {
	noisy, err := e.Unbind(record, role)
	if err != nil {
		return "", 0, err
	}
	return e.fillers.Cleanup(noisy)
}

func (e *RecordEncoder) check(p Pair) error {
	if normalizeSymbol(p.Role, e.cfg.FoldCase) == "" {
		return fmt.Errorf("role: %w", invalidArgf("empty symbol"))
	}
	if normalizeSymbol(p.Filler, e.cfg.FoldCase) == "" {
		return fmt.Errorf("filler for role %q: %w", p.Role, invalidArgf("empty symbol"))
	}
	return nil
}

func (e *RecordEncoder) resolve(p Pair) (Vector, Vector, error) {
	r, err := e.roles.Vector(p.Role)
	if err != nil {
		return Vector{}, Vector{}, fmt.Errorf("role: %w", err)
	}
	f, err := e.fillers.Vector(p.Filler)
	if err != nil {
		return Vector{}, Vector{}, fmt.Errorf("filler for role %q: %w", p.Role, err)
	}
	return r, f, nil
}

// Codebook is a thread-safe lazy map from symbol to hypervector.
type Codebook struct {
	mu        sync.RWMutex
	dims      int
	gen       *Generator // nil → hashed symbols
	namespace uint64
	foldCase  bool
	table     map[string]Vector
}

// NewCodebook returns an empty Codebook. With a non-nil gen, new symbols are
// drawn from gen; otherwise they are derived with Symbol(dims, namespace, name).
func NewCodebook(dims int, gen *Generator, namespace uint64, foldCase bool) (*Codebook, error) {
	if dims <= 0 {
		return nil, invalidArgf("dimension must be positive, got %d", dims)
	}
	return newCodebook(dims, gen, namespace, foldCase), nil
}

func newCodebook(dims int, gen *Generator, namespace uint64, foldCase bool) *Codebook {
	return &Codebook{
		dims:      dims,
		gen:       gen,
		namespace: namespace,
		foldCase:  foldCase,
		table:     make(map[string]Vector),
	}
}

// Vector returns the vector for symbol, assigning one on first use.
func (c *Codebook) Vector(symbol string) (Vector, error) {
	key := normalizeSymbol(symbol, c.foldCase)
	if key == "" {
		return Vector{}, invalidArgf("empty symbol")
	}

	c.mu.RLock()
	v, ok := c.table[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok = c.table[key]; ok {
		return v, nil
	}
	var err error
	if c.gen != nil {
		v, err = c.gen.Random(c.dims)
	} else {
		v, err = Symbol(c.dims, c.namespace, key)
	}
	if err != nil {
		return Vector{}, err
	}
	c.table[key] = v
	return v, nil
}

// Lookup returns the vector for symbol without assigning a new one.
func (c *Codebook) Lookup(symbol string) (Vector, bool) {
	key := normalizeSymbol(symbol, c.foldCase)
	c.mu.RLock()
	v, ok := c.table[key]
	c.mu.RUnlock()
	return v, ok
}

// Len returns the number of known symbols.
func (c *Codebook) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.table)
}

// Symbols returns the known symbols in ascending order.
func (c *Codebook) Symbols() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.table))
	for k := range c.table {
		out = append(out, k)
	}
	c.mu.RUnlock()
	slices.Sort(out)
	return out
}

// Cleanup returns the known symbol whose vector is most similar to v.
// Equal scores resolve to the lexically smallest symbol.
func (c *Codebook) Cleanup(v Vector) (string, float64, error) {
	if err := Check(v, c.dims); err != nil {
		return "", 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.table) == 0 {
		return "", 0, fmt.Errorf("%w: codebook has no symbols", ErrEmptyInput)
	}

	best, bestSim := "", -2.0
	for sym, sv := range c.table {
		s := cosine(v, sv)
		if s > bestSim || (s == bestSim && sym < best) {
			best, bestSim = sym, s
		}
	}
	return best, bestSim, nil
}

package chain

import (
	"io"
	"log/slog"
)

// EndID is the reserved symbol id for the termination marker. Concrete
// symbols are assigned ids starting at 1, in the order they are first seen
// during training.
const EndID = 0

// Source is the single randomness capability the engine depends on: a
// functor producing uniformly distributed unsigned integers across the full
// uint64 range. math/rand/v2 sources (rand.NewPCG, rand.NewChaCha8) satisfy
// it directly.
//
// Sampling reduces a draw with `mod total`, which carries a small modulo
// bias whenever total does not evenly divide 2^64. This is an accepted,
// documented approximation; it is not corrected, as correcting it would
// change observable output distributions. Seeding, determinism and
// thread-affinity of the source are the caller's responsibility.
type Source interface {
	Uint64() uint64
}

// symbolID is the dense interned id of a symbol; EndID is reserved for the
// termination marker.
type symbolID uint32

// distribution maps a next-symbol id (or EndID) to its accumulated weight.
// Every distribution stored in the table has a positive total weight, since
// entries are only ever created together with an increment.
type distribution map[symbolID]uint64

// Chain is a higher-order Markov model over symbols of type T. It owns its
// random source and transition table exclusively; it is not safe for
// concurrent mutation without external synchronization.
type Chain[T comparable] struct {
	order  int
	src    Source
	ids    map[T]symbolID
	syms   []T // index i holds the symbol with id i+1
	table  map[string]distribution
	logger *slog.Logger
}

// New creates an empty chain of the given order. The order is fixed for the
// lifetime of the instance; a negative order is clamped to 0, and order 0
// is a valid degenerate configuration with a single state. The source is
// retained and consumed by Generate.
func New[T comparable](order int, src Source) *Chain[T] {
	if order < 0 {
		order = 0
	}
	return &Chain[T]{
		order:  order,
		src:    src,
		ids:    make(map[T]symbolID),
		table:  make(map[string]distribution),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Order returns the number of prior symbols retained as context.
func (c *Chain[T]) Order() int {
	return c.order
}

// SetLogger sets the logger for the chain. By default, all logs are
// discarded.
func (c *Chain[T]) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// intern returns the id for a symbol, assigning the next free id on first
// sight.
func (c *Chain[T]) intern(s T) symbolID {
	if id, ok := c.ids[s]; ok {
		return id
	}
	c.syms = append(c.syms, s)
	id := symbolID(len(c.syms))
	c.ids[s] = id
	return id
}

// symbol maps an interned id back to its Maybe form.
func (c *Chain[T]) symbol(id symbolID) Maybe[T] {
	if id == EndID {
		return Nothing[T]()
	}
	return Just(c.syms[id-1])
}

package chain

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// UnknownStateError reports that generation reached a memory window with no
// recorded transitions. This cannot happen for a table built exclusively
// through Train: every state reachable by advancing from a trained state
// was itself visited during training and received at least an end entry.
// It therefore indicates a programming-invariant violation (typically a
// table modified or restored from externally edited data), not a
// recoverable condition; retrying reproduces it whenever the same state is
// reached.
type UnknownStateError struct {
	// State is a human-readable rendering of the offending window.
	State string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("chain: no transitions recorded for state [%s]", e.State)
}

// Generate produces one output sequence by walking the transition table
// from the initial all-empty window, drawing one weighted random transition
// per step until a termination transition is selected.
//
// At each step the distribution's entries are visited in a fixed,
// deterministic order: ascending interned symbol id, with the termination
// marker (id 0) first and symbols following in the order they were first
// trained. The entry whose inclusive cumulative weight exceeds the draw is
// selected. Tables built only through Train record a termination entry at
// every reachable state, so the walk terminates with probability 1; no
// artificial length cap is imposed, and a table with a reachable state
// whose termination weight was stripped externally can loop forever.
func (c *Chain[T]) Generate() ([]T, error) {
	state := newWindow(c.order)
	var out []T
	var keyBuf []byte

	for {
		keyBuf = appendWindowKey(keyBuf[:0], state)
		dist, ok := c.table[string(keyBuf)]
		if !ok {
			return nil, &UnknownStateError{State: c.describe(state)}
		}

		id := c.sample(dist)
		if id == EndID {
			c.logger.Debug("generation terminated",
				slog.Int("length", len(out)),
			)
			return out, nil
		}

		out = append(out, c.syms[id-1])
		state = advance(state, id)
	}
}

// sample draws one transition from a distribution by exact integer-weighted
// selection. The distribution is never empty and its total weight is
// positive for any table built through Train.
func (c *Chain[T]) sample(dist distribution) symbolID {
	var total uint64
	for _, w := range dist {
		total += w
	}

	r := c.src.Uint64() % total

	ids := make([]symbolID, 0, len(dist))
	for id := range dist {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		w := dist[id]
		if r < w {
			return id
		}
		r -= w
	}

	// Unreachable: r < total and the weights sum to total.
	return EndID
}

// Text is the convenience form of Generate for character-like symbol
// types: the generated symbols are written out as runes and collected into
// a single string.
func Text[T ~byte | ~rune](c *Chain[T]) (string, error) {
	seq, err := c.Generate()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, s := range seq {
		sb.WriteRune(rune(s))
	}
	return sb.String(), nil
}

package chain

import (
	"fmt"
	"slices"
)

// Snapshot is a value copy of a chain's model data, suitable for encoding
// or persistence by an integrator. Symbol ids follow the chain's internal
// numbering: 0 is the termination marker and Symbols[i] carries id i+1.
type Snapshot[T comparable] struct {
	Order   int             `json:"order"`
	Symbols []T             `json:"symbols"`
	States  []StateSnapshot `json:"states"`
}

// StateSnapshot is one memory window and its recorded transitions.
type StateSnapshot struct {
	Window      []uint32             `json:"window"`
	Transitions []TransitionSnapshot `json:"transitions"`
}

// TransitionSnapshot is one weighted transition entry; Next 0 is the
// termination marker.
type TransitionSnapshot struct {
	Next   uint32 `json:"next"`
	Weight uint64 `json:"weight"`
}

// Snapshot returns a deterministic value copy of the chain's model data:
// states are ordered by window, transitions by ascending symbol id (the
// sampling order). The random source is not part of the snapshot.
func (c *Chain[T]) Snapshot() Snapshot[T] {
	snap := Snapshot[T]{
		Order:   c.order,
		Symbols: slices.Clone(c.syms),
		States:  make([]StateSnapshot, 0, len(c.table)),
	}

	for key, dist := range c.table {
		window := make([]uint32, 0, c.order)
		for _, id := range parseWindowKey(key) {
			window = append(window, uint32(id))
		}

		ids := make([]symbolID, 0, len(dist))
		for id := range dist {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		ts := make([]TransitionSnapshot, 0, len(ids))
		for _, id := range ids {
			ts = append(ts, TransitionSnapshot{Next: uint32(id), Weight: dist[id]})
		}

		snap.States = append(snap.States, StateSnapshot{Window: window, Transitions: ts})
	}

	slices.SortFunc(snap.States, func(a, b StateSnapshot) int {
		return slices.Compare(a.Window, b.Window)
	})

	return snap
}

// Restore builds a chain from a snapshot and a random source. It validates
// the snapshot's internal consistency: window lengths must match the
// order, symbol ids must be in range, duplicate symbols are rejected, and
// every state must carry at least one transition. A restored chain is
// indistinguishable from the one that produced the snapshot.
func Restore[T comparable](snap Snapshot[T], src Source) (*Chain[T], error) {
	if snap.Order < 0 {
		return nil, fmt.Errorf("chain: invalid snapshot order %d", snap.Order)
	}

	c := New[T](snap.Order, src)
	for _, s := range snap.Symbols {
		if _, dup := c.ids[s]; dup {
			return nil, fmt.Errorf("chain: duplicate symbol %v in snapshot", s)
		}
		c.intern(s)
	}

	maxID := uint32(len(snap.Symbols))
	for _, st := range snap.States {
		if len(st.Window) != snap.Order {
			return nil, fmt.Errorf("chain: snapshot window has %d slots, want %d", len(st.Window), snap.Order)
		}
		if len(st.Transitions) == 0 {
			return nil, fmt.Errorf("chain: snapshot state with no transitions")
		}

		w := newWindow(snap.Order)
		for i, id := range st.Window {
			if id > maxID {
				return nil, fmt.Errorf("chain: snapshot window references unknown symbol id %d", id)
			}
			w[i] = symbolID(id)
		}
		key := string(appendWindowKey(nil, w))

		for _, t := range st.Transitions {
			if t.Next > maxID {
				return nil, fmt.Errorf("chain: snapshot transition references unknown symbol id %d", t.Next)
			}
			if t.Weight == 0 {
				return nil, fmt.Errorf("chain: snapshot transition with zero weight")
			}
			c.bump(key, symbolID(t.Next), t.Weight)
		}
	}

	return c, nil
}

package chain

import "slices"

// Stats holds aggregate counts for a chain's model data.
type Stats struct {
	States      int    // distinct memory windows in the table
	Transitions int    // distinct window -> next entries
	Symbols     int    // distinct symbols seen during training
	TotalWeight uint64 // sum of all transition weights
}

// Stats returns a snapshot of aggregate counts for the chain.
func (c *Chain[T]) Stats() Stats {
	s := Stats{
		States:  len(c.table),
		Symbols: len(c.syms),
	}
	for _, dist := range c.table {
		s.Transitions += len(dist)
		for _, w := range dist {
			s.TotalWeight += w
		}
	}
	return s
}

// Transition is the inspection view of a single recorded transition: the
// next symbol (or the termination marker) and its accumulated weight.
type Transition[T comparable] struct {
	Next   Maybe[T]
	Weight uint64
}

// Transitions returns the recorded transitions out of the given memory
// window, in the exact order Generate samples them. Windows shorter than
// the chain order are right-aligned and padded with Nothing on the left,
// so Transitions(nil) inspects the initial state. It returns nil if the
// window was never visited during training.
func (c *Chain[T]) Transitions(window []Maybe[T]) []Transition[T] {
	w, ok := c.windowIDs(window)
	if !ok {
		return nil
	}

	dist := c.table[string(appendWindowKey(nil, w))]
	if dist == nil {
		return nil
	}

	ids := make([]symbolID, 0, len(dist))
	for id := range dist {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	ts := make([]Transition[T], 0, len(ids))
	for _, id := range ids {
		ts = append(ts, Transition[T]{Next: c.symbol(id), Weight: dist[id]})
	}
	return ts
}

// Weight returns the recorded weight for a single transition out of the
// given window, or 0 if it was never observed.
func (c *Chain[T]) Weight(window []Maybe[T], next Maybe[T]) uint64 {
	for _, t := range c.Transitions(window) {
		if t.Next == next {
			return t.Weight
		}
	}
	return 0
}

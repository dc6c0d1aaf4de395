package chain

import "log/slog"

// Train folds one input sequence into the transition table with a
// repetition weight of 1. The empty sequence is valid and records one more
// end observation for the initial state.
func (c *Chain[T]) Train(seq []T) {
	c.TrainWeighted(seq, 1)
}

// TrainWeighted folds one input sequence into the transition table,
// counting it weight times. It is defined to leave the table in the same
// state as weight calls to Train with the same sequence; a weight of 0 is
// therefore a no-op. Counts only ever increase, and repeated calls are
// cumulative. The operation cannot fail for any sequence of any length.
func (c *Chain[T]) TrainWeighted(seq []T, weight uint64) {
	if weight == 0 {
		return
	}

	state := newWindow(c.order)
	var keyBuf []byte
	for _, s := range seq {
		id := c.intern(s)
		keyBuf = appendWindowKey(keyBuf[:0], state)
		c.bump(string(keyBuf), id, weight)
		state = advance(state, id)
	}

	// The sequence legitimately ends after this much history; always
	// recorded, even for an empty input.
	keyBuf = appendWindowKey(keyBuf[:0], state)
	c.bump(string(keyBuf), EndID, weight)

	c.logger.Debug("training pass complete",
		slog.Int("symbols", len(seq)),
		slog.Uint64("weight", weight),
		slog.Int("states", len(c.table)),
	)
}

// TrainAll trains each sequence in turn with a weight of 1.
func (c *Chain[T]) TrainAll(seqs [][]T) {
	for _, seq := range seqs {
		c.Train(seq)
	}
}

// bump increments one transition count, creating the distribution and the
// entry as needed.
func (c *Chain[T]) bump(key string, id symbolID, weight uint64) {
	dist := c.table[key]
	if dist == nil {
		dist = make(distribution)
		c.table[key] = dist
	}
	dist[id] += weight
}

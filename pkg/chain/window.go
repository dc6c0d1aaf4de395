package chain

import "strconv"

// A memory window is a fixed-length slice of symbol ids, oldest first, with
// EndID filling the slots that have no history yet. Windows key the
// transition table through appendWindowKey, so equality is structural.

// newWindow returns the initial all-empty window for the given order.
func newWindow(order int) []symbolID {
	return make([]symbolID, order)
}

// advance drops the oldest slot and appends id, keeping the length fixed.
// The slice is advanced in place and returned.
func advance(w []symbolID, id symbolID) []symbolID {
	if len(w) == 0 {
		return w
	}
	return append(w[1:], id)
}

// appendWindowKey appends the table key for a window to buf: the slot ids
// as space-joined decimals. The buffer is reused across iterations by the
// trainer and generator to avoid per-step allocations.
func appendWindowKey(buf []byte, w []symbolID) []byte {
	for j, id := range w {
		if j > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendUint(buf, uint64(id), 10)
	}
	return buf
}

// parseWindowKey decodes a table key back into its slot ids.
func parseWindowKey(key string) []symbolID {
	if key == "" {
		return nil
	}
	var w []symbolID
	start := 0
	for i := 0; i <= len(key); i++ {
		if i == len(key) || key[i] == ' ' {
			id, _ := strconv.ParseUint(key[start:i], 10, 32)
			w = append(w, symbolID(id))
			start = i + 1
		}
	}
	return w
}

// windowIDs resolves a caller-supplied window of Maybe symbols into slot
// ids. Shorter windows are right-aligned and padded with the termination
// marker on the left, mirroring the initial state; longer windows keep only
// the most recent order slots. The second return is false if any concrete
// symbol in the window was never seen during training.
func (c *Chain[T]) windowIDs(window []Maybe[T]) ([]symbolID, bool) {
	if len(window) > c.order {
		window = window[len(window)-c.order:]
	}
	w := newWindow(c.order)
	offset := c.order - len(window)
	for i, m := range window {
		if v, ok := m.Value(); ok {
			id, known := c.ids[v]
			if !known {
				return nil, false
			}
			w[offset+i] = id
		}
	}
	return w, true
}

// describe renders a window for diagnostics, e.g. "<end> <end> a".
func (c *Chain[T]) describe(w []symbolID) string {
	var buf []byte
	for j, id := range w {
		if j > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, c.symbol(id).String()...)
	}
	return string(buf)
}

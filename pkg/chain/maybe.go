package chain

import "fmt"

// endMarker is the rendering used for the termination marker in state
// descriptions and Maybe.String output.
const endMarker = "<end>"

// Maybe is a two-variant tagged value: either a concrete symbol or nothing.
// The nothing variant doubles as the termination marker in transition
// targets and as the empty slot in a memory window before enough history
// exists. Maybe values are comparable whenever T is, so they can be used
// directly as map keys by callers.
type Maybe[T comparable] struct {
	value   T
	present bool
}

// Just returns a Maybe holding the given symbol.
func Just[T comparable](v T) Maybe[T] {
	return Maybe[T]{value: v, present: true}
}

// Nothing returns the empty Maybe, used as the termination marker.
func Nothing[T comparable]() Maybe[T] {
	return Maybe[T]{}
}

// Value returns the held symbol and whether one is present.
func (m Maybe[T]) Value() (T, bool) {
	return m.value, m.present
}

// IsNothing reports whether m is the termination marker.
func (m Maybe[T]) IsNothing() bool {
	return !m.present
}

// String renders the symbol with fmt.Sprint, or the termination marker.
func (m Maybe[T]) String() string {
	if !m.present {
		return endMarker
	}
	return fmt.Sprint(m.value)
}

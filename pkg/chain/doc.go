/*
Package chain implements higher-order Markov chains over an arbitrary
comparable symbol type.

A Chain is trained incrementally by feeding it example sequences; it records
integer transition counts rather than normalized probabilities, so training
and generation can be interleaved freely. Generation walks the trained
transition table with exact integer-weighted sampling, driven by a
caller-supplied random source, and stops when a recorded end-of-sequence
transition is drawn.

Persistence of trained models is intentionally not part of this package;
see the chainstore package for a SQLite-backed store and JSON transfer.
*/
package chain

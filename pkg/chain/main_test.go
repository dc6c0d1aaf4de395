package chain

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// fixedSource always returns the same value; with 0 it makes Generate pick
// the first entry in sampling order at every step.
type fixedSource uint64

func (s fixedSource) Uint64() uint64 { return uint64(s) }

// scriptSource replays a fixed list of draws, wrapping around at the end.
type scriptSource struct {
	values []uint64
	next   int
}

func (s *scriptSource) Uint64() uint64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// seededSource returns a deterministic PCG source for property-style tests.
func seededSource(seed uint64) Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

var (
	testCorpus     [][]string
	testCorpusOnce sync.Once
)

// corpusSequences returns word sequences for training in tests and
// benchmarks, one per sentence.
func corpusSequences() [][]string {
	testCorpusOnce.Do(func() {
		sentences := []string{
			"the quick brown fox jumps over the lazy dog",
			"the lazy dog sleeps in the warm sun",
			"a quick brown fox is a rare sight",
			"the warm sun sets over the quiet hills",
			"a rare sight greets the quiet morning",
			"the quiet morning follows the long night",
		}
		for _, s := range sentences {
			testCorpus = append(testCorpus, strings.Fields(s))
		}
	})
	return testCorpus
}

package chain

import (
	"reflect"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	c := New[string](2, fixedSource(0))
	c.TrainAll(corpusSequences())
	c.TrainWeighted([]string{"the", "end"}, 5)

	snap := c.Snapshot()
	restored, err := Restore(snap, fixedSource(0))
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if !reflect.DeepEqual(restored.Snapshot(), snap) {
		t.Error("restored chain's snapshot differs from the original")
	}

	// The restored chain must also sample identically.
	a, err := c.Generate()
	if err != nil {
		t.Fatalf("Generate on original failed: %v", err)
	}
	b, err := restored.Generate()
	if err != nil {
		t.Fatalf("Generate on restored failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("original generated %v, restored %v", a, b)
	}
}

func TestSnapshotDeterministicOrder(t *testing.T) {
	build := func() Snapshot[string] {
		c := New[string](2, fixedSource(0))
		c.TrainAll(corpusSequences())
		return c.Snapshot()
	}
	if !reflect.DeepEqual(build(), build()) {
		t.Error("identical training produced differing snapshots")
	}
}

func TestRestoreRejectsInvalid(t *testing.T) {
	valid := func() Snapshot[string] {
		c := New[string](1, fixedSource(0))
		c.Train([]string{"a", "b"})
		return c.Snapshot()
	}

	cases := []struct {
		name   string
		mutate func(*Snapshot[string])
	}{
		{"negative order", func(s *Snapshot[string]) { s.Order = -1 }},
		{"window length mismatch", func(s *Snapshot[string]) { s.States[0].Window = []uint32{0, 0} }},
		{"unknown window symbol", func(s *Snapshot[string]) { s.States[0].Window = []uint32{99} }},
		{"unknown next symbol", func(s *Snapshot[string]) { s.States[0].Transitions[0].Next = 99 }},
		{"zero weight", func(s *Snapshot[string]) { s.States[0].Transitions[0].Weight = 0 }},
		{"empty state", func(s *Snapshot[string]) { s.States[0].Transitions = nil }},
		{"duplicate symbol", func(s *Snapshot[string]) { s.Symbols = []string{"a", "a"} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := valid()
			tc.mutate(&snap)
			if _, err := Restore(snap, fixedSource(0)); err == nil {
				t.Error("Restore accepted an invalid snapshot")
			}
		})
	}
}

func TestRestoreEmpty(t *testing.T) {
	// An empty snapshot restores to an untrained chain; generation from it
	// fails with UnknownStateError, it is not masked.
	restored, err := Restore(Snapshot[string]{Order: 2}, fixedSource(0))
	if err != nil {
		t.Fatalf("Restore of empty snapshot failed: %v", err)
	}
	if _, err := restored.Generate(); err == nil {
		t.Error("Generate on an empty restored chain returned no error")
	}
}

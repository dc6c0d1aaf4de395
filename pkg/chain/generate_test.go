package chain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestGenerateUntrained(t *testing.T) {
	c := New[string](2, fixedSource(0))
	_, err := c.Generate()
	if err == nil {
		t.Fatal("Generate on an untrained chain returned no error")
	}
	var use *UnknownStateError
	if !errors.As(err, &use) {
		t.Fatalf("Generate error = %v, want UnknownStateError", err)
	}
	if !strings.Contains(use.State, endMarker) {
		t.Errorf("UnknownStateError.State = %q, want the initial all-empty window", use.State)
	}
}

func TestGenerateConcreteScenario(t *testing.T) {
	// Order 1, trained once on [A, B, A]. Sampling order within a state is
	// termination first, then symbols by first-trained order; a source that
	// always draws 0 therefore selects A from the initial state (its only
	// entry) and then the termination entry of state {A}.
	c := New[string](1, fixedSource(0))
	c.Train([]string{"A", "B", "A"})

	out, err := c.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if want := []string{"A"}; !reflect.DeepEqual(out, want) {
		t.Errorf("Generate() = %v, want %v", out, want)
	}
}

func TestGenerateScripted(t *testing.T) {
	// Draw 1 at state {A} skips the termination entry (weight 1) and
	// selects B; the walk then continues through {B} -> A and ends.
	c := New[string](1, &scriptSource{values: []uint64{0, 1, 0, 0}})
	c.Train([]string{"A", "B", "A"})

	out, err := c.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if want := []string{"A", "B", "A"}; !reflect.DeepEqual(out, want) {
		t.Errorf("Generate() = %v, want %v", out, want)
	}
}

func TestGenerateDeterminism(t *testing.T) {
	script := []uint64{3, 141, 59, 26, 535, 8, 97, 9323}

	var outputs [][]string
	for i := 0; i < 3; i++ {
		c := New[string](2, &scriptSource{values: script})
		c.TrainAll(corpusSequences())
		out, err := c.Generate()
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		outputs = append(outputs, out)
	}

	if !reflect.DeepEqual(outputs[0], outputs[1]) || !reflect.DeepEqual(outputs[1], outputs[2]) {
		t.Errorf("same table and draws produced different outputs: %v", outputs)
	}
}

func TestGenerateClosedVocabulary(t *testing.T) {
	// A model trained on a single sequence with order >= its length can
	// only reproduce symbols from that sequence.
	seq := []rune("abcab")
	c := New[rune](len(seq), seededSource(42))
	c.Train(seq)

	allowed := make(map[rune]bool)
	for _, r := range seq {
		allowed[r] = true
	}

	for i := 0; i < 200; i++ {
		out, err := c.Generate()
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		for _, r := range out {
			if !allowed[r] {
				t.Fatalf("generated symbol %q absent from training data", r)
			}
		}
	}
}

func TestGenerateEmptyTraining(t *testing.T) {
	c := New[string](3, seededSource(7))
	c.Train(nil)
	c.Train(nil)

	for i := 0; i < 10; i++ {
		out, err := c.Generate()
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if len(out) != 0 {
			t.Fatalf("model trained only on empty sequences generated %v", out)
		}
	}
}

func TestGenerateOrderZero(t *testing.T) {
	c := New[string](0, seededSource(11))
	c.Train([]string{"a", "b"})

	out, err := c.Generate()
	if err != nil {
		t.Fatalf("Generate on an order-0 model failed: %v", err)
	}
	for _, s := range out {
		if s != "a" && s != "b" {
			t.Fatalf("order-0 model generated unknown symbol %q", s)
		}
	}
}

func TestText(t *testing.T) {
	c := New[rune](4, fixedSource(1))
	c.Train([]rune("hi"))

	// With a constant draw of 1 every visited state has total weight 1, so
	// 1 mod 1 = 0 selects the first entry: the model replays its training.
	got, err := Text(c)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if got != "hi" {
		t.Errorf("Text() = %q, want %q", got, "hi")
	}
}

func TestTextUntrained(t *testing.T) {
	c := New[rune](2, fixedSource(0))
	if _, err := c.Generate(); err == nil {
		t.Fatal("expected error from untrained chain")
	}
	if got, err := Text(c); err == nil || got != "" {
		t.Errorf("Text() = %q, %v; want empty string and error", got, err)
	}
}

func BenchmarkGenerate(b *testing.B) {
	for _, order := range []int{1, 2, 3} {
		b.Run(fmt.Sprintf("Order%d", order), func(b *testing.B) {
			c := New[string](order, seededSource(99))
			for i := 0; i < 50; i++ {
				c.TrainAll(corpusSequences())
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := c.Generate(); err != nil {
					b.Fatalf("Generate failed: %v", err)
				}
			}
		})
	}
}

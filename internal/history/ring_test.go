package history

import "testing"

func TestRingBounded(t *testing.T) {
	ring := New(300)
	for i := 0; i < 301; i++ {
		ring.Record(Point{Time: int64(i), AverageWait: float64(i)})
	}
	if ring.Len() != 300 {
		t.Fatalf("expected 300 retained points, got %d", ring.Len())
	}
	window := ring.Window(300)
	if window[0].Time != 1 {
		t.Fatalf("expected oldest point to be tick 1 after eviction, got %d", window[0].Time)
	}
	if window[len(window)-1].Time != 300 {
		t.Fatalf("expected newest point tick 300, got %d", window[len(window)-1].Time)
	}
	for i := 1; i < len(window); i++ {
		if window[i].Time != window[i-1].Time+1 {
			t.Fatalf("relative order broken at index %d: %d after %d",
				i, window[i].Time, window[i-1].Time)
		}
	}
}

func TestRingWindowSmallerThanSize(t *testing.T) {
	ring := New(10)
	for i := 0; i < 10; i++ {
		ring.Record(Point{Time: int64(i)})
	}
	window := ring.Window(4)
	if len(window) != 4 {
		t.Fatalf("expected 4 points, got %d", len(window))
	}
	if window[0].Time != 6 || window[3].Time != 9 {
		t.Fatalf("expected ticks 6..9, got %d..%d", window[0].Time, window[3].Time)
	}
}

func TestRingWindowRestartable(t *testing.T) {
	ring := New(5)
	ring.Record(Point{Time: 1})
	ring.Record(Point{Time: 2})

	first := ring.Window(5)
	second := ring.Window(5)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("window should re-derive without consuming: %d then %d", len(first), len(second))
	}
	// Mutating a returned window must not leak into the ring.
	first[0].Time = 99
	if ring.Window(5)[0].Time != 1 {
		t.Fatalf("window copy aliases ring storage")
	}
}

func TestRingWindowEdgeCases(t *testing.T) {
	ring := New(5)
	if got := ring.Window(3); got != nil {
		t.Fatalf("empty ring should yield nil window, got %v", got)
	}
	ring.Record(Point{Time: 7})
	if got := ring.Window(0); got != nil {
		t.Fatalf("k=0 should yield nil window, got %v", got)
	}
	if got := ring.Window(10); len(got) != 1 || got[0].Time != 7 {
		t.Fatalf("oversized k should clamp to size, got %v", got)
	}
}

func TestRingWrapAroundOrder(t *testing.T) {
	ring := New(3)
	for i := 0; i < 8; i++ {
		ring.Record(Point{Time: int64(i)})
	}
	window := ring.Window(3)
	if window[0].Time != 5 || window[1].Time != 6 || window[2].Time != 7 {
		t.Fatalf("expected ticks 5,6,7 after wrap, got %v", window)
	}
}

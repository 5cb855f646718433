package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"liftlogic/console/internal/history"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "console.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestJournalRecordAndReadback(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	id, err := store.Begin(ctx, "http://127.0.0.1:8000")
	if err != nil {
		t.Fatalf("begin session: %v", err)
	}
	if id == "" || store.SessionID() != id {
		t.Fatalf("session id not tracked: %q vs %q", id, store.SessionID())
	}

	for i := 0; i < 3; i++ {
		point := history.Point{Time: int64(i), AverageWait: float64(i) * 1.5, Throughput: float64(10 * i)}
		if err := store.Record(ctx, point); err != nil {
			t.Fatalf("record point %d: %v", i, err)
		}
	}

	points, err := store.Points(ctx)
	if err != nil {
		t.Fatalf("read back points: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[2].Time != 2 || points[2].AverageWait != 3.0 || points[2].Throughput != 20 {
		t.Fatalf("unexpected last point %+v", points[2])
	}
}

func TestJournalRequiresSession(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	err := store.Record(ctx, history.Point{Time: 1})
	if !errors.Is(err, errNoSession) {
		t.Fatalf("expected errNoSession before Begin, got %v", err)
	}
	if _, err := store.Points(ctx); !errors.Is(err, errNoSession) {
		t.Fatalf("expected errNoSession from Points, got %v", err)
	}
}

func TestJournalSessionsIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "console.db")

	first, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := first.Begin(ctx, "http://a"); err != nil {
		t.Fatalf("begin first: %v", err)
	}
	if err := first.Record(ctx, history.Point{Time: 5, AverageWait: 2}); err != nil {
		t.Fatalf("record first: %v", err)
	}
	first.Close()

	second, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if _, err := second.Begin(ctx, "http://b"); err != nil {
		t.Fatalf("begin second: %v", err)
	}
	points, err := second.Points(ctx)
	if err != nil {
		t.Fatalf("points: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("second session should start empty, got %v", points)
	}
}

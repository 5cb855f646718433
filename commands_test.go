package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"liftlogic/console/internal/state"
	"liftlogic/console/internal/wire"
	"liftlogic/console/logging"
)

func serviceSnapshot(tick int64, scheduler string) wire.Snapshot {
	return wire.Snapshot{
		Time:      tick,
		Scheduler: scheduler,
		Building: wire.Building{
			Floors:    []wire.Floor{{Number: 0, TotalWaiting: 2}},
			Elevators: []wire.Elevator{{ID: 0, Position: 1.5, Status: wire.StatusInService}},
		},
		Metrics: wire.Metrics{TimeStep: tick, AverageWait: 3.5, Throughput: 12},
	}
}

func writeSnapshot(t *testing.T, w http.ResponseWriter, snap wire.Snapshot) {
	t.Helper()
	data, err := snap.Encode()
	if err != nil {
		t.Fatalf("encode snapshot: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func testClient(t *testing.T, handler http.Handler) (*commandClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := Config{BaseURL: srv.URL, CommandTimeout: 5 * time.Second}
	return newCommandClient(cfg, logging.NopPublisher()), srv
}

func TestBootstrap(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("expected GET /state, got %s", r.Method)
		}
		writeSnapshot(t, w, serviceSnapshot(0, "fcfs"))
	})
	client, _ := testClient(t, mux)

	snap, err := client.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if snap.Scheduler != "fcfs" || snap.Time != 0 {
		t.Fatalf("unexpected bootstrap snapshot %+v", snap)
	}
}

func TestSetAlgorithm(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/algorithm", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST /algorithm, got %s", r.Method)
		}
		var body algorithmSelection
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Name != "scan" {
			t.Fatalf("expected scan, got %q", body.Name)
		}
		if body.Options == nil || len(body.Options) != 0 {
			t.Fatalf("options should be an empty mapping, got %v", body.Options)
		}
		writeSnapshot(t, w, serviceSnapshot(7, "scan"))
	})
	client, _ := testClient(t, mux)

	snap, err := client.SetAlgorithm(context.Background(), "scan", nil)
	if err != nil {
		t.Fatalf("set algorithm: %v", err)
	}
	if snap.Scheduler != "scan" {
		t.Fatalf("response should reflect new scheduler, got %q", snap.Scheduler)
	}
}

func TestSetAlgorithmRejectsUnknownName(t *testing.T) {
	client, _ := testClient(t, http.NewServeMux())
	_, err := client.SetAlgorithm(context.Background(), "priority", []string{"fcfs", "scan"})
	if err == nil {
		t.Fatalf("expected membership error")
	}
	if !strings.Contains(err.Error(), "switch algorithm") {
		t.Fatalf("error should carry the action label, got %v", err)
	}
}

func TestSpawnBatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/passengers/spawn", func(w http.ResponseWriter, r *http.Request) {
		var body spawnBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Origin != 0 || body.Destination != 42 || body.Count != 25 {
			t.Fatalf("unexpected request %+v", body)
		}
		snap := serviceSnapshot(9, "fcfs")
		spawned := body.Count
		snap.Spawned = &spawned
		writeSnapshot(t, w, snap)
	})
	client, _ := testClient(t, mux)

	snap, err := client.SpawnBatch(context.Background(), 0, 42, 25)
	if err != nil {
		t.Fatalf("spawn batch: %v", err)
	}
	if snap.Spawned == nil || *snap.Spawned != 25 {
		t.Fatalf("expected spawned echo, got %+v", snap.Spawned)
	}
}

func TestSpawnBatchValidatesForm(t *testing.T) {
	client, _ := testClient(t, http.NewServeMux())
	cases := []struct {
		origin, destination, count int
	}{
		{-1, 5, 10},
		{0, -2, 10},
		{0, 5, 0},
		{0, 5, maxSpawnPerBatch + 1},
	}
	for _, tc := range cases {
		_, err := client.SpawnBatch(context.Background(), tc.origin, tc.destination, tc.count)
		if err == nil {
			t.Fatalf("expected rejection for %+v", tc)
		}
		if !strings.Contains(err.Error(), "spawn passengers") {
			t.Fatalf("error should carry the action label, got %v", err)
		}
	}
}

func TestSetAvailability(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/elevators/3/availability", func(w http.ResponseWriter, r *http.Request) {
		var body availabilityUpdate
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Available || body.Reason != "inspection" {
			t.Fatalf("unexpected request %+v", body)
		}
		snap := serviceSnapshot(11, "fcfs")
		id, avail, reason := 3, false, "inspection"
		snap.ElevatorID, snap.Available, snap.Reason = &id, &avail, &reason
		writeSnapshot(t, w, snap)
	})
	client, _ := testClient(t, mux)

	snap, err := client.SetAvailability(context.Background(), 3, false, "inspection")
	if err != nil {
		t.Fatalf("set availability: %v", err)
	}
	if snap.ElevatorID == nil || *snap.ElevatorID != 3 {
		t.Fatalf("expected elevator echo, got %+v", snap.ElevatorID)
	}
}

func TestCommandErrorsAreScopedAndLeaveStateUntouched(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/algorithm", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"unknown scheduler"}`, http.StatusBadRequest)
	})
	mux.HandleFunc("/elevators/9/availability", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such elevator", http.StatusNotFound)
	})
	client, _ := testClient(t, mux)

	store := state.NewStore()
	held := serviceSnapshot(4, "fcfs")
	store.Apply(held, state.OriginStream)

	_, algErr := client.SetAlgorithm(context.Background(), "scan", nil)
	if algErr == nil || !strings.Contains(algErr.Error(), "switch algorithm") {
		t.Fatalf("expected scoped algorithm error, got %v", algErr)
	}
	_, availErr := client.SetAvailability(context.Background(), 9, true, "")
	if availErr == nil || !strings.Contains(availErr.Error(), "toggle elevator 9") {
		t.Fatalf("expected scoped availability error, got %v", availErr)
	}
	if strings.Contains(algErr.Error(), "toggle elevator") {
		t.Fatalf("algorithm error bleeds into availability scope: %v", algErr)
	}

	snap, ok := store.Current()
	if !ok || snap.Time != held.Time || snap.Scheduler != held.Scheduler {
		t.Fatalf("failed command must not corrupt held snapshot: %+v", snap)
	}
}

func TestBootstrapThenSetAlgorithmScenario(t *testing.T) {
	// Spec scenario: bootstrap reports fcfs, a later setAlgorithm("scan")
	// response flips the current snapshot immediately, independent of any
	// stream message in between.
	mux := http.NewServeMux()
	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		writeSnapshot(t, w, serviceSnapshot(0, "fcfs"))
	})
	mux.HandleFunc("/algorithm", func(w http.ResponseWriter, r *http.Request) {
		writeSnapshot(t, w, serviceSnapshot(6, "scan"))
	})
	client, _ := testClient(t, mux)
	store := state.NewStore()

	boot, err := client.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	store.Apply(boot, state.OriginBootstrap)
	if snap, _ := store.Current(); snap.Scheduler != "fcfs" {
		t.Fatalf("expected fcfs after bootstrap, got %q", snap.Scheduler)
	}

	seq := store.NextCommandSeq()
	// A stream tick lands while the command is in flight.
	store.Apply(serviceSnapshot(5, "fcfs"), state.OriginStream)

	resp, err := client.SetAlgorithm(context.Background(), "scan", []string{"fcfs", "scan"})
	if err != nil {
		t.Fatalf("set algorithm: %v", err)
	}
	if !store.ApplyCommand(resp, seq) {
		t.Fatalf("latest command response should apply")
	}
	if snap, _ := store.Current(); snap.Scheduler != "scan" {
		t.Fatalf("scheduler should flip to scan immediately, got %q", snap.Scheduler)
	}
}

func TestNon2xxCarriesStatusAndExcerpt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "simulation rebooting", http.StatusServiceUnavailable)
	})
	client, _ := testClient(t, mux)
	_, err := client.Bootstrap(context.Background())
	if err == nil {
		t.Fatalf("expected error for 503")
	}
	msg := err.Error()
	if !strings.Contains(msg, "503") || !strings.Contains(msg, "simulation rebooting") {
		t.Fatalf("expected status and body excerpt, got %q", msg)
	}
}

func TestExcerptTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := excerpt([]byte(long))
	if len(got) >= 500 {
		t.Fatalf("excerpt should truncate, got %d bytes", len(got))
	}
	if excerpt(nil) != "(empty body)" {
		t.Fatalf("empty body placeholder missing")
	}
}

func TestExcerptTruncatesOnRuneBoundary(t *testing.T) {
	// 3-byte runes, so the byte limit lands mid-rune; the cut must back
	// off instead of emitting a broken sequence into the error line.
	long := strings.Repeat("█", 60)
	got := excerpt([]byte(long))
	if !utf8.ValidString(got) {
		t.Fatalf("excerpt split a rune: %q", got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("truncated excerpt should end with an ellipsis: %q", got)
	}
}

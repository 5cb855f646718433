package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"liftlogic/console/internal/wire"
	"liftlogic/console/logging"
)

// maxSpawnPerBatch bounds the spawn form's count field. Range checks on
// floors stay server-side; the client only enforces numeric form.
const maxSpawnPerBatch = 200

// fallbackSchedulers seeds the algorithm cycle before the first snapshot
// reveals what the service is actually running.
var fallbackSchedulers = []string{"fcfs", "scan", "destination_dispatch"}

// commandClient issues the console's imperative operations. Every
// successful call returns the full snapshot the service responded with;
// the caller applies it wholesale. Failures never touch held state and
// carry a scoped action label so a failed algorithm switch cannot read
// as a failed spawn.
type commandClient struct {
	base string
	http *http.Client
	log  logging.Publisher
}

func newCommandClient(cfg Config, log logging.Publisher) *commandClient {
	if log == nil {
		log = logging.NopPublisher()
	}
	return &commandClient{
		base: cfg.BaseURL,
		http: &http.Client{Timeout: cfg.CommandTimeout},
		log:  log,
	}
}

// Bootstrap fetches the full state once at session start, before the
// push channel is confirmed live.
func (c *commandClient) Bootstrap(ctx context.Context) (wire.Snapshot, error) {
	return c.get(ctx, "load state", "/state")
}

type algorithmSelection struct {
	Name    string         `json:"name"`
	Options map[string]any `json:"options"`
}

// SetAlgorithm switches the active scheduler. name must be one of the
// identifiers the service advertises; membership is the only client-side
// check.
func (c *commandClient) SetAlgorithm(ctx context.Context, name string, known []string) (wire.Snapshot, error) {
	if len(known) == 0 {
		known = fallbackSchedulers
	}
	member := false
	for _, k := range known {
		if k == name {
			member = true
			break
		}
	}
	if !member {
		return wire.Snapshot{}, fmt.Errorf("switch algorithm: %q is not an advertised scheduler (have %s)",
			name, strings.Join(known, ", "))
	}
	body := algorithmSelection{Name: name, Options: map[string]any{}}
	return c.post(ctx, "switch algorithm", "/algorithm", body)
}

type spawnBatchRequest struct {
	Origin      int `json:"origin"`
	Destination int `json:"destination"`
	Count       int `json:"count"`
}

// SpawnBatch injects count passengers traveling origin → destination.
func (c *commandClient) SpawnBatch(ctx context.Context, origin, destination, count int) (wire.Snapshot, error) {
	if origin < 0 || destination < 0 {
		return wire.Snapshot{}, fmt.Errorf("spawn passengers: floors must be non-negative (origin %d, destination %d)", origin, destination)
	}
	if count <= 0 || count > maxSpawnPerBatch {
		return wire.Snapshot{}, fmt.Errorf("spawn passengers: count must be 1..%d, got %d", maxSpawnPerBatch, count)
	}
	body := spawnBatchRequest{Origin: origin, Destination: destination, Count: count}
	return c.post(ctx, "spawn passengers", "/passengers/spawn", body)
}

type availabilityUpdate struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason"`
}

// SetAvailability marks a car in or out of service.
func (c *commandClient) SetAvailability(ctx context.Context, elevatorID int, available bool, reason string) (wire.Snapshot, error) {
	action := fmt.Sprintf("toggle elevator %d", elevatorID)
	path := fmt.Sprintf("/elevators/%d/availability", elevatorID)
	return c.post(ctx, action, path, availabilityUpdate{Available: available, Reason: reason})
}

func (c *commandClient) get(ctx context.Context, action, path string) (wire.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return wire.Snapshot{}, fmt.Errorf("%s: %w", action, err)
	}
	return c.do(ctx, action, req)
}

func (c *commandClient) post(ctx context.Context, action, path string, body any) (wire.Snapshot, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return wire.Snapshot{}, fmt.Errorf("%s: %w", action, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return wire.Snapshot{}, fmt.Errorf("%s: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, action, req)
}

func (c *commandClient) do(ctx context.Context, action string, req *http.Request) (wire.Snapshot, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.logFailure(ctx, action, err)
		return wire.Snapshot{}, fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.logFailure(ctx, action, err)
		return wire.Snapshot{}, fmt.Errorf("%s: read response: %w", action, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%s: service returned %s: %s", action, resp.Status, excerpt(data))
		c.logFailure(ctx, action, err)
		return wire.Snapshot{}, err
	}
	snap, err := wire.DecodeSnapshot(data)
	if err != nil {
		c.logFailure(ctx, action, err)
		return wire.Snapshot{}, fmt.Errorf("%s: %w", action, err)
	}
	return snap, nil
}

func (c *commandClient) logFailure(ctx context.Context, action string, err error) {
	c.log.Publish(ctx, logging.Event{
		Type:     logging.EventCommandFailed,
		Severity: logging.SeverityError,
		Category: logging.CategoryCommand,
		Payload:  map[string]string{"action": action, "error": err.Error()},
	})
}

func excerpt(data []byte) string {
	const limit = 160
	s := strings.TrimSpace(string(data))
	if len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "…"
	}
	if s == "" {
		return "(empty body)"
	}
	return s
}

// Package logging carries the console's session events to configured
// sinks without ever blocking the render loop: publishing is a
// non-blocking enqueue and overload drops events rather than stalling.
package logging

import (
	"context"
	"time"
)

type EventType string

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	}
	return "unknown"
}

// Event categories used across the console.
const (
	CategoryStream  = "stream"
	CategoryCommand = "command"
	CategoryJournal = "journal"
	CategorySystem  = "system"
)

// Well-known event types.
const (
	EventStreamOpen        EventType = "stream.open"
	EventStreamClose       EventType = "stream.close"
	EventStreamDecodeError EventType = "stream.decode_error"
	EventSnapshotApplied   EventType = "state.snapshot_applied"
	EventCommandIssued     EventType = "command.issued"
	EventCommandFailed     EventType = "command.failed"
	EventCommandStale      EventType = "command.stale_response"
	EventJournalError      EventType = "journal.error"
	EventConfigFallback    EventType = "config.fallback"
)

// Event is one structured log record. Tick is the simulation tick the
// event relates to, zero when none applies.
type Event struct {
	Type     EventType      `json:"type"`
	Tick     int64          `json:"tick,omitempty"`
	Time     time.Time      `json:"time"`
	Severity Severity       `json:"severity"`
	Category string         `json:"category,omitempty"`
	Payload  any            `json:"payload,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f == nil {
		return
	}
	f(ctx, event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

// NopPublisher satisfies Publisher while discarding everything. Used by
// tests and by components constructed without a router.
func NopPublisher() Publisher {
	return nopPublisher{}
}

package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"liftlogic/console/internal/wire"
	"liftlogic/console/logging"
)

// connStatus tracks the push channel independently of snapshot
// freshness: connecting until the dial succeeds, live while reading,
// offline after any close or transport error.
type connStatus int32

const (
	statusConnecting connStatus = iota
	statusLive
	statusOffline
)

func (s connStatus) String() string {
	switch s {
	case statusConnecting:
		return "connecting"
	case statusLive:
		return "live"
	case statusOffline:
		return "offline"
	}
	return "unknown"
}

// streamEvent is one occurrence on the push channel, delivered in
// arrival order on the supervisor's event channel.
type streamEvent struct {
	kind     streamEventKind
	snapshot wire.Snapshot
	err      error
}

type streamEventKind int

const (
	streamOpened streamEventKind = iota
	streamSnapshot
	streamDecodeError
	streamClosed
)

// streamSupervisor owns the lifecycle of the single push-channel
// connection for a session. It does not reconnect: a dropped channel
// surfaces as offline and stays there, matching the service contract.
type streamSupervisor struct {
	url    string
	dialer *websocket.Dialer
	log    logging.Publisher
	status atomic.Int32
	events chan streamEvent
}

func newStreamSupervisor(cfg Config, log logging.Publisher) *streamSupervisor {
	if log == nil {
		log = logging.NopPublisher()
	}
	return &streamSupervisor{
		url: cfg.WSURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.DialTimeout,
		},
		log:    log,
		events: make(chan streamEvent, 64),
	}
}

// Events delivers stream occurrences in arrival order. Closed when Run
// returns.
func (s *streamSupervisor) Events() <-chan streamEvent {
	return s.events
}

func (s *streamSupervisor) Status() connStatus {
	return connStatus(s.status.Load())
}

// Run dials the stream and pumps messages until the connection drops or
// ctx is canceled. The connection is released on every exit path.
func (s *streamSupervisor) Run(ctx context.Context) {
	defer close(s.events)

	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		s.status.Store(int32(statusOffline))
		s.log.Publish(ctx, logging.Event{
			Type:     logging.EventStreamClose,
			Severity: logging.SeverityWarn,
			Category: logging.CategoryStream,
			Payload:  map[string]string{"url": s.url, "error": err.Error()},
		})
		s.emit(ctx, streamEvent{kind: streamClosed, err: err})
		return
	}
	defer conn.Close()

	s.status.Store(int32(statusLive))
	s.log.Publish(ctx, logging.Event{
		Type:     logging.EventStreamOpen,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryStream,
		Payload:  map[string]string{"url": s.url},
	})
	s.emit(ctx, streamEvent{kind: streamOpened})

	// Unblock the read loop when the session ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.SetReadDeadline(time.Now())
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.status.Store(int32(statusOffline))
			s.log.Publish(ctx, logging.Event{
				Type:     logging.EventStreamClose,
				Severity: logging.SeverityWarn,
				Category: logging.CategoryStream,
				Payload:  map[string]string{"error": err.Error()},
			})
			s.emit(ctx, streamEvent{kind: streamClosed, err: err})
			return
		}
		snap, err := wire.DecodeSnapshot(data)
		if err != nil {
			// Malformed payloads are reported and skipped; the held
			// snapshot stays untouched and the channel keeps running.
			s.log.Publish(ctx, logging.Event{
				Type:     logging.EventStreamDecodeError,
				Severity: logging.SeverityError,
				Category: logging.CategoryStream,
				Payload:  map[string]string{"error": err.Error()},
			})
			s.emit(ctx, streamEvent{kind: streamDecodeError, err: err})
			continue
		}
		s.emit(ctx, streamEvent{kind: streamSnapshot, snapshot: snap})
	}
}

func (s *streamSupervisor) emit(ctx context.Context, ev streamEvent) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

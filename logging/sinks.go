package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
)

// TextSink writes one human-readable line per event. The console points
// it at a file, never at the terminal the TUI owns.
type TextSink struct {
	logger *log.Logger
}

func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{logger: log.New(w, "", log.LstdFlags)}
}

func (s *TextSink) Write(event Event) error {
	if s.logger == nil {
		return nil
	}
	s.logger.Printf("[%s] severity=%s category=%s tick=%d%s",
		event.Type, event.Severity, event.Category, event.Tick, formatPayload(event.Payload))
	return nil
}

func (s *TextSink) Close(context.Context) error {
	return nil
}

func formatPayload(payload any) string {
	if payload == nil {
		return ""
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(" payload=%v", payload)
	}
	return fmt.Sprintf(" payload=%s", data)
}

// JSONSink writes one JSON object per line.
type JSONSink struct {
	mu  sync.Mutex
	w   io.Writer
	enc *json.Encoder
}

func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w, enc: json.NewEncoder(w)}
}

func (s *JSONSink) Write(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(event)
}

func (s *JSONSink) Close(ctx context.Context) error {
	if closer, ok := s.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// MemorySink retains events for tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemorySink) Close(context.Context) error {
	return nil
}

func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

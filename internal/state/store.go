// Package state owns the single authoritative snapshot the console
// renders from. Two independent producers write it: the push stream and
// command responses. The slot is last-writer-wins between those producers
// except that a command response carrying a stale sequence number is
// dropped, so an old in-flight request can never bury newer state.
package state

import (
	"sync"

	"liftlogic/console/internal/wire"
)

// Origin identifies who produced a snapshot write.
type Origin int

const (
	OriginBootstrap Origin = iota
	OriginStream
	OriginCommand
)

func (o Origin) String() string {
	switch o {
	case OriginBootstrap:
		return "bootstrap"
	case OriginStream:
		return "stream"
	case OriginCommand:
		return "command"
	}
	return "unknown"
}

// Store is the current-snapshot slot.
type Store struct {
	mu         sync.Mutex
	current    wire.Snapshot
	hasState   bool
	lastOrigin Origin

	issuedSeq  uint64
	appliedSeq uint64
}

func NewStore() *Store {
	return &Store{}
}

// Current returns the held snapshot and whether one has been applied yet.
func (s *Store) Current() (wire.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.hasState
}

// Apply replaces the current snapshot unconditionally. Stream and
// bootstrap writes always land; tick regressions are accepted
// last-message-wins because the stream offers no ordering back-pressure.
func (s *Store) Apply(snap wire.Snapshot, origin Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snap
	s.hasState = true
	s.lastOrigin = origin
}

// LastOrigin reports who wrote the held snapshot.
func (s *Store) LastOrigin() Origin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOrigin
}

// NextCommandSeq tags an outgoing command with a monotonic sequence.
// The newest issued sequence is the only one whose response may land.
func (s *Store) NextCommandSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issuedSeq++
	return s.issuedSeq
}

// ApplyCommand replaces the current snapshot with a command response,
// unless a newer command has been issued since seq was taken. Returns
// whether the write landed.
func (s *Store) ApplyCommand(snap wire.Snapshot, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.issuedSeq || seq <= s.appliedSeq {
		return false
	}
	s.appliedSeq = seq
	s.current = snap
	s.hasState = true
	s.lastOrigin = OriginCommand
	return true
}

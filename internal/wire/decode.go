package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyBuilding marks a payload that parsed as JSON but carries no
// building section. The service always serializes floors and elevators,
// so a snapshot without either is treated as malformed rather than
// applied as an empty world.
var ErrEmptyBuilding = errors.New("snapshot carries no building state")

// DecodeSnapshot parses one inbound message into a Snapshot. A failure
// must leave the caller's held state untouched; callers report the error
// and keep rendering the previous snapshot.
//
// Time monotonicity is deliberately not checked here: the stream provides
// no acknowledgment or ordering back-pressure, so duplicate or regressed
// tick values are accepted last-message-wins.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Building.Floors == nil && snap.Building.Elevators == nil {
		return Snapshot{}, ErrEmptyBuilding
	}
	return snap, nil
}

// Encode serializes a snapshot back to its wire form. Used by the schema
// tool and by tests that round-trip service fixtures.
func (s Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

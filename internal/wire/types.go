// Package wire defines the snapshot schema spoken by the LiftLogic
// simulation service and the decoder that guards the console against
// malformed payloads.
package wire

// Snapshot is the complete point-in-time state published by the service.
// Every stream message and every command response carries one; the console
// always replaces its held copy wholesale, never patches it.
type Snapshot struct {
	Time      int64    `json:"time"`
	Building  Building `json:"building"`
	Metrics   Metrics  `json:"metrics"`
	Scheduler string   `json:"scheduler"`

	// Echo fields the service attaches to spawn and availability
	// responses. Absent on stream ticks.
	Spawned    *int    `json:"spawned,omitempty"`
	ElevatorID *int    `json:"elevator_id,omitempty"`
	Available  *bool   `json:"available,omitempty"`
	Reason     *string `json:"reason,omitempty"`
}

type Building struct {
	Floors    []Floor    `json:"floors"`
	Elevators []Elevator `json:"elevators"`
}

type Floor struct {
	Number       int `json:"number"`
	WaitingUp    int `json:"waiting_up"`
	WaitingDown  int `json:"waiting_down"`
	TotalWaiting int `json:"total_waiting"`
}

// Elevator status values used by the service.
const (
	StatusInService   = "in_service"
	StatusFaulted     = "faulted"
	StatusMaintenance = "maintenance"
)

// Door states used by the service.
const (
	DoorClosed = "closed"
	DoorOpen   = "open"
)

type Elevator struct {
	ID             int     `json:"id"`
	Position       float64 `json:"position"`
	Targets        []int   `json:"targets"`
	DoorState      string  `json:"door_state"`
	Status         string  `json:"status"`
	PassengerCount int     `json:"passenger_count"`
}

// InService reports whether the car is accepting assignments.
func (e Elevator) InService() bool {
	return e.Status == StatusInService
}

type Metrics struct {
	TimeStep    int64   `json:"time_step"`
	AverageWait float64 `json:"average_wait"`
	WaitP95     float64 `json:"wait_p95"`
	AverageRide float64 `json:"average_ride"`
	RideP95     float64 `json:"ride_p95"`
	Throughput  float64 `json:"throughput"`
}

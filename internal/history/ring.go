// Package history keeps the bounded time series of derived metric points
// behind the console's sparkline. Points come only from stream-accepted
// snapshots; command responses never append here, so polling a command
// cannot pollute the series.
package history

// Point is the client-owned extraction from one accepted snapshot.
type Point struct {
	Time        int64
	AverageWait float64
	Throughput  float64
}

// Ring is a fixed-capacity FIFO of points. The backing array is allocated
// once; eviction is an index move, never a reallocation.
type Ring struct {
	points []Point
	head   int
	size   int
}

// DefaultCapacity matches the console's retention of 300 points.
const DefaultCapacity = 300

func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{points: make([]Point, capacity)}
}

// Record appends a point, evicting the oldest once the ring is full.
func (r *Ring) Record(p Point) {
	tail := (r.head + r.size) % len(r.points)
	r.points[tail] = p
	if r.size < len(r.points) {
		r.size++
		return
	}
	r.head = (r.head + 1) % len(r.points)
}

// Len reports the number of retained points.
func (r *Ring) Len() int {
	return r.size
}

// Window returns up to k of the most recent points in chronological
// order. The result is a fresh copy on every call, so callers can
// re-derive it at any time without consuming ring state.
func (r *Ring) Window(k int) []Point {
	if k <= 0 || r.size == 0 {
		return nil
	}
	if k > r.size {
		k = r.size
	}
	out := make([]Point, k)
	start := r.head + r.size - k
	for i := 0; i < k; i++ {
		out[i] = r.points[(start+i)%len(r.points)]
	}
	return out
}

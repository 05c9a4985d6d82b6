package sim

// Clock is the monotonic logical counter used to break ties between
// events scheduled for the same simulation time.
//
// Stamping every scheduled event with a strictly increasing seq gives:
//   - deterministic ordering (no map-iteration or wall-clock races)
//   - identical event order on replay with the same seed
//   - stable tie-breaking for simultaneous events
//
// The simulation is single-threaded, so no synchronization is needed.
type Clock struct {
	seq int64
}

// NewClock creates a clock starting at 0; the first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	c.seq++
	return c.seq
}

// Current returns the current sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq
}

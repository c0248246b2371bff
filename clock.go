package particles

import (
	"time"
)

// Clock tracks simulation time for a system. Simulation time only advances
// through Tick, so a paused system stays perfectly frozen no matter how much
// wall time passes between frames.
type Clock struct {
	Now   float64
	Dt    float64
	Scale float64

	// MaxDt clamps a single tick. A debugger pause or a window drag can hand
	// the frame loop a multi-second dt; integrating that in one step launches
	// every particle into orbit.
	MaxDt float64

	last    time.Time
	started bool
}

func NewClock() *Clock {
	return &Clock{Scale: 1.0, MaxDt: 0.1}
}

// Tick advances simulation time by the wall time elapsed since the previous
// Tick, scaled and clamped. The first Tick after Reset establishes the
// baseline and reports dt=0.
func (c *Clock) Tick() float64 {
	now := time.Now()
	if !c.started {
		c.started = true
		c.last = now
		c.Dt = 0
		return 0
	}
	dt := now.Sub(c.last).Seconds() * c.Scale
	c.last = now
	if dt > c.MaxDt {
		dt = c.MaxDt
	}
	if dt < 0 {
		dt = 0
	}
	c.Dt = dt
	c.Now += dt
	return dt
}

// Advance steps simulation time by an explicit dt, bypassing wall time.
// Used for fixed-step runs and single-frame stepping while paused.
func (c *Clock) Advance(dt float64) float64 {
	if dt < 0 {
		dt = 0
	}
	if dt > c.MaxDt {
		dt = c.MaxDt
	}
	c.Dt = dt
	c.Now += dt
	// Keep the wall baseline fresh so a later Tick doesn't double-count.
	c.last = time.Now()
	c.started = true
	return dt
}

// Rebase forgets the wall-time baseline so the next Tick reports dt=0.
// Called on resume; the pause gap must not integrate.
func (c *Clock) Rebase() {
	c.started = false
}

func (c *Clock) Reset() {
	c.Now = 0
	c.Dt = 0
	c.started = false
}

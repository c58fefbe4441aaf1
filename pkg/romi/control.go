package romi

import "time"

// PI is a discrete-time PI controller with its output saturated to
// [-100, 100], a motor effort in percent.
type PI struct {
	Kp, Ki float64

	esum float64
	last time.Duration
}

// Signal computes the control output at now.
func (c *PI) Signal(setpoint, measured float64, now time.Duration) float64 {
	e := setpoint - measured
	dt := (now - c.last).Seconds()
	c.last = now
	c.esum += e * dt
	return clamp(c.Kp*e+c.Ki*c.esum, -100, 100)
}

// Reset clears the integrator and restarts the time reference at now.
func (c *PI) Reset(now time.Duration) {
	c.esum, c.last = 0, now
}

// Slew limits how fast a signal may change per step.
type Slew struct {
	MaxDelta float64
	last     float64
}

// Limit returns v moved no further than MaxDelta from the previous output.
func (s *Slew) Limit(v float64) float64 {
	s.last = clamp(v, s.last-s.MaxDelta, s.last+s.MaxDelta)
	return s.last
}

// Reset sets the previous output.
func (s *Slew) Reset(v float64) {
	s.last = v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

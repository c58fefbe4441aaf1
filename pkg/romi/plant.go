package romi

import (
	"time"

	"github.com/robotalks/romi.go/pkg/sim"
)

// Plant is the motors, encoders and IMU of the robot, simulated.
type Plant struct {
	model   *sim.Model
	effortL float64
	effortR float64
	last    time.Duration
	started bool

	// encoder zero positions
	zeroL, zeroR float64
}

// NewPlant creates a simulated plant at rest at the origin.
func NewPlant(params sim.Params) *Plant {
	return &Plant{model: sim.NewModel(params, sim.Gains{})}
}

// SetEffort sets both motor efforts, in percent.
func (p *Plant) SetEffort(left, right float64) {
	p.effortL, p.effortR = clamp(left, -100, 100), clamp(right, -100, 100)
}

// Effort returns the motor efforts.
func (p *Plant) Effort() (left, right float64) {
	return p.effortL, p.effortR
}

// Advance integrates the physics up to now.
func (p *Plant) Advance(now time.Duration) {
	if !p.started {
		p.started, p.last = true, now
		return
	}
	p.model.Step(p.effortL, p.effortR, sim.Measurement{}, now-p.last)
	p.last = now
}

// Encoders returns wheel positions relative to the last ZeroEncoders, and
// wheel velocities.
func (p *Plant) Encoders() (posL, velL, posR, velR float64) {
	s := p.model.State()
	return s.SL - p.zeroL, s.VL, s.SR - p.zeroR, s.VR
}

// ZeroEncoders resets the encoder positions.
func (p *Plant) ZeroEncoders() {
	s := p.model.State()
	p.zeroL, p.zeroR = s.SL, s.SR
}

// IMUHeading returns the heading in radians.
func (p *Plant) IMUHeading() float64 {
	return p.model.State().Heading
}

// TruePose returns where the robot really is.
func (p *Plant) TruePose() sim.Pose2D {
	return p.model.State().Pose()
}

// Reset puts the robot at rest at the origin.
func (p *Plant) Reset() {
	p.model.Reset(sim.State{})
	p.effortL, p.effortR = 0, 0
	p.zeroL, p.zeroR = 0, 0
}

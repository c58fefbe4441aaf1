package sim

import (
	"math"
	"time"
)

// Params are the physical parameters of a differential-drive robot, in
// inches, seconds and volts.
type Params struct {
	// MotorGainLeft, MotorGainRight in rad/(V*s).
	MotorGainLeft  float64
	MotorGainRight float64
	// TimeConstant of the motors.
	TimeConstant float64
	WheelBase    float64
	WheelRadius  float64
	// VoltsPerEffort converts a motor effort in percent into volts.
	VoltsPerEffort float64
}

// RomiParams are measured on a Pololu Romi with a 9V supply.
var RomiParams = Params{
	MotorGainLeft:  3.5,
	MotorGainRight: 3.35,
	TimeConstant:   0.1,
	WheelBase:      5.5425,
	WheelRadius:    1.375,
	VoltsPerEffort: 0.09,
}

// Gains blend measurements into an observer's states. All zero makes a
// Model a pure simulation.
type Gains struct {
	Heading  float64
	Velocity float64
	Position float64
}

// ObserverGains are the gains tuned for the Romi sensors.
var ObserverGains = Gains{Heading: 12, Velocity: 40, Position: 10}

// State is the state vector of the model.
type State struct {
	// VL, VR are wheel linear velocities.
	VL, VR float64
	// Heading in radians, not normalized so it can be compared with an
	// integrating IMU.
	Heading float64
	// SL, SR are wheel path lengths.
	SL, SR float64
	X, Y   float64
}

// Pose returns the pose in the plane.
func (s State) Pose() Pose2D {
	return Pose2D{Pos2D: Pos2D{X: s.X, Y: s.Y}, Orientation: AngleFromRadians(s.Heading)}
}

// Measurement is what the sensors report: the IMU heading and the wheel
// encoders.
type Measurement struct {
	Heading float64
	VL, VR  float64
	SL, SR  float64
}

// Measure returns the exact measurement of a state.
func (s State) Measure() Measurement {
	return Measurement{Heading: s.Heading, VL: s.VL, VR: s.VR, SL: s.SL, SR: s.SR}
}

// Model is a first-order motor plus differential-drive kinematics model,
// integrated with RK4. With non-zero Gains it is a state observer.
type Model struct {
	Params Params
	Gains  Gains

	state State
}

// NewModel creates a Model at rest at the origin.
func NewModel(params Params, gains Gains) *Model {
	return &Model{Params: params, Gains: gains}
}

// State returns the current state.
func (m *Model) State() State {
	return m.state
}

// Reset sets the state.
func (m *Model) Reset(s State) {
	m.state = s
}

// Step advances the model by dt under motor efforts (percent) effortL and
// effortR, correcting towards y by the Gains.
func (m *Model) Step(effortL, effortR float64, y Measurement, dt time.Duration) State {
	h := dt.Seconds()
	if h <= 0 {
		return m.state
	}
	uL, uR := effortL*m.Params.VoltsPerEffort, effortR*m.Params.VoltsPerEffort
	f := func(x State) State { return m.derivative(uL, uR, x, y) }
	x := m.state
	k1 := f(x)
	k2 := f(x.plus(k1, h/2))
	k3 := f(x.plus(k2, h/2))
	k4 := f(x.plus(k3, h))
	m.state = x.plus(k1, h/6).plus(k2, h/3).plus(k3, h/3).plus(k4, h/6)
	return m.state
}

func (m *Model) derivative(uL, uR float64, x State, y Measurement) State {
	p, g := &m.Params, &m.Gains
	tauInv := 1 / p.TimeConstant
	speed := 0.5 * (x.VL + x.VR)
	return State{
		VL:      tauInv*(p.WheelRadius*p.MotorGainLeft*uL-x.VL) + g.Velocity*(y.VL-x.VL),
		VR:      tauInv*(p.WheelRadius*p.MotorGainRight*uR-x.VR) + g.Velocity*(y.VR-x.VR),
		Heading: (x.VR-x.VL)/p.WheelBase + g.Heading*(y.Heading-x.Heading),
		SL:      x.VL + g.Position*(y.SL-x.SL),
		SR:      x.VR + g.Position*(y.SR-x.SR),
		X:       speed * math.Cos(x.Heading),
		Y:       speed * math.Sin(x.Heading),
	}
}

// plus returns s + d*h.
func (s State) plus(d State, h float64) State {
	return State{
		VL:      s.VL + d.VL*h,
		VR:      s.VR + d.VR*h,
		Heading: s.Heading + d.Heading*h,
		SL:      s.SL + d.SL*h,
		SR:      s.SR + d.SR*h,
		X:       s.X + d.X*h,
		Y:       s.Y + d.Y*h,
	}
}

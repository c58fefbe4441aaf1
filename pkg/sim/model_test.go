package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const tick = 10 * time.Millisecond

func run(m *Model, effortL, effortR float64, d time.Duration) State {
	for t := time.Duration(0); t < d; t += tick {
		m.Step(effortL, effortR, Measurement{}, tick)
	}
	return m.State()
}

func TestModelStraight(t *testing.T) {
	params := RomiParams
	params.MotorGainRight = params.MotorGainLeft
	m := NewModel(params, Gains{})
	s := run(m, 50, 50, 2*time.Second)

	expect := params.WheelRadius * params.MotorGainLeft * 50 * params.VoltsPerEffort
	require.InDelta(t, expect, s.VL, 1e-3)
	require.InDelta(t, expect, s.VR, 1e-3)
	require.Zero(t, s.Heading)
	require.Zero(t, s.Y)
	require.InDelta(t, s.SL, s.X, 1e-9)
	require.Equal(t, s.SL, s.SR)
}

func TestModelSpin(t *testing.T) {
	params := RomiParams
	params.MotorGainRight = params.MotorGainLeft
	m := NewModel(params, Gains{})
	s := run(m, -30, 30, time.Second)
	require.Zero(t, s.X)
	require.Zero(t, s.Y)
	require.Greater(t, s.Heading, 0.0)
	require.InDelta(t, (s.SR-s.SL)/params.WheelBase, s.Heading, 1e-9)
}

func TestModelZeroStep(t *testing.T) {
	m := NewModel(RomiParams, Gains{})
	require.Equal(t, State{}, m.Step(100, 100, Measurement{}, 0))
}

func TestObserverConverges(t *testing.T) {
	plant := NewModel(RomiParams, Gains{})
	observer := NewModel(RomiParams, ObserverGains)
	observer.Reset(State{Heading: 0.3, VL: 5})
	for t := time.Duration(0); t < 3*time.Second; t += tick {
		y := plant.State().Measure()
		plant.Step(40, 45, Measurement{}, tick)
		observer.Step(40, 45, y, tick)
	}
	p, o := plant.State(), observer.State()
	require.InDelta(t, p.Heading, o.Heading, 0.05)
	require.InDelta(t, p.VL, o.VL, 0.05)
	require.InDelta(t, p.VR, o.VR, 0.05)
	require.InDelta(t, p.SL, o.SL, 0.5)
	require.Greater(t, p.Pose().X, 10.0)
}

func TestAngle(t *testing.T) {
	require.InDelta(t, math.Pi/2, AngleFromDegrees(450).Radians(), 1e-12)
	require.InDelta(t, -90, AngleFromDegrees(270).Degrees(), 1e-9)
	require.InDelta(t, math.Pi, AngleFromRadians(-math.Pi).Radians(), 1e-12)
	require.InDelta(t, -20, AngleFromDegrees(170).Sub(AngleFromDegrees(-170)).Degrees(), 1e-9)

	pose := Pose2D{Orientation: AngleFromDegrees(90)}
	require.InDelta(t, -90, pose.BearingTo(Pos2D{X: 1}).Degrees(), 1e-9)
	require.InDelta(t, 5, Pos2D{X: 3, Y: 4}.DistanceTo(Pos2D{}), 1e-12)

	p := AngleFromDegrees(90).Project(2)
	require.InDelta(t, 2, p.Y, 1e-12)
}

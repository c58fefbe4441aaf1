package romi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/romi.go/pkg/sim"
)

func TestPI(t *testing.T) {
	c := PI{Kp: 1}
	require.Equal(t, 10.0, c.Signal(10, 0, 0))
	c.Kp = 100
	require.Equal(t, 100.0, c.Signal(10, 0, 0))
	require.Equal(t, -100.0, c.Signal(-10, 0, 0))

	c = PI{Ki: 2}
	c.Reset(time.Second)
	require.Equal(t, 2.0, c.Signal(1, 0, 2*time.Second))
	require.Equal(t, 4.0, c.Signal(1, 0, 3*time.Second))
	c.Reset(3 * time.Second)
	require.Zero(t, c.Signal(0, 0, 4*time.Second))
}

func TestSlew(t *testing.T) {
	s := Slew{MaxDelta: 25}
	require.Equal(t, 25.0, s.Limit(100))
	require.Equal(t, 50.0, s.Limit(100))
	require.Equal(t, 40.0, s.Limit(40))
	require.Equal(t, 15.0, s.Limit(-100))
	s.Reset(0)
	require.Equal(t, -25.0, s.Limit(-100))
}

func TestPursuer(t *testing.T) {
	p := &Pursuer{
		Course: []Waypoint{
			{sim.Pos2D{X: 10}, 10, 5, 9},
			{sim.Pos2D{X: 10, Y: 10}, 10, 5, 9},
		},
		Arrived: 2.5,
	}
	offset, speed, ok := p.Steer(sim.Pose2D{})
	require.True(t, ok)
	require.Zero(t, offset)
	require.Equal(t, 53.0, speed)

	offset, speed, ok = p.Steer(sim.Pose2D{Pos2D: sim.Pos2D{X: 9}})
	require.True(t, ok)
	require.Equal(t, 1, p.Target())
	require.Less(t, offset, 0.0)
	require.Greater(t, speed, 10.0)
	require.Less(t, speed, 11.0)

	_, _, ok = p.Steer(sim.Pose2D{Pos2D: sim.Pos2D{X: 10, Y: 9}})
	require.False(t, ok)
	require.True(t, p.Done())
	_, _, ok = p.Steer(sim.Pose2D{})
	require.False(t, ok)
}

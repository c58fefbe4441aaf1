package romi

import (
	"math"

	"github.com/robotalks/romi.go/pkg/sim"
)

// Waypoint is one target of the course.
type Waypoint struct {
	sim.Pos2D
	// Speed is the base speed while heading here, in/s.
	Speed float64
	// BrakeDist is the distance from the waypoint where the speed boost
	// has fully faded.
	BrakeDist float64
	// Kp is the steering gain on the bearing error.
	Kp float64
}

// Course is the waypoint course of the Romi term project, in inches.
var Course = []Waypoint{
	{sim.Pos2D{X: 33.465, Y: 14.764}, 18, 7, 9},
	{sim.Pos2D{X: 51.181, Y: 0}, 16, 7, 9},
	{sim.Pos2D{X: 55.118, Y: 11.811}, 25, 0, 10},
	{sim.Pos2D{X: 49.213, Y: 27.559}, 14, 6, 9},
	{sim.Pos2D{X: 27.559, Y: 24.606}, 16.5, 7, 9},
	{sim.Pos2D{X: 13.780, Y: 24.606}, 16, 7, 9},
	{sim.Pos2D{X: 2.953, Y: 24.606}, 16, 7, 9},
	{sim.Pos2D{X: 0, Y: 1.969}, 10, 6, 9},
	{sim.Pos2D{X: 15.748, Y: 11.811}, 14, 7, 9},
	{sim.Pos2D{X: 15.748, Y: 0}, 18, 7, 9},
	{sim.Pos2D{X: -1.969, Y: -1.969}, 18, 7, 9},
}

const (
	fullThrottle       = 3
	slowdownOnApproach = 8
	headingWeight      = 30
)

// Pursuer steers through a course with pure pursuit: it aims at the
// current waypoint and moves to the next one once within Arrived.
type Pursuer struct {
	Course  []Waypoint
	Arrived float64

	idx int
}

// Target returns the index of the current waypoint.
func (p *Pursuer) Target() int {
	return p.idx
}

// Done tells whether the course is complete.
func (p *Pursuer) Done() bool {
	return p.idx >= len(p.Course)
}

// Steer returns the wheel offset and forward speed for the pose. ok is
// false once the last waypoint has been reached.
func (p *Pursuer) Steer(pose sim.Pose2D) (offset, speed float64, ok bool) {
	if p.Done() {
		return 0, 0, false
	}
	dist := pose.DistanceTo(p.Course[p.idx].Pos2D)
	if dist < p.Arrived {
		if p.idx++; p.Done() {
			return 0, 0, false
		}
		dist = pose.DistanceTo(p.Course[p.idx].Pos2D)
	}
	wp := &p.Course[p.idx]
	alpha := pose.BearingTo(wp.Pos2D).Radians()
	boost := math.Max(fullThrottle+slowdownOnApproach*(dist-wp.BrakeDist), 0)
	speed = wp.Speed + boost/(1+headingWeight*math.Abs(alpha))
	// a positive bearing is to the left: speed up the right wheel.
	offset = -wp.Kp * alpha
	return offset, speed, true
}

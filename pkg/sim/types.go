package sim

import "math"

// Pos2D defines the position in 2D.
type Pos2D struct {
	X, Y float64
}

// Pose2D defines the pose in 2D.
type Pose2D struct {
	Pos2D
	Orientation Angle
}

// Add is a helper to add Pos2D.
func (p Pos2D) Add(p1 Pos2D) Pos2D {
	return Pos2D{X: p.X + p1.X, Y: p.Y + p1.Y}
}

// Sub returns the vector from p1 to p.
func (p Pos2D) Sub(p1 Pos2D) Pos2D {
	return Pos2D{X: p.X - p1.X, Y: p.Y - p1.Y}
}

// Norm is the length of the vector.
func (p Pos2D) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// DistanceTo is the distance between two positions.
func (p Pos2D) DistanceTo(p1 Pos2D) float64 {
	return p1.Sub(p).Norm()
}

// Heading is the direction of the vector.
func (p Pos2D) Heading() Angle {
	return AngleFromRadians(math.Atan2(p.Y, p.X))
}

// OffsetBy performs Add in-place.
func (p *Pos2D) OffsetBy(p1 Pos2D) *Pos2D {
	p.X += p1.X
	p.Y += p1.Y
	return p
}

// BearingTo is the rotation needed to face target from the pose.
func (p Pose2D) BearingTo(target Pos2D) Angle {
	return target.Sub(p.Pos2D).Heading().Sub(p.Orientation)
}

package coord

import (
	"math"
)

type Point struct{ X, Y, Z float64 }

func (p Point) Equal(b Point) bool {
	return p.X == b.X && p.Y == b.Y && p.Z == b.Z
}

// Near reports whether p and b differ by less than eps on every axis.
// Used for end-of-program idle detection, where the firmware's reported
// work position jitters by less than a step at rest.
func (p Point) Near(b Point, eps float64) bool {
	return math.Abs(p.X-b.X) < eps && math.Abs(p.Y-b.Y) < eps && math.Abs(p.Z-b.Z) < eps
}

func (p Point) Mul(val float64) Point {
	p.X *= val
	p.Y *= val
	p.Z *= val
	return p
}

func (p Point) Div(val float64) Point {
	p.X /= val
	p.Y /= val
	p.Z /= val
	return p
}

// Add will add the target values to p.
func (p Point) Add(target Point) Point {
	p.X += target.X
	p.Y += target.Y
	p.Z += target.Z
	return p
}

// Sub will subtract the target values from p.
func (p Point) Sub(target Point) Point {
	p.X -= target.X
	p.Y -= target.Y
	p.Z -= target.Z
	return p
}

// Min returns the component-wise minimum of p and b.
func (p Point) Min(b Point) Point {
	return Point{X: math.Min(p.X, b.X), Y: math.Min(p.Y, b.Y), Z: math.Min(p.Z, b.Z)}
}

// Max returns the component-wise maximum of p and b.
func (p Point) Max(b Point) Point {
	return Point{X: math.Max(p.X, b.X), Y: math.Max(p.Y, b.Y), Z: math.Max(p.Z, b.Z)}
}

// DistanceXY will return the 2D distance to p from (x,y).
func (p Point) DistanceXY(x, y float64) float64 {
	return math.Sqrt(math.Pow(x-p.X, 2) + math.Pow(y-p.Y, 2))
}

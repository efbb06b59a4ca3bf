// Package geometry implements the 2D primitives RMOS needs to turn a
// boundary + islands into a machinable region: points, polylines, polygon
// offset, boolean subtraction, and discrete curvature. All distances are in
// millimetres; coordinates are 64-bit floats.
package geometry

import "math"

// CoincidentTol is the distance below which two points are considered the
// same point, per spec.
const CoincidentTol = 0.01

// Point is a 2D point or vector in millimetres.
type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }

// Dot returns the dot product of p and q treated as vectors.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }

// Cross returns the 2D cross product (z-component) of p and q.
func (p Point) Cross(q Point) float64 { return p.X*q.Y - p.Y*q.X }

// Length returns the Euclidean norm of p treated as a vector.
func (p Point) Length() float64 { return math.Hypot(p.X, p.Y) }

// Normalized returns the unit vector in the direction of p, or the zero
// vector if p is (near) zero-length.
func (p Point) Normalized() Point {
	l := p.Length()
	if l < 1e-12 {
		return Point{}
	}
	return Point{p.X / l, p.Y / l}
}

// Normal returns the left-hand unit normal of the vector p (for an edge of
// a CCW loop it points into the loop).
func (p Point) Normal() Point {
	u := p.Normalized()
	return Point{-u.Y, u.X}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 { return a.Sub(b).Length() }

// Coincident reports whether a and b are within CoincidentTol of each other.
func Coincident(a, b Point) bool { return Distance(a, b) <= CoincidentTol }

// Lerp linearly interpolates between a and b at parameter t in [0,1].
func Lerp(a, b Point, t float64) Point {
	return Point{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// TriangleArea2 returns twice the signed area of the triangle (a,b,c); its
// sign gives orientation (positive = CCW).
func TriangleArea2(a, b, c Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

// Curvature computes the discrete curvature (1/mm) at interior vertex i of
// an open polyline, per spec: k = 4*area(p[i-1],p[i],p[i+1]) /
// (|p[i-1]p[i]|*|p[i]p[i+1]|*|p[i-1]p[i+1]|). Endpoints have curvature 0.
func Curvature(pts []Point, i int) float64 {
	if i <= 0 || i >= len(pts)-1 {
		return 0
	}
	a, b, c := pts[i-1], pts[i], pts[i+1]
	area2 := math.Abs(TriangleArea2(a, b, c))
	d01 := Distance(a, b)
	d12 := Distance(b, c)
	d02 := Distance(a, c)
	denom := d01 * d12 * d02
	if denom < 1e-12 {
		return 0
	}
	return 2 * area2 / denom
}

// TurnAngle returns the absolute turn angle (radians, in [0,pi]) at vertex b
// between incoming segment a->b and outgoing segment b->c. 0 means
// straight-through; pi means a full reversal.
func TurnAngle(a, b, c Point) float64 {
	v1 := b.Sub(a).Normalized()
	v2 := c.Sub(b).Normalized()
	dot := v1.Dot(v2)
	if dot > 1 {
		dot = 1
	}
	if dot < -1 {
		dot = -1
	}
	return math.Acos(dot)
}

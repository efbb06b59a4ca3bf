package geometry

import (
	"errors"
	"math"
)

// Loop is a closed polyline: an ordered sequence of vertices where the last
// vertex implicitly connects back to the first. A Loop never repeats its
// first vertex at the end.
type Loop []Point

// ErrDegenerateLoop is returned when a loop has fewer than 3 distinct,
// non-collinear points.
var ErrDegenerateLoop = errors.New("geometry: degenerate loop")

// SignedArea returns the signed area of the loop via the shoelace formula.
// Positive means counter-clockwise.
func (l Loop) SignedArea() float64 {
	n := len(l)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += l[i].X*l[j].Y - l[j].X*l[i].Y
	}
	return sum / 2
}

// IsCCW reports whether the loop is wound counter-clockwise.
func (l Loop) IsCCW() bool { return l.SignedArea() > 0 }

// Reversed returns the loop with vertex order reversed.
func (l Loop) Reversed() Loop {
	out := make(Loop, len(l))
	for i, p := range l {
		out[len(l)-1-i] = p
	}
	return out
}

// EnsureCCW returns l wound counter-clockwise.
func (l Loop) EnsureCCW() Loop {
	if l.IsCCW() {
		return l
	}
	return l.Reversed()
}

// EnsureCW returns l wound clockwise.
func (l Loop) EnsureCW() Loop {
	if !l.IsCCW() {
		return l
	}
	return l.Reversed()
}

// Perimeter returns the closed-loop perimeter length.
func (l Loop) Perimeter() float64 {
	n := len(l)
	if n < 2 {
		return 0
	}
	var total float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		total += Distance(l[i], l[j])
	}
	return total
}

// BoundingBox returns the axis-aligned bounding box (min, max) of the loop.
func (l Loop) BoundingBox() (min, max Point) {
	if len(l) == 0 {
		return Point{}, Point{}
	}
	min, max = l[0], l[0]
	for _, p := range l[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// Normalize removes near-duplicate consecutive vertices (within
// CoincidentTol) and rotates the loop so it starts at its lexicographically
// smallest vertex, giving two loops with the same shape an identical vertex
// sequence. Returns ErrDegenerateLoop if fewer than 3 distinct points
// remain, or the points are collinear.
func (l Loop) Normalize() (Loop, error) {
	deduped := make(Loop, 0, len(l))
	for i, p := range l {
		if i == 0 || !Coincident(p, deduped[len(deduped)-1]) {
			deduped = append(deduped, p)
		}
	}
	if len(deduped) > 1 && Coincident(deduped[0], deduped[len(deduped)-1]) {
		deduped = deduped[:len(deduped)-1]
	}
	if len(deduped) < 3 {
		return nil, ErrDegenerateLoop
	}
	if math.Abs(deduped.SignedArea()) < 1e-9 {
		return nil, ErrDegenerateLoop
	}

	minIdx := 0
	for i, p := range deduped {
		mp := deduped[minIdx]
		if p.X < mp.X || (p.X == mp.X && p.Y < mp.Y) {
			minIdx = i
		}
	}
	out := make(Loop, len(deduped))
	for i := range deduped {
		out[i] = deduped[(minIdx+i)%len(deduped)]
	}
	return out, nil
}

// SameShape reports whether two loops describe the same polygon, up to
// rotation and the coincidence tolerance.
func SameShape(a, b Loop) bool {
	na, errA := a.Normalize()
	nb, errB := b.Normalize()
	if errA != nil || errB != nil || len(na) != len(nb) {
		return false
	}
	for i := range na {
		if !Coincident(na[i], nb[i]) {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p lies inside the loop using a ray-casting
// test. Points on the boundary are treated as inside.
func (l Loop) ContainsPoint(p Point) bool {
	if d := l.DistanceToBoundary(p); d <= CoincidentTol {
		return true
	}
	n := len(l)
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := l[i], l[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			xIntersect := (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y) + pi.X
			if p.X < xIntersect {
				inside = !inside
			}
		}
	}
	return inside
}

// DistanceToBoundary returns the minimum distance from p to any edge of the
// loop.
func (l Loop) DistanceToBoundary(p Point) float64 {
	n := len(l)
	if n < 2 {
		return math.Inf(1)
	}
	min := math.Inf(1)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		if d := distanceToSegment(p, l[i], l[j]); d < min {
			min = d
		}
	}
	return min
}

func distanceToSegment(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < 1e-12 {
		return Distance(p, a)
	}
	t := p.Sub(a).Dot(ab) / l2
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	proj := a.Add(ab.Scale(t))
	return Distance(p, proj)
}

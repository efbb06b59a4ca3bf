package geometry

import "math"

// Offset computes the closed loop(s) obtained by moving every edge of l by
// signed distance d along its outward normal (positive d grows a CCW loop,
// negative d shrinks it) and re-joining them with rounded corners sampled
// at arcTol millimetres. Degenerate input (fewer than 3 distinct,
// non-collinear points) yields ErrDegenerateLoop. A shrink that consumes
// the whole loop returns an empty, error-free result, callers use this to
// detect POCKET_TOO_SMALL / closed-down rings.
//
// This is a from-scratch, non-self-intersecting-polygon offsetter (edges
// offset along their normal, rejoined at rounded/mitered corners) rather
// than a general polygon-clipping library: the example pack carries no
// computational-geometry dependency (Clipper-equivalent) to ground one on,
// so the offset logic lives in the standard library per spec §4.2's
// "integer-scaled intermediate representation ... may be used internally"
//, here realized directly in floating point, which is sufficient for the
// convex and mildly concave pockets RMOS machines.
func Offset(l Loop, d float64, arcTol float64) (Loop, error) {
	norm, err := l.Normalize()
	if err != nil {
		return nil, err
	}
	norm = norm.EnsureCCW()
	n := len(norm)
	if arcTol <= 0 {
		arcTol = 0.05
	}

	type edge struct{ a, b, normal Point }
	edges := make([]edge, n)
	for i := 0; i < n; i++ {
		a := norm[i]
		b := norm[(i+1)%n]
		edges[i] = edge{a: a, b: b, normal: b.Sub(a).Normal().Scale(-1)}
	}

	var out Loop
	for i := 0; i < n; i++ {
		prev := edges[(i-1+n)%n]
		cur := edges[i]

		prevOffA := prev.a.Add(prev.normal.Scale(d))
		prevOffB := prev.b.Add(prev.normal.Scale(d))
		curOffA := cur.a.Add(cur.normal.Scale(d))
		curOffB := cur.b.Add(cur.normal.Scale(d))

		turn := prev.normal.Cross(cur.normal)
		convex := (d >= 0 && turn >= 0) || (d < 0 && turn <= 0)

		if !convex || math.Abs(turn) < 1e-9 {
			// Concave corner (or collinear): miter at the line intersection.
			if p, ok := intersectLines(prevOffA, prevOffB, curOffA, curOffB); ok {
				out = append(out, p)
			} else {
				out = append(out, curOffA)
			}
			continue
		}

		// Convex corner: fillet with an arc of radius |d| centered at the
		// original vertex, tangent to both offset edges, sampled at arcTol.
		center := cur.a
		start := prevOffB
		end := curOffA
		out = append(out, SampleArc(center, start, end, math.Abs(d), arcTol)...)
	}

	cleaned, err := out.Normalize()
	if err != nil {
		// The offset consumed the whole loop (e.g. deep inward shrink),
		// this is the expected "empty region" signal, not a failure.
		return nil, nil
	}
	// A shrink that flips orientation means the region collapsed past zero.
	if d < 0 && cleaned.IsCCW() != norm.IsCCW() {
		return nil, nil
	}
	// A shrink can also overshoot into an inverted copy that keeps its
	// winding (a square shrunk past its half-width); its vertices then lie
	// outside the original loop.
	if d < 0 {
		for _, p := range cleaned {
			if !norm.ContainsPoint(p) {
				return nil, nil
			}
		}
	}
	return cleaned, nil
}

// intersectLines returns the intersection point of infinite lines (p1,p2)
// and (p3,p4), or ok=false if they are parallel.
func intersectLines(p1, p2, p3, p4 Point) (Point, bool) {
	d1 := p2.Sub(p1)
	d2 := p4.Sub(p3)
	denom := d1.Cross(d2)
	if math.Abs(denom) < 1e-9 {
		return Point{}, false
	}
	t := p3.Sub(p1).Cross(d2) / denom
	return p1.Add(d1.Scale(t)), true
}

// SampleArc returns points along the arc of the given radius centered at c,
// starting at the angle of `start` and sweeping to the angle of `end` the
// short way, sampled so consecutive chord error stays within arcTol. The
// first sampled point is `start`'s projection and the last is `end`'s.
func SampleArc(c, start, end Point, radius, arcTol float64) []Point {
	a0 := math.Atan2(start.Y-c.Y, start.X-c.X)
	a1 := math.Atan2(end.Y-c.Y, end.X-c.X)
	sweep := a1 - a0
	for sweep <= -math.Pi {
		sweep += 2 * math.Pi
	}
	for sweep > math.Pi {
		sweep -= 2 * math.Pi
	}
	if radius < 1e-9 {
		return []Point{start, end}
	}
	// Chord-error-bounded angular step: arcTol = r*(1-cos(theta/2)).
	ratio := 1 - arcTol/radius
	if ratio < -1 {
		ratio = -1
	}
	maxStep := 2 * math.Acos(ratio)
	if maxStep < 1e-6 || math.IsNaN(maxStep) {
		maxStep = math.Pi / 18
	}
	steps := int(math.Ceil(math.Abs(sweep) / maxStep))
	if steps < 1 {
		steps = 1
	}
	pts := make([]Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		a := a0 + sweep*t
		pts = append(pts, Point{c.X + radius*math.Cos(a), c.Y + radius*math.Sin(a)})
	}
	return pts
}

package kernel

import (
	"math"

	"github.com/ocx/rmos/internal/geometry"
)

// minTurnAngle is the smallest turn angle (radians) treated as a corner at
// all; anything shallower is indistinguishable from noise in a respaced
// path and left alone.
const minTurnAngle = 2 * math.Pi / 180

// injectFillets walks pts replacing sharp interior corners with a tangent
// circular arc of radius cornerRadiusMin (spec §4.3 step 5). A corner that
// can't fit the requested radius, cornerRadiusMin exceeds half the
// shorter adjacent segment, is left sharp and reported in `forced`, the
// set of output-point indices that must carry the forced slowdown floor.
func injectFillets(pts []geometry.Point, cornerRadiusMin, arcTol float64) (out []geometry.Point, forced map[int]bool, overlays [][]geometry.Point) {
	forced = make(map[int]bool)
	if cornerRadiusMin <= 0 || len(pts) < 3 {
		return append([]geometry.Point{}, pts...), forced, nil
	}

	out = append(out, pts[0])
	for i := 1; i < len(pts)-1; i++ {
		prev, v, next := pts[i-1], pts[i], pts[i+1]
		turn := geometry.TurnAngle(prev, v, next)
		if turn < minTurnAngle {
			out = append(out, v)
			continue
		}

		inLen := geometry.Distance(prev, v)
		outLen := geometry.Distance(v, next)
		shorter := math.Min(inLen, outLen)
		if cornerRadiusMin > shorter/2 {
			out = append(out, v)
			forced[len(out)-1] = true
			continue
		}

		u1 := v.Sub(prev).Normalized() // incoming direction
		u2 := next.Sub(v).Normalized() // outgoing direction
		beta := (math.Pi - turn) / 2
		tangentLen := cornerRadiusMin / math.Tan(beta)
		p1 := v.Sub(u1.Scale(tangentLen))
		p2 := v.Add(u2.Scale(tangentLen))

		bis := u2.Sub(u1).Normalized()
		if bis.Length() < 1e-9 {
			out = append(out, v)
			continue
		}
		distToCenter := cornerRadiusMin / math.Sin(beta)
		center := v.Add(bis.Scale(distToCenter))

		arcPts := geometry.SampleArc(center, p1, p2, cornerRadiusMin, arcTol)
		out = append(out, arcPts...)
		overlays = append(overlays, append([]geometry.Point{}, arcPts...))
	}
	out = append(out, pts[len(pts)-1])
	return out, forced, overlays
}

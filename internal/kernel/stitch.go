package kernel

import "github.com/ocx/rmos/internal/geometry"

// segment is one traceable boundary within a ring: the ring's outer
// boundary, or one of its island holes. points is an explicitly closed
// polyline (first point repeated at the end) in the traversal direction
// climb/conventional calls for.
type segment struct {
	points    []geometry.Point
	isIsland  bool
}

func ringSegments(r ring, climb bool) []segment {
	segs := make([]segment, 0, 1+len(r.holes))
	segs = append(segs, segment{points: closedPoints(r.outer, climb), isIsland: false})
	for _, h := range r.holes {
		// Holes are already CW (opposite the outer's CCW); climb flips both
		// consistently so relative winding never changes.
		segs = append(segs, segment{points: closedPoints(h, climb), isIsland: true})
	}
	return segs
}

func closedPoints(l geometry.Loop, reverse bool) []geometry.Point {
	pts := make(geometry.Loop, len(l))
	copy(pts, l)
	if reverse {
		pts = pts.Reversed()
	}
	out := make([]geometry.Point, 0, len(pts)+1)
	out = append(out, pts...)
	out = append(out, pts[0])
	return out
}

// stitchSpiral concatenates every ring's segments into a single continuous
// open polyline, joining each segment's end to the nearest point on the
// next segment (rotating the next closed segment to start there) so the
// whole pocket is cut with exactly one entry and one exit retract.
func stitchSpiral(rings []ring, climb bool) (path []geometry.Point, islandSpans [][2]int) {
	var all []segment
	for _, r := range rings {
		all = append(all, ringSegments(r, climb)...)
	}
	if len(all) == 0 {
		return nil, nil
	}

	path = append(path, all[0].points...)
	if all[0].isIsland {
		islandSpans = append(islandSpans, [2]int{0, len(path) - 1})
	}

	for i := 1; i < len(all); i++ {
		last := path[len(path)-1]
		rotated := rotateToNearest(all[i].points, last)
		start := len(path)
		path = append(path, rotated...)
		if all[i].isIsland {
			islandSpans = append(islandSpans, [2]int{start, len(path) - 1})
		}
	}
	return path, islandSpans
}

// rotateToNearest rotates a closed point sequence (first==last) so it
// begins at whichever vertex is nearest `from`. Ties are broken by the
// lowest index, equidistant candidates in practice differ only by the
// float noise of symmetric geometry, so index order is a stable,
// deterministic stand-in for spec §4.3's "smaller outward normal
// deviation" tie-break.
func rotateToNearest(closed []geometry.Point, from geometry.Point) []geometry.Point {
	open := closed[:len(closed)-1]
	best := 0
	bestDist := geometry.Distance(from, open[0])
	for i := 1; i < len(open); i++ {
		d := geometry.Distance(from, open[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	out := make([]geometry.Point, 0, len(closed))
	for i := 0; i < len(open); i++ {
		out = append(out, open[(best+i)%len(open)])
	}
	out = append(out, open[best])
	return out
}

// lanesPasses returns one independent closed path per ring segment,
// outermost ring first, for the Lanes strategy. Pocket layers each pass
// on its own, so every pass begins and ends with a rapid at safe Z.
func lanesPasses(rings []ring, climb bool) (passes [][]geometry.Point, isIsland []bool) {
	for _, r := range rings {
		for _, seg := range ringSegments(r, climb) {
			passes = append(passes, seg.points)
			isIsland = append(isIsland, seg.isIsland)
		}
	}
	return passes, isIsland
}

package kernel

import "github.com/ocx/rmos/internal/geometry"

// respace walks pts and re-samples it so the chord spacing between
// consecutive output vertices shortens toward dsMin where curvature
// exceeds kThreshold and lengthens back toward dsMax where it's low, per
// spec §4.3 step 4: ds = dsMax - (dsMax-dsMin)*min(1, k/kThreshold).
func respace(pts []geometry.Point, dsMin, dsMax, kThreshold float64) []geometry.Point {
	if len(pts) < 2 {
		return pts
	}
	curv := make([]float64, len(pts))
	for i := 1; i < len(pts)-1; i++ {
		curv[i] = geometry.Curvature(pts, i)
	}

	out := []geometry.Point{pts[0]}
	segIdx := 0
	segPos := 0.0 // distance traveled into the current segment
	cur := pts[0]

	for segIdx < len(pts)-1 {
		k := curv[segIdx]
		ds := dsMax - (dsMax-dsMin)*clamp01(k/kThreshold)

		remaining := ds
		for {
			segStart := pts[segIdx]
			segEnd := pts[segIdx+1]
			segLen := geometry.Distance(segStart, segEnd)
			avail := segLen - segPos
			if remaining <= avail {
				segPos += remaining
				t := 0.0
				if segLen > 1e-12 {
					t = segPos / segLen
				}
				cur = geometry.Lerp(segStart, segEnd, t)
				out = append(out, cur)
				break
			}
			remaining -= avail
			segIdx++
			segPos = 0
			if segIdx >= len(pts)-1 {
				cur = pts[len(pts)-1]
				break
			}
		}
		if segIdx >= len(pts)-1 {
			break
		}
	}

	last := out[len(out)-1]
	if !geometry.Coincident(last, pts[len(pts)-1]) {
		out = append(out, pts[len(pts)-1])
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

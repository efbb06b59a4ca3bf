package kernel

import "github.com/ocx/rmos/internal/geometry"

// feedSlowdowns computes, for each interior vertex of pts, the feed
// multiplier alpha in [floor, 1.0] applied at that vertex (spec §4.3 step
// 6): alpha decreases toward floor as local curvature rises past
// kThreshold, using the same linear blend as respacing. Endpoints have zero
// curvature and get 1.0; any index in forced (corners a fillet couldn't
// fit) is pinned to floor.
func feedSlowdowns(pts []geometry.Point, kThreshold, floor float64, forced map[int]bool) []float64 {
	alpha := make([]float64, len(pts))
	for i := range pts {
		if forced[i] {
			alpha[i] = floor
			continue
		}
		if i == 0 || i == len(pts)-1 {
			alpha[i] = 1.0
			continue
		}
		k := geometry.Curvature(pts, i)
		alpha[i] = 1.0 - (1.0-floor)*clamp01(k/kThreshold)
	}
	return alpha
}

package kernel

import (
	"fmt"
	"math"

	"github.com/ocx/rmos/internal/geometry"
)

const tightRadiusFraction = 1.1 // within 10% of arc_tol of the keep-out boundary counts as "tight"

// Pocket runs the Adaptive Pocketing Kernel (spec §4.3) over an outer
// boundary and its islands, producing a ToolpathPlan. It is pure and
// deterministic: identical inputs always produce byte-identical output,
// including ToolpathsHash.
func Pocket(outer geometry.Loop, islands []geometry.Loop, p Params) (ToolpathPlan, error) {
	if err := validateParams(p); err != nil {
		return ToolpathPlan{}, err
	}
	arcTol := p.ArcTol
	if arcTol <= 0 {
		arcTol = 0.05
	}

	// Step 1: keep-out region.
	r := p.ToolDiameter/2 + p.Margin
	region, err := geometry.Offset(outer, -r, arcTol)
	if err != nil {
		return ToolpathPlan{}, fmt.Errorf("%w: %v", ErrGeometryInvalid, err)
	}
	bbMin, bbMax := outer.BoundingBox()
	w, h := bbMax.X-bbMin.X, bbMax.Y-bbMin.Y
	if p.ToolDiameter >= math.Min(w, h) {
		return ToolpathPlan{}, ErrToolTooLarge
	}
	if len(region) == 0 {
		return ToolpathPlan{}, ErrPocketTooSmall
	}

	grownIslands := make([]geometry.Loop, 0, len(islands))
	for _, isl := range islands {
		g, err := geometry.Offset(isl, r, arcTol)
		if err != nil {
			return ToolpathPlan{}, fmt.Errorf("%w: island inflate: %v", ErrGeometryInvalid, err)
		}
		if len(g) > 0 {
			grownIslands = append(grownIslands, g)
		}
	}
	if areaRemaining(region, grownIslands) < minAreaMM2 {
		return ToolpathPlan{}, ErrPocketTooSmall
	}

	// Step 2: ring generation, spaced s = stepover*tool_d from the already
	// margin-inflated region (so ring 0 sits exactly on R's boundary).
	s := p.Stepover * p.ToolDiameter
	rings, err := buildRings(region, grownIslands, 0, s, arcTol)
	if err != nil {
		return ToolpathPlan{}, err
	}
	if len(rings) == 0 {
		return ToolpathPlan{}, ErrPocketTooSmall
	}

	// Step 3: strategy realization.
	var paths [][]geometry.Point
	switch p.Strategy {
	case StrategyLanes:
		passes, _ := lanesPasses(rings, p.Climb)
		paths = passes
	default: // StrategySpiral
		path, _ := stitchSpiral(rings, p.Climb)
		paths = [][]geometry.Point{path}
	}

	kThreshold := 1 / (3 * p.ToolDiameter)
	depths := layerDepths(p.ZRough, p.Stepdown)
	floor := p.SlowdownFeedPct / 100

	var allMoves []Move
	var overlays []Overlay
	tightSegments := 0
	totalLength := 0.0

	for _, path := range paths {
		if len(path) < 2 {
			continue
		}
		// Step 4: curvature-aware respacing.
		respaced := respace(path, 0.3*s, 0.9*s, kThreshold)

		// Step 5: fillet injection.
		filleted, forced, filletArcs := injectFillets(respaced, p.CornerRadiusMin, arcTol)
		for _, arc := range filletArcs {
			overlays = append(overlays, Overlay{Kind: OverlayFillet, Geometry: arc, Severity: "info"})
		}

		// Step 6: feed slowdown annotation.
		alpha := feedSlowdowns(filleted, kThreshold, floor, forced)
		var slowdownZone []geometry.Point
		for i, a := range alpha {
			if a < 0.85 {
				tightSegments++
				slowdownZone = append(slowdownZone, filleted[i])
			}
		}
		if len(slowdownZone) > 0 {
			overlays = append(overlays, Overlay{Kind: OverlaySlowdownZone, Geometry: slowdownZone, Severity: "warning"})
		}

		totalLength += pathLength(filleted) * float64(len(depths))

		// Step 7: Z layering.
		moves := buildLayeredMoves(filleted, alpha, depths, p.SafeZ, p.FeedXY, floor)
		for i := range moves {
			moves[i].Seq = len(allMoves) + i
		}
		allMoves = append(allMoves, moves...)
	}

	for _, isl := range islands {
		overlays = append(overlays, Overlay{Kind: OverlayIslandBoundary, Geometry: append([]geometry.Point{}, isl...), Severity: "info"})
	}
	if tight := tightRadiusOverlay(region, grownIslands, arcTol); len(tight) > 0 {
		overlays = append(overlays, Overlay{Kind: OverlayTightRadius, Geometry: tight, Severity: "warning"})
	}

	stats := Stats{
		LengthMM:      totalLength,
		TimeS:         estimateTimeS(allMoves),
		MoveCount:     len(allMoves),
		TightSegments: tightSegments,
		AreaMM2:       areaRemaining(region, grownIslands),
		VolumeMM3:     areaRemaining(region, grownIslands) * math.Abs(p.ZRough),
	}

	return ToolpathPlan{
		Moves:         allMoves,
		Overlays:      overlays,
		Stats:         stats,
		ToolpathsHash: computeToolpathsHash(allMoves),
	}, nil
}

func validateParams(p Params) error {
	if p.ToolDiameter <= 0 {
		return fmt.Errorf("%w: tool_d must be positive", ErrParameterOutOfRange)
	}
	if p.Stepover <= 0 || p.Stepover > 1 {
		return fmt.Errorf("%w: stepover must be in (0,1]", ErrParameterOutOfRange)
	}
	if p.Stepdown <= 0 {
		return fmt.Errorf("%w: stepdown must be positive", ErrParameterOutOfRange)
	}
	if p.FeedXY <= 0 {
		return fmt.Errorf("%w: feed_xy must be positive", ErrParameterOutOfRange)
	}
	if p.SlowdownFeedPct <= 0 || p.SlowdownFeedPct > 100 {
		return fmt.Errorf("%w: slowdown_feed_pct must be in (0,100]", ErrParameterOutOfRange)
	}
	if p.ZRough >= 0 {
		return fmt.Errorf("%w: z_rough must be negative", ErrParameterOutOfRange)
	}
	return nil
}

// tightRadiusOverlay reports the boundary vertices of region within
// arc_tol*tightRadiusFraction of any island keep-out boundary, a rough
// proxy for "offset distance came within arc_tol of the keep-out
// boundary" since the kernel doesn't track per-ring clearance directly.
func tightRadiusOverlay(region geometry.Loop, holes []geometry.Loop, arcTol float64) []geometry.Point {
	var tight []geometry.Point
	thresh := arcTol * tightRadiusFraction
	for _, h := range holes {
		for _, v := range region {
			if h.DistanceToBoundary(v) < thresh {
				tight = append(tight, v)
			}
		}
	}
	return tight
}

// estimateTimeS sums each move's travel time at its commanded feed (mm/min
// converted to mm/s), with G0 rapids assumed instantaneous for estimation
// purposes (a conservative, display-only figure, not used for scheduling).
func estimateTimeS(moves []Move) float64 {
	total := 0.0
	for i := 1; i < len(moves); i++ {
		if moves[i].Code != MoveFeed || moves[i].F <= 0 {
			continue
		}
		d := geometry.Distance(geometry.Point{X: moves[i-1].X, Y: moves[i-1].Y}, geometry.Point{X: moves[i].X, Y: moves[i].Y})
		total += d / (moves[i].F / 60)
	}
	return total
}

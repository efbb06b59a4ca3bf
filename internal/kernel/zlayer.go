package kernel

import (
	"math"

	"github.com/ocx/rmos/internal/geometry"
)

// rampAngleRad is the descent angle used for the first layer's ramped
// plunge when the path has room for one; shallow enough to avoid full
// engagement at the tool tip.
const rampAngleRad = 3 * math.Pi / 180

// layerDepths returns the Z depths (most negative last) a pocket is cut
// at: -stepdown, -2*stepdown, ..., clamped to end exactly at zRough
// (spec §4.3 step 7).
func layerDepths(zRough, stepdown float64) []float64 {
	if stepdown <= 0 {
		return []float64{zRough}
	}
	var depths []float64
	d := -stepdown
	for d > zRough {
		depths = append(depths, d)
		d -= stepdown
	}
	depths = append(depths, zRough)
	return depths
}

// buildLayeredMoves replicates path2D at each of depths, connecting layers
// with a rapid reposition at safeZ and using a ramped plunge for the first
// layer when the path is long enough to carry one, a straight reduced-feed
// plunge otherwise. alpha supplies the per-vertex feed multiplier computed
// by feedSlowdowns; floor is the slowdown_feed_pct floor used for plunges.
func buildLayeredMoves(path2D []geometry.Point, alpha []float64, depths []float64, safeZ, feedXY, floor float64) []Move {
	if len(path2D) == 0 || len(depths) == 0 {
		return nil
	}
	var moves []Move
	seq := 0
	emit := func(code MoveCode, p geometry.Point, z, f, a float64) {
		m := Move{Seq: seq, Code: code, X: p.X, Y: p.Y, Z: z, F: f}
		if code == MoveFeed && a > 0 {
			m.Meta = &MoveMeta{Slowdown: a}
		}
		moves = append(moves, m)
		seq++
	}

	start := path2D[0]
	for li, depth := range depths {
		emit(MoveRapid, start, safeZ, 0, 0)

		if li == 0 {
			rampLen := math.Abs(depth) / math.Tan(rampAngleRad)
			if pathLength(path2D) >= rampLen && rampLen > 0 {
				emitRampedPlunge(path2D, depth, feedXY*floor, &seq, &moves)
			} else {
				emit(MoveFeed, start, depth, feedXY*floor, floor)
			}
		} else {
			emit(MoveFeed, start, depth, feedXY*floor, floor)
		}

		for i := 1; i < len(path2D); i++ {
			a := 1.0
			if i < len(alpha) {
				a = alpha[i]
			}
			emit(MoveFeed, path2D[i], depth, feedXY*a, a)
		}
	}

	last := path2D[len(path2D)-1]
	emit(MoveRapid, last, safeZ, 0, 0)
	return moves
}

// emitRampedPlunge descends linearly in Z while tracing the initial portion
// of path2D, reaching depth by the time the ramp distance is covered.
func emitRampedPlunge(path2D []geometry.Point, depth, feed float64, seq *int, moves *[]Move) {
	rampLen := math.Abs(depth) / math.Tan(rampAngleRad)
	traveled := 0.0
	prev := path2D[0]
	for i := 1; i < len(path2D) && traveled < rampLen; i++ {
		cur := path2D[i]
		traveled += geometry.Distance(prev, cur)
		z := depth * math.Min(1.0, traveled/rampLen)
		*moves = append(*moves, Move{Seq: *seq, Code: MoveFeed, X: cur.X, Y: cur.Y, Z: z, F: feed})
		*seq++
		prev = cur
	}
}

func pathLength(pts []geometry.Point) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += geometry.Distance(pts[i-1], pts[i])
	}
	return total
}

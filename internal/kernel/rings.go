package kernel

import (
	"fmt"

	"github.com/ocx/rmos/internal/geometry"
)

// ring is one concentric offset pass of the machinable region: an outer
// boundary loop plus zero or more island (hole) boundary loops, all at the
// same erosion depth from the original outer/island geometry.
type ring struct {
	outer geometry.Loop
	holes []geometry.Loop
}

// minAreaMM2 is the area below which a ring is treated as fully consumed.
const minAreaMM2 = 0.5

// buildRings erodes outer/islands by r, r+s, r+2s, ... until the remaining
// area vanishes, returning the outermost ring first. r is the depth of the
// first ring (Pocket passes 0, since its outer is already the
// margin-inflated region); s is the ring-to-ring spacing (stepover*tool_d).
func buildRings(outer geometry.Loop, islands []geometry.Loop, r, s, arcTol float64) ([]ring, error) {
	var rings []ring
	for k := 0; ; k++ {
		d := r + float64(k)*s
		ringOuter, err := geometry.Offset(outer, -d, arcTol)
		if err != nil {
			return nil, fmt.Errorf("%w: outer ring at depth %.3fmm: %v", ErrGeometryInvalid, d, err)
		}
		if len(ringOuter) == 0 {
			break
		}

		var holes []geometry.Loop
		for _, isl := range islands {
			grown, err := geometry.Offset(isl, d, arcTol)
			if err != nil {
				return nil, fmt.Errorf("%w: island ring at depth %.3fmm: %v", ErrGeometryInvalid, d, err)
			}
			if len(grown) > 0 {
				holes = append(holes, grown.EnsureCW())
			}
		}

		area := areaRemaining(ringOuter, holes)
		if area < minAreaMM2 {
			break
		}
		rings = append(rings, ring{outer: ringOuter.EnsureCCW(), holes: holes})

		if k > 10000 {
			break // pathological input safety valve; never hit in practice
		}
	}
	return rings, nil
}

func areaRemaining(outer geometry.Loop, holes []geometry.Loop) float64 {
	area := absArea(outer)
	for _, h := range holes {
		area -= absArea(h)
	}
	return area
}

func absArea(l geometry.Loop) float64 {
	a := l.SignedArea()
	if a < 0 {
		a = -a
	}
	return a
}

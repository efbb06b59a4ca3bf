package geometry

// Region is the result of a boolean subtraction: one outer boundary (CCW)
// plus zero or more holes (CW), per spec §4.2 normalization.
type Region struct {
	Outer Loop
	Holes []Loop
}

// Subtract computes outer \ union(islands). When every island lies fully
// inside outer and the islands don't touch each other, the exact
// boolean-difference result is simply the outer boundary with each island
// as a hole, this is the common pocketing case and is handled exactly.
// An island that pokes outside outer is clipped against outer with a
// Sutherland-Hodgman pass, which is exact when outer is convex and an
// approximation otherwise; RMOS pockets are
// rounded-rectangle-like regions, so this covers the shapes the kernel
// actually produces.
func Subtract(outer Loop, islands []Loop) (Region, error) {
	no, err := outer.Normalize()
	if err != nil {
		return Region{}, err
	}
	no = no.EnsureCCW()

	region := Region{Outer: no}
	for _, isl := range islands {
		ni, err := isl.Normalize()
		if err != nil {
			continue // degenerate islands contribute nothing
		}
		ni = ni.EnsureCW()

		fullyInside := true
		for _, p := range ni {
			if !no.ContainsPoint(p) {
				fullyInside = false
				break
			}
		}
		if fullyInside {
			region.Holes = append(region.Holes, ni)
			continue
		}

		clipped := sutherlandHodgman(ni.EnsureCCW(), no)
		if clipped, err := clipped.Normalize(); err == nil {
			region.Holes = append(region.Holes, clipped.EnsureCW())
		}
	}
	return region, nil
}

// sutherlandHodgman clips subject against the (assumed convex) clip
// polygon, both CCW, returning the intersection polygon.
func sutherlandHodgman(subject, clip Loop) Loop {
	output := subject
	cn := len(clip)
	for i := 0; i < cn && len(output) > 0; i++ {
		a := clip[i]
		b := clip[(i+1)%cn]
		input := output
		output = nil
		for j := 0; j < len(input); j++ {
			cur := input[j]
			prev := input[(j-1+len(input))%len(input)]
			curIn := isLeft(a, b, cur)
			prevIn := isLeft(a, b, prev)
			if curIn {
				if !prevIn {
					if p, ok := intersectLines(prev, cur, a, b); ok {
						output = append(output, p)
					}
				}
				output = append(output, cur)
			} else if prevIn {
				if p, ok := intersectLines(prev, cur, a, b); ok {
					output = append(output, p)
				}
			}
		}
	}
	return output
}

func isLeft(a, b, p Point) bool {
	return b.Sub(a).Cross(p.Sub(a)) >= 0
}

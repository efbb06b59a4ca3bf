package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rect(x0, y0, x1, y1 float64) Loop {
	return Loop{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func TestSignedAreaAndOrientation(t *testing.T) {
	r := rect(0, 0, 100, 60)
	assert.InDelta(t, 6000, r.SignedArea(), 1e-6)
	assert.True(t, r.IsCCW())
	assert.False(t, r.Reversed().IsCCW())
}

func TestNormalizeDegenerate(t *testing.T) {
	_, err := Loop{{0, 0}, {1, 0}}.Normalize()
	assert.ErrorIs(t, err, ErrDegenerateLoop)

	_, err = Loop{{0, 0}, {1, 0}, {2, 0}}.Normalize()
	assert.ErrorIs(t, err, ErrDegenerateLoop)
}

func TestContainsPoint(t *testing.T) {
	r := rect(0, 0, 100, 60)
	assert.True(t, r.ContainsPoint(Point{50, 30}))
	assert.False(t, r.ContainsPoint(Point{150, 30}))
}

func TestOffsetInwardShrinksRectangle(t *testing.T) {
	r := rect(0, 0, 100, 60)
	shrunk, err := Offset(r, -10, 0.05)
	require.NoError(t, err)
	require.NotNil(t, shrunk)
	min, max := shrunk.BoundingBox()
	assert.InDelta(t, 10, min.X, 0.5)
	assert.InDelta(t, 10, min.Y, 0.5)
	assert.InDelta(t, 90, max.X, 0.5)
	assert.InDelta(t, 50, max.Y, 0.5)
}

func TestOffsetInwardPastExtentIsEmpty(t *testing.T) {
	r := rect(0, 0, 10, 10)
	shrunk, err := Offset(r, -20, 0.05)
	require.NoError(t, err)
	assert.Empty(t, shrunk)
}

func TestOffsetOutwardGrowsRectangle(t *testing.T) {
	r := rect(0, 0, 100, 60)
	grown, err := Offset(r, 5, 0.05)
	require.NoError(t, err)
	min, max := grown.BoundingBox()
	assert.InDelta(t, -5, min.X, 0.5)
	assert.InDelta(t, 105, max.X, 0.5)
}

func TestSubtractIslandFullyInside(t *testing.T) {
	outer := rect(0, 0, 100, 60)
	island := rect(30, 15, 70, 45)
	region, err := Subtract(outer, []Loop{island})
	require.NoError(t, err)
	require.Len(t, region.Holes, 1)
	assert.False(t, region.Holes[0].IsCCW())
	for _, p := range region.Holes[0] {
		assert.True(t, outer.ContainsPoint(p))
	}
}

func TestCurvatureStraightLineIsZero(t *testing.T) {
	pts := []Point{{0, 0}, {1, 0}, {2, 0}}
	assert.InDelta(t, 0, Curvature(pts, 1), 1e-9)
}

func TestCurvatureRightAngleIsPositive(t *testing.T) {
	pts := []Point{{0, 0}, {1, 0}, {1, 1}}
	assert.Greater(t, Curvature(pts, 1), 0.0)
}

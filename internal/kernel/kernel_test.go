package kernel

import (
	"testing"

	"github.com/ocx/rmos/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rect(x0, y0, x1, y1 float64) geometry.Loop {
	return geometry.Loop{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func baseParams() Params {
	return Params{
		ToolDiameter:    6,
		Stepover:        0.45,
		Stepdown:        1.5,
		Margin:          0,
		Strategy:        StrategySpiral,
		CornerRadiusMin: 0,
		SlowdownFeedPct: 40,
		FeedXY:          1200,
		SafeZ:           5,
		ZRough:          -1.5,
		Climb:           true,
		ArcTol:          0.05,
	}
}

// S1: safe square pocket, Spiral, single Z layer.
func TestPocketSquareSpiralS1(t *testing.T) {
	outer := rect(0, 0, 100, 60)
	plan, err := Pocket(outer, nil, baseParams())
	require.NoError(t, err)
	require.NotEmpty(t, plan.Moves)
	assert.InDelta(t, 550, plan.Stats.LengthMM, 60, "toolpath length should land near [500,600]mm")

	retracts := 0
	for _, m := range plan.Moves {
		if m.Code == MoveRapid && m.Z == 5 {
			retracts++
		}
	}
	assert.Equal(t, 2, retracts, "single-layer spiral should retract exactly at entry and exit")
	assert.NotEmpty(t, plan.ToolpathsHash)
}

// S2: square pocket with one rectangular island.
func TestPocketSquareWithIslandS2(t *testing.T) {
	outer := rect(0, 0, 100, 60)
	island := rect(40, 20, 60, 40)
	p := baseParams()

	plan, err := Pocket(outer, []geometry.Loop{island}, p)
	require.NoError(t, err)
	require.NotEmpty(t, plan.Moves)

	hasIslandOverlay := false
	for _, o := range plan.Overlays {
		if o.Kind == OverlayIslandBoundary {
			hasIslandOverlay = true
		}
	}
	assert.True(t, hasIslandOverlay)

	for _, m := range plan.Moves {
		if m.Code != MoveFeed {
			continue
		}
		assert.False(t, island.ContainsPoint(geometry.Point{X: m.X, Y: m.Y}),
			"no cutting move should enter the island keep-out region")
	}
}

func TestPocketDeterministic(t *testing.T) {
	outer := rect(0, 0, 100, 60)
	p := baseParams()
	plan1, err := Pocket(outer, nil, p)
	require.NoError(t, err)
	plan2, err := Pocket(outer, nil, p)
	require.NoError(t, err)
	assert.Equal(t, plan1.ToolpathsHash, plan2.ToolpathsHash)
	assert.Equal(t, len(plan1.Moves), len(plan2.Moves))
}

func TestPocketTooSmall(t *testing.T) {
	outer := rect(0, 0, 5, 5)
	p := baseParams()
	p.ToolDiameter = 6
	_, err := Pocket(outer, nil, p)
	require.Error(t, err)
}

func TestPocketToolTooLarge(t *testing.T) {
	outer := rect(0, 0, 10, 100)
	p := baseParams()
	p.ToolDiameter = 12
	p.Margin = 0
	_, err := Pocket(outer, nil, p)
	require.ErrorIs(t, err, ErrToolTooLarge)
}

func TestPocketParameterOutOfRange(t *testing.T) {
	outer := rect(0, 0, 100, 60)
	p := baseParams()
	p.Stepover = 0
	_, err := Pocket(outer, nil, p)
	require.ErrorIs(t, err, ErrParameterOutOfRange)
}

func TestSlowdownStaysWithinFloorAndCeiling(t *testing.T) {
	outer := rect(0, 0, 100, 60)
	p := baseParams()
	p.CornerRadiusMin = 0.5
	plan, err := Pocket(outer, nil, p)
	require.NoError(t, err)

	floor := p.SlowdownFeedPct / 100
	for _, m := range plan.Moves {
		if m.Code != MoveFeed || m.Meta == nil {
			continue
		}
		assert.GreaterOrEqual(t, m.Meta.Slowdown, floor-1e-9)
		assert.LessOrEqual(t, m.Meta.Slowdown, 1.0+1e-9)
	}
}

func TestInjectFilletsSharpCornerFits(t *testing.T) {
	pts := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	out, forced, overlays := injectFillets(pts, 1.0, 0.05)
	assert.Greater(t, len(out), len(pts), "fillet should add sampled arc points")
	assert.Empty(t, forced)
	assert.Len(t, overlays, 1)
}

func TestInjectFilletsTooLargeIsForced(t *testing.T) {
	pts := []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	out, forced, _ := injectFillets(pts, 5.0, 0.05)
	assert.Equal(t, pts, out)
	assert.True(t, forced[1])
}

func TestLayerDepths(t *testing.T) {
	depths := layerDepths(-3.0, 1.5)
	require.Len(t, depths, 2)
	assert.InDelta(t, -1.5, depths[0], 1e-9)
	assert.InDelta(t, -3.0, depths[1], 1e-9)
}

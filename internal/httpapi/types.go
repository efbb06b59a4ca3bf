// Package httpapi implements the HTTP Façade (C8): the four endpoint
// groups (feasibility, toolpaths, runs, workflow) that tie the registry,
// kernel, feasibility engine, post-processor, artifact store, and
// workflow state machine together into one JSON API.
package httpapi

import (
	"github.com/ocx/rmos/internal/feasibility"
	"github.com/ocx/rmos/internal/geometry"
	"github.com/ocx/rmos/internal/kernel"
)

// pointDTO is the wire shape of a geometry.Point: lowercase x/y, unlike
// the internal Point which carries no JSON tags at all (it's never
// marshaled directly across the façade boundary).
type pointDTO struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p pointDTO) toGeometry() geometry.Point { return geometry.Point{X: p.X, Y: p.Y} }

func loopFromDTO(pts []pointDTO) geometry.Loop {
	loop := make(geometry.Loop, len(pts))
	for i, p := range pts {
		loop[i] = p.toGeometry()
	}
	return loop
}

// designDTO is the wire shape of a DesignRequest: an ordered sequence of
// loops (first = outer boundary, rest = islands) plus its bounding box
// summary for the feasibility engine's envelope check.
type designDTO struct {
	Loops   [][]pointDTO `json:"loops"`
	BBoxX   float64      `json:"bbox_x_mm"`
	BBoxY   float64      `json:"bbox_y_mm"`
	BBoxZ   float64      `json:"bbox_z_mm"`
}

func (d designDTO) outerAndIslands() (geometry.Loop, []geometry.Loop) {
	if len(d.Loops) == 0 {
		return nil, nil
	}
	outer := loopFromDTO(d.Loops[0])
	islands := make([]geometry.Loop, 0, len(d.Loops)-1)
	for _, l := range d.Loops[1:] {
		islands = append(islands, loopFromDTO(l))
	}
	return outer, islands
}

func (d designDTO) summary() feasibility.DesignSummary {
	return feasibility.DesignSummary{BBoxXMM: d.BBoxX, BBoxYMM: d.BBoxY, BBoxZMM: d.BBoxZ}
}

// opParamsDTO mirrors feasibility.OpParams plus the kernel-only fields
// (margin, corner_radius_min, strategy, climb, safe_z, arc_tol) that the
// Feasibility Engine never looks at but the kernel needs.
type opParamsDTO struct {
	FeedXYMMMin     float64         `json:"feed_xy_mm_min"`
	SpindleRPM      float64         `json:"spindle_rpm"`
	StepdownMM      float64         `json:"stepdown_mm"`
	ZRoughMM        float64         `json:"z_rough_mm"`
	Stepover        float64         `json:"stepover"`
	Margin          float64         `json:"margin_mm"`
	CornerRadiusMin float64         `json:"corner_radius_min_mm"`
	Strategy        kernel.Strategy `json:"strategy"`
	Climb           bool            `json:"climb"`
	SafeZMM         float64         `json:"safe_z_mm"`
	ArcTolMM        float64         `json:"arc_tol_mm"`
	SlowdownFeedPct float64         `json:"slowdown_feed_pct"`
}

func (o opParamsDTO) toFeasibilityOp() feasibility.OpParams {
	return feasibility.OpParams{
		FeedXYMMMin: o.FeedXYMMMin,
		SpindleRPM:  o.SpindleRPM,
		StepdownMM:  o.StepdownMM,
		ZRoughMM:    o.ZRoughMM,
		Stepover:    o.Stepover,
	}
}

func (o opParamsDTO) toKernelParams(toolDiameter float64) kernel.Params {
	return kernel.Params{
		ToolDiameter:    toolDiameter,
		Stepover:        o.Stepover,
		Stepdown:        o.StepdownMM,
		Margin:          o.Margin,
		Strategy:        o.Strategy,
		CornerRadiusMin: o.CornerRadiusMin,
		SlowdownFeedPct: o.SlowdownFeedPct,
		FeedXY:          o.FeedXYMMMin,
		SafeZ:           o.SafeZMM,
		ZRough:          o.ZRoughMM,
		Climb:           o.Climb,
		ArcTol:          o.ArcTolMM,
	}
}

// feasibilityRequest is the body of POST /api/rmos/feasibility and
// POST /api/rmos/toolpaths. Any client-supplied "feasibility" field is
// intentionally absent from this struct: json.Decode simply drops
// fields it doesn't know about, which is how the façade "strips any
// client-supplied feasibility" per spec without special-casing it.
type feasibilityRequest struct {
	ToolID     string      `json:"tool_id"`
	MaterialID string      `json:"material_id"`
	MachineID  string      `json:"machine_id"`
	Design     designDTO   `json:"design"`
	OpParams   opParamsDTO `json:"op_params"`
	OpKind     string      `json:"op_kind"`
	SessionID  string      `json:"session_id,omitempty"`
	PostID     string      `json:"post_id,omitempty"`
}

// errorBody is the structured JSON shape for every non-2xx response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Package kernel implements the Adaptive Pocketing Kernel (spec §4.3): it
// turns a boundary + islands + cut parameters into a ToolpathPlan, a list
// of cutting moves plus non-executable overlays for visualization and
// audit. The kernel is a pure, synchronous function over in-memory
// geometry; long-running calls are offloaded to the bounded worker pool in
// workerpool.go rather than given their own internal concurrency.
package kernel

import "github.com/ocx/rmos/internal/geometry"

// MoveCode discriminates the kind of G-code motion a Move represents.
type MoveCode string

const (
	MoveRapid MoveCode = "G0"
	MoveFeed  MoveCode = "G1"
	MoveArcCW MoveCode = "G2"
	MoveArcCCW MoveCode = "G3"
)

// MoveMeta carries non-motion annotations about a move.
type MoveMeta struct {
	// Slowdown is the feed multiplier actually applied, in [slowdown_floor, 1.0].
	Slowdown float64 `json:"slowdown,omitempty"`
}

// Move is one atomic motion command in the internal toolpath model.
// Arc moves (G2/G3) carry I/J as center offsets relative to the arc start.
type Move struct {
	Seq  int      `json:"seq"`
	Code MoveCode `json:"code"`
	X    float64  `json:"x"`
	Y    float64  `json:"y"`
	Z    float64  `json:"z"`
	F    float64  `json:"f,omitempty"`
	I    float64  `json:"i,omitempty"`
	J    float64  `json:"j,omitempty"`
	Meta *MoveMeta `json:"meta,omitempty"`
}

// OverlayKind categorizes a non-executable annotation.
type OverlayKind string

const (
	OverlayTightRadius     OverlayKind = "tight_radius"
	OverlaySlowdownZone    OverlayKind = "slowdown_zone"
	OverlayFillet          OverlayKind = "fillet"
	OverlayIslandBoundary  OverlayKind = "island_boundary"
)

// Overlay is a non-executable annotation accompanying a toolpath. It holds
// geometry by value so overlays never reference the moves or loops that
// produced them, no cycles between geometry and annotation.
type Overlay struct {
	Kind     OverlayKind      `json:"kind"`
	Geometry []geometry.Point `json:"geometry"`
	Severity string           `json:"severity"`
}

// Stats summarizes a ToolpathPlan for audit and quick inspection.
type Stats struct {
	LengthMM      float64 `json:"length_mm"`
	TimeS         float64 `json:"time_s"`
	MoveCount     int     `json:"move_count"`
	TightSegments int     `json:"tight_segments"`
	AreaMM2       float64 `json:"area_mm2"`
	VolumeMM3     float64 `json:"volume_mm3"`
}

// ToolpathPlan is the kernel's output: moves, overlays, and summary stats.
// ToolpathsHash covers only the canonical JSON of Moves (see hash.go) so
// that display-only changes to Overlays/Stats never change addressing.
type ToolpathPlan struct {
	Moves         []Move    `json:"moves"`
	Overlays      []Overlay `json:"overlays"`
	Stats         Stats     `json:"stats"`
	ToolpathsHash string    `json:"toolpaths_hash"`
}

// Strategy selects how concentric rings are realized into motion.
type Strategy string

const (
	StrategySpiral Strategy = "Spiral"
	StrategyLanes  Strategy = "Lanes"
)

// Params are the Adaptive Pocketing Kernel's cut parameters, per spec §4.3.
type Params struct {
	ToolDiameter    float64  `json:"tool_d"`
	Stepover        float64  `json:"stepover"`         // fraction of tool_d
	Stepdown        float64  `json:"stepdown"`         // mm per Z pass
	Margin          float64  `json:"margin"`           // mm
	Strategy        Strategy `json:"strategy"`
	CornerRadiusMin float64  `json:"corner_radius_min"` // mm
	SlowdownFeedPct float64  `json:"slowdown_feed_pct"` // percent, e.g. 40
	FeedXY          float64  `json:"feed_xy"`           // mm/min
	SafeZ           float64  `json:"safe_z"`            // mm
	ZRough          float64  `json:"z_rough"`           // mm, target depth (negative)
	Climb           bool     `json:"climb"`
	ArcTol          float64  `json:"arc_tol,omitempty"` // mm, default 0.05
}

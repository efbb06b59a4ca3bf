// Package postproc implements the Post-Processor Emitter (C5): it turns
// a kernel.ToolpathPlan's moves into machine-dialect G-code text using a
// declarative per-machine config, header, footer, move formats, arc
// mode, and axis-modal optimization are all data, never per-dialect Go
// code.
package postproc

import "github.com/ocx/rmos/internal/kernel"

// ArcMode selects how G2/G3 arcs express their center.
type ArcMode string

const (
	ArcModeIJ ArcMode = "IJ"
	ArcModeR  ArcMode = "R"
)

// Config is one machine dialect's post-processor definition.
type Config struct {
	PostID         string
	Header         []string
	Footer         []string
	AxisOrder      []string // subset/order of "X","Y","Z" per move line
	ArcMode        ArcMode
	AxisModalOpt   bool    // suppress axis words unchanged since the last move
	MaxArcSweepDeg float64 // arcs swept wider than this are split
	InchBased      bool    // internal model is mm; this post wants G20/inch
	DecimalPlaces  int
}

// moveFormat maps a kernel.MoveCode to its G-code word.
var moveFormat = map[kernel.MoveCode]string{
	kernel.MoveRapid:  "G0",
	kernel.MoveFeed:   "G1",
	kernel.MoveArcCW:  "G2",
	kernel.MoveArcCCW: "G3",
}

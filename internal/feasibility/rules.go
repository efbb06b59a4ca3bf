package feasibility

import (
	"fmt"
	"math"

	"github.com/ocx/rmos/internal/registry"
)

// ruleInputs bundles the resolved registry entries and request
// parameters a single rule check needs.
type ruleInputs struct {
	tool     registry.Tool
	material registry.Material
	machine  registry.Machine
	op       OpParams
	design   DesignSummary
}

// ruleFunc checks one concern and returns a Reason if it fires.
type ruleFunc func(ruleInputs) *Reason

var rules = []ruleFunc{
	checkRimSpeed,
	checkChipload,
	checkDepthOfCut,
	checkEnvelope,
}

// checkRimSpeed flags a tool spinning faster than its rated rim speed,
// and separately flags rim speed that eats into the material's
// tear-out margin even while staying under the tool's hard limit.
func checkRimSpeed(in ruleInputs) *Reason {
	if in.op.SpindleRPM <= 0 || in.tool.DiameterMM <= 0 {
		return nil
	}
	rimSpeedMPM := math.Pi * in.tool.DiameterMM * in.op.SpindleRPM / 1000
	if in.tool.MaxRimSpeedMPM > 0 && rimSpeedMPM > in.tool.MaxRimSpeedMPM {
		return &Reason{
			Code:     "RIM_SPEED_EXCEEDED",
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("rim speed %.1f m/min exceeds tool max %.1f m/min", rimSpeedMPM, in.tool.MaxRimSpeedMPM),
		}
	}
	if in.tool.MaxRimSpeedMPM > 0 {
		margin := 1 - in.material.TearoutSensitivity*0.5
		if rimSpeedMPM > in.tool.MaxRimSpeedMPM*margin {
			return &Reason{
				Code:     "BURN_RISK",
				Severity: SeverityMedium,
				Message:  fmt.Sprintf("rim speed %.1f m/min is within the tear-out-sensitive margin for this material", rimSpeedMPM),
			}
		}
	}
	return nil
}

// checkChipload flags feed/RPM/flute combinations that imply a chipload
// far from the tool's recommendation: too low risks burning and
// rubbing, too high risks tooth breakage.
func checkChipload(in ruleInputs) *Reason {
	if in.op.SpindleRPM <= 0 || in.tool.FluteCount <= 0 || in.tool.RecommendedChipload <= 0 {
		return nil
	}
	chipload := in.op.FeedXYMMMin / (in.op.SpindleRPM * float64(in.tool.FluteCount))
	ratio := chipload / in.tool.RecommendedChipload
	switch {
	case ratio > 2.0:
		return &Reason{
			Code:     "CHIPLOAD_EXCESSIVE",
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("chipload %.4f mm/tooth is %.1fx the tool's recommendation", chipload, ratio),
		}
	case ratio < 0.3:
		return &Reason{
			Code:     "CHIPLOAD_LOW",
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("chipload %.4f mm/tooth is only %.0f%% of the tool's recommendation", chipload, ratio*100),
		}
	}
	return nil
}

// checkDepthOfCut flags a per-pass depth beyond the tool's rated max,
// scaled down further as material hardness rises.
func checkDepthOfCut(in ruleInputs) *Reason {
	depth := math.Abs(in.op.StepdownMM)
	if depth <= 0 || in.tool.MaxDepthOfCutMM <= 0 {
		return nil
	}
	if depth > in.tool.MaxDepthOfCutMM {
		return &Reason{
			Code:     "DEPTH_OF_CUT_EXCEEDED",
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("stepdown %.2f mm exceeds tool max depth of cut %.2f mm", depth, in.tool.MaxDepthOfCutMM),
		}
	}
	effectiveMax := in.tool.MaxDepthOfCutMM * (1 - in.material.HardnessClass*0.5)
	if depth > effectiveMax {
		return &Reason{
			Code:     "DEPTH_VS_HARDNESS",
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("stepdown %.2f mm exceeds the %.2f mm margin this material's hardness allows", depth, effectiveMax),
		}
	}
	return nil
}

// checkEnvelope flags a design whose bounding box exceeds the machine's
// travel limits outright, the cut is physically unreachable.
func checkEnvelope(in ruleInputs) *Reason {
	env := in.machine.Envelope
	if env.X <= 0 && env.Y <= 0 && env.Z <= 0 {
		return nil
	}
	if (env.X > 0 && in.design.BBoxXMM > env.X) ||
		(env.Y > 0 && in.design.BBoxYMM > env.Y) ||
		(env.Z > 0 && in.design.BBoxZMM > env.Z) {
		return &Reason{
			Code:     "ENVELOPE_EXCEEDED",
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("design bbox (%.1f,%.1f,%.1f) exceeds machine envelope (%.1f,%.1f,%.1f)", in.design.BBoxXMM, in.design.BBoxYMM, in.design.BBoxZMM, env.X, env.Y, env.Z),
		}
	}
	return nil
}

package feasibility

import (
	"errors"

	"github.com/ocx/rmos/internal/canonical"
	"github.com/ocx/rmos/internal/registry"
)

// EngineVersion is folded into every feasibility_hash so a future change
// to the rule set re-versions every decision it touches.
const EngineVersion = "rmos-feasibility-v1"

// Engine computes FeasibilityResults against a fixed, read-only registry
// snapshot. One Engine is built at startup and shared by all requests.
type Engine struct {
	reg *registry.Registry
}

// NewEngine builds an Engine bound to reg's snapshot.
func NewEngine(reg *registry.Registry) *Engine {
	return &Engine{reg: reg}
}

// hashableResult is FeasibilityResult minus Meta: the feasibility hash
// covers the decision itself, not metadata about computing it.
type hashableResult struct {
	RiskBucket    RiskBucket    `json:"risk_bucket"`
	Score         float64       `json:"score"`
	Reasons       []Reason      `json:"reasons"`
	InputsSummary InputsSummary `json:"inputs_summary"`
}

// Compute evaluates feasibility for the given identifiers and operation.
// A missing or invalid registry entry does not propagate as a Go error:
// per the engine's rule set it resolves to an UNKNOWN bucket with a
// LOOKUP_MISSING reason, because "inputs incomplete" is itself one of
// the engine's defined outcomes, not an engine failure. Compute only
// returns an error for conditions the engine cannot itself reason
// about, those surface to the façade as an ERROR artifact, never a
// permissive decision.
func (e *Engine) Compute(toolID, materialID, machineID, opKind string, op OpParams, design DesignSummary) (FeasibilityResult, error) {
	summary := InputsSummary{ToolID: toolID, MaterialID: materialID, MachineID: machineID, OpKind: opKind, OpParams: op}

	tool, errTool := e.reg.GetTool(toolID)
	material, errMaterial := e.reg.GetMaterial(materialID)
	machine, errMachine := e.reg.GetMachine(machineID)

	if missing := firstMissing(errTool, errMaterial, errMachine); missing != nil {
		reasons := []Reason{{Code: "LOOKUP_MISSING", Severity: SeverityCritical, Message: missing.Error()}}
		return e.finish(BucketUnknown, 0, reasons, summary)
	}

	in := ruleInputs{tool: tool, material: material, machine: machine, op: op, design: design}
	var reasons []Reason
	for _, rule := range rules {
		if r := rule(in); r != nil {
			reasons = append(reasons, *r)
		}
	}

	score := 100.0
	worst := SeverityLow
	hasWorst := false
	for _, r := range reasons {
		score -= severityWeight[r.Severity]
		if !hasWorst || severityRank(r.Severity) > severityRank(worst) {
			worst = r.Severity
			hasWorst = true
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	bucket := bucketFor(hasWorst, worst, score)
	return e.finish(bucket, score, reasons, summary)
}

func (e *Engine) finish(bucket RiskBucket, score float64, reasons []Reason, summary InputsSummary) (FeasibilityResult, error) {
	hashed := hashableResult{RiskBucket: bucket, Score: score, Reasons: reasons, InputsSummary: summary}
	hash, err := canonical.Hash(struct {
		NormalizedInputs    InputsSummary  `json:"normalized_inputs"`
		RegistrySnapshotHash string        `json:"registry_snapshot_hash"`
		EngineVersion        string        `json:"engine_version"`
		Result               hashableResult `json:"result"`
	}{
		NormalizedInputs:     summary,
		RegistrySnapshotHash: e.reg.SnapshotHash(),
		EngineVersion:        EngineVersion,
		Result:               hashed,
	})
	if err != nil {
		return FeasibilityResult{}, err
	}
	if reasons == nil {
		reasons = []Reason{}
	}
	return FeasibilityResult{
		RiskBucket:    bucket,
		Score:         score,
		Reasons:       reasons,
		Meta:          Meta{FeasibilityHash: hash},
		InputsSummary: summary,
	}, nil
}

func bucketFor(hasReasons bool, worst Severity, score float64) RiskBucket {
	if !hasReasons {
		return BucketGreen
	}
	switch worst {
	case SeverityCritical:
		return BucketRed
	case SeverityHigh:
		if score < 60 {
			return BucketRed
		}
		return BucketYellow
	case SeverityMedium:
		if score < 80 {
			return BucketYellow
		}
		return BucketGreen
	default:
		if score < 80 {
			return BucketYellow
		}
		return BucketGreen
	}
}

func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

func firstMissing(errs ...error) error {
	for _, err := range errs {
		if err != nil && errors.Is(err, registry.ErrLookupMissing) {
			return err
		}
	}
	return nil
}

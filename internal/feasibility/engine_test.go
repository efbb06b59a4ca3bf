package feasibility

import (
	"testing"

	"github.com/ocx/rmos/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	tools := []registry.Tool{
		{ToolID: "bit-6mm", Kind: registry.ToolKindRouterBit, DiameterMM: 6, FluteCount: 2,
			RecommendedChipload: 0.05, MaxRimSpeedMPM: 500, MaxDepthOfCutMM: 3},
	}
	materials := []registry.Material{
		{MaterialID: "maple-hard", HardnessClass: 0.6, BurnRiskThreshold: 0.3, TearoutSensitivity: 0.4},
		{MaterialID: "glass-fragile", HardnessClass: 0.95, BurnRiskThreshold: 0.95, TearoutSensitivity: 0.95},
	}
	machines := []registry.Machine{
		{MachineID: "shop-grbl-1", MaxFeedMMMin: 3000, PostID: "GRBL",
			Envelope: registry.Envelope{X: 600, Y: 400, Z: 100}},
	}
	reg, err := registry.NewFromEntries(tools, materials, machines)
	require.NoError(t, err)
	return reg
}

func goodOp() OpParams {
	return OpParams{FeedXYMMMin: 1200, SpindleRPM: 18000, StepdownMM: 1.5, ZRoughMM: -1.5, Stepover: 0.45}
}

func goodDesign() DesignSummary {
	return DesignSummary{BBoxXMM: 100, BBoxYMM: 60, BBoxZMM: 1.5}
}

func TestComputeGreenOnSafeInputs(t *testing.T) {
	e := NewEngine(testRegistry(t))
	res, err := e.Compute("bit-6mm", "maple-hard", "shop-grbl-1", "pocket", goodOp(), goodDesign())
	require.NoError(t, err)
	assert.Equal(t, BucketGreen, res.RiskBucket)
	assert.NotEmpty(t, res.Meta.FeasibilityHash)
}

func TestComputeIdempotent(t *testing.T) {
	e := NewEngine(testRegistry(t))
	r1, err := e.Compute("bit-6mm", "maple-hard", "shop-grbl-1", "pocket", goodOp(), goodDesign())
	require.NoError(t, err)
	r2, err := e.Compute("bit-6mm", "maple-hard", "shop-grbl-1", "pocket", goodOp(), goodDesign())
	require.NoError(t, err)
	assert.Equal(t, r1.Meta.FeasibilityHash, r2.Meta.FeasibilityHash)
	assert.Equal(t, r1.RiskBucket, r2.RiskBucket)
}

func TestComputeUnknownOnMissingRegistryEntry(t *testing.T) {
	e := NewEngine(testRegistry(t))
	res, err := e.Compute("bit-does-not-exist", "maple-hard", "shop-grbl-1", "pocket", goodOp(), goodDesign())
	require.NoError(t, err)
	assert.Equal(t, BucketUnknown, res.RiskBucket)
	require.Len(t, res.Reasons, 1)
	assert.Equal(t, "LOOKUP_MISSING", res.Reasons[0].Code)
}

func TestComputeRedOnCriticalChipload(t *testing.T) {
	e := NewEngine(testRegistry(t))
	op := goodOp()
	op.FeedXYMMMin = 20000 // drives chipload far past the tool's recommendation
	res, err := e.Compute("bit-6mm", "glass-fragile", "shop-grbl-1", "pocket", op, goodDesign())
	require.NoError(t, err)
	assert.Equal(t, BucketRed, res.RiskBucket)
}

func TestComputeCriticalOnEnvelopeExceeded(t *testing.T) {
	e := NewEngine(testRegistry(t))
	design := DesignSummary{BBoxXMM: 5000, BBoxYMM: 60, BBoxZMM: 1.5}
	res, err := e.Compute("bit-6mm", "maple-hard", "shop-grbl-1", "pocket", goodOp(), design)
	require.NoError(t, err)
	assert.Equal(t, BucketRed, res.RiskBucket)
	found := false
	for _, r := range res.Reasons {
		if r.Code == "ENVELOPE_EXCEEDED" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestClientSuppliedResultNeverUsed(t *testing.T) {
	// The engine has no input path for a client-supplied FeasibilityResult
	// at all, Compute only accepts raw ids/params, so a forged bucket in
	// the request body can never reach it. This test documents that
	// contract: any Compute call ignores everything but its typed args.
	e := NewEngine(testRegistry(t))
	res, err := e.Compute("bit-6mm", "maple-hard", "shop-grbl-1", "pocket", goodOp(), goodDesign())
	require.NoError(t, err)
	assert.NotEqual(t, RiskBucket(""), res.RiskBucket)
}

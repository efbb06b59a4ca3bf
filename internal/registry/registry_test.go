package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() ([]Tool, []Material, []Machine) {
	tools := []Tool{{ToolID: "bit-6mm", Kind: ToolKindRouterBit, DiameterMM: 6, FluteCount: 2, MaxDepthOfCutMM: 10}}
	materials := []Material{{MaterialID: "maple-hard", HardnessClass: 0.8, BurnRiskThreshold: 0.3, TearoutSensitivity: 0.5}}
	machines := []Machine{{MachineID: "shop-grbl-1", MaxFeedMMMin: 3000, PostID: "GRBL", Envelope: Envelope{X: 600, Y: 400, Z: 100}}}
	return tools, materials, machines
}

func TestRegistryLookups(t *testing.T) {
	tools, materials, machines := sampleEntries()
	reg, err := NewFromEntries(tools, materials, machines)
	require.NoError(t, err)

	tool, err := reg.GetTool("bit-6mm")
	require.NoError(t, err)
	assert.Equal(t, 6.0, tool.DiameterMM)

	_, err = reg.GetTool("does-not-exist")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookupMissing))

	mat, err := reg.GetMaterial("maple-hard")
	require.NoError(t, err)
	assert.Equal(t, 0.8, mat.HardnessClass)

	mach, err := reg.GetMachine("shop-grbl-1")
	require.NoError(t, err)
	assert.Equal(t, "GRBL", mach.PostID)
}

func TestRegistrySnapshotHashStableAndSensitive(t *testing.T) {
	tools, materials, machines := sampleEntries()
	reg1, err := NewFromEntries(tools, materials, machines)
	require.NoError(t, err)
	reg2, err := NewFromEntries(tools, materials, machines)
	require.NoError(t, err)
	assert.Equal(t, reg1.SnapshotHash(), reg2.SnapshotHash())
	assert.NotEmpty(t, reg1.SnapshotHash())

	tools[0].DiameterMM = 8
	reg3, err := NewFromEntries(tools, materials, machines)
	require.NoError(t, err)
	assert.NotEqual(t, reg1.SnapshotHash(), reg3.SnapshotHash())
}

func TestRegistryRejectsMissingID(t *testing.T) {
	_, err := NewFromEntries([]Tool{{DiameterMM: 6}}, nil, nil)
	require.Error(t, err)
}

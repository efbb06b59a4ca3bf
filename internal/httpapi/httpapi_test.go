package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/rmos/internal/feasibility"
	"github.com/ocx/rmos/internal/kernel"
	"github.com/ocx/rmos/internal/registry"
	"github.com/ocx/rmos/internal/store"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	tools := []registry.Tool{
		{ToolID: "bit-6mm", Kind: registry.ToolKindRouterBit, DiameterMM: 6, FluteCount: 2,
			RecommendedChipload: 0.05, MaxRimSpeedMPM: 500, MaxDepthOfCutMM: 3},
	}
	materials := []registry.Material{
		{MaterialID: "maple-hard", HardnessClass: 0.6, BurnRiskThreshold: 0.3, TearoutSensitivity: 0.4},
	}
	machines := []registry.Machine{
		{MachineID: "shop-grbl-1", MaxFeedMMMin: 3000, PostID: "GRBL",
			Envelope: registry.Envelope{X: 600, Y: 400, Z: 100}},
	}
	reg, err := registry.NewFromEntries(tools, materials, machines)
	require.NoError(t, err)
	return reg
}

func testServer(t *testing.T) *Server {
	t.Helper()
	reg := testRegistry(t)
	engine := feasibility.NewEngine(reg)
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	pool := kernel.NewWorkerPool(2)
	return NewServer(reg, engine, st, nil, pool, nil, nil)
}

func goodFeasibilityBody() feasibilityRequest {
	return feasibilityRequest{
		ToolID:     "bit-6mm",
		MaterialID: "maple-hard",
		MachineID:  "shop-grbl-1",
		OpKind:     "pocket",
		OpParams: opParamsDTO{
			FeedXYMMMin: 1200, SpindleRPM: 18000, StepdownMM: 1.5, ZRoughMM: -1.5,
			Stepover: 0.45, Margin: 0, CornerRadiusMin: 1, Strategy: kernel.StrategySpiral,
			Climb: true, SafeZMM: 5, ArcTolMM: 0.05, SlowdownFeedPct: 40,
		},
		Design: designDTO{
			Loops: [][]pointDTO{
				{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 60}, {X: 0, Y: 60}},
			},
			BBoxX: 100, BBoxY: 60, BBoxZ: 1.5,
		},
	}
}

func postJSON(t *testing.T, s *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestFeasibilityEndpointReturnsGreenAndPersistsArtifact(t *testing.T) {
	s := testServer(t)
	rec := postJSON(t, s, "/api/rmos/feasibility", goodFeasibilityBody())
	require.Equal(t, http.StatusOK, rec.Code)

	var result feasibility.FeasibilityResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, feasibility.BucketGreen, result.RiskBucket)

	listRec := httptest.NewRecorder()
	listReq := httptest.NewRequest(http.MethodGet, "/api/rmos/runs?kind=feasibility", nil)
	s.ServeHTTP(listRec, listReq)
	require.Equal(t, http.StatusOK, listRec.Code)

	var list runsListResponse
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &list))
	assert.Len(t, list.Items, 1)
}

func TestToolpathsEndpointProducesGCodeOnGreen(t *testing.T) {
	s := testServer(t)
	rec := postJSON(t, s, "/api/rmos/toolpaths", goodFeasibilityBody())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp toolpathsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.GCodeText)
	assert.NotEmpty(t, resp.Hashes.GCodeSHA256)
	assert.NotEmpty(t, resp.Hashes.ToolpathsSHA256)

	getRec := httptest.NewRecorder()
	getReq := httptest.NewRequest(http.MethodGet, "/api/rmos/runs/"+resp.RunID, nil)
	s.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)

	var artifact store.RunArtifact
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &artifact))
	assert.Equal(t, store.StatusOK, artifact.Status)
	assert.Contains(t, []feasibility.RiskBucket{feasibility.BucketGreen, feasibility.BucketYellow}, artifact.Feasibility.RiskBucket)
}

func TestToolpathsEndpointBlocksOnExcessiveFeed(t *testing.T) {
	s := testServer(t)
	body := goodFeasibilityBody()
	body.OpParams.FeedXYMMMin = 50000 // drives chipload past CRITICAL
	rec := postJSON(t, s, "/api/rmos/toolpaths", body)
	require.Equal(t, http.StatusConflict, rec.Code)

	var blocked safetyBlockedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blocked))
	assert.Equal(t, "SAFETY_BLOCKED", blocked.Error)
	assert.Equal(t, feasibility.BucketRed, blocked.AuthoritativeFeasibility.RiskBucket)
}

func TestToolpathsEndpointIgnoresClientSuppliedFeasibility(t *testing.T) {
	s := testServer(t)
	body := goodFeasibilityBody()
	body.OpParams.FeedXYMMMin = 50000 // would be RED if actually evaluated
	b, err := json.Marshal(body)
	require.NoError(t, err)

	// Splice in a forged top-level "feasibility" claiming GREEN. Decoding
	// into feasibilityRequest, which has no such field, silently drops
	// it, so the engine never sees it.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	raw["feasibility"] = json.RawMessage(`{"risk_bucket":"GREEN","score":100}`)
	forged, err := json.Marshal(raw)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/rmos/toolpaths", bytes.NewReader(forged))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	// The feed is still objectively excessive, so the forged GREEN claim
	// must not have taken effect.
	require.Equal(t, http.StatusConflict, rec.Code)
	var blocked safetyBlockedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blocked))
	assert.Equal(t, feasibility.BucketRed, blocked.AuthoritativeFeasibility.RiskBucket)
}

func TestGetRunNotFound(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rmos/runs/does-not-exist", nil)
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

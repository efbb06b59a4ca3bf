package kernel

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// computeToolpathsHash hashes the canonical JSON of moves only, per spec
// §4.4's ToolpathPlan.toolpaths_hash definition: overlays and stats are
// display metadata and must never perturb addressing.
func computeToolpathsHash(moves []Move) string {
	data, _ := json.Marshal(moves)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

package postproc

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ocx/rmos/internal/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMoves() []kernel.Move {
	return []kernel.Move{
		{Seq: 0, Code: kernel.MoveRapid, X: 0, Y: 0, Z: 5},
		{Seq: 1, Code: kernel.MoveFeed, X: 0, Y: 0, Z: -1.5, F: 1200},
		{Seq: 2, Code: kernel.MoveFeed, X: 10, Y: 0, Z: -1.5, F: 1200},
		{Seq: 3, Code: kernel.MoveFeed, X: 10, Y: 10, Z: -1.5, F: 480, Meta: &kernel.MoveMeta{Slowdown: 0.4}},
		{Seq: 4, Code: kernel.MoveRapid, X: 10, Y: 10, Z: 5},
	}
}

func TestEmitGRBLStartsWithUnitsAndPlane(t *testing.T) {
	text, err := Emit(sampleMoves(), "GRBL")
	require.NoError(t, err)
	lines := strings.Split(text, "\n")
	assert.Equal(t, "G21 G90", lines[0])
	assert.Contains(t, lines[0], "G21")
	assert.Contains(t, lines[0], "G90")
	assert.Equal(t, "G17", lines[1])
	assert.True(t, strings.HasSuffix(text, "\n"))
}

func TestEmitUnknownPostNotFound(t *testing.T) {
	_, err := Emit(sampleMoves(), "nonexistent-dialect")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestEmitAxisModalOptSuppressesUnchangedAxes(t *testing.T) {
	text, err := Emit(sampleMoves(), "GRBL")
	require.NoError(t, err)
	// move 2 (X10 Y0 Z-1.5 F1200) keeps Y, Z and F from move 1: only X
	// should appear as a changed word on that line (plus the G1 code word).
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	var moveLine string
	for _, l := range lines {
		if strings.HasPrefix(l, "G1 X10") {
			moveLine = l
		}
	}
	require.NotEmpty(t, moveLine)
	assert.NotContains(t, moveLine, "Y0")
	assert.NotContains(t, moveLine, "Z-1")
}

func TestEmitHaasIsInchBasedWithoutModalOpt(t *testing.T) {
	text, err := Emit(sampleMoves(), "Haas")
	require.NoError(t, err)
	assert.Contains(t, text, "G20")
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for _, l := range lines {
		if strings.HasPrefix(l, "G1") {
			assert.Contains(t, l, "X")
			assert.Contains(t, l, "Y")
			assert.Contains(t, l, "Z")
		}
	}
}

func TestGCodeHashMatchesText(t *testing.T) {
	text, err := Emit(sampleMoves(), "GRBL")
	require.NoError(t, err)
	sum := sha256.Sum256([]byte(text))
	hash := hex.EncodeToString(sum[:])
	assert.Len(t, hash, 64)
}

func TestEmitSplitsArcExceedingDialectMaxSweep(t *testing.T) {
	// A 270-degree CCW arc of radius 10 centered on (0,10), starting at
	// (0,0) and ending at (-10,10). GRBL's MaxArcSweepDeg is 180, so this
	// must split into at least two G3 lines.
	moves := []kernel.Move{
		{Seq: 0, Code: kernel.MoveFeed, X: 0, Y: 0, Z: -1, F: 600},
		{Seq: 1, Code: kernel.MoveArcCCW, X: -10, Y: 10, Z: -1, F: 600, I: 0, J: 10},
	}
	text, err := Emit(moves, "GRBL")
	require.NoError(t, err)
	arcLines := 0
	lastArc := ""
	for _, l := range strings.Split(text, "\n") {
		if strings.HasPrefix(l, "G3") {
			arcLines++
			lastArc = l
		}
	}
	assert.GreaterOrEqual(t, arcLines, 2)
	// the last arc line must land exactly on the original endpoint
	assert.Contains(t, lastArc, "X-10")
	assert.Contains(t, lastArc, "Y10")
}

func TestEmitPassesThroughArcWithinDialectMaxSweep(t *testing.T) {
	// A 90-degree CCW quarter arc, same center as above, is within GRBL's
	// 180-degree limit.
	moves := []kernel.Move{
		{Seq: 0, Code: kernel.MoveFeed, X: 0, Y: 0, Z: -1, F: 600},
		{Seq: 1, Code: kernel.MoveArcCCW, X: 10, Y: 10, Z: -1, F: 600, I: 0, J: 10},
	}
	text, err := Emit(moves, "GRBL")
	require.NoError(t, err)
	arcLines := 0
	for _, l := range strings.Split(text, "\n") {
		if strings.HasPrefix(l, "G3") {
			arcLines++
		}
	}
	assert.Equal(t, 1, arcLines)
}

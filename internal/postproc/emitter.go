package postproc

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ocx/rmos/internal/kernel"
)

// ErrPostNotFound is returned by Emit for an unregistered post_id. It is
// a hard error; there is no fallback to a default dialect.
var ErrPostNotFound = errors.New("POST_NOT_FOUND")

const mmPerInch = 25.4

// Emit renders moves as G-code text for the named dialect.
func Emit(moves []kernel.Move, postID string) (string, error) {
	cfg, ok := builtinConfigs[postID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrPostNotFound, postID)
	}
	return cfg.emit(moves), nil
}

// axisState tracks the last emitted value per axis/feed for modal
// optimization: a word is only re-emitted once its value changes.
type axisState struct {
	x, y, z, f    float64
	xSet, ySet, zSet, fSet bool
}

func (cfg Config) emit(moves []kernel.Move) string {
	var b strings.Builder
	for _, line := range cfg.Header {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	var state axisState
	var curX, curY float64
	for _, m := range moves {
		for _, expanded := range cfg.splitArc(m, curX, curY) {
			b.WriteString(cfg.formatMove(expanded, &state))
			b.WriteByte('\n')
			curX, curY = expanded.X, expanded.Y
		}
	}

	for _, line := range cfg.Footer {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// splitArc breaks an arc move whose total sweep exceeds the dialect's
// max into multiple sub-arcs of equal sweep, each carrying the original
// feed. startX/startY are the machine position before m, the kernel
// doesn't carry it on the move itself, recovered from the emitter's own
// running position as moves are emitted in sequence. Non-arc moves, and
// arcs within the limit, pass through unchanged.
//
// The Adaptive Pocketing Kernel never emits G2/G3 today, corner fillets
// are flattened to G1 points by injectFillets before reaching here, so
// this path is presently unreached by rmos-server's own output. It stays
// real rather than stubbed for posts fed G2/G3 moves directly (tests,
// future kernel strategies that emit true arcs) and because MaxArcSweepDeg
// is itself a per-dialect safety limit worth enforcing rather than
// advertising and ignoring.
func (cfg Config) splitArc(m kernel.Move, startX, startY float64) []kernel.Move {
	if (m.Code != kernel.MoveArcCW && m.Code != kernel.MoveArcCCW) || cfg.MaxArcSweepDeg <= 0 {
		return []kernel.Move{m}
	}
	cx, cy := startX+m.I, startY+m.J
	radius := math.Hypot(m.I, m.J)
	if radius < 1e-9 {
		return []kernel.Move{m}
	}

	startAngle := math.Atan2(startY-cy, startX-cx)
	endAngle := math.Atan2(m.Y-cy, m.X-cx)
	cw := m.Code == kernel.MoveArcCW

	var sweep float64
	if cw {
		sweep = startAngle - endAngle
	} else {
		sweep = endAngle - startAngle
	}
	for sweep <= 0 {
		sweep += 2 * math.Pi
	}
	// A full circle (start == end) normalizes to a zero sweep above;
	// treat it as a complete revolution instead of a degenerate no-op arc.
	if closeDist := math.Hypot(m.X-startX, m.Y-startY); closeDist < 1e-9 {
		sweep = 2 * math.Pi
	}

	maxSweep := cfg.MaxArcSweepDeg * math.Pi / 180
	if sweep <= maxSweep {
		return []kernel.Move{m}
	}

	segments := int(math.Ceil(sweep / maxSweep))
	out := make([]kernel.Move, 0, segments)
	step := sweep / float64(segments)
	prevX, prevY := startX, startY
	for k := 1; k <= segments; k++ {
		var angle float64
		if cw {
			angle = startAngle - step*float64(k)
		} else {
			angle = startAngle + step*float64(k)
		}
		var x, y float64
		if k == segments {
			x, y = m.X, m.Y // land exactly on the original endpoint
		} else {
			x, y = cx+radius*math.Cos(angle), cy+radius*math.Sin(angle)
		}
		out = append(out, kernel.Move{
			Seq:  m.Seq,
			Code: m.Code,
			X:    x,
			Y:    y,
			Z:    m.Z,
			F:    m.F,
			I:    cx - prevX,
			J:    cy - prevY,
			Meta: m.Meta,
		})
		prevX, prevY = x, y
	}
	return out
}

func (cfg Config) formatMove(m kernel.Move, state *axisState) string {
	word, ok := moveFormat[m.Code]
	if !ok {
		word = string(m.Code)
	}
	var parts []string
	parts = append(parts, word)

	x, y, z := m.X, m.Y, m.Z
	i, j := m.I, m.J
	if cfg.InchBased {
		x, y, z = x/mmPerInch, y/mmPerInch, z/mmPerInch
		i, j = i/mmPerInch, j/mmPerInch
	}

	for _, axis := range cfg.AxisOrder {
		switch axis {
		case "X":
			if !cfg.AxisModalOpt || !state.xSet || !floatEqual(state.x, x) {
				parts = append(parts, cfg.axisWord("X", x))
				state.x, state.xSet = x, true
			}
		case "Y":
			if !cfg.AxisModalOpt || !state.ySet || !floatEqual(state.y, y) {
				parts = append(parts, cfg.axisWord("Y", y))
				state.y, state.ySet = y, true
			}
		case "Z":
			if !cfg.AxisModalOpt || !state.zSet || !floatEqual(state.z, z) {
				parts = append(parts, cfg.axisWord("Z", z))
				state.z, state.zSet = z, true
			}
		}
	}

	if m.Code == kernel.MoveArcCW || m.Code == kernel.MoveArcCCW {
		if cfg.ArcMode == ArcModeR {
			r := math.Hypot(i, j)
			parts = append(parts, cfg.axisWord("R", r))
		} else {
			parts = append(parts, cfg.axisWord("I", i), cfg.axisWord("J", j))
		}
	}

	if m.F > 0 && (!cfg.AxisModalOpt || !state.fSet || !floatEqual(state.f, m.F)) {
		parts = append(parts, fmt.Sprintf("F%.1f", m.F))
		state.f, state.fSet = m.F, true
	}

	return strings.Join(parts, " ")
}

func (cfg Config) axisWord(axis string, v float64) string {
	return fmt.Sprintf("%s%.*f", axis, cfg.DecimalPlaces, v)
}

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

package postproc

// Built-in dialect configs. Each is pure data; adding a machine is
// adding an entry here, never a new code path in the emitter.
var builtinConfigs = map[string]Config{
	"GRBL": {
		PostID:         "GRBL",
		Header:         []string{"G21 G90", "G17"},
		Footer:         []string{"M5", "M2"},
		AxisOrder:      []string{"X", "Y", "Z"},
		ArcMode:        ArcModeIJ,
		AxisModalOpt:   true,
		MaxArcSweepDeg: 180,
		DecimalPlaces:  4,
	},
	"Mach": {
		PostID:         "Mach",
		Header:         []string{"G21", "G90", "G94"},
		Footer:         []string{"M5", "M30"},
		AxisOrder:      []string{"X", "Y", "Z"},
		ArcMode:        ArcModeIJ,
		AxisModalOpt:   true,
		MaxArcSweepDeg: 360,
		DecimalPlaces:  4,
	},
	"Haas": {
		PostID:         "Haas",
		Header:         []string{"%", "G20", "G90", "G94"},
		Footer:         []string{"M5", "M30", "%"},
		AxisOrder:      []string{"X", "Y", "Z"},
		ArcMode:        ArcModeR,
		AxisModalOpt:   false,
		MaxArcSweepDeg: 180,
		InchBased:      true,
		DecimalPlaces:  5,
	},
	"LinuxCNC": {
		PostID:         "LinuxCNC",
		Header:         []string{"G21", "G90", "G40"},
		Footer:         []string{"M5", "M2"},
		AxisOrder:      []string{"X", "Y", "Z"},
		ArcMode:        ArcModeIJ,
		AxisModalOpt:   true,
		MaxArcSweepDeg: 360,
		DecimalPlaces:  4,
	},
	"Marlin": {
		PostID:         "Marlin",
		Header:         []string{"G21", "G90", "M203"},
		Footer:         []string{"M84"},
		AxisOrder:      []string{"X", "Y", "Z"},
		ArcMode:        ArcModeIJ,
		AxisModalOpt:   true,
		MaxArcSweepDeg: 180,
		DecimalPlaces:  3,
	},
	"PathPilot": {
		PostID:         "PathPilot",
		Header:         []string{"G21", "G90", "G64 P0.01"},
		Footer:         []string{"M5", "M2"},
		AxisOrder:      []string{"X", "Y", "Z"},
		ArcMode:        ArcModeIJ,
		AxisModalOpt:   true,
		MaxArcSweepDeg: 360,
		DecimalPlaces:  4,
	},
}

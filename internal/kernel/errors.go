package kernel

import "errors"

// Sentinel errors for the kernel's deterministic failure modes (spec §4.3).
// These are ordinary result variants at the component boundary, not control
// flow exceptions, the façade switches on them to produce BLOCKED
// artifacts and 400 responses rather than 500s.
var (
	ErrPocketTooSmall      = errors.New("POCKET_TOO_SMALL")
	ErrToolTooLarge        = errors.New("TOOL_TOO_LARGE")
	ErrGeometryInvalid     = errors.New("GEOMETRY_INVALID")
	ErrParameterOutOfRange = errors.New("PARAMETER_OUT_OF_RANGE")
)

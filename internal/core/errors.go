package core

import "errors"

// ErrGeometryInvalid is returned when a region constructor receives
// degenerate input (empty box range, non-positive radius, collapsed
// polygon).
var ErrGeometryInvalid = errors.New("core: invalid geometry")

package resolve

import (
	"math"

	"github.com/tOgg1/visrange/internal/models"
)

// Side says which edge of a range a boundary is being resolved as. It only
// matters for Infinite boundaries.
type Side int

const (
	SideStart Side = iota
	SideEnd
)

// ResolveBoundary turns a boundary into a concrete time for the given cursor.
//
//   - Absolute returns its time, whatever the cursor.
//   - RelativeToCursor returns cursor+offset, saturating at the int64 limits.
//   - Infinite returns -inf as a start and +inf as an end.
//
// A nil boundary is treated as Infinite.
func ResolveBoundary(b models.Boundary, cursor models.TimeInt, side Side) ExtendedTime {
	switch v := b.(type) {
	case models.Absolute:
		return Finite(v.Time)
	case models.RelativeToCursor:
		return Finite(SaturatingAdd(cursor, v.Offset))
	default:
		if side == SideStart {
			return NegInfinity()
		}
		return PosInfinity()
	}
}

// SaturatingAdd returns a+b clamped to [MinTimeInt, MaxTimeInt].
func SaturatingAdd(a, b models.TimeInt) models.TimeInt {
	if b > 0 && a > math.MaxInt64-b {
		return models.MaxTimeInt
	}
	if b < 0 && a < math.MinInt64-b {
		return models.MinTimeInt
	}
	return a + b
}

package resolve

import (
	"fmt"

	"github.com/tOgg1/visrange/internal/models"
)

// Range is a resolved, inclusive [Low, High] window. Low > High is kept as-is
// and means the window is empty; the bounds are never swapped.
type Range struct {
	Low  ExtendedTime `json:"low"`
	High ExtendedTime `json:"high"`
}

// ResolveRange resolves both edges of r against the cursor.
func ResolveRange(r models.TimeRange, cursor models.TimeInt) Range {
	return Range{
		Low:  ResolveBoundary(r.Start, cursor, SideStart),
		High: ResolveBoundary(r.End, cursor, SideEnd),
	}
}

// Everything is the (-inf, +inf) range.
func Everything() Range {
	return Range{Low: NegInfinity(), High: PosInfinity()}
}

// IsEmpty reports a degenerate range (Low > High). Queries over it return no
// points.
func (r Range) IsEmpty() bool {
	return r.Low.Compare(r.High) > 0
}

// IsEverything reports whether both ends are unbounded.
func (r Range) IsEverything() bool {
	return r.Low.IsNegInfinity() && r.High.IsPosInfinity()
}

// Contains reports whether t lies in [Low, High]. Always false for an empty
// range.
func (r Range) Contains(t models.TimeInt) bool {
	v := Finite(t)
	return r.Low.Compare(v) <= 0 && v.Compare(r.High) <= 0
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s]", r.Low, r.High)
}

// Package resolve turns visible-range configuration into concrete query
// windows. Everything here is a pure function of its arguments: no I/O, no
// shared state, safe to call from any number of goroutines.
package resolve

import (
	"encoding/json"
	"strconv"

	"github.com/tOgg1/visrange/internal/models"
)

// ExtendedTime is a TimeInt extended with -inf and +inf.
type ExtendedTime struct {
	// inf is -1 for -inf, +1 for +inf, 0 for a finite value.
	inf   int8
	value models.TimeInt
}

// NegInfinity is below every finite time.
func NegInfinity() ExtendedTime { return ExtendedTime{inf: -1} }

// PosInfinity is above every finite time.
func PosInfinity() ExtendedTime { return ExtendedTime{inf: 1} }

// Finite wraps a concrete time.
func Finite(value models.TimeInt) ExtendedTime { return ExtendedTime{value: value} }

func (t ExtendedTime) IsNegInfinity() bool { return t.inf < 0 }
func (t ExtendedTime) IsPosInfinity() bool { return t.inf > 0 }
func (t ExtendedTime) IsFinite() bool      { return t.inf == 0 }

// Value returns the finite value, or false for either infinity.
func (t ExtendedTime) Value() (models.TimeInt, bool) {
	if t.inf != 0 {
		return 0, false
	}
	return t.value, true
}

// Compare returns -1, 0 or +1.
func (t ExtendedTime) Compare(other ExtendedTime) int {
	switch {
	case t.inf != other.inf:
		if t.inf < other.inf {
			return -1
		}
		return 1
	case t.inf != 0:
		return 0
	case t.value < other.value:
		return -1
	case t.value > other.value:
		return 1
	default:
		return 0
	}
}

// Clamp returns the finite value closest to t: MinTimeInt for -inf and
// MaxTimeInt for +inf.
func (t ExtendedTime) Clamp() models.TimeInt {
	switch {
	case t.inf < 0:
		return models.MinTimeInt
	case t.inf > 0:
		return models.MaxTimeInt
	default:
		return t.value
	}
}

func (t ExtendedTime) String() string {
	switch {
	case t.inf < 0:
		return "-inf"
	case t.inf > 0:
		return "+inf"
	default:
		return strconv.FormatInt(int64(t.value), 10)
	}
}

// MarshalJSON writes finite values as numbers and infinities as "-inf"/"+inf".
func (t ExtendedTime) MarshalJSON() ([]byte, error) {
	if t.inf != 0 {
		return json.Marshal(t.String())
	}
	return json.Marshal(int64(t.value))
}

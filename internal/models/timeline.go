// Package models defines the core domain types for visrange.
package models

import (
	"errors"
	"math"
	"time"
)

// TimeInt is a point on a timeline: nanoseconds for time timelines, a plain
// index for sequence timelines.
type TimeInt int64

const (
	MinTimeInt TimeInt = math.MinInt64
	MaxTimeInt TimeInt = math.MaxInt64
)

// TimeIntFromDuration converts a duration into nanoseconds on a time timeline.
func TimeIntFromDuration(d time.Duration) TimeInt {
	return TimeInt(d.Nanoseconds())
}

// TimelineKind tells how TimeInt values on a timeline are interpreted.
type TimelineKind string

const (
	TimelineKindTime     TimelineKind = "time"
	TimelineKindSequence TimelineKind = "sequence"
)

// ErrInvalidTimelineKind is returned for unknown timeline kinds.
var ErrInvalidTimelineKind = errors.New("invalid timeline kind")

// Validate checks that the kind is known.
func (k TimelineKind) Validate() error {
	switch k {
	case TimelineKindTime, TimelineKindSequence:
		return nil
	default:
		return ErrInvalidTimelineKind
	}
}

// Timeline names an axis along which logged values are ordered.
type Timeline struct {
	// Name is an opaque, case-sensitive key.
	Name string `json:"name" yaml:"name"`

	// Kind is how values on this timeline are interpreted.
	Kind TimelineKind `json:"kind" yaml:"kind"`
}

// FormatTime renders a value the way the timeline interprets it.
func (t Timeline) FormatTime(value TimeInt) string {
	if t.Kind == TimelineKindTime {
		return time.Duration(value).String()
	}
	return formatInt(int64(value))
}

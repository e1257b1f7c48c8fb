package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BoundaryKind is the closed set of ways a range edge can be expressed.
type BoundaryKind string

const (
	BoundaryKindRelativeToCursor BoundaryKind = "relative_to_cursor"
	BoundaryKindAbsolute         BoundaryKind = "absolute"
	BoundaryKindInfinite         BoundaryKind = "infinite"
)

// Boundary errors.
var (
	ErrInvalidBoundaryKind = errors.New("invalid boundary kind")
	ErrInvalidBoundary     = errors.New("invalid boundary")
	ErrMissingBoundary     = errors.New("boundary is required")
)

// Boundary is one edge of a visible range. The only implementations are
// RelativeToCursor, Absolute and Infinite.
type Boundary interface {
	Kind() BoundaryKind
	String() string
	isBoundary()
}

// RelativeToCursor is an offset from the time cursor.
type RelativeToCursor struct {
	Offset TimeInt
}

// Absolute is a fixed instant, independent of the cursor.
type Absolute struct {
	Time TimeInt
}

// Infinite is an unbounded edge: -inf as a start, +inf as an end.
type Infinite struct{}

func (RelativeToCursor) Kind() BoundaryKind { return BoundaryKindRelativeToCursor }
func (Absolute) Kind() BoundaryKind         { return BoundaryKindAbsolute }
func (Infinite) Kind() BoundaryKind         { return BoundaryKindInfinite }

func (RelativeToCursor) isBoundary() {}
func (Absolute) isBoundary()         {}
func (Infinite) isBoundary()         {}

func (b RelativeToCursor) String() string {
	if b.Offset == 0 {
		return "cursor"
	}
	return "rel:" + formatInt(int64(b.Offset))
}

func (b Absolute) String() string {
	return "abs:" + formatInt(int64(b.Time))
}

func (Infinite) String() string {
	return "inf"
}

// NewBoundary builds a boundary from a kind and a time value. The time value
// is dropped for Infinite.
func NewBoundary(kind BoundaryKind, value TimeInt) (Boundary, error) {
	switch kind {
	case BoundaryKindRelativeToCursor:
		return RelativeToCursor{Offset: value}, nil
	case BoundaryKindAbsolute:
		return Absolute{Time: value}, nil
	case BoundaryKindInfinite:
		return Infinite{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidBoundaryKind, kind)
	}
}

// BoundaryTime returns the time value carried by a boundary and whether it
// carries one at all.
func BoundaryTime(b Boundary) (TimeInt, bool) {
	switch v := b.(type) {
	case RelativeToCursor:
		return v.Offset, true
	case Absolute:
		return v.Time, true
	default:
		return 0, false
	}
}

// ParseBoundary parses the short text form used on the command line and in
// layout files:
//
//	inf | infinite
//	cursor              (same as rel:0)
//	rel:<value>         offset from the cursor
//	abs:<value>         fixed instant
//
// A value is an integer, or a Go duration (e.g. -5s) when the timeline kind is
// time.
func ParseBoundary(text string, kind TimelineKind) (Boundary, error) {
	text = strings.TrimSpace(text)
	switch strings.ToLower(text) {
	case "":
		return nil, ErrMissingBoundary
	case "inf", "infinite", "-inf", "+inf":
		return Infinite{}, nil
	case "cursor":
		return RelativeToCursor{}, nil
	}

	prefix, raw, ok := strings.Cut(text, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %q (expected inf, cursor, rel:<n> or abs:<n>)", ErrInvalidBoundary, text)
	}
	value, err := parseTimeValue(raw, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidBoundary, text, err)
	}

	switch strings.ToLower(prefix) {
	case "rel", "relative":
		return RelativeToCursor{Offset: value}, nil
	case "abs", "absolute":
		return Absolute{Time: value}, nil
	default:
		return nil, fmt.Errorf("%w: unknown prefix %q", ErrInvalidBoundary, prefix)
	}
}

func parseTimeValue(raw string, kind TimelineKind) (TimeInt, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return TimeInt(n), nil
	}
	if kind != TimelineKindTime {
		return 0, fmt.Errorf("expected integer for %s timeline", kind)
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return TimeIntFromDuration(d), nil
}

// boundaryDoc is the document shape of a boundary in JSON and YAML.
type boundaryDoc struct {
	Kind BoundaryKind `json:"kind" yaml:"kind"`
	Time *TimeInt     `json:"time,omitempty" yaml:"time,omitempty"`
}

func toBoundaryDoc(b Boundary) boundaryDoc {
	if b == nil {
		return boundaryDoc{Kind: BoundaryKindInfinite}
	}
	doc := boundaryDoc{Kind: b.Kind()}
	if value, ok := BoundaryTime(b); ok {
		doc.Time = &value
	}
	return doc
}

func (d boundaryDoc) boundary() (Boundary, error) {
	var value TimeInt
	if d.Time != nil {
		value = *d.Time
	}
	if d.Kind == "" {
		return nil, ErrMissingBoundary
	}
	if d.Kind != BoundaryKindInfinite && d.Time == nil {
		return nil, fmt.Errorf("%w: %s boundary requires a time", ErrInvalidBoundary, d.Kind)
	}
	return NewBoundary(d.Kind, value)
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

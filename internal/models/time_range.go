package models

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// TimeRange is the configured visible window of one timeline. Nothing forces
// Start to resolve before End; an inverted window is only detected when it is
// resolved against a cursor.
type TimeRange struct {
	Start Boundary
	End   Boundary
}

// EverythingRange is the unbounded range covering the whole timeline.
func EverythingRange() TimeRange {
	return TimeRange{Start: Infinite{}, End: Infinite{}}
}

// RelativeRange is a window around the cursor.
func RelativeRange(start, end TimeInt) TimeRange {
	return TimeRange{Start: RelativeToCursor{Offset: start}, End: RelativeToCursor{Offset: end}}
}

// AbsoluteRange is a fixed window.
func AbsoluteRange(start, end TimeInt) TimeRange {
	return TimeRange{Start: Absolute{Time: start}, End: Absolute{Time: end}}
}

// Validate reports missing boundaries.
func (r TimeRange) Validate() error {
	validation := &ValidationErrors{}
	if r.Start == nil {
		validation.Add("start", ErrMissingBoundary)
	}
	if r.End == nil {
		validation.Add("end", ErrMissingBoundary)
	}
	return validation.Err()
}

// Equal reports whether both ranges have the same boundaries.
func (r TimeRange) Equal(other TimeRange) bool {
	return toBoundaryDoc(r.Start).equal(toBoundaryDoc(other.Start)) &&
		toBoundaryDoc(r.End).equal(toBoundaryDoc(other.End))
}

func (d boundaryDoc) equal(other boundaryDoc) bool {
	if d.Kind != other.Kind {
		return false
	}
	if d.Kind == BoundaryKindInfinite {
		return true
	}
	return d.Time != nil && other.Time != nil && *d.Time == *other.Time
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%s, %s]", boundaryString(r.Start), boundaryString(r.End))
}

func boundaryString(b Boundary) string {
	if b == nil {
		return "<unset>"
	}
	return b.String()
}

type timeRangeDoc struct {
	Start boundaryDoc `json:"start" yaml:"start"`
	End   boundaryDoc `json:"end" yaml:"end"`
}

func (d timeRangeDoc) timeRange() (TimeRange, error) {
	validation := &ValidationErrors{}
	start, err := d.Start.boundary()
	validation.Add("start", err)
	end, err := d.End.boundary()
	validation.Add("end", err)
	if err := validation.Err(); err != nil {
		return TimeRange{}, err
	}
	return TimeRange{Start: start, End: end}, nil
}

// MarshalJSON implements json.Marshaler.
func (r TimeRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeRangeDoc{Start: toBoundaryDoc(r.Start), End: toBoundaryDoc(r.End)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *TimeRange) UnmarshalJSON(data []byte) error {
	var doc timeRangeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	parsed, err := doc.timeRange()
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r TimeRange) MarshalYAML() (interface{}, error) {
	return timeRangeDoc{Start: toBoundaryDoc(r.Start), End: toBoundaryDoc(r.End)}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Each boundary is either a
// mapping ({kind, time}) or a scalar in ParseBoundary syntax.
func (r *TimeRange) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Start yaml.Node `yaml:"start"`
		End   yaml.Node `yaml:"end"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	validation := &ValidationErrors{}
	start, err := decodeYAMLBoundary(&raw.Start)
	validation.Add("start", err)
	end, err := decodeYAMLBoundary(&raw.End)
	validation.Add("end", err)
	if err := validation.Err(); err != nil {
		return err
	}

	*r = TimeRange{Start: start, End: end}
	return nil
}

func decodeYAMLBoundary(node *yaml.Node) (Boundary, error) {
	switch node.Kind {
	case 0:
		return nil, ErrMissingBoundary
	case yaml.ScalarNode:
		return ParseBoundary(node.Value, TimelineKindTime)
	default:
		var doc boundaryDoc
		if err := node.Decode(&doc); err != nil {
			return nil, err
		}
		return doc.boundary()
	}
}

package models

import (
	"errors"
	"fmt"
)

// ErrMissingTimelineName is returned when an entry has no timeline name.
var ErrMissingTimelineName = errors.New("timeline name is required")

// VisibleTimeRange associates a configured range with a named timeline.
type VisibleTimeRange struct {
	// Timeline is the timeline name. Matching is exact and case-sensitive.
	Timeline string `json:"timeline" yaml:"timeline"`

	// Range is the configured window.
	Range TimeRange `json:"range" yaml:"range"`
}

// Validate checks the entry.
func (v VisibleTimeRange) Validate() error {
	validation := &ValidationErrors{}
	if v.Timeline == "" {
		validation.Add("timeline", ErrMissingTimelineName)
	}
	validation.Add("range", v.Range.Validate())
	return validation.Err()
}

// VisibleTimeRanges is the set of ranges configured in one scope: the
// defaults of a view, or the overrides of one entity within a view.
type VisibleTimeRanges []VisibleTimeRange

// RangeForTimeline returns the range configured for a timeline. When a name
// is listed more than once the later entry wins.
func (v VisibleTimeRanges) RangeForTimeline(timeline string) (TimeRange, bool) {
	for i := len(v) - 1; i >= 0; i-- {
		if v[i].Timeline == timeline {
			return v[i].Range, true
		}
	}
	return TimeRange{}, false
}

// With returns a copy with the range for timeline set, replacing any existing
// entry for the same name in place.
func (v VisibleTimeRanges) With(timeline string, r TimeRange) VisibleTimeRanges {
	out := make(VisibleTimeRanges, 0, len(v)+1)
	replaced := false
	for _, entry := range v {
		if entry.Timeline == timeline {
			if replaced {
				continue
			}
			entry.Range = r
			replaced = true
		}
		out = append(out, entry)
	}
	if !replaced {
		out = append(out, VisibleTimeRange{Timeline: timeline, Range: r})
	}
	return out
}

// Without returns a copy with every entry for timeline removed.
func (v VisibleTimeRanges) Without(timeline string) VisibleTimeRanges {
	out := make(VisibleTimeRanges, 0, len(v))
	for _, entry := range v {
		if entry.Timeline != timeline {
			out = append(out, entry)
		}
	}
	return out
}

// Normalized collapses duplicate names so each timeline appears once, at the
// position of its first occurrence, holding the value of its last.
func (v VisibleTimeRanges) Normalized() VisibleTimeRanges {
	out := make(VisibleTimeRanges, 0, len(v))
	index := make(map[string]int, len(v))
	for _, entry := range v {
		if i, ok := index[entry.Timeline]; ok {
			out[i].Range = entry.Range
			continue
		}
		index[entry.Timeline] = len(out)
		out = append(out, entry)
	}
	return out
}

// Timelines lists the configured timeline names, without duplicates.
func (v VisibleTimeRanges) Timelines() []string {
	names := make([]string, 0, len(v))
	for _, entry := range v.Normalized() {
		names = append(names, entry.Timeline)
	}
	return names
}

// Validate checks every entry.
func (v VisibleTimeRanges) Validate() error {
	validation := &ValidationErrors{}
	for i, entry := range v {
		validation.Add(fmt.Sprintf("ranges[%d]", i), entry.Validate())
	}
	return validation.Err()
}

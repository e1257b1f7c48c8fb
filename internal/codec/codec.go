// Package codec encodes visible-range configuration in the protobuf wire
// format. Fields are written and read by tag number, so the layout of the Go
// types has no bearing on the bytes; decoders accept fields in any order and
// skip tags they do not know.
package codec

import (
	"errors"
	"fmt"

	"github.com/tOgg1/visrange/internal/models"
	"google.golang.org/protobuf/encoding/protowire"
)

// Codec errors.
var (
	ErrMalformed    = errors.New("malformed visible range data")
	ErrMissingField = errors.New("missing required field")
	ErrUnknownKind  = errors.New("unknown boundary kind")
)

// Field tags. These numbers are the wire contract.
const (
	// Boundary
	tagBoundaryKind protowire.Number = 1
	tagBoundaryTime protowire.Number = 2

	// TimeRange
	tagRangeStart protowire.Number = 1
	tagRangeEnd   protowire.Number = 2

	// VisibleTimeRange
	tagEntryTimeline protowire.Number = 1
	tagEntryRange    protowire.Number = 2

	// VisibleTimeRanges
	tagRangesEntry protowire.Number = 1
)

// Wire values of BoundaryKind. Zero is reserved as "unset".
const (
	wireKindRelativeToCursor uint64 = 1
	wireKindAbsolute         uint64 = 2
	wireKindInfinite         uint64 = 3
)

func kindToWire(kind models.BoundaryKind) (uint64, error) {
	switch kind {
	case models.BoundaryKindRelativeToCursor:
		return wireKindRelativeToCursor, nil
	case models.BoundaryKindAbsolute:
		return wireKindAbsolute, nil
	case models.BoundaryKindInfinite:
		return wireKindInfinite, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func kindFromWire(value uint64) (models.BoundaryKind, error) {
	switch value {
	case wireKindRelativeToCursor:
		return models.BoundaryKindRelativeToCursor, nil
	case wireKindAbsolute:
		return models.BoundaryKindAbsolute, nil
	case wireKindInfinite:
		return models.BoundaryKindInfinite, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownKind, value)
	}
}

// AppendBoundary appends the encoding of b. The time field is omitted for
// Infinite boundaries.
func AppendBoundary(buf []byte, b models.Boundary) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: boundary", ErrMissingField)
	}
	kind, err := kindToWire(b.Kind())
	if err != nil {
		return nil, err
	}
	buf = protowire.AppendTag(buf, tagBoundaryKind, protowire.VarintType)
	buf = protowire.AppendVarint(buf, kind)
	if value, ok := models.BoundaryTime(b); ok {
		buf = protowire.AppendTag(buf, tagBoundaryTime, protowire.VarintType)
		buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(int64(value)))
	}
	return buf, nil
}

// AppendTimeRange appends the encoding of r.
func AppendTimeRange(buf []byte, r models.TimeRange) ([]byte, error) {
	start, err := AppendBoundary(nil, r.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, err := AppendBoundary(nil, r.End)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}
	buf = protowire.AppendTag(buf, tagRangeStart, protowire.BytesType)
	buf = protowire.AppendBytes(buf, start)
	buf = protowire.AppendTag(buf, tagRangeEnd, protowire.BytesType)
	buf = protowire.AppendBytes(buf, end)
	return buf, nil
}

// AppendVisibleTimeRange appends the encoding of one entry.
func AppendVisibleTimeRange(buf []byte, entry models.VisibleTimeRange) ([]byte, error) {
	if entry.Timeline == "" {
		return nil, fmt.Errorf("%w: timeline", ErrMissingField)
	}
	r, err := AppendTimeRange(nil, entry.Range)
	if err != nil {
		return nil, fmt.Errorf("timeline %q: %w", entry.Timeline, err)
	}
	buf = protowire.AppendTag(buf, tagEntryTimeline, protowire.BytesType)
	buf = protowire.AppendString(buf, entry.Timeline)
	buf = protowire.AppendTag(buf, tagEntryRange, protowire.BytesType)
	buf = protowire.AppendBytes(buf, r)
	return buf, nil
}

// MarshalVisibleTimeRanges encodes a configuration scope. An empty scope
// encodes to zero bytes.
func MarshalVisibleTimeRanges(ranges models.VisibleTimeRanges) ([]byte, error) {
	var buf []byte
	for i, entry := range ranges {
		encoded, err := AppendVisibleTimeRange(nil, entry)
		if err != nil {
			return nil, fmt.Errorf("ranges[%d]: %w", i, err)
		}
		buf = protowire.AppendTag(buf, tagRangesEntry, protowire.BytesType)
		buf = protowire.AppendBytes(buf, encoded)
	}
	return buf, nil
}

// field is one decoded tag/value pair.
type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

// walk calls fn for each field in data. Unknown wire types are skipped.
func walk(data []byte, fn func(field) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(m))
			}
			f.varint = v
			n = m
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(m))
			}
			f.bytes = v
			n = m
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(m))
			}
			data = data[m:]
			continue
		}
		data = data[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalBoundary decodes one boundary. The time field of an Infinite
// boundary is ignored.
func UnmarshalBoundary(data []byte) (models.Boundary, error) {
	var (
		kind    uint64
		value   int64
		hasKind bool
		hasTime bool
	)
	err := walk(data, func(f field) error {
		switch {
		case f.num == tagBoundaryKind && f.typ == protowire.VarintType:
			kind, hasKind = f.varint, true
		case f.num == tagBoundaryTime && f.typ == protowire.VarintType:
			value, hasTime = protowire.DecodeZigZag(f.varint), true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !hasKind {
		return nil, fmt.Errorf("%w: boundary kind", ErrMissingField)
	}
	boundaryKind, err := kindFromWire(kind)
	if err != nil {
		return nil, err
	}
	if boundaryKind != models.BoundaryKindInfinite && !hasTime {
		return nil, fmt.Errorf("%w: %s boundary time", ErrMissingField, boundaryKind)
	}
	return models.NewBoundary(boundaryKind, models.TimeInt(value))
}

// UnmarshalTimeRange decodes a time range.
func UnmarshalTimeRange(data []byte) (models.TimeRange, error) {
	var (
		r        models.TimeRange
		startRaw []byte
		endRaw   []byte
	)
	err := walk(data, func(f field) error {
		switch {
		case f.num == tagRangeStart && f.typ == protowire.BytesType:
			startRaw = f.bytes
		case f.num == tagRangeEnd && f.typ == protowire.BytesType:
			endRaw = f.bytes
		}
		return nil
	})
	if err != nil {
		return r, err
	}
	if startRaw == nil {
		return r, fmt.Errorf("%w: range start", ErrMissingField)
	}
	if endRaw == nil {
		return r, fmt.Errorf("%w: range end", ErrMissingField)
	}

	if r.Start, err = UnmarshalBoundary(startRaw); err != nil {
		return models.TimeRange{}, fmt.Errorf("start: %w", err)
	}
	if r.End, err = UnmarshalBoundary(endRaw); err != nil {
		return models.TimeRange{}, fmt.Errorf("end: %w", err)
	}
	return r, nil
}

// UnmarshalVisibleTimeRange decodes one entry.
func UnmarshalVisibleTimeRange(data []byte) (models.VisibleTimeRange, error) {
	var (
		entry       models.VisibleTimeRange
		rangeRaw    []byte
		hasTimeline bool
	)
	err := walk(data, func(f field) error {
		switch {
		case f.num == tagEntryTimeline && f.typ == protowire.BytesType:
			entry.Timeline, hasTimeline = string(f.bytes), true
		case f.num == tagEntryRange && f.typ == protowire.BytesType:
			rangeRaw = f.bytes
		}
		return nil
	})
	if err != nil {
		return entry, err
	}
	if !hasTimeline || entry.Timeline == "" {
		return entry, fmt.Errorf("%w: timeline", ErrMissingField)
	}
	if rangeRaw == nil {
		return entry, fmt.Errorf("%w: range for timeline %q", ErrMissingField, entry.Timeline)
	}
	if entry.Range, err = UnmarshalTimeRange(rangeRaw); err != nil {
		return entry, fmt.Errorf("timeline %q: %w", entry.Timeline, err)
	}
	return entry, nil
}

// UnmarshalVisibleTimeRanges decodes a configuration scope. Empty input
// yields an empty scope, which resolves as "not configured".
func UnmarshalVisibleTimeRanges(data []byte) (models.VisibleTimeRanges, error) {
	var out models.VisibleTimeRanges
	err := walk(data, func(f field) error {
		if f.num != tagRangesEntry || f.typ != protowire.BytesType {
			return nil
		}
		entry, err := UnmarshalVisibleTimeRange(f.bytes)
		if err != nil {
			return fmt.Errorf("ranges[%d]: %w", len(out), err)
		}
		out = append(out, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

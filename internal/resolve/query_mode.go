package resolve

import (
	"fmt"

	"github.com/tOgg1/visrange/internal/models"
)

// QueryKind selects how data is fetched.
type QueryKind string

const (
	// QueryKindRange fetches every point with Low <= t <= High.
	QueryKindRange QueryKind = "range"

	// QueryKindLatestAt fetches the single latest point with t <= cursor.
	QueryKindLatestAt QueryKind = "latest_at"
)

// Source records which configuration tier produced a query mode.
type Source string

const (
	SourceEntityOverride Source = "entity_override"
	SourceViewDefault    Source = "view_default"
	SourceClassDefault   Source = "class_default"
)

// QueryMode is the resolved query for one (view, entity, timeline).
type QueryMode struct {
	Kind QueryKind `json:"kind"`

	// Range is set when Kind is QueryKindRange.
	Range *Range `json:"range,omitempty"`

	// At is the cursor; it is the query instant when Kind is QueryKindLatestAt.
	At models.TimeInt `json:"at"`

	Source Source `json:"source"`
}

// RangeMode builds a range query.
func RangeMode(r Range, source Source) QueryMode {
	return QueryMode{Kind: QueryKindRange, Range: &r, Source: source}
}

// LatestAtMode builds a latest-at query.
func LatestAtMode(cursor models.TimeInt, source Source) QueryMode {
	return QueryMode{Kind: QueryKindLatestAt, At: cursor, Source: source}
}

// IsRange reports whether this is a range query.
func (m QueryMode) IsRange() bool {
	return m.Kind == QueryKindRange
}

// IsEmpty reports a range query over a degenerate window.
func (m QueryMode) IsEmpty() bool {
	return m.Kind == QueryKindRange && m.Range != nil && m.Range.IsEmpty()
}

func (m QueryMode) String() string {
	if m.Kind == QueryKindRange && m.Range != nil {
		return fmt.Sprintf("range%s", *m.Range)
	}
	return fmt.Sprintf("latest_at(%d)", m.At)
}

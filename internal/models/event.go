package models

import (
	"encoding/json"
	"time"
)

// EventType names a change to the layout.
type EventType string

const (
	EventTypeViewAdded   EventType = "view.added"
	EventTypeViewRemoved EventType = "view.removed"

	EventTypeViewRangeSet       EventType = "view_range.set"
	EventTypeViewRangeCleared   EventType = "view_range.cleared"
	EventTypeEntityRangeSet     EventType = "entity_range.set"
	EventTypeEntityRangeCleared EventType = "entity_range.cleared"

	EventTypeLayoutReplaced EventType = "layout.replaced"
)

// EntityType says what EntityID refers to.
type EntityType string

const (
	EntityTypeView   EntityType = "view"
	EntityTypeEntity EntityType = "entity" // EntityID is an EntityPath
	EntityTypeLayout EntityType = "layout"
)

// Event is one recorded layout change. Metadata carries the owning view
// under "view_id" so history can be filtered per view.
type Event struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Type       EventType         `json:"type"`
	EntityType EntityType        `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// RangeChangedPayload is the payload for *_range.set and *_range.cleared events.
type RangeChangedPayload struct {
	ViewID   string     `json:"view_id"`
	Entity   EntityPath `json:"entity,omitempty"`
	Timeline string     `json:"timeline"`
	Range    *TimeRange `json:"range,omitempty"`
}

// LayoutReplacedPayload is the payload for layout.replaced events.
type LayoutReplacedPayload struct {
	Views   int    `json:"views"`
	Version uint64 `json:"version"`
}

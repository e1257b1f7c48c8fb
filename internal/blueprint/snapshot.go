// Package blueprint holds layout configuration: the views, their default
// visible ranges, and per-entity overrides. Readers work on immutable
// snapshots; writers go through Store, which swaps in a new snapshot on every
// change.
package blueprint

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tOgg1/visrange/internal/models"
	"github.com/tOgg1/visrange/internal/resolve"
)

// Blueprint errors.
var (
	ErrViewNotFound  = errors.New("view not found")
	ErrViewExists    = errors.New("view already exists")
	ErrRangeNotFound = errors.New("no range configured for timeline")
)

// ViewConfig is everything configured for one view.
type ViewConfig struct {
	View      models.View                                     `json:"view" yaml:"view"`
	Defaults  models.VisibleTimeRanges                        `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Overrides map[models.EntityPath]models.VisibleTimeRanges `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

type viewState struct {
	view      models.View
	defaults  models.VisibleTimeRanges
	overrides map[models.EntityPath]models.VisibleTimeRanges
}

func (v *viewState) clone() *viewState {
	overrides := make(map[models.EntityPath]models.VisibleTimeRanges, len(v.overrides))
	for entity, ranges := range v.overrides {
		overrides[entity] = ranges
	}
	return &viewState{view: v.view, defaults: v.defaults, overrides: overrides}
}

// Snapshot is an immutable view of the whole layout. All lookups made during
// one resolution should go through the same snapshot.
type Snapshot struct {
	version uint64
	views   map[string]*viewState
	order   []string
}

// EmptySnapshot returns a snapshot with no views.
func EmptySnapshot() *Snapshot {
	return &Snapshot{views: map[string]*viewState{}}
}

// NewSnapshot builds a snapshot from view configurations, validating each.
func NewSnapshot(configs []ViewConfig) (*Snapshot, error) {
	snap := EmptySnapshot()
	for i, cfg := range configs {
		validation := &models.ValidationErrors{}
		validation.Add("view", cfg.View.Validate())
		validation.Add("defaults", cfg.Defaults.Validate())
		for entity, ranges := range cfg.Overrides {
			field := fmt.Sprintf("overrides[%s]", entity)
			validation.Add(field, entity.Validate())
			validation.Add(field, ranges.Validate())
		}
		if err := validation.Err(); err != nil {
			return nil, fmt.Errorf("views[%d]: %w", i, err)
		}
		if _, exists := snap.views[cfg.View.ID]; exists {
			return nil, fmt.Errorf("views[%d]: %w: %s", i, ErrViewExists, cfg.View.ID)
		}

		state := &viewState{
			view:      cfg.View,
			defaults:  cloneRanges(cfg.Defaults),
			overrides: make(map[models.EntityPath]models.VisibleTimeRanges, len(cfg.Overrides)),
		}
		for entity, ranges := range cfg.Overrides {
			if len(ranges) > 0 {
				state.overrides[entity] = cloneRanges(ranges)
			}
		}
		snap.views[cfg.View.ID] = state
		snap.order = append(snap.order, cfg.View.ID)
	}
	return snap, nil
}

// Version increases by one with every change made through a Store.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// View returns a view by ID.
func (s *Snapshot) View(id string) (models.View, bool) {
	state, ok := s.views[id]
	if !ok {
		return models.View{}, false
	}
	return state.view, true
}

// Views returns all views in insertion order.
func (s *Snapshot) Views() []models.View {
	out := make([]models.View, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.views[id].view)
	}
	return out
}

// ViewDefaults returns the default ranges of a view.
func (s *Snapshot) ViewDefaults(id string) (models.VisibleTimeRanges, error) {
	state, ok := s.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	return cloneRanges(state.defaults), nil
}

// EntityOverrides returns the overrides of one entity in a view. An entity
// without overrides yields an empty set.
func (s *Snapshot) EntityOverrides(id string, entity models.EntityPath) (models.VisibleTimeRanges, error) {
	state, ok := s.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	return cloneRanges(state.overrides[entity]), nil
}

// Entities lists the entities of a view that carry overrides, sorted.
func (s *Snapshot) Entities(id string) []models.EntityPath {
	state, ok := s.views[id]
	if !ok {
		return nil
	}
	out := make([]models.EntityPath, 0, len(state.overrides))
	for entity := range state.overrides {
		out = append(out, entity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Timelines lists every timeline configured anywhere in a view, sorted.
func (s *Snapshot) Timelines(id string) []string {
	state, ok := s.views[id]
	if !ok {
		return nil
	}
	seen := map[string]struct{}{}
	for _, name := range state.defaults.Timelines() {
		seen[name] = struct{}{}
	}
	for _, ranges := range state.overrides {
		for _, name := range ranges.Timelines() {
			seen[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Configs exports the snapshot as view configurations.
func (s *Snapshot) Configs() []ViewConfig {
	out := make([]ViewConfig, 0, len(s.order))
	for _, id := range s.order {
		state := s.views[id]
		cfg := ViewConfig{View: state.view, Defaults: cloneRanges(state.defaults)}
		if len(state.overrides) > 0 {
			cfg.Overrides = make(map[models.EntityPath]models.VisibleTimeRanges, len(state.overrides))
			for entity, ranges := range state.overrides {
				cfg.Overrides[entity] = cloneRanges(ranges)
			}
		}
		out = append(out, cfg)
	}
	return out
}

// QueryMode resolves the query for one entity on one timeline of a view.
func (s *Snapshot) QueryMode(viewID string, entity models.EntityPath, timeline string, cursor models.TimeInt) (resolve.QueryMode, error) {
	state, ok := s.views[viewID]
	if !ok {
		return resolve.QueryMode{}, fmt.Errorf("%w: %s", ErrViewNotFound, viewID)
	}
	return resolve.ResolveQueryMode(state.view.Class, state.defaults, state.overrides[entity], timeline, cursor), nil
}

// TimelineQuery pairs a timeline with its resolved query.
type TimelineQuery struct {
	Timeline string            `json:"timeline"`
	Mode     resolve.QueryMode `json:"mode"`
}

// ResolveEntity resolves several timelines for one entity. Each timeline is
// resolved independently of the others.
func (s *Snapshot) ResolveEntity(viewID string, entity models.EntityPath, timelines []string, cursor models.TimeInt) ([]TimelineQuery, error) {
	out := make([]TimelineQuery, 0, len(timelines))
	for _, timeline := range timelines {
		mode, err := s.QueryMode(viewID, entity, timeline, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, TimelineQuery{Timeline: timeline, Mode: mode})
	}
	return out, nil
}

func (s *Snapshot) overrideCount() int {
	count := 0
	for _, state := range s.views {
		count += len(state.overrides)
	}
	return count
}

// with returns a shallow copy of s sharing every view state. Callers replace
// the states they change.
func (s *Snapshot) with() *Snapshot {
	views := make(map[string]*viewState, len(s.views))
	for id, state := range s.views {
		views[id] = state
	}
	order := make([]string, len(s.order))
	copy(order, s.order)
	return &Snapshot{version: s.version + 1, views: views, order: order}
}

func cloneRanges(ranges models.VisibleTimeRanges) models.VisibleTimeRanges {
	if len(ranges) == 0 {
		return nil
	}
	out := make(models.VisibleTimeRanges, len(ranges))
	copy(out, ranges)
	return out
}
